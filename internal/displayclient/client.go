package displayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"masjid-display-server/internal/domain"
)

// Client speaks the device pairing protocol: two JSON POSTs, polled, no
// server push.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type probeReply struct {
	Success bool `json:"success"`
	domain.ProbeResponse
}

type registerReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) Probe(ctx context.Context, req *domain.ProbeRequest) (*domain.ProbeResponse, error) {
	var reply probeReply
	if err := c.post(ctx, "/device/auth", req, &reply); err != nil {
		return nil, err
	}
	if !reply.Success {
		return nil, fmt.Errorf("probe rejected by server")
	}
	return &reply.ProbeResponse, nil
}

func (c *Client) Register(ctx context.Context, req *domain.RegisterDeviceRequest) error {
	var reply registerReply
	if err := c.post(ctx, "/device/register", req, &reply); err != nil {
		return err
	}
	if !reply.Success {
		return fmt.Errorf("registration rejected: %s", reply.Error)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("server error on %s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
