package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// AgentConfig configures the display-agent binary running on the device.
type AgentConfig struct {
	ServerURL        string
	DisplayID        string
	DeviceName       string
	StateDir         string
	ScreenResolution string
	PollInterval     time.Duration
}

func LoadAgent() (*AgentConfig, error) {
	godotenv.Load()

	interval, err := time.ParseDuration(getEnv("DISPLAY_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_POLL_INTERVAL: %w", err)
	}

	cfg := &AgentConfig{
		ServerURL:        getEnv("DISPLAY_SERVER_URL", "http://localhost:8080"),
		DisplayID:        getEnv("DISPLAY_ID", ""),
		DeviceName:       getEnv("DISPLAY_DEVICE_NAME", ""),
		StateDir:         getEnv("DISPLAY_STATE_DIR", ".display-agent"),
		ScreenResolution: getEnv("DISPLAY_SCREEN_RESOLUTION", ""),
		PollInterval:     interval,
	}

	if cfg.DisplayID == "" {
		return nil, fmt.Errorf("DISPLAY_ID is required")
	}

	return cfg, nil
}
