package domain

import "time"

// Device pairing states. A device moves pending -> authorized|rejected;
// only an explicit admin decision changes a decided status.
const (
	StatusUnregistered = "unregistered"
	StatusPending      = "pending"
	StatusAuthorized   = "authorized"
	StatusRejected     = "rejected"
)

type DeviceRecord struct {
	DeviceID         string    `json:"device_id"`
	DisplayID        string    `json:"display_id"`
	DeviceName       string    `json:"device_name,omitempty"`
	Status           string    `json:"status"`
	UserAgent        string    `json:"user_agent,omitempty"`
	ScreenResolution string    `json:"screen_resolution,omitempty"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
}

type ProbeRequest struct {
	DeviceID         string `json:"deviceId" validate:"required"`
	DisplayID        string `json:"displayId" validate:"required"`
	UserAgent        string `json:"userAgent"`
	ScreenResolution string `json:"screenResolution"`
}

type ProbeResponse struct {
	Authorized        bool   `json:"authorized"`
	NeedsRegistration bool   `json:"needsRegistration"`
	Status            string `json:"status"`
	DeviceName        string `json:"deviceName,omitempty"`
}

type RegisterDeviceRequest struct {
	DeviceID         string `json:"deviceId" validate:"required"`
	DisplayID        string `json:"displayId" validate:"required"`
	DeviceName       string `json:"deviceName" validate:"required,min=1,max=100"`
	UserAgent        string `json:"userAgent"`
	ScreenResolution string `json:"screenResolution"`
}

type RegisterDeviceResponse struct {
	Status string `json:"status"`
}

type DecideDeviceRequest struct {
	DeviceID  string `json:"deviceId" validate:"required"`
	DisplayID string `json:"displayId" validate:"required"`
	Outcome   string `json:"outcome" validate:"required,oneof=authorized rejected"`
}
