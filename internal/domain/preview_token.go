package domain

import "time"

// PreviewToken grants short-lived access to a display preview. Only the
// SHA256 of the token is stored; expiry is a first-class field checked on
// every read, never an in-process assumption.
type PreviewToken struct {
	ID          string     `json:"id"`
	DisplayID   string     `json:"display_id"`
	TokenHash   string     `json:"token_hash"`
	TokenPrefix string     `json:"token_prefix"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	IsRevoked   bool       `json:"is_revoked"`
}

type IssuePreviewTokenRequest struct {
	TTLSeconds int `json:"ttlSeconds" validate:"omitempty,min=1,max=86400"`
}

type IssuePreviewTokenResponse struct {
	ID        string    `json:"id"`
	DisplayID string    `json:"displayId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Message   string    `json:"message"`
}

type RedeemPreviewTokenResponse struct {
	DisplayID string `json:"displayId"`
}
