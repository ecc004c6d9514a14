package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PreviewTokenService struct {
	repo       repository.PreviewTokenRepository
	defaultTTL time.Duration
}

func NewPreviewTokenService(repo repository.PreviewTokenRepository, defaultTTL time.Duration) *PreviewTokenService {
	return &PreviewTokenService{
		repo:       repo,
		defaultTTL: defaultTTL,
	}
}

// generatePreviewToken creates a cryptographically secure random token.
// Format: prev_<random 64 hex chars>
func generatePreviewToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return "prev_" + hex.EncodeToString(bytes), nil
}

// hashToken creates a SHA256 hash of the token for storage
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Issue mints a preview token for a display. The plain token is returned
// exactly once; only its hash is stored.
func (s *PreviewTokenService) Issue(displayID string, ttl time.Duration) (*domain.IssuePreviewTokenResponse, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	plainToken, err := generatePreviewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	token := &domain.PreviewToken{
		ID:          uuid.New().String(),
		DisplayID:   displayID,
		TokenHash:   hashToken(plainToken),
		TokenPrefix: plainToken[:13], // "prev_" + first 8 hex chars
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	if err := s.repo.Create(token); err != nil {
		return nil, fmt.Errorf("failed to create preview token: %w", err)
	}

	return &domain.IssuePreviewTokenResponse{
		ID:        token.ID,
		DisplayID: displayID,
		Token:     plainToken,
		ExpiresAt: token.ExpiresAt,
		Message:   "Token created successfully. It won't be shown again.",
	}, nil
}

// Redeem validates a token and returns the display it previews. Expiry is
// checked on every read; an expired token behaves exactly like an unknown
// one and its record is purged best-effort.
func (s *PreviewTokenService) Redeem(plainToken string) (*domain.RedeemPreviewTokenResponse, error) {
	token, err := s.repo.FindByHash(hashToken(plainToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidPreviewToken
		}
		return nil, fmt.Errorf("failed to look up preview token: %w", err)
	}

	if token.IsRevoked {
		return nil, ErrInvalidPreviewToken
	}

	if time.Now().After(token.ExpiresAt) {
		if err := s.repo.Delete(token.ID); err != nil {
			logrus.Warnf("failed to purge expired preview token %s: %v", token.ID, err)
		}
		return nil, ErrInvalidPreviewToken
	}

	return &domain.RedeemPreviewTokenResponse{DisplayID: token.DisplayID}, nil
}

func (s *PreviewTokenService) Revoke(id string) error {
	if err := s.repo.Revoke(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidPreviewToken
		}
		return fmt.Errorf("failed to revoke preview token: %w", err)
	}
	return nil
}
