package service

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/repository"
)

type mockPreviewTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.PreviewToken
}

func newMockPreviewTokenRepo() *mockPreviewTokenRepo {
	return &mockPreviewTokenRepo{tokens: make(map[string]*domain.PreviewToken)}
}

func (m *mockPreviewTokenRepo) Create(token *domain.PreviewToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *token
	m.tokens[token.ID] = &clone
	return nil
}

func (m *mockPreviewTokenRepo) FindByHash(tokenHash string) (*domain.PreviewToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.TokenHash == tokenHash && !token.IsRevoked {
			clone := *token
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockPreviewTokenRepo) Revoke(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	token.IsRevoked = true
	token.RevokedAt = &now
	return nil
}

func (m *mockPreviewTokenRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *mockPreviewTokenRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func TestPreviewTokenService_IssueAndRedeem(t *testing.T) {
	repo := newMockPreviewTokenRepo()
	svc := NewPreviewTokenService(repo, 15*time.Minute)

	issued, err := svc.Issue("disp1", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(issued.Token, "prev_") {
		t.Errorf("expected prev_ prefix, got %q", issued.Token)
	}
	if issued.DisplayID != "disp1" {
		t.Errorf("expected display disp1, got %s", issued.DisplayID)
	}

	// The plain token is never persisted, only its hash.
	stored := repo.tokens[issued.ID]
	if stored == nil {
		t.Fatal("expected token record to be stored")
	}
	if stored.TokenHash == issued.Token {
		t.Error("plain token must not be stored")
	}
	if stored.TokenPrefix != issued.Token[:13] {
		t.Errorf("expected stored prefix %q, got %q", issued.Token[:13], stored.TokenPrefix)
	}

	redeemed, err := svc.Redeem(issued.Token)
	if err != nil {
		t.Fatalf("expected redeem to succeed, got %v", err)
	}
	if redeemed.DisplayID != "disp1" {
		t.Errorf("expected display disp1, got %s", redeemed.DisplayID)
	}
}

func TestPreviewTokenService_RedeemUnknownToken(t *testing.T) {
	repo := newMockPreviewTokenRepo()
	svc := NewPreviewTokenService(repo, 15*time.Minute)

	if _, err := svc.Redeem("prev_nope"); !errors.Is(err, ErrInvalidPreviewToken) {
		t.Errorf("expected ErrInvalidPreviewToken, got %v", err)
	}
}

func TestPreviewTokenService_RedeemExpiredToken(t *testing.T) {
	repo := newMockPreviewTokenRepo()
	svc := NewPreviewTokenService(repo, 15*time.Minute)

	issued, err := svc.Issue("disp1", time.Nanosecond)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := svc.Redeem(issued.Token); !errors.Is(err, ErrInvalidPreviewToken) {
		t.Errorf("expected ErrInvalidPreviewToken for expired token, got %v", err)
	}
	// Expired tokens are purged on read.
	if repo.count() != 0 {
		t.Error("expected expired token record to be removed")
	}
}

func TestPreviewTokenService_RevokedTokenStopsWorking(t *testing.T) {
	repo := newMockPreviewTokenRepo()
	svc := NewPreviewTokenService(repo, 15*time.Minute)

	issued, err := svc.Issue("disp1", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if err := svc.Revoke(issued.ID); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	if _, err := svc.Redeem(issued.Token); !errors.Is(err, ErrInvalidPreviewToken) {
		t.Errorf("expected ErrInvalidPreviewToken after revocation, got %v", err)
	}

	if err := svc.Revoke("no-such-id"); !errors.Is(err, ErrInvalidPreviewToken) {
		t.Errorf("expected ErrInvalidPreviewToken for unknown id, got %v", err)
	}
}
