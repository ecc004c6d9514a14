package deviceid

import (
	"strings"
	"testing"
)

func TestEnsureIsStable(t *testing.T) {
	store := NewStore(t.TempDir())

	first, err := store.Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(first, "disp-") {
		t.Errorf("expected disp- prefix, got %q", first)
	}

	second, err := store.Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second != first {
		t.Errorf("identity changed between calls: %q vs %q", first, second)
	}
}

func TestEnsureSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir).Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// A fresh store over the same directory models a process restart.
	second, err := NewStore(dir).Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second != first {
		t.Errorf("identity lost across restart: %q vs %q", first, second)
	}
}

func TestResetMintsNewIdentity(t *testing.T) {
	store := NewStore(t.TempDir())

	first, err := store.Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	second, err := store.Ensure()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second == first {
		t.Error("expected a new identity after reset")
	}
}

func TestResetWithoutIdentity(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Reset(); err != nil {
		t.Errorf("reset of a fresh store must be a no-op, got %v", err)
	}
}
