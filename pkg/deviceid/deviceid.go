package deviceid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const identityFile = "device_id"

// Store keeps the device's durable identity: exactly one key in one file
// under the state directory. The identifier never changes until an
// operator explicitly resets it.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, identityFile)
}

// Ensure returns the stored identity, minting and persisting one first if
// none exists. The identifier carries a wall-clock component plus a v4
// UUID, so independently booted devices cannot realistically collide.
func (s *Store) Ensure() (string, error) {
	data, err := os.ReadFile(s.path())
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read device identity: %w", err)
	}

	id := fmt.Sprintf("disp-%d-%s", time.Now().UnixMilli(), uuid.NewString())

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.path(), []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist device identity: %w", err)
	}

	return id, nil
}

// Reset clears the identity so the next Ensure mints a new one. Used only
// for an explicit "unpair this device" operator action.
func (s *Store) Reset() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset device identity: %w", err)
	}
	return nil
}
