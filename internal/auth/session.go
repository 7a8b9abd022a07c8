package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/storycreative/ledger/internal/user"
)

// Session is the client-side identity cached across reloads.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

// SaveSession persists the session to path, creating parent directories as
// needed. The file is user-readable only; it carries a live token.
func SaveSession(path string, s Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}

// LoadSession reads the cached session. A missing or undecodable file means
// "not authenticated", never an error: the caller routes to login.
func LoadSession(path string) (Session, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, false
	}

	if s.User.ID == "" {
		return Session{}, false
	}

	return s, true
}

// ClearSession removes the cached session. Clearing an absent session is a
// no-op.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}

	return nil
}
