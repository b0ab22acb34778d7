package auth

import (
	"errors"
	"os"
	"path/filepath"
)

// SessionStore holds the access token for the duration of one session.
// Implementations must never write the token to durable configuration;
// the token is ephemeral by design.
type SessionStore interface {
	// Load returns the stored token, or false if none is stored.
	Load() (string, bool)
	// Save stores the token.
	Save(token string) error
	// Clear removes the stored token.
	Clear() error
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	token string
}

func (m *MemoryStore) Load() (string, bool) { return m.token, m.token != "" }
func (m *MemoryStore) Save(token string) error {
	m.token = token
	return nil
}
func (m *MemoryStore) Clear() error {
	m.token = ""
	return nil
}

// FileSessionStore persists the token to a file under the system temp
// directory. The temp dir is the closest CLI analog of browser session
// storage: it survives a process restart within the same login session
// but is not durable configuration.
type FileSessionStore struct {
	path string
}

// NewFileSessionStore creates a session store at path. An empty path
// uses a default location under os.TempDir().
func NewFileSessionStore(path string) *FileSessionStore {
	if path == "" {
		path = filepath.Join(os.TempDir(), "clipshelf-session")
	}
	return &FileSessionStore{path: path}
}

// Load returns the stored token if the session file exists.
func (f *FileSessionStore) Load() (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// Save writes the token with owner-only permissions.
func (f *FileSessionStore) Save(token string) error {
	return os.WriteFile(f.path, []byte(token), 0600)
}

// Clear deletes the session file.
func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
