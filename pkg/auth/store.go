package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// SessionStore persists the current session.
type SessionStore interface {
	// Get returns the stored session, or nil if there is none.
	Get() (*Session, error)

	// Set replaces the stored session.
	Set(session *Session) error

	// Clear removes the stored session. Clearing an empty store is not an
	// error.
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) Set(session *Session) error {
	if session == nil {
		return m.Clear()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	return nil
}

// persistedSession is the on-disk form of a session. The access token is not
// written and the expiry is re-derived from the ID token on load.
type persistedSession struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IDToken  string `json:"idToken"`
}

// FileStore keeps the session in a JSON file readable only by the owner.
type FileStore struct {
	fs   afero.Fs
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path on fs. A nil fs uses the OS
// filesystem.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs, path: path, now: time.Now}
}

// Path returns the session file location.
func (f *FileStore) Path() string {
	return f.path
}

// Get loads the session. An expired or unreadable token is removed and
// reported as no session.
func (f *FileStore) Get() (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := afero.ReadFile(f.fs, f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session file: %w", err)
	}

	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil || p.IDToken == "" {
		return nil, f.remove()
	}

	expiry, err := ExpiryFromIDToken(p.IDToken)
	if err != nil || !f.now().Before(expiry) {
		return nil, f.remove()
	}

	return &Session{
		Username: p.Username,
		Email:    p.Email,
		IDToken:  p.IDToken,
		Expiry:   expiry,
	}, nil
}

func (f *FileStore) Set(session *Session) error {
	if session == nil {
		return f.Clear()
	}

	data, err := json.MarshalIndent(persistedSession{
		Username: session.Username,
		Email:    session.Email,
		IDToken:  session.IDToken,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("error creating session directory: %w", err)
	}
	if err := afero.WriteFile(f.fs, f.path, data, 0o600); err != nil {
		return fmt.Errorf("error writing session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.remove()
}

func (f *FileStore) remove() error {
	if err := f.fs.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing session file: %w", err)
	}
	return nil
}
