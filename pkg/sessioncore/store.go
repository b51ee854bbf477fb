package sessioncore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PersistedSession is the durable tenant session record. Only tenant
// sessions are persisted here; admin sessions live with the backend client.
type PersistedSession struct {
	Type               string `json:"type"`
	UserID             string `json:"user_id"`
	Username           string `json:"username"`
	Email              string `json:"email,omitempty"`
	CartorioID         string `json:"cartorio_id"`
	CartorioNome       string `json:"cartorio_nome"`
	SignedSessionToken string `json:"signed_session_token"`
	RefreshToken       string `json:"refresh_token,omitempty"`
}

const sessionRecordType = "tenant"

// Valid reports whether the record carries everything a usable tenant
// session needs. Partial or foreign records are treated as absent.
func (p *PersistedSession) Valid() bool {
	return p != nil &&
		p.Type == sessionRecordType &&
		p.Username != "" &&
		p.CartorioID != "" &&
		p.SignedSessionToken != ""
}

// SessionStore persists the tenant session record between runs.
type SessionStore interface {
	// Load returns the stored record, or nil when none exists. A corrupt
	// or unreadable record is reported as nil so callers degrade to
	// anonymous instead of failing.
	Load() (*PersistedSession, error)
	Save(record *PersistedSession) error
	Clear() error
}

// FileSessionStore keeps the session record as a JSON file. Writes go
// through a temp file plus rename so a crash never leaves a torn record.
type FileSessionStore struct {
	path string
	log  zerolog.Logger
}

func NewFileSessionStore(path string, log zerolog.Logger) *FileSessionStore {
	return &FileSessionStore{path: path, log: log}
}

// DefaultSessionPath is the per-user location embedding applications are
// expected to use, so every frontend on a machine shares one record.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", newAuthError(KindStorageError, "resolving user config directory", err)
	}
	return filepath.Join(dir, "siplan-skills", "session.json"), nil
}

func (s *FileSessionStore) Load() (*PersistedSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, newAuthError(KindStorageError, "reading session record", err)
	}

	var record PersistedSession
	if err := json.Unmarshal(data, &record); err != nil {
		// A torn or hand-edited file must not wedge startup. Drop it.
		s.log.Warn().Err(err).Str("path", s.path).Msg("discarding corrupt session record")
		_ = os.Remove(s.path)
		return nil, nil
	}
	if !record.Valid() {
		return nil, nil
	}
	return &record, nil
}

func (s *FileSessionStore) Save(record *PersistedSession) error {
	data, err := json.Marshal(record)
	if err != nil {
		return newAuthError(KindStorageError, "encoding session record", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return newAuthError(KindStorageError, "creating session directory", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return newAuthError(KindStorageError, "writing session record", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return newAuthError(KindStorageError, "committing session record", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return newAuthError(KindStorageError, "removing session record", err)
	}
	return nil
}
