// Package session gates outbound API calls on the presence of a bearer credential.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnauthenticated is returned when no valid credential is available
var ErrUnauthenticated = errors.New("not authenticated")

// Session is the ambient authentication state of the client
type Session interface {
	IsAuthenticated() bool
	Token() string
}

// Credential carries the bearer token for one request
type Credential struct {
	Token string
}

// AuthorizationHeader returns the value for the Authorization header
func (c Credential) AuthorizationHeader() string {
	return "Bearer " + c.Token
}

// RequireAuth returns the current credential or ErrUnauthenticated.
// It never performs I/O beyond what the session itself does.
func RequireAuth(s Session) (Credential, error) {
	if s == nil || !s.IsAuthenticated() {
		return Credential{}, ErrUnauthenticated
	}
	token := s.Token()
	if token == "" {
		return Credential{}, ErrUnauthenticated
	}
	return Credential{Token: token}, nil
}

// Static is a session with a fixed token
type Static struct {
	token string
}

// NewStatic creates a session from a token string
func NewStatic(token string) *Static {
	return &Static{token: strings.TrimSpace(token)}
}

func (s *Static) IsAuthenticated() bool { return s.token != "" }
func (s *Static) Token() string         { return s.token }

// Anonymous is never authenticated
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool { return false }
func (Anonymous) Token() string         { return "" }

// FileSession reads the token from a file on every check so that
// `pdfsum login` in another terminal takes effect without a restart.
type FileSession struct {
	path string
	mu   sync.Mutex
}

// NewFileSession creates a session backed by the token file at path
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Path returns the token file location
func (s *FileSession) Path() string {
	return s.path
}

func (s *FileSession) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *FileSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return ""
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Store writes a token to the file, creating the parent directory
func (s *FileSession) Store(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
