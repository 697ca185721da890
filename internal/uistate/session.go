package uistate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// User is the logged-in account as returned by the login endpoint
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the interactive login state persisted between cli invocations.
// The auth cookies are HttpOnly on the backend so the session stores them opaquely and
// only ever hands them back to the cookie jar.
type Session struct {
	Origin  string        `json:"origin"`
	User    *User         `json:"user,omitempty"`
	Cookies []savedCookie `json:"cookies,omitempty"`
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.User != nil
}

// Restore loads the saved cookies into jar for the session origin
func (s *Session) Restore(jar http.CookieJar) error {
	if s.Origin == "" || len(s.Cookies) == 0 {
		return nil
	}
	u, err := url.Parse(s.Origin)
	if err != nil {
		return fmt.Errorf("invalid session origin %q: %w", s.Origin, err)
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(u, cookies)
	return nil
}

// Capture copies the cookies held by jar for the session origin into the session
func (s *Session) Capture(jar http.CookieJar) error {
	u, err := url.Parse(s.Origin)
	if err != nil {
		return fmt.Errorf("invalid session origin %q: %w", s.Origin, err)
	}

	s.Cookies = s.Cookies[:0]
	for _, c := range jar.Cookies(u) {
		s.Cookies = append(s.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}
	return nil
}

// SessionStore persists a Session as a JSON file readable only by the current user
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// DefaultSessionPath returns <user config dir>/portalctl/session.json
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not locate user config directory: %w", err)
	}
	return filepath.Join(dir, "portalctl", "session.json"), nil
}

func (s *SessionStore) Path() string {
	return s.path
}

// Load returns the stored session for origin. A missing file or a session saved for a different origin yields an empty session.
func (s *SessionStore) Load(origin string) (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Session{Origin: origin}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session file %s: %w", s.path, err)
	}
	if session.Origin != origin {
		return &Session{Origin: origin}, nil
	}
	return &session, nil
}

func (s *SessionStore) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
