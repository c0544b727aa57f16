// Package session holds the authenticated user's credential for the duration
// of one client session. The feed core treats it as read-only except for the
// purge on an expired or rejected credential.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is one authenticated user's identity and bearer credential.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// ExpiresAt extracts the expiry timestamp embedded in the bearer token. The
// claim is read without signature verification: the client cannot verify the
// server's signature and only needs the timestamp to avoid doomed round
// trips. Returns false when the token is malformed or carries no expiry.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil || s.Token == "" {
		return time.Time{}, false
	}
	token, _, err := jwt.NewParser().ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Valid reports whether the credential is present, well-formed, and not
// within leeway of its expiry. A token with no expiry claim is treated as
// valid as long as it parses.
func (s *Session) Valid(leeway time.Duration) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, jwt.MapClaims{}); err != nil {
		return false
	}
	exp, ok := s.ExpiresAt()
	if !ok {
		return true
	}
	return time.Now().Before(exp.Add(-leeway))
}

// Store supplies the current session to the connection manager and sync
// client. Implementations must be safe for concurrent use.
type Store interface {
	// Current returns the active session, or false when nobody is logged in.
	Current() (*Session, bool)
	// Clear purges the credential. Called when the server or a local check
	// determines the session has ended.
	Clear()
}

// MemoryStore is the in-process Store used by the daemon and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates a store holding the given session; nil means logged
// out.
func NewMemoryStore(s *Session) *MemoryStore {
	return &MemoryStore{session: s}
}

// Set replaces the active session, as on login.
func (m *MemoryStore) Set(s *Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

// Current implements Store.
func (m *MemoryStore) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.Token == "" {
		return nil, false
	}
	return m.session, true
}

// Clear implements Store.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
}
