package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the authenticated user and bearer token for the lifetime of
// the process. It is created by a successful login, cleared by logout, and
// passed explicitly to every component that issues authenticated calls.
//
// There is no token refresh. Expired lets callers notice a token whose exp
// claim has already passed; expiry is otherwise discovered reactively when a
// call returns an authorization failure.
type Session struct {
	mu    sync.RWMutex
	token string
	user  User
}

// NewSession returns an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// Set installs the login result, replacing any previous identity.
func (s *Session) Set(result LoginResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = result.Token
	s.user = result.User
}

// Clear destroys the session on logout.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = User{}
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user. Only meaningful when Authenticated.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether a bearer token is held. Views must treat an
// unauthenticated session as a redirect to login.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Expired reports whether the held token is a JWT whose exp claim lies
// before now. The client holds no signing secret, so the claim is decoded
// without verification; a token that does not parse as a JWT is treated as
// opaque and never locally expired.
func (s *Session) Expired(now time.Time) bool {
	token := s.Token()
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
