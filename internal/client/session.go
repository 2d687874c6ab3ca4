// Package client is a Go consumer of the marketplace API: an explicit session,
// a typed HTTP client and a process-local projection of the resources a
// storefront displays.
package client

import "sync"

// Session holds the caller's credentials. It is created once and handed to
// the HTTP client instead of living in ambient globals.
type Session struct {
	mu       sync.RWMutex
	baseURL  string
	token    string
	userID   uint
	teardown []func()
}

// NewSession creates an anonymous session against baseURL
func NewSession(baseURL string) *Session {
	return &Session{baseURL: baseURL}
}

// BaseURL is the API root, e.g. "http://localhost:8080"
func (s *Session) BaseURL() string {
	return s.baseURL
}

// SignIn stores the token issued for userID
func (s *Session) SignIn(token string, userID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID = token, userID
}

// Token returns the bearer token, empty when signed out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the signed-in user, zero when signed out
func (s *Session) UserID() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Authenticated reports whether a token is present
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// OnLogout registers fn to run when the session ends
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown = append(s.teardown, fn)
}

// Logout clears the credentials and runs the registered teardown hooks
func (s *Session) Logout() {
	s.mu.Lock()
	s.token, s.userID = "", 0
	hooks := append([]func(){}, s.teardown...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
