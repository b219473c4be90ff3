package auth

import (
	"sync"
	"time"
)

// Source holds the current session credential shared by the remote client and
// the realtime channel. An empty token means no credential is available and
// outbound calls requiring authentication must be refused before any network
// activity happens.
type Source struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewSource() *Source {
	return &Source{}
}

// Set replaces the stored credential. A zero expiry means the token carries no
// local expiry and is trusted until cleared.
func (s *Source) Set(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
}

// Clear drops the stored credential.
func (s *Source) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// Token returns the raw bearer credential, or empty when absent or expired.
func (s *Source) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && !time.Now().Before(s.expiresAt) {
		return ""
	}
	return s.token
}

// Valid reports whether a usable credential is held at the given instant.
func (s *Source) Valid(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	if s.expiresAt.IsZero() {
		return true
	}
	return now.Before(s.expiresAt)
}
