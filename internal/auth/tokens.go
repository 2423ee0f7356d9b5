package auth

import (
	"sync"
	"time"
)

// TokenSet is the credential pair returned by the token endpoint.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExpiresAt returns the absolute expiry of the access token, measured from now.
func (t TokenSet) ExpiresAt() time.Time {
	return time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
}

// TokenStore holds the current credential pair for one signed-in principal.
//
// Stores are injected into every call site that performs authenticated
// requests; there is no ambient singleton. Mutation happens only through the
// token exchange operations and explicit logout.
type TokenStore interface {
	Access() string  // Access returns the current access token, or "" if signed out
	Refresh() string // Refresh returns the current refresh token, or "" if none is held
	Set(ts TokenSet) // Set replaces the pair; an empty refresh token keeps the held one
	Clear()          // Clear nulls all credential state
}

// MemoryStore is an in-process TokenStore, safe for concurrent use.
//
// The web surface builds one per request from the decoded session cookie; the
// CLI and TUI share one seeded from the accounts table.
type MemoryStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore seeded with the given pair.
func NewMemoryStore(access, refresh string) *MemoryStore {
	return &MemoryStore{access: access, refresh: refresh}
}

func (s *MemoryStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *MemoryStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *MemoryStore) Set(ts TokenSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ts.AccessToken
	if ts.RefreshToken != "" {
		s.refresh = ts.RefreshToken
	}
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
}
