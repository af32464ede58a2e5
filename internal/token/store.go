// Package token manages the bearer tokens that authorize remote connections.
// Tokens are opaque values; a token stays valid as long as it keeps being
// used and expires after a fixed idle window.
package token

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiry is how long an unused token stays valid.
const DefaultExpiry = 10 * 24 * time.Hour

// Store is the token lookup contract consumed by the connection gate.
type Store interface {
	// IsKnown reports whether token is a currently valid bearer token.
	IsKnown(token string) bool

	// Store registers token, refreshing it if already present.
	Store(token string)

	// Touch refreshes the last-used timestamp of a known token.
	Touch(token string)

	// Issue creates, registers and returns a fresh token.
	Issue() string

	// Active returns the most recently used valid token, if any.
	Active() (string, bool)
}

type record struct {
	createdAt time.Time
	lastUsed  time.Time
}

// MemoryStore is the in-memory Store implementation. It also serves as the
// base for the durable FileStore.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]*record
	expiry time.Duration
	now    func() time.Time

	// onDirty, when set, is invoked (with the lock held) after every
	// mutation. FileStore uses it to schedule a flush.
	onDirty func()
}

// NewMemoryStore creates an empty store with the default idle expiry.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreExpiry(DefaultExpiry)
}

// NewMemoryStoreExpiry creates an empty store with a custom idle expiry.
func NewMemoryStoreExpiry(expiry time.Duration) *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]*record),
		expiry: expiry,
		now:    time.Now,
	}
}

// IsKnown reports whether token is valid, purging it if expired.
func (s *MemoryStore) IsKnown(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.now().Sub(rec.lastUsed) > s.expiry {
		delete(s.tokens, token)
		s.dirtyLocked()
		return false
	}
	return true
}

// Store registers token or refreshes its last-used timestamp.
func (s *MemoryStore) Store(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.tokens[token]; ok {
		rec.lastUsed = now
	} else {
		s.tokens[token] = &record{createdAt: now, lastUsed: now}
	}
	s.dirtyLocked()
}

// Touch refreshes the last-used timestamp of a known token.
func (s *MemoryStore) Touch(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tokens[token]; ok {
		rec.lastUsed = s.now()
		s.dirtyLocked()
	}
}

// Issue creates, registers and returns a fresh token.
func (s *MemoryStore) Issue() string {
	token := uuid.NewString()
	s.Store(token)
	return token
}

// Active returns the most recently used valid token.
func (s *MemoryStore) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var best string
	var bestAt time.Time
	for token, rec := range s.tokens {
		if now.Sub(rec.lastUsed) > s.expiry {
			continue
		}
		if best == "" || rec.lastUsed.After(bestAt) {
			best = token
			bestAt = rec.lastUsed
		}
	}
	return best, best != ""
}

// purgeLocked drops all expired tokens. Caller holds the lock.
func (s *MemoryStore) purgeLocked() {
	now := s.now()
	for token, rec := range s.tokens {
		if now.Sub(rec.lastUsed) > s.expiry {
			delete(s.tokens, token)
		}
	}
}

func (s *MemoryStore) dirtyLocked() {
	if s.onDirty != nil {
		s.onDirty()
	}
}
