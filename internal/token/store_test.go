package token

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	tok := s.Issue()
	require.NotEmpty(t, tok)
	assert.True(t, s.IsKnown(tok))
	assert.False(t, s.IsKnown("never-issued"))
}

func TestEmptyTokenNeverStored(t *testing.T) {
	s := NewMemoryStore()
	s.Store("")
	assert.False(t, s.IsKnown(""))
}

func TestExpiryPurgesOnLookup(t *testing.T) {
	s := NewMemoryStoreExpiry(25 * time.Millisecond)

	tok := s.Issue()
	require.True(t, s.IsKnown(tok))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, s.IsKnown(tok), "idle token must expire")

	// Expired entries are gone, not just hidden: re-storing works fresh.
	s.Store(tok)
	assert.True(t, s.IsKnown(tok))
}

func TestTouchExtendsLifetime(t *testing.T) {
	s := NewMemoryStoreExpiry(60 * time.Millisecond)

	tok := s.Issue()
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		s.Touch(tok)
	}
	assert.True(t, s.IsKnown(tok), "touched token must stay valid past the idle window")
}

func TestActiveReturnsMostRecentlyUsed(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Active()
	require.False(t, ok)

	first := s.Issue()
	time.Sleep(5 * time.Millisecond)
	second := s.Issue()

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, second, active)

	time.Sleep(5 * time.Millisecond)
	s.Touch(first)
	active, _ = s.Active()
	assert.Equal(t, first, active)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	tok := s.Issue()
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.IsKnown(tok))
}

func TestFileStoreDropsExpiredOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	s, err := newFileStore(path, 25*time.Millisecond)
	require.NoError(t, err)
	tok := s.Issue()
	require.NoError(t, s.Close())

	time.Sleep(50 * time.Millisecond)

	reopened, err := newFileStore(path, 25*time.Millisecond)
	require.NoError(t, err)
	defer reopened.Close()
	assert.False(t, reopened.IsKnown(tok))
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Active()
	assert.False(t, ok)
}
