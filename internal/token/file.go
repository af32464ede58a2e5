package token

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// flushInterval bounds how often the background flusher may hit the disk,
// no matter how bursty token touches are.
const flushInterval = 2 * time.Second

type persistedToken struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// FileStore is the durable Store adapter. It keeps the full token set in
// memory and coalesces writes: every mutation marks the store dirty and pokes
// a background flusher whose disk writes are rate-limited.
type FileStore struct {
	*MemoryStore

	path    string
	dirty   atomic.Bool
	poke    chan struct{}
	limiter *rate.Limiter
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFileStore loads (or creates) the token file at path and starts the
// background flusher.
func NewFileStore(path string) (*FileStore, error) {
	return newFileStore(path, DefaultExpiry)
}

func newFileStore(path string, expiry time.Duration) (*FileStore, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &FileStore{
		MemoryStore: NewMemoryStoreExpiry(expiry),
		path:        path,
		poke:        make(chan struct{}, 1),
		limiter:     rate.NewLimiter(rate.Every(flushInterval), 1),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.MemoryStore.onDirty = s.markDirty

	if err := s.load(); err != nil {
		cancel()
		return nil, err
	}

	go s.flushLoop(ctx)
	return s, nil
}

// Close flushes any pending mutations and stops the flusher.
func (s *FileStore) Close() error {
	s.cancel()
	<-s.done
	if s.dirty.Swap(false) {
		return s.flush()
	}
	return nil
}

func (s *FileStore) markDirty() {
	s.dirty.Store(true)
	select {
	case s.poke <- struct{}{}:
	default:
	}
}

func (s *FileStore) flushLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.poke:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			if s.dirty.Swap(false) {
				if err := s.flush(); err != nil {
					log.Printf("Token: flush failed: %v", err)
					s.dirty.Store(true)
				}
			}
		}
	}
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var persisted []persistedToken
	if err := json.Unmarshal(data, &persisted); err != nil {
		return err
	}

	s.mu.Lock()
	for _, p := range persisted {
		s.tokens[p.Value] = &record{createdAt: p.CreatedAt, lastUsed: p.LastUsed}
	}
	s.purgeLocked()
	s.mu.Unlock()
	return nil
}

func (s *FileStore) flush() error {
	s.mu.Lock()
	s.purgeLocked()
	persisted := make([]persistedToken, 0, len(s.tokens))
	for value, rec := range s.tokens {
		persisted = append(persisted, persistedToken{
			Value:     value,
			CreatedAt: rec.createdAt,
			LastUsed:  rec.lastUsed,
		})
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
