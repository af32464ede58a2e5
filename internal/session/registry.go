package session

import (
	"log"
	"sync"

	"deskmote/internal/input"
)

// Registry tracks all live connections. It hands each new connection its own
// state record and is the set the relay bus fans frames out over.
type Registry struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
	sink  input.Sink
}

// NewRegistry creates a registry whose connections share one input sink.
func NewRegistry(sink input.Sink) *Registry {
	return &Registry{
		conns: make(map[*Conn]struct{}),
		sink:  sink,
	}
}

// Create builds a fresh connection record with default mirror geometry,
// registers it and starts its write pump.
func (r *Registry) Create(sock Socket) *Conn {
	c := &Conn{
		sock:       sock,
		registry:   r,
		Normalizer: input.NewNormalizer(r.sink),
		send:       make(chan outMessage, sendBuffer),
		done:       make(chan struct{}),
		frameW:     defaultFrameWidth,
		frameH:     defaultFrameHeight,
		screenW:    defaultScreenWidth,
		screenH:    defaultScreenHeight,
	}

	r.mu.Lock()
	r.conns[c] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()
	log.Printf("Session: connection registered, %d active", total)

	go c.writePump()
	return c
}

func (r *Registry) remove(c *Conn) {
	r.mu.Lock()
	delete(r.conns, c)
	total := len(r.conns)
	r.mu.Unlock()
	log.Printf("Session: connection removed, %d active", total)
}

// Snapshot returns the current connection set.
func (r *Registry) Snapshot() []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]*Conn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
