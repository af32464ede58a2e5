package session

// RelayBus forwards opaque binary frames from a provider connection to every
// consumer connection. It is the fallback mirroring path for hosts that
// cannot capture natively: a browser-side provider captures its own screen
// and the host merely relays.
type RelayBus struct {
	registry *Registry
}

// NewRelayBus creates a relay bus over the connection registry.
func NewRelayBus(r *Registry) *RelayBus {
	return &RelayBus{registry: r}
}

// Broadcast forwards one frame verbatim to every open consumer except the
// sender. There is no cross-frame buffering: a slow consumer whose queue is
// full misses the frame and catches up on the next one.
func (b *RelayBus) Broadcast(from *Conn, frame []byte) {
	if !from.IsProvider() {
		return
	}
	for _, c := range b.registry.Snapshot() {
		if c == from || c.Closed() || !c.IsConsumer() {
			continue
		}
		c.SendBinary(frame)
	}
}
