// Package session owns per-connection state and the two mirroring paths:
// the host-native capture controller and the browser-capture relay bus.
package session

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"deskmote/internal/input"
	"deskmote/internal/protocol"
)

const (
	// Default mirror geometry until a frame or probe corrects it
	defaultFrameWidth   = 640
	defaultFrameHeight  = 360
	defaultScreenWidth  = 1920
	defaultScreenHeight = 1080

	// writeWait is the deadline for a single outbound write
	writeWait = 10 * time.Second

	// pingPeriod spaces transport-level keepalive pings
	pingPeriod = 50 * time.Second

	// sendBuffer is the outbound queue depth; enqueueing past it drops the
	// message instead of blocking the caller
	sendBuffer = 64

	// dedupWindow suppresses identical non-priority control payloads
	dedupWindow = 100 * time.Millisecond
)

// Socket is the transport surface a Conn writes to. *websocket.Conn
// satisfies it; tests substitute an in-memory recorder.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type outMessage struct {
	messageType int
	data        []byte
}

// Conn is the per-connection state record. It is created on admission and
// owns its timers, throttles and in-flight flags exclusively; teardown via
// Close is idempotent and cancels everything it owns.
type Conn struct {
	sock     Socket
	registry *Registry

	// Normalizer fronts the shared input sink for this connection
	Normalizer *input.Normalizer

	send   chan outMessage
	queued atomic.Int64
	done   chan struct{}
	closed sync.Once

	provider atomic.Bool
	consumer atomic.Bool

	captureInFlight atomic.Bool

	mu          sync.Mutex
	frameW      int
	frameH      int
	screenW     int
	screenH     int
	stopCursor  func()

	// De-duplication state, touched only from the connection's read loop.
	lastPayload   []byte
	lastPayloadAt time.Time
}

// SetProvider toggles the relay-provider role.
func (c *Conn) SetProvider(on bool) { c.provider.Store(on) }

// SetConsumer toggles the mirror-consumer role.
func (c *Conn) SetConsumer(on bool) { c.consumer.Store(on) }

// IsProvider reports the relay-provider role.
func (c *Conn) IsProvider() bool { return c.provider.Load() }

// IsConsumer reports the mirror-consumer role.
func (c *Conn) IsConsumer() bool { return c.consumer.Load() }

// Closed reports whether teardown has run.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// QueuedBytes is the number of bytes sitting in the outbound queue. The
// cursor stream uses it as its backpressure signal.
func (c *Conn) QueuedBytes() int64 { return c.queued.Load() }

// Geometry returns frame and logical screen dimensions.
func (c *Conn) Geometry() (frameW, frameH, screenW, screenH int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameW, c.frameH, c.screenW, c.screenH
}

func (c *Conn) setFrameGeometry(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameW, c.frameH = w, h
}

func (c *Conn) setScreenGeometry(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screenW, c.screenH = w, h
}

// setCursorStop installs the cursor-loop cancel handle. Returns false if a
// loop is already running.
func (c *Conn) setCursorStop(stop func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCursor != nil {
		return false
	}
	c.stopCursor = stop
	return true
}

// StopCursor cancels the cursor-emission loop if one is running. Idempotent:
// safe from both an explicit stop and connection teardown.
func (c *Conn) StopCursor() {
	c.mu.Lock()
	stop := c.stopCursor
	c.stopCursor = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// ShouldDrop implements the duplicate-suppression window: an identical
// payload arriving within the window is dropped, unless the type is exempt
// (the high-frequency frame-request message must never be deduplicated).
// Only the connection's read loop may call this.
func (c *Conn) ShouldDrop(payload []byte, exempt bool) bool {
	now := time.Now()
	if !exempt && c.lastPayload != nil &&
		now.Sub(c.lastPayloadAt) < dedupWindow &&
		string(c.lastPayload) == string(payload) {
		return true
	}
	c.lastPayload = append(c.lastPayload[:0], payload...)
	c.lastPayloadAt = now
	return false
}

// SendJSON enqueues a typed control message. Returns false if the message
// was dropped (queue full or connection closed).
func (c *Conn) SendJSON(t protocol.MessageType, payload interface{}) bool {
	data, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("WS: encode %s failed: %v", t, err)
		return false
	}
	return c.enqueue(outMessage{messageType: websocket.TextMessage, data: data})
}

// SendBinary enqueues one raw frame. Delivery is best-effort: a consumer
// whose queue is full simply misses the frame.
func (c *Conn) SendBinary(data []byte) bool {
	return c.enqueue(outMessage{messageType: websocket.BinaryMessage, data: data})
}

func (c *Conn) enqueue(msg outMessage) bool {
	if c.Closed() {
		return false
	}
	select {
	case c.send <- msg:
		c.queued.Add(int64(len(msg.data)))
		return true
	default:
		return false
	}
}

// writePump serializes all writes to the socket and keeps the transport
// alive with pings. It exits on teardown or the first write error.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.queued.Add(-int64(len(msg.data)))
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(msg.messageType, msg.data); err != nil {
				log.Printf("WS: write error: %v", err)
				c.Close()
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// Close tears the connection down: cursor timer, throttle timers and the
// write pump are all cancelled, and the record leaves the registry. Safe to
// call any number of times from any path.
func (c *Conn) Close() {
	c.closed.Do(func() {
		c.StopCursor()
		c.Normalizer.Close()
		close(c.done)
		c.registry.remove(c)
		c.sock.Close()
	})
}
