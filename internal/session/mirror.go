package session

import (
	"errors"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"deskmote/internal/capture"
	"deskmote/internal/config"
	"deskmote/internal/protocol"
)

// ErrCaptureTimeout marks a frame grab that missed its deadline.
var ErrCaptureTimeout = errors.New("screen capture timed out")

const (
	// captureTimeout bounds a single frame grab
	captureTimeout = 2500 * time.Millisecond

	// probeTimeout bounds the screen-dimension probe at mirror start; on
	// expiry the session keeps its prior geometry and proceeds
	probeTimeout = time.Second

	// cursorInterval paces cursor-position emission (~30 Hz)
	cursorInterval = 33 * time.Millisecond

	// bufferThreshold is the queued-bytes level above which a cursor tick
	// skips emission instead of piling onto a congested connection
	bufferThreshold = 1 << 20
)

// Mirror drives the host-native capture path: on-demand frame grabs and the
// per-connection cursor position stream.
type Mirror struct {
	capt capture.Capturer
	cfg  *config.Manager

	// Overridable deadlines and cadence
	CaptureTimeout  time.Duration
	ProbeTimeout    time.Duration
	CursorInterval  time.Duration
	BufferThreshold int64

	activeMu    sync.Mutex
	activeCount int
	onActivity  func(active bool)
}

// NewMirror creates the mirror controller for a capture capability.
func NewMirror(capt capture.Capturer, cfg *config.Manager) *Mirror {
	return &Mirror{
		capt:            capt,
		cfg:             cfg,
		CaptureTimeout:  captureTimeout,
		ProbeTimeout:    probeTimeout,
		CursorInterval:  cursorInterval,
		BufferThreshold: bufferThreshold,
	}
}

// SetActivityHook registers a callback fired when mirroring starts on the
// first connection and stops on the last (used to hold the display awake).
func (m *Mirror) SetActivityHook(fn func(active bool)) {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	m.onActivity = fn
}

func (m *Mirror) incActive() {
	m.activeMu.Lock()
	m.activeCount++
	fire := m.activeCount == 1
	fn := m.onActivity
	m.activeMu.Unlock()
	if fire && fn != nil {
		fn(true)
	}
}

func (m *Mirror) decActive() {
	m.activeMu.Lock()
	if m.activeCount > 0 {
		m.activeCount--
	}
	fire := m.activeCount == 0
	fn := m.onActivity
	m.activeMu.Unlock()
	if fire && fn != nil {
		fn(false)
	}
}

// Start begins a mirror session on c: probes the logical screen size with a
// bounded timeout (keeping defaults on expiry) and starts the cursor
// emission loop. Starting an already-mirroring connection is a no-op.
func (m *Mirror) Start(c *Conn) {
	stopCh := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(stopCh)
			m.decActive()
		})
	}
	if !c.setCursorStop(stop) {
		return
	}
	m.incActive()
	c.SetConsumer(true)

	m.probeScreenSize(c)
	go m.cursorLoop(c, stopCh)
}

// Stop ends the mirror session on c. Idempotent.
func (m *Mirror) Stop(c *Conn) {
	c.SetConsumer(false)
	c.StopCursor()
}

// probeScreenSize asks the capture capability for logical dimensions, giving
// up after the probe timeout so a wedged compositor cannot stall admission.
func (m *Mirror) probeScreenSize(c *Conn) {
	type size struct{ w, h int }
	ch := make(chan size, 1)
	go func() {
		w, h, err := m.capt.LogicalSize()
		if err != nil {
			log.Printf("Mirror: screen size probe failed: %v", err)
			return
		}
		ch <- size{w, h}
	}()

	select {
	case s := <-ch:
		if s.w > 0 && s.h > 0 {
			c.setScreenGeometry(s.w, s.h)
		}
	case <-time.After(m.ProbeTimeout):
		log.Printf("Mirror: screen size probe timed out, keeping prior geometry")
	}
}

// cursorLoop emits the pointer position in frame-pixel space at a fixed
// cadence. Congested connections get skipped ticks, not queued samples, and
// sampling errors are swallowed: cursor telemetry is best-effort.
func (m *Mirror) cursorLoop(c *Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(m.CursorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.QueuedBytes() > m.BufferThreshold {
				continue
			}
			x, y, err := m.capt.PointerPosition()
			if err != nil {
				continue
			}
			frameW, frameH, screenW, screenH := c.Geometry()
			if screenW <= 0 || screenH <= 0 {
				continue
			}
			c.SendJSON(protocol.TypeCursorPos, protocol.CursorPosPayload{
				X: scaleCoord(x, screenW, frameW),
				Y: scaleCoord(y, screenH, frameH),
			})
		}
	}
}

// scaleCoord converts an absolute screen coordinate into frame-pixel space.
func scaleCoord(abs, logical, frame int) int {
	return int(math.Round(float64(abs) / float64(logical) * float64(frame)))
}

// RequestFrame serves one pull-based frame grab. At most one capture is in
// flight per connection; requests arriving while one is outstanding are
// dropped without a second capture attempt or error, and the client is
// expected to re-request after the frame (or error) lands.
func (m *Mirror) RequestFrame(c *Conn) {
	if !c.captureInFlight.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer c.captureInFlight.Store(false)

		if err := m.capt.CheckSupport(); err != nil {
			m.sendError(c, err)
			return
		}

		type result struct {
			img *image.RGBA
			err error
		}
		ch := make(chan result, 1)
		go func() {
			img, err := m.capt.GrabFrame()
			ch <- result{img: img, err: err}
		}()

		select {
		case res := <-ch:
			if res.err != nil {
				m.sendError(c, res.err)
				return
			}
			cfg := m.cfg.Get()
			frame, err := capture.EncodeFrame(res.img, cfg.FrameWidth, cfg.Quality)
			if err != nil {
				m.sendError(c, err)
				return
			}
			c.setFrameGeometry(frame.Width, frame.Height)
			c.SendBinary(frame.Data)
		case <-time.After(m.CaptureTimeout):
			m.sendError(c, ErrCaptureTimeout)
		}
	}()
}

// sendError reports a failed capture as a typed mirror-error event. The
// connection stays open; only the capture attempt failed.
func (m *Mirror) sendError(c *Conn, err error) {
	log.Printf("Mirror: capture failed: %v", err)
	c.SendJSON(protocol.TypeMirrorError, protocol.MirrorErrorPayload{
		Message:     err.Error(),
		Unsupported: errors.Is(err, capture.ErrUnsupported),
	})
}
