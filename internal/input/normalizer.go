package input

import (
	"errors"
	"log"
	"math"
	"sync"
	"time"
)

const (
	// maxTextLen bounds literal text injection, in runes
	maxTextLen = 500

	// maxDelta bounds any single motion or scroll delta
	maxDelta = 2000

	// throttleWindow is the minimum spacing between applied move or scroll
	// updates (~60 Hz)
	throttleWindow = 16 * time.Millisecond

	// settleDelay is how long combo modifiers are held before release
	settleDelay = 10 * time.Millisecond

	// zoomSensitivity scales raw pinch deltas into scroll steps
	zoomSensitivity = 0.5

	// zoomStepCap bounds the scroll magnitude of a single zoom event
	zoomStepCap = 5

	// zoomModifier is held around the scroll that realizes a zoom step
	zoomModifier = "ctrl"
)

// ErrEmptyCombo is returned for a combo with no resolvable keys.
var ErrEmptyCombo = errors.New("combo has no resolvable keys")

// throttle is one per-kind rate limiter window. While a window is active the
// newest sample waits in pending; the window timer re-dispatches it at the
// boundary and re-arms, so dispatch rate is bounded and only the last sample
// survives a burst.
type throttle struct {
	active  bool
	pending func()
	timer   *time.Timer
}

// Normalizer validates, clamps, coalesces and throttles input events for one
// connection before forwarding them to the shared Sink.
type Normalizer struct {
	mu     sync.Mutex
	sink   Sink
	window time.Duration
	settle time.Duration
	closed bool

	move   throttle
	scroll throttle
}

// NewNormalizer creates a Normalizer in front of sink.
func NewNormalizer(sink Sink) *Normalizer {
	return &Normalizer{
		sink:   sink,
		window: throttleWindow,
		settle: settleDelay,
	}
}

// Close cancels any pending throttle timers. Safe to call more than once.
func (n *Normalizer) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	for _, t := range []*throttle{&n.move, &n.scroll} {
		if t.timer != nil {
			t.timer.Stop()
		}
		t.active = false
		t.pending = nil
	}
}

// Move applies a relative pointer motion, rate-limited to one applied update
// per throttle window with last-sample-wins coalescing.
func (n *Normalizer) Move(dx, dy float64) {
	x, y := clampDelta(dx), clampDelta(dy)
	if x == 0 && y == 0 {
		return
	}
	n.throttled(&n.move, func() {
		if err := n.sink.Move(x, y); err != nil {
			log.Printf("Input: move failed: %v", err)
		}
	})
}

// Scroll applies a two-axis scroll, rate-limited like Move. The axes are
// dispatched as independent directional calls.
func (n *Normalizer) Scroll(dx, dy float64) {
	x, y := clampDelta(dx), clampDelta(dy)
	if x == 0 && y == 0 {
		return
	}
	n.throttled(&n.scroll, func() {
		if y != 0 {
			if err := n.sink.ScrollAxis(Vertical, y); err != nil {
				log.Printf("Input: vertical scroll failed: %v", err)
			}
		}
		if x != 0 {
			if err := n.sink.ScrollAxis(Horizontal, x); err != nil {
				log.Printf("Input: horizontal scroll failed: %v", err)
			}
		}
	})
}

// Click presses or releases a mouse button. Press and release are
// independent; the caller owns the release.
func (n *Normalizer) Click(button string, pressed bool) error {
	return n.sink.SetButton(normalizeButton(button), pressed)
}

// Zoom realizes a pinch delta as a modifier-held scroll. The delta is scaled
// by the sensitivity factor and capped per event; the modifier is released on
// every exit path so a failing scroll cannot leave it stuck.
func (n *Normalizer) Zoom(delta float64) error {
	if !isFinite(delta) || delta == 0 {
		return nil
	}
	scaled := delta * zoomSensitivity
	if scaled > zoomStepCap {
		scaled = zoomStepCap
	} else if scaled < -zoomStepCap {
		scaled = -zoomStepCap
	}
	amount := int(math.Round(scaled))
	if amount == 0 {
		return nil
	}

	if err := n.sink.HoldModifier(zoomModifier); err != nil {
		return err
	}
	defer func() {
		if err := n.sink.ReleaseModifier(zoomModifier); err != nil {
			log.Printf("Input: zoom modifier release failed: %v", err)
		}
	}()
	return n.sink.ScrollAxis(Vertical, amount)
}

// Key taps a single named or literal key. Unmapped multi-character names are
// dropped with a diagnostic, never an error.
func (n *Normalizer) Key(name string) error {
	key := resolveKey(name)
	if key == "" {
		log.Printf("Input: dropping unmapped key %q", name)
		return nil
	}
	if err := n.sink.PressKey(key); err != nil {
		return err
	}
	return n.sink.ReleaseKey(key)
}

// Combo executes an ordered key combination: modifiers are held in listed
// order, literals are tapped in place, and after a short settle delay the
// held modifiers are released in reverse order. The reverse release runs even
// if a press fails partway through.
func (n *Normalizer) Combo(names []string) error {
	type comboKey struct {
		name     string
		modifier bool
	}

	keys := make([]comboKey, 0, len(names))
	for _, name := range names {
		if mod, ok := resolveModifier(name); ok {
			keys = append(keys, comboKey{name: mod, modifier: true})
			continue
		}
		if key := resolveKey(name); key != "" {
			keys = append(keys, comboKey{name: key})
			continue
		}
		log.Printf("Input: dropping unmapped combo entry %q", name)
	}
	if len(keys) == 0 {
		return ErrEmptyCombo
	}

	var held []string
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := n.sink.ReleaseModifier(held[i]); err != nil {
				log.Printf("Input: combo modifier release failed: %v", err)
			}
		}
	}()

	for _, k := range keys {
		if k.modifier {
			if err := n.sink.HoldModifier(k.name); err != nil {
				return err
			}
			held = append(held, k.name)
			continue
		}
		if err := n.sink.PressKey(k.name); err != nil {
			return err
		}
		if err := n.sink.ReleaseKey(k.name); err != nil {
			return err
		}
	}

	time.Sleep(n.settle)
	return nil
}

// Text types literal text, truncated to the maximum length.
func (n *Normalizer) Text(value string) error {
	if runes := []rune(value); len(runes) > maxTextLen {
		value = string(runes[:maxTextLen])
	}
	if value == "" {
		return nil
	}
	return n.sink.TypeText(value)
}

// throttled runs dispatch now if the kind's window is idle, otherwise parks
// it as the pending sample (overwriting any earlier one). The window timer
// re-arms itself as long as samples keep arriving.
func (n *Normalizer) throttled(t *throttle, dispatch func()) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if t.active {
		t.pending = dispatch
		n.mu.Unlock()
		return
	}
	t.active = true
	t.timer = time.AfterFunc(n.window, func() { n.expire(t) })
	n.mu.Unlock()

	dispatch()
}

// expire fires at a window boundary: dispatch the pending sample and re-arm,
// or fall back to idle.
func (n *Normalizer) expire(t *throttle) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	dispatch := t.pending
	t.pending = nil
	if dispatch == nil {
		t.active = false
		n.mu.Unlock()
		return
	}
	t.timer = time.AfterFunc(n.window, func() { n.expire(t) })
	n.mu.Unlock()

	dispatch()
}

// clampDelta bounds a raw delta to the accepted range and rounds it to whole
// units. Non-finite values are treated as absent.
func clampDelta(v float64) int {
	if !isFinite(v) {
		return 0
	}
	if v > maxDelta {
		v = maxDelta
	} else if v < -maxDelta {
		v = -maxDelta
	}
	return int(math.Round(v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
