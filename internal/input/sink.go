// Package input provides host input injection and the normalization layer
// that validates, clamps, coalesces and throttles inbound input events
// before they reach the OS.
package input

// Axis selects a scroll direction primitive
type Axis int

const (
	// Vertical scroll axis; positive amounts scroll down
	Vertical Axis = iota
	// Horizontal scroll axis; positive amounts scroll right
	Horizontal
)

// Sink is the capability to inject input into the host OS. The process has
// one Sink; each connection gets its own Normalizer in front of it.
type Sink interface {
	// Move moves the pointer by a relative delta
	Move(dx, dy int) error

	// SetButton presses or releases a mouse button ("left", "right", "middle")
	SetButton(button string, pressed bool) error

	// ScrollAxis scrolls along one axis by a signed amount
	ScrollAxis(axis Axis, amount int) error

	// HoldModifier presses and holds a modifier key
	HoldModifier(name string) error

	// ReleaseModifier releases a held modifier key
	ReleaseModifier(name string) error

	// PressKey presses a named or literal key
	PressKey(name string) error

	// ReleaseKey releases a named or literal key
	ReleaseKey(name string) error

	// TypeText types literal text using synthetic keyboard events
	TypeText(text string) error
}
