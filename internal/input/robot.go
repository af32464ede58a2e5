package input

import (
	"github.com/go-vgo/robotgo"
)

// RobotSink injects input through robotgo. Injection is best-effort: the OS
// layers below robotgo report failures inconsistently across platforms, so
// the adapter never surfaces them.
type RobotSink struct{}

// NewRobotSink returns the process-wide robotgo-backed Sink.
func NewRobotSink() *RobotSink {
	return &RobotSink{}
}

// Move moves the pointer by a relative delta
func (r *RobotSink) Move(dx, dy int) error {
	robotgo.MoveRelative(dx, dy)
	return nil
}

// SetButton presses or releases a mouse button
func (r *RobotSink) SetButton(button string, pressed bool) error {
	dir := "up"
	if pressed {
		dir = "down"
	}
	robotgo.Toggle(button, dir)
	return nil
}

// ScrollAxis scrolls along one axis by a signed amount
func (r *RobotSink) ScrollAxis(axis Axis, amount int) error {
	if axis == Horizontal {
		robotgo.Scroll(amount, 0)
	} else {
		robotgo.Scroll(0, amount)
	}
	return nil
}

// HoldModifier presses and holds a modifier key
func (r *RobotSink) HoldModifier(name string) error {
	robotgo.KeyToggle(name, "down")
	return nil
}

// ReleaseModifier releases a held modifier key
func (r *RobotSink) ReleaseModifier(name string) error {
	robotgo.KeyToggle(name, "up")
	return nil
}

// PressKey presses a named or literal key
func (r *RobotSink) PressKey(name string) error {
	robotgo.KeyToggle(name, "down")
	return nil
}

// ReleaseKey releases a named or literal key
func (r *RobotSink) ReleaseKey(name string) error {
	robotgo.KeyToggle(name, "up")
	return nil
}

// TypeText types literal text using synthetic keyboard events
func (r *RobotSink) TypeText(text string) error {
	robotgo.TypeStr(text)
	return nil
}
