// Package capture provides host screen capture behind a small capability
// interface, plus the frame encoder that turns raw captures into wire-ready
// JPEG payloads.
package capture

import (
	"errors"
	"image"
)

// ErrUnsupported marks a compositor environment the host cannot capture
// (e.g. a Wayland session without an X bridge). Callers should fall back to
// the browser-capture relay path instead of retrying.
var ErrUnsupported = errors.New("screen capture not supported in this environment")

// Capturer is the screen capture capability consumed by the mirror
// controller.
type Capturer interface {
	// CheckSupport fails fast with ErrUnsupported when the environment
	// cannot be captured, so no doomed grab is attempted.
	CheckSupport() error

	// LogicalSize returns the logical dimensions of the primary display.
	LogicalSize() (w, h int, err error)

	// GrabFrame captures one raw frame of the primary display.
	GrabFrame() (*image.RGBA, error)

	// PointerPosition returns the absolute pointer position.
	PointerPosition() (x, y int, err error)
}
