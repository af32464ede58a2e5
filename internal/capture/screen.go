package capture

import (
	"fmt"
	"image"
	"os"
	"runtime"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

// Screen captures the primary display using the OS screenshot facility and
// reads the pointer position through robotgo.
type Screen struct{}

// NewScreen returns the host display Capturer.
func NewScreen() *Screen {
	return &Screen{}
}

// CheckSupport fails fast in environments the screenshot facility cannot
// serve: a Wayland session without an X bridge, or no active display at all.
func (s *Screen) CheckSupport() error {
	if runtime.GOOS == "linux" {
		if os.Getenv("XDG_SESSION_TYPE") == "wayland" && os.Getenv("DISPLAY") == "" {
			return ErrUnsupported
		}
	}
	if screenshot.NumActiveDisplays() <= 0 {
		return ErrUnsupported
	}
	return nil
}

// LogicalSize returns the logical dimensions of the primary display.
func (s *Screen) LogicalSize() (int, int, error) {
	if screenshot.NumActiveDisplays() <= 0 {
		return 0, 0, ErrUnsupported
	}
	bounds := screenshot.GetDisplayBounds(0)
	return bounds.Dx(), bounds.Dy(), nil
}

// GrabFrame captures one raw frame of the primary display.
func (s *Screen) GrabFrame() (*image.RGBA, error) {
	if err := s.CheckSupport(); err != nil {
		return nil, err
	}
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display 0: %w", err)
	}
	return img, nil
}

// PointerPosition returns the absolute pointer position.
func (s *Screen) PointerPosition() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}
