package session

import (
	"encoding/json"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"deskmote/internal/config"
	"deskmote/internal/input"
	"deskmote/internal/protocol"
)

// nopSink satisfies input.Sink for tests that never inject input
type nopSink struct{}

func (nopSink) Move(dx, dy int) error                      { return nil }
func (nopSink) SetButton(button string, pressed bool) error { return nil }
func (nopSink) ScrollAxis(axis input.Axis, amount int) error { return nil }
func (nopSink) HoldModifier(name string) error             { return nil }
func (nopSink) ReleaseModifier(name string) error          { return nil }
func (nopSink) PressKey(name string) error                 { return nil }
func (nopSink) ReleaseKey(name string) error               { return nil }
func (nopSink) TypeText(text string) error                 { return nil }

type wsMsg struct {
	messageType int
	data        []byte
}

// fakeSocket records everything written to it
type fakeSocket struct {
	mu   sync.Mutex
	msgs []wsMsg
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, wsMsg{messageType: messageType, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeSocket) SetWriteDeadline(t time.Time) error { return nil }
func (f *fakeSocket) Close() error                       { return nil }

func (f *fakeSocket) binaryFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, m := range f.msgs {
		if m.messageType == websocket.BinaryMessage {
			out = append(out, m.data)
		}
	}
	return out
}

// controlMessages decodes all text messages, optionally filtered by type
func (f *fakeSocket) controlMessages(filter protocol.MessageType) []protocol.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Message
	for _, m := range f.msgs {
		if m.messageType != websocket.TextMessage {
			continue
		}
		var msg protocol.Message
		if err := json.Unmarshal(m.data, &msg); err != nil {
			continue
		}
		if filter == "" || msg.Type == filter {
			out = append(out, msg)
		}
	}
	return out
}

// fakeCapturer is a controllable capture.Capturer
type fakeCapturer struct {
	supportErr error
	sizeW      int
	sizeH      int
	grabBlock  chan struct{} // when non-nil, GrabFrame waits for close
	grabErr    error
	img        *image.RGBA
	grabs      atomic.Int32
	ptrX       int
	ptrY       int
	ptrErr     error
}

func (f *fakeCapturer) CheckSupport() error { return f.supportErr }

func (f *fakeCapturer) LogicalSize() (int, int, error) {
	if f.sizeW == 0 {
		return 0, 0, nil
	}
	return f.sizeW, f.sizeH, nil
}

func (f *fakeCapturer) GrabFrame() (*image.RGBA, error) {
	f.grabs.Add(1)
	if f.grabBlock != nil {
		<-f.grabBlock
	}
	if f.grabErr != nil {
		return nil, f.grabErr
	}
	img := f.img
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, 64, 36))
	}
	return img, nil
}

func (f *fakeCapturer) PointerPosition() (int, int, error) {
	if f.ptrErr != nil {
		return 0, 0, f.ptrErr
	}
	return f.ptrX, f.ptrY, nil
}

func testConfig(t *testing.T) *config.Manager {
	t.Helper()
	return config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
}

func newTestConn(t *testing.T) (*Conn, *fakeSocket) {
	t.Helper()
	sock := &fakeSocket{}
	reg := NewRegistry(nopSink{})
	c := reg.Create(sock)
	t.Cleanup(c.Close)
	return c, sock
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}
