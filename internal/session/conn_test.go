package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskmote/internal/protocol"
)

func TestShouldDropDuplicateWithinWindow(t *testing.T) {
	c, _ := newTestConn(t)

	payload := []byte(`{"type":"key","payload":{"name":"a"}}`)
	assert.False(t, c.ShouldDrop(payload, false), "first occurrence passes")
	for i := 0; i < 49; i++ {
		assert.True(t, c.ShouldDrop(payload, false), "identical payload inside the window drops")
	}
}

func TestShouldDropAllowsAfterWindow(t *testing.T) {
	c, _ := newTestConn(t)

	payload := []byte(`{"type":"key","payload":{"name":"a"}}`)
	require.False(t, c.ShouldDrop(payload, false))
	time.Sleep(dedupWindow + 20*time.Millisecond)
	assert.False(t, c.ShouldDrop(payload, false), "window expiry re-admits the payload")
}

func TestShouldDropDifferentPayloadPasses(t *testing.T) {
	c, _ := newTestConn(t)

	require.False(t, c.ShouldDrop([]byte(`{"type":"move","payload":{"dx":1}}`), false))
	assert.False(t, c.ShouldDrop([]byte(`{"type":"move","payload":{"dx":2}}`), false))
}

func TestShouldDropExemptNeverDrops(t *testing.T) {
	c, _ := newTestConn(t)

	payload := []byte(`{"type":"request-frame"}`)
	for i := 0; i < 50; i++ {
		assert.False(t, c.ShouldDrop(payload, true), "exempt type must never be deduplicated")
	}
}

func TestDefaultGeometry(t *testing.T) {
	c, _ := newTestConn(t)

	frameW, frameH, screenW, screenH := c.Geometry()
	assert.Equal(t, 640, frameW)
	assert.Equal(t, 360, frameH)
	assert.Equal(t, 1920, screenW)
	assert.Equal(t, 1080, screenH)
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	c, sock := newTestConn(t)
	c.Close()

	assert.False(t, c.SendJSON(protocol.TypeServerIP, protocol.ServerIPPayload{IP: "10.0.0.2"}))
	assert.False(t, c.SendBinary([]byte{0x01}))

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sock.binaryFrames())
	assert.Empty(t, sock.controlMessages(""))
}

func TestCloseIsIdempotent(t *testing.T) {
	reg := NewRegistry(nopSink{})
	c := reg.Create(&fakeSocket{})

	require.Equal(t, 1, reg.Len())
	c.Close()
	c.Close()
	c.Close()
	assert.Equal(t, 0, reg.Len())
	assert.True(t, c.Closed())
}

func TestQueuedBytesAccounting(t *testing.T) {
	c, _ := newTestConn(t)

	c.SendBinary(make([]byte, 1024))
	eventually(t, func() bool { return c.QueuedBytes() == 0 }, "queue accounting must drain after write")
}
