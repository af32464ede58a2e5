package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelayFansOutToConsumersOnly(t *testing.T) {
	reg := NewRegistry(nopSink{})
	bus := NewRelayBus(reg)

	providerSock := &fakeSocket{}
	provider := reg.Create(providerSock)
	provider.SetProvider(true)
	defer provider.Close()

	consumerSocks := []*fakeSocket{{}, {}}
	for _, sock := range consumerSocks {
		c := reg.Create(sock)
		c.SetConsumer(true)
		defer c.Close()
	}

	bystanderSock := &fakeSocket{}
	bystander := reg.Create(bystanderSock)
	defer bystander.Close()

	frame := []byte{0xFF, 0xD8, 0x01, 0x02}
	bus.Broadcast(provider, frame)

	for i, sock := range consumerSocks {
		sock := sock
		eventually(t, func() bool { return len(sock.binaryFrames()) == 1 }, "consumer missed frame")
		assert.Equal(t, frame, sock.binaryFrames()[0], "frame must be forwarded verbatim to consumer %d", i)
	}

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, providerSock.binaryFrames(), "sender must be skipped")
	assert.Empty(t, bystanderSock.binaryFrames(), "non-consumer must be skipped")
}

func TestRelayIgnoresNonProviderFrames(t *testing.T) {
	reg := NewRegistry(nopSink{})
	bus := NewRelayBus(reg)

	sender := reg.Create(&fakeSocket{})
	defer sender.Close()

	consumerSock := &fakeSocket{}
	consumer := reg.Create(consumerSock)
	consumer.SetConsumer(true)
	defer consumer.Close()

	bus.Broadcast(sender, []byte{0x01})

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, consumerSock.binaryFrames(), "frames from a non-provider are not relayed")
}

func TestRelaySkipsClosedConnections(t *testing.T) {
	reg := NewRegistry(nopSink{})
	bus := NewRelayBus(reg)

	provider := reg.Create(&fakeSocket{})
	provider.SetProvider(true)
	defer provider.Close()

	goneSock := &fakeSocket{}
	gone := reg.Create(goneSock)
	gone.SetConsumer(true)
	gone.Close()

	bus.Broadcast(provider, []byte{0x01})

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, goneSock.binaryFrames())
}

func TestRelayProviderCanAlsoConsume(t *testing.T) {
	// A provider that is also flagged consumer still never receives its own
	// frames back.
	reg := NewRegistry(nopSink{})
	bus := NewRelayBus(reg)

	sock := &fakeSocket{}
	both := reg.Create(sock)
	both.SetProvider(true)
	both.SetConsumer(true)
	defer both.Close()

	bus.Broadcast(both, []byte{0x01})

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, sock.binaryFrames())
}
