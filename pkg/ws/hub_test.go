package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
)

func TestHubBroadcastExcludesSender(t *testing.T) {
	common.SetTestLoggerNop()
	hub := NewHub()

	sender, peerA, peerB := newClient(nil, 4), newClient(nil, 4), newClient(nil, 4)
	for _, c := range []*Client{sender, peerA, peerB} {
		assert.True(t, hub.Register(c))
	}

	delivered := hub.Broadcast([]byte(`{"type":"solar_data_update"}`), sender)
	assert.Equal(t, 2, delivered)
	assert.Len(t, sender.send, 0)
	assert.Len(t, peerA.send, 1)
	assert.Len(t, peerB.send, 1)
}

func TestHubSkipsFullAndClosedPeers(t *testing.T) {
	common.SetTestLoggerNop()
	hub := NewHub()

	full, closed, healthy := newClient(nil, 1), newClient(nil, 1), newClient(nil, 1)
	hub.Register(full)
	hub.Register(closed)
	hub.Register(healthy)

	assert.True(t, full.Send([]byte("backlog")))
	closed.Close()

	delivered := hub.Broadcast([]byte("frame"), nil)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []byte("frame"), <-healthy.send)
	assert.Equal(t, []byte("backlog"), <-full.send)
}

func TestHubUnregisterAndClose(t *testing.T) {
	hub := NewHub()
	a, b := newClient(nil, 1), newClient(nil, 1)
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.Len())

	hub.Unregister(a)
	assert.Equal(t, 1, hub.Len())

	hub.Close()
	assert.Equal(t, 0, hub.Len())
	assert.False(t, b.Send([]byte("late")))
	assert.False(t, hub.Register(newClient(nil, 1)))

	select {
	case <-b.Done():
	default:
		t.Fatal("expected client closed by hub")
	}
}

func TestHubConcurrentRegisterAndBroadcast(t *testing.T) {
	common.SetTestLoggerNop()
	hub := NewHub()

	var wg sync.WaitGroup
	for rep := 0; rep < 50; rep++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := newClient(nil, 8)
			hub.Register(c)
			hub.Unregister(c)
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast([]byte("x"), nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Len())
}
