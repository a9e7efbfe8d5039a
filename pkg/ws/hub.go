// Package ws serves the telemetry WebSocket: devices push arduino_data frames
// and every other connected peer receives the resulting solar_data_update.
package ws

import (
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
)

// Hub is the registry of open connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds c and reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast queues frame on every client except exclude, which may be nil.
// Peers that are closing or whose queue is full are skipped. It returns the
// number of peers the frame was queued for.
func (h *Hub) Broadcast(frame []byte, exclude *Client) int {
	delivered, skipped := 0, 0
	for _, c := range h.snapshot() {
		if c == exclude {
			continue
		}
		if c.Send(frame) {
			delivered++
		} else {
			skipped++
		}
	}

	if skipped > 0 {
		common.GetLoggerWith(
			common.LoggerNameWsServer,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryWsBroadcast),
		).Debug("Skipped peers during broadcast", zap.Int("delivered", delivered), zap.Int("skipped", skipped))
	}
	return delivered
}

// Close closes every registered client and refuses new registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
