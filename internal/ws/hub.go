package ws

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types pushed to feed subscribers.
const (
	EventEntry = "entry"
	EventExit  = "exit"
)

// Event is one occupancy change broadcast to the dashboard feed.
type Event struct {
	Type      string    `json:"type"`
	SessionID int64     `json:"session_id"`
	Plate     string    `json:"plate"`
	SlotNo    string    `json:"slot_no"`
	At        time.Time `json:"at"`
}

// Conn is the subset of a websocket connection the hub needs. Kept small so
// tests can substitute a fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub fans occupancy events out to connected feed subscribers. A subscriber
// whose write fails is closed and dropped.
type Hub struct {
	mu     sync.Mutex
	conns  map[Conn]struct{}
	logger *zap.Logger
}

// NewHub builds hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[Conn]struct{}),
		logger: logger,
	}
}

// Add registers a subscriber.
func (h *Hub) Add(conn Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

// Remove drops a subscriber without closing it.
func (h *Hub) Remove(conn Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends the event to every subscriber. Writes happen under the hub
// lock, which also serializes access to each underlying connection.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Info("feed subscriber dropped", zap.Error(err))
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}
