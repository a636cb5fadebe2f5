package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	events   []Event
	writeErr error
	closed   bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return f.writeErr
	}
	if event, ok := v.(Event); ok {
		f.events = append(f.events, event)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := &fakeConn{}
	second := &fakeConn{}
	hub.Add(first)
	hub.Add(second)

	hub.Broadcast(Event{
		Type:      EventEntry,
		SessionID: 7,
		Plate:     "KA01AB1234",
		SlotNo:    "S1",
		At:        time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	if first.eventCount() != 1 || second.eventCount() != 1 {
		t.Fatalf("expected both subscribers to receive the event, got %d and %d",
			first.eventCount(), second.eventCount())
	}

	first.mu.Lock()
	got := first.events[0]
	first.mu.Unlock()
	if got.Type != EventEntry || got.SessionID != 7 || got.SlotNo != "S1" {
		t.Fatalf("unexpected event payload: %+v", got)
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())

	healthy := &fakeConn{}
	broken := &fakeConn{writeErr: errors.New("write failed")}
	hub.Add(healthy)
	hub.Add(broken)

	hub.Broadcast(Event{Type: EventExit, SessionID: 1})

	if !broken.isClosed() {
		t.Fatalf("expected failing subscriber to be closed")
	}
	if hub.Count() != 1 {
		t.Fatalf("expected one remaining subscriber, got %d", hub.Count())
	}

	hub.Broadcast(Event{Type: EventExit, SessionID: 2})
	if healthy.eventCount() != 2 {
		t.Fatalf("expected healthy subscriber to receive both events, got %d", healthy.eventCount())
	}
}

func TestHubRemove(t *testing.T) {
	hub := NewHub(zap.NewNop())

	conn := &fakeConn{}
	hub.Add(conn)
	hub.Remove(conn)

	hub.Broadcast(Event{Type: EventEntry, SessionID: 3})
	if conn.eventCount() != 0 {
		t.Fatalf("expected no events after removal, got %d", conn.eventCount())
	}
	if conn.isClosed() {
		t.Fatalf("remove must not close the connection")
	}
}
