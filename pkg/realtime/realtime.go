package realtime

// Package realtime provides an in-process publish/subscribe hub fanning out
// record events to multiple listeners (WebSocket sessions mostly).
//
// Delivery is best effort: slow listeners drop events rather than holding up
// writers, and there is no persistence or replay. Should durable semantics
// ever be needed, this package is the seam where a broker could be slotted
// in behind the same interface.

import (
	"sync"
	"time"
)

// RecordEvent is one stored record as delivered over the firehose. It mirrors
// a subset of the stored fields.
type RecordEvent struct {
	ID        string         `json:"id"`
	Commune   string         `json:"commune"`
	Kind      string         `json:"kind"`
	CreatedAt time.Time      `json:"created_at"`
	Title     string         `json:"titre"`
	Category  string         `json:"categorie"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Event is the hub's envelope, leaving room for additional event types
// (heartbeat, info) without changing channel element types. Only
// Type == "record" is produced today.
type Event struct {
	Type   string      `json:"type"`
	Record RecordEvent `json:"record"`
}

// Hub is an in-memory fan-out dispatcher. Each listener gets its own buffered
// channel; when a listener's buffer is full an event is dropped for that
// listener only, so one slow consumer cannot degrade delivery to the rest.
//
// The hub is concurrency-safe.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener and returns its id plus a receive-only channel.
// Callers must Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes a listener and closes its channel. Safe to call more
// than once; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers a record event to every registered listener, best
// effort.
func (h *Hub) Broadcast(rec RecordEvent) {
	ev := Event{Type: "record", Record: rec}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// Drop for slow listener.
		}
	}
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// NewRecordEvent constructs a RecordEvent with a non-nil metadata map when
// the provided metadata is nil.
func NewRecordEvent(id, commune, kind string, createdAt time.Time, title, category string, metadata map[string]any) RecordEvent {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return RecordEvent{
		ID:        id,
		Commune:   commune,
		Kind:      kind,
		CreatedAt: createdAt,
		Title:     title,
		Category:  category,
		Metadata:  metadata,
	}
}
