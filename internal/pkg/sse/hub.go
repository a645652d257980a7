package sse

import (
	"log/slog"
	"sync"
)

// Event is one message pushed to a stream. Key is the employee it is addressed to.
type Event struct {
	Key   string
	Event string
	Data  interface{}
}

// Hub fans events out to the open streams of each employee.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[chan Event]struct{}
	closed  bool
	buffer  int
}

func NewHub() *Hub {
	return &Hub{
		streams: make(map[string]map[chan Event]struct{}),
		buffer:  16,
	}
}

// Subscribe opens a stream for key. The returned func closes it and must be called once.
func (h *Hub) Subscribe(key string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.streams[key] == nil {
		h.streams[key] = make(map[chan Event]struct{})
	}
	h.streams[key][ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.streams[key][ch]; !ok {
				return
			}
			delete(h.streams[key], ch)
			close(ch)
			if len(h.streams[key]) == 0 {
				delete(h.streams, key)
			}
		})
	}
	return ch, cancel
}

// Publish delivers to every open stream of key. A full stream drops the event
// instead of blocking the publisher.
func (h *Hub) Publish(key string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Key = key
	for ch := range h.streams[key] {
		select {
		case ch <- event:
		default:
			slog.Warn("sse stream full, dropping event", "key", key, "event", event.Event)
		}
	}
}

// Count returns the number of open streams for key.
func (h *Hub) Count(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[key])
}

// Close ends every open stream; later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for key, chans := range h.streams {
		for ch := range chans {
			close(ch)
		}
		delete(h.streams, key)
	}
}
