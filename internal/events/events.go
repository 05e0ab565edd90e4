// Package events is the outward event surface of the automation contexts.
// Delivery is fire-and-forget message passing: publishing with no
// subscriber, or to a subscriber that has fallen behind, is a silent no-op,
// matching the tolerance required when a display surface is absent.
package events

import (
	"sync"
)

// Event is any of the concrete event types below.
type Event interface {
	isEvent()
}

// Started announces a new run and its candidate total.
type Started struct {
	Total int
}

// Progress is emitted after each candidate, success or failure.
type Progress struct {
	Downloaded    int
	Total         int
	Failed        int
	CandidateName string
}

// DownloadError reports one candidate's failure; the run continues.
type DownloadError struct {
	CandidateName string
	Err           string
}

// Done carries the final tallies of a finished run.
type Done struct {
	Downloaded int
	Total      int
	Failed     int
}

// Stopped is emitted when a run ends on a cooperative stop request.
type Stopped struct{}

// Log is a free-form line for the display surface.
type Log struct {
	Message string
}

func (Started) isEvent()       {}
func (Progress) isEvent()      {}
func (DownloadError) isEvent() {}
func (Done) isEvent()          {}
func (Stopped) isEvent()       {}
func (Log) isEvent()           {}

const subscriberBuffer = 64

// Hub fans events out to subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and a cancel function. The
// channel is closed on cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Publish delivers ev to every subscriber without blocking. A full
// subscriber drops the event rather than stalling the automation loop.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
