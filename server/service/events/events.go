// Package events keeps the most recent webhook exchanges for the admin view.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/bazaarbot/plugin/ai/classifier"
	"github.com/hrygo/bazaarbot/store"
)

// DefaultCapacity is the number of events retained.
const DefaultCapacity = 50

// Event is one inbound message and what the assistant did with it.
type Event struct {
	ID           string                   `json:"id"`
	CreatedAt    time.Time                `json:"createdAt"`
	Source       string                   `json:"source"`
	IncomingText string                   `json:"incomingText"`
	From         string                   `json:"from,omitempty"`
	Reply        string                   `json:"reply,omitempty"`
	Products     []*store.Product         `json:"products,omitempty"`
	Parsed       *classifier.ParsedIntent `json:"parsed,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// Ring is a bounded newest-first event buffer.
type Ring struct {
	capacity int
	now      func() time.Time

	mu     sync.Mutex
	events []Event
}

// NewRing creates a Ring holding at most capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity, now: time.Now}
}

// Record stamps the event with an id and time and stores it first.
func (r *Ring) Record(e Event) Event {
	now := r.now()
	e.ID = fmt.Sprintf("evt_%d_%s", now.UnixMilli(), shortuuid.New()[:6])
	e.CreatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append([]Event{e}, r.events...)
	if len(r.events) > r.capacity {
		r.events = r.events[:r.capacity]
	}
	return e
}

// List returns a copy, newest first.
func (r *Ring) List() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

// Reset empties the buffer.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
