// Package events fans document mutation events out to in-process subscribers.
//
// Every successful mutation of a document record publishes exactly one
// "document_updated" event carrying the full record snapshot; deletion
// publishes "document_deleted" carrying only the id. Publishes for one
// document happen in mutation order, and a subscriber observes them in that
// order: the hub never reorders events, and a subscriber that cannot keep up
// is dropped as a whole rather than having individual events skipped.
package events

import (
	"sync"
)

const (
	// EventDocumentUpdated carries a full document snapshot.
	EventDocumentUpdated = "document_updated"
	// EventDocumentDeleted carries only the document id.
	EventDocumentDeleted = "document_deleted"
)

const subscriberBuffer = 64

// Event is a single state-change notification.
type Event struct {
	Name       string `json:"name"`
	DocumentID string `json:"documentId"`
	Payload    any    `json:"payload"`
}

// Subscriber receives events over C until Unsubscribe or overflow closes it.
type Subscriber struct {
	C chan Event
}

// Hub broadcasts events to all current subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
}

// Publish delivers the event to every subscriber. A subscriber whose buffer
// is full is removed entirely; skipping single events would break per-document
// ordering for that subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.C <- e:
		default:
			delete(h.subs, sub)
			close(sub.C)
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
