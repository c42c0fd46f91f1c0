// Package events is the in-process hub for lifecycle and outcome events.
// Collaborating layers (UI, notification delivery) subscribe per
// participant; delivery beyond the process boundary is their concern.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened.
type Type string

const (
	TypeStateChanged Type = "state_changed"
	TypePaired       Type = "paired"
	TypeOutcome      Type = "outcome"
)

// Event is a single occurrence affecting one participant.
type Event struct {
	Type          Type       `json:"type"`
	ParticipantID uuid.UUID  `json:"participantId"`
	State         string     `json:"state,omitempty"`
	PairingID     *uuid.UUID `json:"pairingId,omitempty"`
	PartnerID     *uuid.UUID `json:"partnerId,omitempty"`
	Outcome       string     `json:"outcome,omitempty"`
	At            time.Time  `json:"at"`
}

// Subscriber is one listener's buffered event channel. A subscriber that
// falls behind loses events rather than blocking the engine.
type Subscriber struct {
	ID            string
	ParticipantID uuid.UUID
	Ch            chan Event
}

// Hub fans events out to subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Subscribe registers a listener for one participant's events.
func (h *Hub) Subscribe(participantID uuid.UUID) *Subscriber {
	sub := &Subscriber{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		Ch:            make(chan Event, 64),
	}
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		close(sub.Ch)
		delete(h.subs, id)
	}
}

// Publish delivers the event to every subscriber of its participant.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.ParticipantID != e.ParticipantID {
			continue
		}
		select {
		case sub.Ch <- e:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stop closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		close(sub.Ch)
		delete(h.subs, id)
	}
}
