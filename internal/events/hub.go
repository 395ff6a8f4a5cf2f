// Package events fans out session change notifications to connected clients.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// Event types.
const (
	TypeSessionCreated = "session.created"
	TypeSessionUpdated = "session.updated"
	TypeSessionDeleted = "session.deleted"
)

// Event describes a change to one recorded session.
type Event struct {
	Type          string    `json:"type"`
	UserID        string    `json:"userId"`
	ChatSessionID string    `json:"chatSessionId"`
	Timestamp     time.Time `json:"timestamp"`
}

// subscriberBuffer is the number of events queued per subscriber before
// further events for that subscriber are dropped.
const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// Hub keeps the subscribers of each user.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[*subscriber]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers interest in userID's events. The returned cancel
// function unregisters and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[*subscriber]struct{})
	}
	h.active[userID][sub] = struct{}{}
	h.mu.Unlock()
	slog.Debug("Event subscriber registered", "user_id", userID)

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.unsubscribe(userID, sub) })
	}
}

func (h *Hub) unsubscribe(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.active[userID]
	if !ok {
		return
	}
	if _, exists := subs[sub]; !exists {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.active, userID)
	}
	close(sub.ch)
	slog.Debug("Event subscriber unregistered", "user_id", userID)
}

// Publish delivers ev to every subscriber of ev.UserID without blocking.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.active[ev.UserID] {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("Dropping event for slow subscriber", "user_id", ev.UserID, "type", ev.Type)
		}
	}
}

// Subscribers returns how many subscribers userID has.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// Close unregisters every subscriber. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, subs := range h.active {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.active, userID)
	}
	h.closed = true
}
