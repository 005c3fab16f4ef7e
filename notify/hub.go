// Package notify fans dashboard events out to the streams of each user.
package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"adwin-rewards/models"
)

// DefaultBuffer is the channel capacity used when Subscribe is given none.
const DefaultBuffer = 32

type subscriber struct {
	id uint64
	ch chan models.Event
}

// Hub is an in-process pub-sub keyed by user id. Publish never blocks: a
// subscriber that stops reading loses events rather than stalling the
// dashboard.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[string][]subscriber
	nextID atomic.Uint64
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log:  logger.With("component", "notify"),
		subs: make(map[string][]subscriber),
	}
}

// Subscribe registers a stream for userID. The returned cancel func removes
// the subscription and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(userID string, buffer int) (<-chan models.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := subscriber{id: h.nextID.Add(1), ch: make(chan models.Event, buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.subs[userID] = append(h.subs[userID], sub)
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { h.unsubscribe(userID, sub.id) })
	}
}

func (h *Hub) unsubscribe(userID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[userID]
	for i, s := range subs {
		if s.id == id {
			close(s.ch)
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(h.subs, userID)
	} else {
		h.subs[userID] = subs
	}
}

// Publish delivers ev to every stream of ev.UserID.
func (h *Hub) Publish(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, s := range h.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			h.log.Warn("dropping event for slow subscriber",
				"user_id", ev.UserID, "type", ev.Type)
		}
	}
}

// SubscriberCount returns the number of streams open for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close closes every stream. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, subs := range h.subs {
		for _, s := range subs {
			close(s.ch)
		}
		delete(h.subs, userID)
	}
}
