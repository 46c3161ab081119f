package feed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/logging"
)

// subscriberBuffer is how many events a subscriber may lag behind before
// events are dropped for it.
const subscriberBuffer = 64

// Hub fans events out to subscribers. A subscriber that cannot keep up loses
// events rather than blocking the broadcaster.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]chan Event
	metrics *Metrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(metrics *Metrics) *Hub {
	return &Hub{subs: make(map[string]chan Event), metrics: metrics}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(n))
	}
	logging.Debug("Subscriber added", zap.String("subscriber", id), zap.Int("subscribers", n))
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(n))
	}
	logging.Debug("Subscriber removed", zap.String("subscriber", id), zap.Int("subscribers", n))
}

// Broadcast delivers ev to every subscriber without blocking and returns
// how many received it.
func (h *Hub) Broadcast(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			if h.metrics != nil {
				h.metrics.DroppedEvents.Inc()
			}
			logging.Warn("Dropping event for slow subscriber", zap.String("subscriber", id))
		}
	}
	return delivered
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close removes every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	if h.metrics != nil {
		h.metrics.Subscribers.Set(0)
	}
}
