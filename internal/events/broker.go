// Package events fans lifecycle notifications out to live subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/content-lifecycle-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-subscriber channel capacity
const DefaultBuffer = 64

// Broker is a non-blocking in-process event sink. A subscriber that falls
// behind loses events rather than stalling the emitter.
type Broker struct {
	mu      sync.RWMutex
	subs    map[string]chan models.Event
	closed  bool
	buffer  int
	now     func() time.Time
	dropped atomic.Uint64
	log     zerolog.Logger
}

// NewBroker creates a broker whose subscribers buffer up to buffer events
func NewBroker(buffer int, log zerolog.Logger) *Broker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broker{
		subs:   make(map[string]chan models.Event),
		buffer: buffer,
		now:    time.Now,
		log:    log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its id and channel
func (b *Broker) Subscribe() (string, <-chan models.Event) {
	id := uuid.New().String()
	ch := make(chan models.Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	b.mu.Unlock()

	b.log.Debug().Str("subscriber", id).Msg("Subscriber added")
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()

	if ok {
		close(ch)
		b.log.Debug().Str("subscriber", id).Msg("Subscriber removed")
	}
}

// Emit wraps payload in an Event and offers it to every subscriber
func (b *Broker) Emit(eventType string, payload interface{}) {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Payload: payload,
		At:      b.now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			b.log.Warn().Str("subscriber", id).Str("type", eventType).Msg("Subscriber buffer full, event dropped")
		}
	}
}

// Close ends every subscription. Later subscribers get a closed channel and
// later events go nowhere.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.log.Info().Msg("Event broker closed")
}

// Subscribers returns the number of live subscribers
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were discarded for full buffers
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}
