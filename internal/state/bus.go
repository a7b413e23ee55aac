// Package state holds the client-side stores of one UI session. Each store
// owns one slice of the application state, guards it with its own mutex and
// never holds that mutex across a network call.
package state

import (
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("state")

// subscriberBuffer is how many events a slow subscriber may lag behind
// before further events are dropped for it.
const subscriberBuffer = 32

// Bus fans out change events to subscribers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan domain.Event
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan domain.Event)}
}

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it. Publishing never blocks on a slow reader.
func (b *Bus) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *Bus) Publish(ev domain.Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
