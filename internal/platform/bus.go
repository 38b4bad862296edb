// Package platform defines the event-bus boundary a native host layer uses to
// push "data updated" signals into the sync loop. The in-process Bus is the
// default implementation; hosts with their own notification channel implement
// Notifier instead.
package platform

import "sync"

// UpdateSignal is the payload of a push notification. It carries no data;
// the receiver re-probes the feed to learn what changed.
type UpdateSignal struct {
	Origin string // Who raised it ("host", "timer", "manual", ...)
}

// Notifier is the subscribe side of the bus. Subscribers receive each signal
// emitted after they subscribed; a closed channel means the subscription was
// cancelled.
type Notifier interface {
	Subscribe() (<-chan UpdateSignal, func())
}

// Emitter is the publish side of the bus.
type Emitter interface {
	Emit(sig UpdateSignal)
}

// Bus is an in-process Notifier + Emitter. Emission never blocks: a
// subscriber that has not drained its buffer misses the signal, which is fine
// because signals are level triggers, not data.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan UpdateSignal
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan UpdateSignal)}
}

// Subscribe registers a new subscriber. The returned cancel func is
// idempotent and closes the channel.
func (b *Bus) Subscribe() (<-chan UpdateSignal, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan UpdateSignal, 1)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Emit delivers the signal to every current subscriber without blocking.
func (b *Bus) Emit(sig UpdateSignal) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- sig:
		default:
		}
	}
}
