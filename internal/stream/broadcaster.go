package stream

import (
	"sync"

	"robotask/internal/model"
)

// Broadcaster fans appended events out to live subscribers. Publish never
// blocks: a subscriber that cannot keep up has events dropped rather than
// stalling the store's write path.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives events on C until Unsubscribe.
type Subscriber struct {
	C chan *model.Event
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber with the given channel buffer.
func (b *Broadcaster) Subscribe(buffer int) *Subscriber {
	if buffer < 1 {
		buffer = 16
	}
	sub := &Subscriber{C: make(chan *model.Event, buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.C)
}

// Publish delivers an event to every subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *Broadcaster) Publish(event *model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.C <- event:
		default:
		}
	}
}

// Count returns the number of live subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
