package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Broadcaster fans every published value out to all current subscribers, in
// publish order. A new subscriber first receives the current value.
type Broadcaster[T any] struct {
	name string

	mu      sync.Mutex
	current T
	subs    map[*Subscription[T]]struct{}
	closed  bool
}

// Subscription is one consumer of a Broadcaster. Its channel is closed when
// the subscription is closed, when the broadcaster closes, or when the
// consumer falls so far behind that its buffer fills up.
type Subscription[T any] struct {
	ch chan T
	b  *Broadcaster[T]
}

// NewBroadcaster creates a broadcaster holding initial as its current value.
func NewBroadcaster[T any](name string, initial T) *Broadcaster[T] {
	return &Broadcaster[T]{
		name:    name,
		current: initial,
		subs:    make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe registers a consumer with room for buffer pending values.
func (b *Broadcaster[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription[T]{
		ch: make(chan T, buffer),
		b:  b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}
	sub.ch <- b.current
	b.subs[sub] = struct{}{}
	return sub
}

// Publish replaces the current value and delivers it to every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.current = v
	for sub := range b.subs {
		select {
		case sub.ch <- v:
		default:
			// Slow consumer, drop it rather than reorder or stall the publisher
			log.Warn().Str("stream", b.name).Msg("subscriber buffer full, closing subscription")
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
}

// Current returns the last published value.
func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are ignored.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// C returns the channel delivering values.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, ok := s.b.subs[s]; ok {
		delete(s.b.subs, s)
		close(s.ch)
	}
}
