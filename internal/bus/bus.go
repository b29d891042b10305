// Package bus is a small in-process broadcast primitive. Every subscriber
// owns a bounded buffer; a publisher never blocks. When a slow subscriber
// falls behind, the oldest buffered values are dropped and the subscriber is
// handed a single lag notice carrying the drop count before it sees newer
// values.
package bus

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Recv after the subscription has been closed.
var ErrClosed = errors.New("bus: subscription closed")

const defaultCapacity = 8

// Event is one delivery to a subscriber. Either Value holds a published
// message, or Lagged > 0 and the event reports how many messages were
// dropped since the subscriber last kept up.
type Event[T any] struct {
	Value  T
	Lagged uint64
}

// Bus broadcasts values of type T to any number of subscribers.
type Bus[T any] struct {
	mu  sync.Mutex
	cap int
	sub []*Subscription[T]
}

// New creates a bus whose subscribers buffer up to capacity values.
func New[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Bus[T]{cap: capacity}
}

// Publish delivers v to every current subscriber without blocking. A full
// subscriber drops its oldest value and accrues lag instead.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	subs := make([]*Subscription[T], len(b.sub))
	copy(subs, b.sub)
	b.mu.Unlock()

	for _, s := range subs {
		s.push(v)
	}
}

// Subscribe registers a new subscriber. It only observes values published
// after this call.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		bus:   b,
		cap:   b.cap,
		ready: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.sub = append(b.sub, s)
	b.mu.Unlock()
	return s
}

func (b *Bus[T]) drop(s *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.sub {
		if cur == s {
			b.sub = append(b.sub[:i], b.sub[i+1:]...)
			return
		}
	}
}

// Subscription is one subscriber's view of a Bus.
type Subscription[T any] struct {
	bus *Bus[T]
	cap int

	mu     sync.Mutex
	buf    []T
	lagged uint64
	closed bool

	ready chan struct{}
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.buf) >= s.cap {
		s.buf = s.buf[1:]
		s.lagged++
	}
	s.buf = append(s.buf, v)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready fires when at least one event is pending. It is intended for
// select-racing a subscription against timers; follow a receive on Ready
// with Next.
func (s *Subscription[T]) Ready() <-chan struct{} { return s.ready }

// Next pops the next pending event without blocking. Lag is reported before
// any value that survived the overflow.
func (s *Subscription[T]) Next() (Event[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lagged > 0 {
		ev := Event[T]{Lagged: s.lagged}
		s.lagged = 0
		if len(s.buf) > 0 {
			s.signal()
		}
		return ev, true
	}
	if len(s.buf) == 0 {
		return Event[T]{}, false
	}
	ev := Event[T]{Value: s.buf[0]}
	s.buf = s.buf[1:]
	if len(s.buf) > 0 {
		s.signal()
	}
	return ev, true
}

// Recv blocks until the next event, ctx cancellation, or Close.
func (s *Subscription[T]) Recv(ctx context.Context) (Event[T], error) {
	for {
		if ev, ok := s.Next(); ok {
			return ev, nil
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event[T]{}, ErrClosed
		}
		select {
		case <-ctx.Done():
			return Event[T]{}, ctx.Err()
		case <-s.ready:
		}
	}
}

// Close detaches the subscription from its bus. Pending events are
// discarded.
func (s *Subscription[T]) Close() {
	s.bus.drop(s)
	s.mu.Lock()
	s.closed = true
	s.buf = nil
	s.lagged = 0
	s.mu.Unlock()
	s.signal()
}
