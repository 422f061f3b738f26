package serialwatch

import (
	"sync"
)

// broadcaster fans events out to subscriptions in attachment order
type broadcaster struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// subscribe attaches a new subscription. Subscribing to a closed broadcaster
// returns an already closed subscription.
func (b *broadcaster) subscribe() *Subscription {
	sub := newSubscription(b)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.close()
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// remove detaches sub. It is a no-op if sub is not attached.
func (b *broadcaster) remove(sub *Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// publish queues ev for every attached subscription. It never blocks on a
// subscriber.
func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.enqueue(ev)
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// close detaches and closes every subscription
func (b *broadcaster) close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// Subscription receives device events from a Monitor. Events queue without
// bound, so a slow reader never stalls the monitor or other subscribers.
type Subscription struct {
	owner *broadcaster
	out   chan Event

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	stopped bool

	done chan struct{}
	once sync.Once
}

func newSubscription(owner *broadcaster) *Subscription {
	s := &Subscription{
		owner: owner,
		out:   make(chan Event),
		done:  make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

// Events returns the channel events are delivered on. It is closed after
// Unsubscribe or when the monitor closes.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Unsubscribe detaches the subscription. No event emitted after Unsubscribe
// returns is delivered; queued but unread events are discarded.
func (s *Subscription) Unsubscribe() {
	s.owner.remove(s)
	s.close()
}

func (s *Subscription) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

func (s *Subscription) close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
		close(s.done)
	})
}

// pump moves queued events to out one at a time
func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if !s.deliver(ev) {
			return
		}
	}
}

// deliver blocks until the reader takes ev or the subscription stops
func (s *Subscription) deliver(ev Event) bool {
	select {
	case s.out <- ev:
		return true
	case <-s.done:
		return false
	}
}
