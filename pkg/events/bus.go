package events

import (
	"context"
	"sync"
)

// Bus fans events out to in-process subscribers. Slow subscribers lose
// events rather than block publishers.
type Bus struct {
	subscribers map[Type]map[*Subscription]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	isShutdown  bool
	bufferSize  int
}

// Subscription receives events of one type, or of every type when
// subscribed to the empty type
type Subscription struct {
	topic     Type
	channel   chan Event
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates a bus whose subscriptions buffer bufferSize events
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Bus{
		subscribers: make(map[Type]map[*Subscription]bool),
		shutdown:    make(chan struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers for events of topic ("" for all). The subscription
// ends when ctx is done, Unsubscribe is called or the bus shuts down; its
// channel is closed then. It returns nil after Shutdown.
func (b *Bus) Subscribe(ctx context.Context, topic Type) *Subscription {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, b.bufferSize),
		bus:     b,
		cancel:  cancel,
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.close()
		}
	}()

	return sub
}

// Publish delivers ev to subscribers of its type and of all types
func (b *Bus) Publish(ev Event) error {
	b.mu.RLock()
	if b.isShutdown {
		b.mu.RUnlock()
		return nil
	}
	subs := make([]*Subscription, 0, len(b.subscribers[ev.Type])+len(b.subscribers[""]))
	for sub := range b.subscribers[ev.Type] {
		subs = append(subs, sub)
	}
	for sub := range b.subscribers[""] {
		subs = append(subs, sub)
	}

	// Sends happen under the read lock so close cannot race with them
	for _, sub := range subs {
		select {
		case sub.channel <- ev:
		default:
		}
	}
	b.mu.RUnlock()
	return nil
}

// SubscriberCount returns the number of subscribers for a topic
func (b *Bus) SubscriberCount(topic Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes all subscriptions
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isShutdown {
		return
	}
	b.isShutdown = true
	close(b.shutdown)

	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
}

// Events returns the subscription's channel
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
