package core

import "sync"

// Subscriber is notified after a command completes. It runs on the caller's
// goroutine once the store lock is released, so it may read the store but
// should hand slow work off.
type Subscriber func(Event)

type subscription struct {
	id int
	fn Subscriber
}

type subscriptions struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

func (s *subscriptions) add(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscriptions) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (s *subscriptions) active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs) > 0
}

// publish notifies subscribers in registration order.
func (s *subscriptions) publish(event Event) {
	s.mu.RLock()
	subs := append([]subscription(nil), s.subs...)
	s.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(event)
	}
}
