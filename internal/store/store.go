// Package store holds the session-scoped client state: cart, customer
// session and recently-viewed products. Each store loads its prior state
// from durable storage at construction (falling back to an empty default),
// applies mutations in memory first, persists the result, then notifies
// subscribers. A failed persistence write is logged and swallowed; the
// in-memory state stays authoritative for the rest of the session.
package store

import "sync"

// subscribers manages state-changed callbacks for a store. Any number of
// views may subscribe; each receives a no-argument notification after a
// mutation has been applied. Callbacks run outside the store's lock.
type subscribers struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

// subscribe registers fn and returns a function that removes it.
func (s *subscribers) subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]func())
	}

	id := s.next
	s.next++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notify invokes every registered callback. Ordering across subscribers
// is unspecified.
func (s *subscribers) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
