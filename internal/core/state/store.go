// Package state provides a single-entity, client-side state container.
//
// A Store holds at most one value of type T. Callers replace it with Set,
// merge a patch of type P into it with Update, and drop it with Clear.
// Every mutation that can change what Get returns notifies subscribers
// synchronously, in subscription order.
//
// A Store is not safe for concurrent use. It is meant to be owned by a
// single consumer (a CLI session, a UI runtime) that never interleaves
// reads and mutations.
package state

// MergeFunc produces a new entity from a held entity and a patch. Fields the
// patch does not mention must be carried over unchanged.
type MergeFunc[T, P any] func(held T, patch P) T

// Listener observes the entity after a mutation. present is false once the
// store has been cleared.
type Listener[T any] func(value T, present bool)

// Store holds at most one entity of type T, patched with values of type P.
type Store[T, P any] struct {
	value   T
	present bool
	merge   MergeFunc[T, P]

	nextID    int
	listeners []subscription[T]
}

type subscription[T any] struct {
	id int
	fn Listener[T]
}

// New creates an empty store that uses merge for Update.
func New[T, P any](merge func(held T, patch P) T) *Store[T, P] {
	if merge == nil {
		panic("state: nil merge function")
	}
	return &Store[T, P]{merge: merge}
}

// Get returns the held entity and whether one is held.
func (s *Store[T, P]) Get() (T, bool) {
	return s.value, s.present
}

// Set replaces the held entity.
func (s *Store[T, P]) Set(value T) {
	s.value = value
	s.present = true
	s.notify()
}

// Update merges patch into the held entity. Without a held entity it does
// nothing and does not notify.
func (s *Store[T, P]) Update(patch P) {
	if !s.present {
		return
	}
	s.value = s.merge(s.value, patch)
	s.notify()
}

// Clear drops the held entity. It notifies even when nothing was held.
func (s *Store[T, P]) Clear() {
	var zero T
	s.value = zero
	s.present = false
	s.notify()
}

// Subscribe registers fn for every subsequent notification and returns a
// function that removes it. Calling the returned function twice is harmless.
func (s *Store[T, P]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription[T]{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[T, P]) notify() {
	// Snapshot so listeners may unsubscribe while being notified.
	listeners := s.listeners
	for _, l := range listeners {
		l.fn(s.value, s.present)
	}
}
