// Package dispatch implements the generic id -> handler lookup spec.md
// §2 lists as its own component: both the subscribe handler (event_type
// -> typed event handler) and the request/reply server (command_type ->
// typed command handler) register closures here and look them up by the
// id carried on the wire. F is left generic so each caller shapes the
// handler signature it needs (an event handler takes a timestamp and a
// payload; a command handler takes a header and a payload and returns a
// response) while sharing the same registration/lookup mechanics and the
// same "unknown id" failure mode.
package dispatch

import "sync"

// Table is a concurrent-safe id -> handler map.
type Table[F any] struct {
	mu       sync.RWMutex
	handlers map[uint32]F
}

// NewTable creates an empty dispatch table.
func NewTable[F any]() *Table[F] {
	return &Table[F]{handlers: make(map[uint32]F)}
}

// Register binds id to handler, replacing any existing binding. Callers
// that require register-once semantics enforce that themselves (the
// message registry already rejects a conflicting (id, type) pair before
// a handler for that id would ever be registered).
func (t *Table[F]) Register(id uint32, handler F) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[id] = handler
}

// Lookup returns the handler registered for id, and whether one exists.
func (t *Table[F]) Lookup(id uint32) (F, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[id]
	return h, ok
}

// Len reports the number of registered handlers.
func (t *Table[F]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

// All returns a snapshot copy of the id -> handler map, letting callers
// merge one table's registrations into another.
func (t *Table[F]) All() map[uint32]F {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[uint32]F, len(t.handlers))
	for id, h := range t.handlers {
		out[id] = h
	}
	return out
}
