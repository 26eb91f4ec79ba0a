package plumberd

import (
	"time"

	"github.com/modelingevolution/cppplumberd/dispatch"
)

// TypedEventHandler is a standalone event-dispatch table a caller can build
// up with Map[E] calls and then attach to one or more Subscribers, the way
// a single handler class maps several event ids to typed methods before
// being wired into the runtime (spec.md §4.4's register_handler, factored
// out so the mapping can be assembled independently of a concrete
// Subscriber).
type TypedEventHandler struct {
	table *dispatch.Table[eventHandler]
}

// NewTypedEventHandler creates an empty handler set.
func NewTypedEventHandler() *TypedEventHandler {
	return &TypedEventHandler{table: dispatch.NewTable[eventHandler]()}
}

// Map binds id to handler within h, to be attached to a Subscriber later
// via AttachTo.
func Map[E any](h *TypedEventHandler, id uint32, handler func(ts time.Time, event E)) {
	h.table.Register(id, func(ts time.Time, payload any) {
		typed, ok := payload.(E)
		if !ok {
			return
		}
		handler(ts, typed)
	})
}

// AttachTo copies every mapping in h into s's dispatch table. Must be
// called before s.Start.
func (h *TypedEventHandler) AttachTo(s *Subscriber) {
	for id, fn := range h.table.All() {
		s.table.Register(id, fn)
	}
}
