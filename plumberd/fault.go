package plumberd

import (
	"fmt"
	"reflect"
)

// ResponseTypeMismatch is raised by the request/reply client when a
// successful CommandResponse's payload does not decode to the response
// type the caller asked for (spec.md §4.5 step 5).
type ResponseTypeMismatch struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e *ResponseTypeMismatch) Error() string {
	return fmt.Sprintf("plumberd: response type mismatch: want %s, got %s", e.Want, e.Got)
}

// Fault is the non-typed command failure path of spec.md §7/§9: a bare
// status code plus a message, with no registered payload type attached.
type Fault struct {
	Code    uint32
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("plumberd: fault %d: %s", f.Code, f.Message)
}

// NewFault builds a generic Fault, the one a command handler raises (or
// the server synthesizes for an unknown command id or decode failure).
func NewFault(code uint32, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

// TypedFault is the typed command failure path: the payload carries a
// registered error value of type E, reconstructed by the client from the
// same id the server serialized it under (spec.md §9's "Typed faults").
type TypedFault[E any] struct {
	ID      uint32
	Code    uint32
	Message string
	Payload E
}

func (f *TypedFault[E]) Error() string {
	return fmt.Sprintf("plumberd: typed fault %d (id=%d): %s", f.Code, f.ID, f.Message)
}

// NewTypedFault builds a TypedFault carrying payload under the given
// registered error id.
func NewTypedFault[E any](id, code uint32, message string, payload E) *TypedFault[E] {
	return &TypedFault[E]{ID: id, Code: code, Message: message, Payload: payload}
}

// typedFaultLike lets server-side code extract a TypedFault[E]'s fields
// without knowing E, the way the source's runtime downcast inspects a
// base fault type (spec.md §9's "dynamic dispatch on message id" note,
// applied here to the fault hierarchy instead of the payload hierarchy).
type typedFaultLike interface {
	faultInfo() (id, code uint32, message string, payload any)
}

func (f *TypedFault[E]) faultInfo() (uint32, uint32, string, any) {
	return f.ID, f.Code, f.Message, f.Payload
}

// untypedFault is what the request/reply client reconstructs before it
// knows the concrete E: the decoded payload is carried as any, and a
// caller that knows E can type-assert TypedFault[E] out of it via
// AsTypedFault.
type untypedFault struct {
	id      uint32
	code    uint32
	message string
	payload any
}

func (f *untypedFault) Error() string {
	return fmt.Sprintf("plumberd: typed fault %d (id=%d): %s", f.code, f.id, f.message)
}

// AsTypedFault reports whether err is a typed fault carrying a payload of
// type E, returning the strongly-typed fault if so.
func AsTypedFault[E any](err error) (*TypedFault[E], bool) {
	u, ok := err.(*untypedFault)
	if !ok {
		return nil, false
	}
	payload, ok := u.payload.(E)
	if !ok {
		return nil, false
	}
	return &TypedFault[E]{ID: u.id, Code: u.code, Message: u.message, Payload: payload}, true
}
