package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/modelingevolution/cppplumberd/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Decoder turns an encoded payload into a value of the registered type.
type Decoder func(data []byte) (any, error)

// Encoder turns a value of the registered type into its encoded form.
type Encoder func(v any) ([]byte, error)

type entry struct {
	id      uint32
	typ     reflect.Type
	name    string
	encode  Encoder
	decode  Decoder
}

// Registry is the bidirectional id<->type map described in spec.md §4.1.
//
// It is write-once at configuration time and read-many at runtime: after
// the owning endpoint calls Start, callers must not register further
// types (see transport.State for the equivalent pattern used by the
// request/reply server built on top of this registry).
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint32]*entry
	byType map[reflect.Type]*entry
}

// New creates an empty message registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[uint32]*entry),
		byType: make(map[reflect.Type]*entry),
	}
}

// Register binds id to the type of sample using encode/decode to move
// values across the wire. Re-registering the exact same (id, type) pair is
// a no-op. Registering a different type under an existing id, or a
// different id under an existing type, fails with an *errors.ConfigurationError.
func Register[T any](r *Registry, id uint32, encode func(T) ([]byte, error), decode func([]byte) (T, error)) error {
	var zero T
	typ := reflect.TypeOf(zero)
	name := typ.String()

	enc := func(v any) ([]byte, error) {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("registry: encode: value is %T, want %s", v, name)
		}
		return encode(typed)
	}
	dec := func(data []byte) (any, error) {
		v, err := decode(data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return r.register(id, typ, name, enc, dec)
}

// RegisterMsgpack registers T using github.com/vmihailenco/msgpack/v5 for
// both directions: the structured field-based encoder spec.md §1 assumes
// sits behind serialize/parse. This is the default codec for the built-in
// wire messages in package messages and the recommended one for host
// command/event payloads.
func RegisterMsgpack[T any](r *Registry, id uint32) error {
	return Register[T](r, id,
		func(v T) ([]byte, error) { return msgpack.Marshal(v) },
		func(data []byte) (T, error) {
			var v T
			if err := msgpack.Unmarshal(data, &v); err != nil {
				return v, errors.WrapDecode(err, "registry", "decode")
			}
			return v, nil
		},
	)
}

// RegisterJSON registers T using encoding/json for both directions, useful
// for host payloads that favor human-readable wire bytes over msgpack's
// compactness (e.g. during CLI debugging of a capture).
func RegisterJSON[T any](r *Registry, id uint32) error {
	return Register[T](r, id,
		func(v T) ([]byte, error) { return json.Marshal(v) },
		func(data []byte) (T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return v, errors.WrapDecode(err, "registry", "decode")
			}
			return v, nil
		},
	)
}

// IDFor returns the id T is registered under, without needing a sample
// value the way IDOf does.
func IDFor[T any](r *Registry) (uint32, error) {
	var zero T
	return r.IDOfType(reflect.TypeOf(zero))
}

func (r *Registry) register(id uint32, typ reflect.Type, name string, encode Encoder, decode Decoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[id]; ok {
		if existing.typ != typ {
			return errors.WrapConfig(
				fmt.Errorf("id %d already registered to %s, cannot register %s", id, existing.name, name),
				"registry", "Register")
		}
		// Same (id, type) pair re-registered: no-op.
		return nil
	}
	if existing, ok := r.byType[typ]; ok {
		if existing.id != id {
			return errors.WrapConfig(
				fmt.Errorf("type %s already registered to id %d, cannot register id %d", name, existing.id, id),
				"registry", "Register")
		}
		return nil
	}

	e := &entry{id: id, typ: typ, name: name, encode: encode, decode: decode}
	r.byID[id] = e
	r.byType[typ] = e
	return nil
}

// Decode looks up id and parses data into the registered value.
func (r *Registry) Decode(id uint32, data []byte) (any, error) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapUnknownMessageID(id)
	}
	v, err := e.decode(data)
	if err != nil {
		return nil, errors.WrapDecode(err, "registry", "Decode")
	}
	return v, nil
}

// Encode serializes v using its registered encoder.
func (r *Registry) Encode(v any) ([]byte, error) {
	r.mu.RLock()
	e, ok := r.byType[reflect.TypeOf(v)]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapUnknownType(reflect.TypeOf(v).String())
	}
	return e.encode(v)
}

// IDOf returns the id a value's type is registered under.
func (r *Registry) IDOf(v any) (uint32, error) {
	return r.IDOfType(reflect.TypeOf(v))
}

// IDOfType returns the id a reflect.Type is registered under.
func (r *Registry) IDOfType(typ reflect.Type) (uint32, error) {
	r.mu.RLock()
	e, ok := r.byType[typ]
	r.mu.RUnlock()
	if !ok {
		return 0, errors.WrapUnknownType(typ.String())
	}
	return e.id, nil
}

// Name returns a human-readable type name for diagnostics, as spec.md
// §4.1's get_name.
func (r *Registry) Name(id uint32) (string, error) {
	r.mu.RLock()
	e, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return "", errors.WrapUnknownMessageID(id)
	}
	return e.name, nil
}

// Has reports whether id is registered, without allocating an error.
func (r *Registry) Has(id uint32) bool {
	r.mu.RLock()
	_, ok := r.byID[id]
	r.mu.RUnlock()
	return ok
}
