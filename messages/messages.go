// Package messages defines the built-in wire messages spec.md §6 names:
// the command envelope, the command response envelope, the event header,
// and the built-in CreateStream command. Every type here round-trips
// through github.com/vmihailenco/msgpack/v5, the structured field-based
// encoder the rest of the messaging runtime assumes (spec.md §1's "wire
// serialization format... is assumed" collaborator).
package messages

// CommandHeader carries the command's registered type id, the recipient
// string the protocol forwards unchanged, and a correlation id the client
// stamps on every request so a single round trip can be traced through
// client logs, server logs, and metric labels (spec.md §3).
type CommandHeader struct {
	CommandType   uint32 `msgpack:"command_type"`
	Recipient     string `msgpack:"recipient"`
	CorrelationID string `msgpack:"correlation_id"`
}

// Status code boundaries for CommandResponse (spec.md §3).
const (
	StatusOK           uint32 = 200
	StatusBadRequest    uint32 = 400
	StatusNotFound      uint32 = 404
	StatusInternalError uint32 = 500
)

// NoPayloadType is the sentinel response_type meaning "no payload".
const NoPayloadType uint32 = 0

// CommandResponse carries the outcome of a dispatched command: success
// in [200,300), failure otherwise. ResponseType is either NoPayloadType
// or a registered id identifying the payload that follows (the success
// payload on 2xx, the typed-fault payload on 3xx+).
type CommandResponse struct {
	StatusCode   uint32 `msgpack:"status_code"`
	ErrorMessage string `msgpack:"error_message"`
	ResponseType uint32 `msgpack:"response_type"`
}

// Success reports whether the status code denotes a successful command.
func (r CommandResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// EventHeader carries the published event's registered type id and a
// wall-clock timestamp in milliseconds since epoch (spec.md §3).
type EventHeader struct {
	EventType uint32 `msgpack:"event_type"`
	Timestamp int64  `msgpack:"timestamp"`
}

// CreateStream is the built-in command that provisions a named stream on
// the server before any Publish to that name may succeed (spec.md §6).
type CreateStream struct {
	Name string `msgpack:"name"`
}

// Built-in message ids, reserved below 100 for host applications to avoid
// (spec.md §6 suggests 1 for CreateStream).
const (
	CreateStreamID uint32 = 1
)
