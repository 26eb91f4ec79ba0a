// Package transport defines the four socket roles spec.md §6 requires of
// the underlying ipc/tcp message library, and the socket-factory contract
// that turns an endpoint name into a concrete socket. The messaging
// runtime (package plumberd) is written entirely against these
// interfaces; package transport/natstransport and
// package transport/wstransport are the two concrete backends shipped
// with this module.
package transport

import "context"

// State mirrors the component lifecycle the teacher's component package
// uses (created -> initialized -> running -> stopped), applied here to
// the server-socket state machine spec.md §4.6 requires: Start from
// Created is rejected, Start from Initialized moves to Running and spawns
// the receive loop, Stop is only valid from Running.
type State int

const (
	StateCreated State = iota
	StateInitialized
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PublishSocket is the synchronous, fire-and-forget publish role: one
// socket per stream name on the server (spec.md §3's Stream).
type PublishSocket interface {
	// Start binds the socket to url. Idempotent: a second Start on an
	// already-started socket is a no-op.
	Start(url string) error
	Send(data []byte) error
	Close() error
}

// SubscribeSocket is the receive role a subscribe handler drives: one
// background receive loop per socket, bounded by ctx (spec.md §5).
type SubscribeSocket interface {
	Start(url string) error
	// Receive blocks the calling goroutine, invoking onMessage for every
	// inbound frame, until ctx is done or the socket is closed.
	Receive(ctx context.Context, onMessage func([]byte)) error
	Close() error
}

// RequestClientSocket is the blocking request role the request/reply
// client drives.
type RequestClientSocket interface {
	Start(url string) error
	Send(ctx context.Context, request []byte) ([]byte, error)
	Close() error
}

// ReplyServerSocket is the request/reply server role: one background
// receive loop that fills inBuf, invokes handler, and sends
// outBuf[:responseLen] back to the peer that sent the request.
type ReplyServerSocket interface {
	Start(url string) error
	// Serve blocks, running the receive loop until ctx is done or Close is
	// called. handler is invoked on the same goroutine after inBuf has
	// been filled with requestLen bytes, and must return how many bytes
	// of outBuf to send back.
	Serve(ctx context.Context, inBuf, outBuf []byte, handler func(requestLen int) (responseLen int)) error
	Close() error
}

// Factory turns a logical endpoint name into a concrete socket. The
// built-in command endpoint is named "commands"; each stream uses its own
// name (spec.md §6).
type Factory interface {
	NewPublishSocket(endpoint string) PublishSocket
	NewSubscribeSocket(endpoint string) SubscribeSocket
	NewRequestClientSocket(endpoint string) RequestClientSocket
	NewReplyServerSocket(endpoint string) ReplyServerSocket
}
