// Package cppplumberd is an in-process CQRS and event-bus messaging
// runtime: typed commands dispatched to a single handler with a typed
// reply or fault, and typed events published to named streams and fanned
// out to any number of local and remote subscribers.
//
// # Architecture
//
//	┌───────────────────────────┐
//	│        plumberd.Client    │  SendRequest / Send, Subscriptions
//	└─────────────┬─────────────┘
//	              │ request/reply, pub/sub
//	┌─────────────┴─────────────┐
//	│        plumberd.Server    │  RequestServer, EventStore
//	└─────────────┬─────────────┘
//	              │ Socket (pub/sub, reply/request)
//	┌─────────────┴─────────────┐
//	│      transport.Factory    │  NATS, in-process memory, ...
//	└───────────────────────────┘
//
// # Packages
//
//   - registry: type <-> wire-id mapping, with msgpack/JSON codecs
//   - frame: the length-prefixed binary envelope every message travels in
//   - dispatch: a generic id -> handler table shared by subscribe and
//     request/reply dispatch
//   - messages: the wire headers and built-in message types (CreateStream,
//     CommandHeader/CommandResponse, EventHeader)
//   - transport: the Socket/Factory interfaces every transport implements,
//     plus transport.MemoryBus, an in-process fake for testing
//   - transport/natstransport: the NATS-backed Factory
//   - plumberd: the CQRS runtime itself - Publisher/Subscriber,
//     RequestClient/RequestServer, EventStore, SubscriptionManager, and the
//     Server/Client façades that wire them together
//   - errors: structured, classified errors shared across the runtime
//   - metric: Prometheus metrics for the runtime, nil-safe when disabled
//   - config: configuration loading and validation
//   - examples/calculator: a worked example command/event round trip
//   - cmd/plumberd-example: a runnable host wiring the calculator example
//     against a real NATS broker
package cppplumberd
