// Package registry implements the message registry described by the
// messaging runtime: a bidirectional map between a stable numeric message
// id and an in-memory Go type, together with the encoder/decoder pair used
// to move values of that type across the wire.
//
// The registry is the single source of truth that lets every handler
// (publish, subscribe, request client, request server) be written
// generically against ids while user code keeps working with typed values.
package registry
