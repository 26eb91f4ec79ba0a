// Package wstransport implements transport.Factory over gorilla/websocket,
// the federation-pattern backend the teacher's output/websocket and
// input/websocket_input components demonstrate: one side runs an HTTP
// server that upgrades connections per endpoint and broadcasts to every
// connected peer, the other side dials that server as a websocket client.
// Useful when two plumberd instances need to talk across a network
// boundary without a NATS broker in between.
package wstransport
