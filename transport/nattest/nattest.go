// Package nattest starts an embedded, in-process NATS server for tests
// that need a real github.com/nats-io/nats.go connection without a
// standalone broker process, the same embedded-server pattern the
// teacher's NATS integration tests used against
// github.com/nats-io/nats-server/v2.
package nattest

import (
	"fmt"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
)

// Server wraps an embedded *natsserver.Server bound to a free localhost
// port, torn down automatically at the end of the test.
type Server struct {
	*natsserver.Server
}

// Start launches an embedded NATS server on a free port and waits for it
// to accept connections, registering its shutdown as test cleanup.
func Start(t *testing.T) *Server {
	t.Helper()

	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1, // let the OS pick a free port
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 4096,
	}

	srv, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS server did not become ready")
	}
	t.Cleanup(srv.Shutdown)

	return &Server{Server: srv}
}

// URL returns the client URL for this embedded server.
func (s *Server) URL() string {
	return fmt.Sprintf("nats://%s", s.Addr().String())
}
