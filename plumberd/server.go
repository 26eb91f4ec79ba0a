package plumberd

import (
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// commandsEndpoint is the reserved transport endpoint name the request/
// reply channel binds to (spec.md §4.10).
const commandsEndpoint = "commands"

// Server is the top-level façade spec.md §4.10 describes for the server
// side: a request/reply server plus an event store, sharing one message
// registry, with the built-in CreateStream command pre-registered.
type Server struct {
	Registry   *registry.Registry
	RequestSrv *RequestServer
	EventStore *EventStore

	rootURL string
}

// NewServer assembles a Server bound to factory, dialing rootURL when
// started.
func NewServer(factory transport.Factory, rootURL string, bufSize int, m *metric.Metrics) (*Server, error) {
	reg := registry.New()

	replySocket := factory.NewReplyServerSocket(commandsEndpoint)
	reqSrv := NewRequestServer(replySocket, reg, commandsEndpoint, bufSize, m)

	store := NewEventStore(reg, factory, bufSize, m)

	s := &Server{
		Registry:   reg,
		RequestSrv: reqSrv,
		EventStore: store,
		rootURL:    rootURL,
	}

	if err := RegisterHandlerVoid[messages.CreateStream](reqSrv, messages.CreateStreamID,
		func(_ messages.CommandHeader, cmd messages.CreateStream) error {
			return s.EventStore.CreateStream(cmd.Name)
		}); err != nil {
		return nil, err
	}

	return s, nil
}

// Start initializes and starts the request/reply server.
func (s *Server) Start() error {
	if err := s.RequestSrv.Initialize(); err != nil {
		return err
	}
	return s.RequestSrv.Start(s.rootURL)
}

// Stop stops the request/reply server.
func (s *Server) Stop() error {
	return s.RequestSrv.Stop()
}
