package plumberd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelingevolution/cppplumberd/dispatch"
	"github.com/modelingevolution/cppplumberd/frame"
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// CommandHandler is the shape of a registered command handler, named
// after the original's ICommandHandler (spec.md §4.6, SUPPLEMENTED
// FEATURES). Returning a *Fault or *TypedFault[E] fails the command with
// that status; any other error fails it as a generic 500.
type CommandHandler[Req, Rsp any] func(Req) (Rsp, error)

// CommandHandlerVoid is the no-response-payload form (spec.md's
// register_handler_void).
type CommandHandlerVoid[Req any] func(messages.CommandHeader, Req) error

// reqDispatchFunc decodes its payload, invokes the bound handler, and
// writes the CommandResponse envelope (success or fault) into outBuf,
// returning the number of bytes written.
type reqDispatchFunc func(outBuf []byte, payload any) int

// RequestServer implements spec.md §4.6: the request/reply server side.
// Its receive loop owns inBuf/outBuf for its entire lifetime; they are
// never shared outside the loop's goroutine.
type RequestServer struct {
	socket   transport.ReplyServerSocket
	registry *registry.Registry
	table    *dispatch.Table[reqDispatchFunc]
	inBuf    []byte
	outBuf   []byte
	endpoint string
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu     sync.Mutex
	state  transport.State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRequestServer creates a RequestServer with in/out buffers of bufSize
// bytes, in transport.StateCreated.
func NewRequestServer(socket transport.ReplyServerSocket, reg *registry.Registry, endpoint string, bufSize int, m *metric.Metrics) *RequestServer {
	return &RequestServer{
		socket:   socket,
		registry: reg,
		table:    dispatch.NewTable[reqDispatchFunc](),
		inBuf:    make([]byte, bufSize),
		outBuf:   make([]byte, bufSize),
		endpoint: endpoint,
		metrics:  m,
		logger:   slog.Default().With("component", "reqserver", "endpoint", endpoint),
		state:    transport.StateCreated,
	}
}

// RegisterHandler registers reqId/rspId with the server's registry and
// binds reqId in the dispatch table, per spec.md §4.6's
// register_handler<Req,Rsp>.
func RegisterHandler[Req, Rsp any](s *RequestServer, reqId, rspId uint32, fn CommandHandler[Req, Rsp]) error {
	if err := registry.RegisterMsgpack[Req](s.registry, reqId); err != nil {
		return err
	}
	if err := registry.RegisterMsgpack[Rsp](s.registry, rspId); err != nil {
		return err
	}
	s.table.Register(reqId, func(outBuf []byte, payload any) int {
		req, ok := payload.(Req)
		if !ok {
			return s.writeFault(outBuf, NewFault(400, "request payload has unexpected type"))
		}
		rsp, err := fn(req)
		if err != nil {
			return s.writeHandlerError(outBuf, err)
		}
		n, werr := frame.Write(outBuf, messages.CommandResponse{
			StatusCode:   messages.StatusOK,
			ResponseType: rspId,
		}, rsp, s.registry)
		if werr != nil {
			return s.writeFault(outBuf, NewFault(messages.StatusInternalError, "failed to encode response"))
		}
		return n
	})
	return nil
}

// RegisterHandlerVoid registers reqId and binds a handler whose success
// response carries no payload (spec.md's register_handler_void).
func RegisterHandlerVoid[Req any](s *RequestServer, reqId uint32, fn CommandHandlerVoid[Req]) error {
	if err := registry.RegisterMsgpack[Req](s.registry, reqId); err != nil {
		return err
	}
	s.table.Register(reqId, func(outBuf []byte, payload any) int {
		req, ok := payload.(Req)
		if !ok {
			return s.writeFault(outBuf, NewFault(400, "request payload has unexpected type"))
		}
		header := messages.CommandHeader{CommandType: reqId}
		if err := fn(header, req); err != nil {
			return s.writeHandlerError(outBuf, err)
		}
		n, _ := frame.Write(outBuf, messages.CommandResponse{
			StatusCode:   messages.StatusOK,
			ResponseType: messages.NoPayloadType,
		}, nil, s.registry)
		return n
	})
	return nil
}

// RegisterErrorType registers the error id/type E a handler may raise as
// a TypedFault (spec.md §4.6's register_error<E>).
func RegisterErrorType[E any](s *RequestServer, id uint32) error {
	return registry.RegisterMsgpack[E](s.registry, id)
}

func (s *RequestServer) writeFault(outBuf []byte, f *Fault) int {
	n, err := frame.Write(outBuf, messages.CommandResponse{
		StatusCode:   f.Code,
		ErrorMessage: f.Message,
		ResponseType: messages.NoPayloadType,
	}, nil, s.registry)
	if err != nil {
		s.logger.Error("failed to encode fault response", "error", err)
		return 0
	}
	return n
}

func (s *RequestServer) writeHandlerError(outBuf []byte, err error) int {
	if tf, ok := err.(typedFaultLike); ok {
		id, code, msg, payload := tf.faultInfo()
		n, werr := frame.Write(outBuf, messages.CommandResponse{
			StatusCode:   code,
			ErrorMessage: msg,
			ResponseType: id,
		}, payload, s.registry)
		if werr != nil {
			s.logger.Error("failed to encode typed fault response", "error", werr)
			return s.writeFault(outBuf, NewFault(messages.StatusInternalError, "failed to encode typed fault"))
		}
		s.metrics.RecordFault("typed")
		return n
	}
	if f, ok := err.(*Fault); ok {
		s.metrics.RecordFault("generic")
		return s.writeFault(outBuf, f)
	}
	s.metrics.RecordFault("generic")
	return s.writeFault(outBuf, NewFault(messages.StatusInternalError, err.Error()))
}

// Initialize moves the server from Created to Initialized. Must be
// called before Start.
func (s *RequestServer) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != transport.StateCreated {
		return plumberrors.NewConfigurationError("reqserver", fmt.Sprintf("Initialize called from state %s", s.state), nil)
	}
	s.state = transport.StateInitialized
	return nil
}

// Start transitions Initialized -> Running and spawns the receive loop.
func (s *RequestServer) Start(url string) error {
	s.mu.Lock()
	if s.state != transport.StateInitialized {
		s.mu.Unlock()
		return plumberrors.NewConfigurationError("reqserver", fmt.Sprintf("Start called from state %s", s.state), nil)
	}
	if err := s.socket.Start(url); err != nil {
		s.mu.Unlock()
		return plumberrors.NewTransportError("reqserver.Start", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = transport.StateRunning
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.socket.Serve(ctx, s.inBuf, s.outBuf, func(requestLen int) int {
			s.metrics.RecordReceived(s.endpoint)
			return s.handleRequest(requestLen)
		})
		if err != nil {
			s.mu.Lock()
			shuttingDown := s.state != transport.StateRunning
			s.mu.Unlock()
			if !shuttingDown {
				s.logger.Error("request/reply receive loop terminated", "error", err)
			}
		}
	}()
	return nil
}

func (s *RequestServer) handleRequest(requestLen int) int {
	header, payload, err := frame.Read[messages.CommandHeader](s.inBuf, requestLen, s.registry,
		func(h messages.CommandHeader) uint32 { return h.CommandType })
	if err != nil {
		s.metrics.RecordDispatched(s.endpoint, "decode_error")
		return s.writeFault(s.outBuf, NewFault(messages.StatusBadRequest, "failed to decode command: "+err.Error()))
	}

	fn, ok := s.table.Lookup(header.CommandType)
	if !ok {
		s.metrics.RecordDispatched(s.endpoint, "handler_absent")
		s.logger.Warn("no handler registered", "command_type", header.CommandType, "correlation_id", header.CorrelationID)
		return s.writeFault(s.outBuf, NewFault(messages.StatusNotFound,
			fmt.Sprintf("no handler registered for command type %d", header.CommandType)))
	}

	n := fn(s.outBuf, payload)
	s.metrics.RecordDispatched(s.endpoint, "ok")
	return n
}

// Stop transitions Running -> Stopped, waits for the receive loop to
// exit, and closes the underlying socket.
func (s *RequestServer) Stop() error {
	s.mu.Lock()
	if s.state != transport.StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = transport.StateStopped
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	return s.socket.Close()
}

// State reports the server's current lifecycle state.
func (s *RequestServer) State() transport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
