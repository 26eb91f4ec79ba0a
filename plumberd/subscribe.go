package plumberd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/modelingevolution/cppplumberd/dispatch"
	"github.com/modelingevolution/cppplumberd/frame"
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// eventHandler is the type-erased closure shape stored in a Subscriber's
// dispatch table: invoked with the event's publish time and its decoded
// payload.
type eventHandler func(ts time.Time, payload any)

// Subscriber implements spec.md §4.4: one background receive loop per
// subscribed stream, dispatching decoded events by registered id.
type Subscriber struct {
	socket   transport.SubscribeSocket
	registry *registry.Registry
	table    *dispatch.Table[eventHandler]
	endpoint string
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSubscriber creates a Subscriber reading from socket, decoding
// payloads via reg.
func NewSubscriber(socket transport.SubscribeSocket, reg *registry.Registry, endpoint string, m *metric.Metrics) *Subscriber {
	return &Subscriber{
		socket:   socket,
		registry: reg,
		table:    dispatch.NewTable[eventHandler](),
		endpoint: endpoint,
		metrics:  m,
		logger:   slog.Default().With("component", "subscriber", "endpoint", endpoint),
	}
}

// RegisterEventHandler binds id in s's dispatch table to a typed handler.
// Must be called before Start; the registry is read-only once running
// (spec.md §5).
func RegisterEventHandler[E any](s *Subscriber, id uint32, handler func(ts time.Time, event E)) {
	s.table.Register(id, func(ts time.Time, payload any) {
		typed, ok := payload.(E)
		if !ok {
			return
		}
		handler(ts, typed)
	})
}

// Start binds the socket and spawns the background receive loop.
// Idempotent.
func (s *Subscriber) Start(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if err := s.socket.Start(url); err != nil {
		return plumberrors.NewTransportError("subscriber.Start", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.socket.Receive(ctx, s.onMessage); err != nil {
			s.mu.Lock()
			shuttingDown := !s.running
			s.mu.Unlock()
			if !shuttingDown {
				s.logger.Error("subscribe receive loop terminated", "error", err)
			}
		}
	}()
	return nil
}

func (s *Subscriber) onMessage(data []byte) {
	s.metrics.RecordReceived(s.endpoint)

	header, payload, err := frame.Read[messages.EventHeader](data, len(data), s.registry,
		func(h messages.EventHeader) uint32 { return h.EventType })
	if err != nil {
		s.logger.Warn("dropping unparsable event frame", "error", err)
		s.metrics.RecordDispatched(s.endpoint, "decode_error")
		return
	}

	handler, ok := s.table.Lookup(header.EventType)
	if !ok {
		s.metrics.RecordDispatched(s.endpoint, "no_handler")
		return
	}

	ts := time.UnixMilli(header.Timestamp)
	handler(ts, payload)
	s.metrics.RecordDispatched(s.endpoint, "ok")
}

// Stop signals the receive loop to exit, waits for it to finish, and
// closes the underlying socket.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	return s.socket.Close()
}
