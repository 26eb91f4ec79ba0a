package plumberd

import (
	"log/slog"
	"sync"
	"time"

	"github.com/modelingevolution/cppplumberd/frame"
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// Publisher implements spec.md §4.3: publish an event onto a single
// socket, framed with an EventHeader. Start is idempotent; a Publisher
// must not be used before Start succeeds.
type Publisher struct {
	socket   transport.PublishSocket
	registry *registry.Registry
	buf      []byte
	endpoint string
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewPublisher creates a Publisher that frames events into a buffer of
// bufSize bytes before handing them to socket.
func NewPublisher(socket transport.PublishSocket, reg *registry.Registry, endpoint string, bufSize int, m *metric.Metrics) *Publisher {
	return &Publisher{
		socket:   socket,
		registry: reg,
		buf:      make([]byte, bufSize),
		endpoint: endpoint,
		metrics:  m,
		logger:   slog.Default().With("component", "publisher", "endpoint", endpoint),
	}
}

// Start binds the underlying socket, idempotently.
func (p *Publisher) Start(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.socket.Start(url); err != nil {
		return plumberrors.NewTransportError("publisher.Start", err)
	}
	p.started = true
	return nil
}

// Publish frames event with a fresh EventHeader and sends it on the
// underlying socket.
func (p *Publisher) Publish(event any) error {
	id, err := p.registry.IDOf(event)
	if err != nil {
		return err
	}

	header := messages.EventHeader{
		EventType: id,
		Timestamp: time.Now().UnixMilli(),
	}

	p.mu.Lock()
	n, err := frame.Write(p.buf, header, event, p.registry)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	sendErr := p.socket.Send(p.buf[:n])
	p.mu.Unlock()

	if sendErr != nil {
		return plumberrors.NewTransportError("publisher.Publish", sendErr)
	}
	p.metrics.RecordPublish(p.endpoint)
	p.logger.Debug("published event", "event_type", id, "bytes", n)
	return nil
}

// Close releases the underlying socket.
func (p *Publisher) Close() error {
	return p.socket.Close()
}
