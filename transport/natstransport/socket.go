package natstransport

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/transport"
)

// Factory builds sockets whose endpoint name becomes a NATS subject under
// a fixed subject prefix (spec.md §6's root URL + path segment). One
// Factory typically owns one underlying NATS connection, shared by every
// socket it creates.
type Factory struct {
	url           string
	subjectPrefix string
	opts          []ClientOption
	requestTimeout time.Duration

	mu     sync.Mutex
	client *Client
}

// NewFactory creates a socket factory that dials url lazily, on first
// socket Start, and names subjects "<subjectPrefix>.<endpoint>".
func NewFactory(url, subjectPrefix string, requestTimeout time.Duration, opts ...ClientOption) *Factory {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	return &Factory{url: url, subjectPrefix: subjectPrefix, opts: opts, requestTimeout: requestTimeout}
}

func (f *Factory) subject(endpoint string) string {
	return f.subjectPrefix + "." + endpoint
}

func (f *Factory) connection(ctx context.Context) (*nats.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		c, err := NewClient(f.url, f.opts...)
		if err != nil {
			return nil, err
		}
		f.client = c
	}
	if f.client.GetConnection() == nil || !f.client.GetConnection().IsConnected() {
		if err := f.client.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return f.client.GetConnection(), nil
}

// NewPublishSocket implements transport.Factory.
func (f *Factory) NewPublishSocket(endpoint string) transport.PublishSocket {
	return &publishSocket{factory: f, endpoint: endpoint}
}

// NewSubscribeSocket implements transport.Factory.
func (f *Factory) NewSubscribeSocket(endpoint string) transport.SubscribeSocket {
	return &subscribeSocket{factory: f, endpoint: endpoint}
}

// NewRequestClientSocket implements transport.Factory.
func (f *Factory) NewRequestClientSocket(endpoint string) transport.RequestClientSocket {
	return &requestClientSocket{factory: f, endpoint: endpoint}
}

// NewReplyServerSocket implements transport.Factory.
func (f *Factory) NewReplyServerSocket(endpoint string) transport.ReplyServerSocket {
	return &replyServerSocket{factory: f, endpoint: endpoint}
}

type publishSocket struct {
	factory  *Factory
	endpoint string
	conn     *nats.Conn
}

func (s *publishSocket) Start(string) error {
	conn, err := s.factory.connection(context.Background())
	if err != nil {
		return plumberrors.NewTransportError("publish.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *publishSocket) Send(data []byte) error {
	if s.conn == nil {
		return plumberrors.NewTransportError("publish.Send", plumberrors.ErrNotStarted)
	}
	if err := s.conn.Publish(s.factory.subject(s.endpoint), data); err != nil {
		return plumberrors.NewTransportError("publish.Send", err)
	}
	return nil
}

func (s *publishSocket) Close() error { return nil }

type subscribeSocket struct {
	factory  *Factory
	endpoint string
	conn     *nats.Conn
	sub      *nats.Subscription
}

func (s *subscribeSocket) Start(string) error {
	conn, err := s.factory.connection(context.Background())
	if err != nil {
		return plumberrors.NewTransportError("subscribe.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *subscribeSocket) Receive(ctx context.Context, onMessage func([]byte)) error {
	if s.conn == nil {
		return plumberrors.NewTransportError("subscribe.Receive", plumberrors.ErrNotStarted)
	}
	sub, err := s.conn.Subscribe(s.factory.subject(s.endpoint), func(msg *nats.Msg) {
		onMessage(msg.Data)
	})
	if err != nil {
		return plumberrors.NewTransportError("subscribe.Receive", err)
	}
	s.sub = sub

	<-ctx.Done()
	return nil
}

func (s *subscribeSocket) Close() error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}

type requestClientSocket struct {
	factory  *Factory
	endpoint string
	conn     *nats.Conn
}

func (s *requestClientSocket) Start(string) error {
	conn, err := s.factory.connection(context.Background())
	if err != nil {
		return plumberrors.NewTransportError("request.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *requestClientSocket) Send(ctx context.Context, request []byte) ([]byte, error) {
	if s.conn == nil {
		return nil, plumberrors.NewTransportError("request.Send", plumberrors.ErrNotStarted)
	}
	ctx, cancel := context.WithTimeout(ctx, s.factory.requestTimeout)
	defer cancel()

	msg, err := s.conn.RequestWithContext(ctx, s.factory.subject(s.endpoint), request)
	if err != nil {
		return nil, plumberrors.NewTransportError("request.Send", err)
	}
	return msg.Data, nil
}

func (s *requestClientSocket) Close() error { return nil }

type replyServerSocket struct {
	factory  *Factory
	endpoint string
	conn     *nats.Conn
	sub      *nats.Subscription
}

func (s *replyServerSocket) Start(string) error {
	conn, err := s.factory.connection(context.Background())
	if err != nil {
		return plumberrors.NewTransportError("reply.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *replyServerSocket) Serve(ctx context.Context, inBuf, outBuf []byte, handler func(requestLen int) (responseLen int)) error {
	if s.conn == nil {
		return plumberrors.NewTransportError("reply.Serve", plumberrors.ErrNotStarted)
	}

	var mu sync.Mutex
	sub, err := s.conn.Subscribe(s.factory.subject(s.endpoint), func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()

		n := copy(inBuf, msg.Data)
		respLen := handler(n)
		_ = msg.Respond(outBuf[:respLen])
	})
	if err != nil {
		return plumberrors.NewTransportError("reply.Serve", err)
	}
	s.sub = sub

	<-ctx.Done()
	return nil
}

func (s *replyServerSocket) Close() error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}
