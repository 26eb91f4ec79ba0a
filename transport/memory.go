package transport

import (
	"context"
	"sync"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
)

// MemoryBus is an in-process fake of the transport spec.md §1 treats as
// an external collaborator: it backs Factory with goroutine-safe
// channels instead of real sockets, grounded on testutil.MockComponent's
// "default no-op implementations plus a hook to override" shape. It lets
// plumberd's unit tests exercise the full publish/subscribe and
// request/reply paths without a real broker, the way
// natsclient.TestClient fakes a NATS connection for natsclient's own
// tests.
type MemoryBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan []byte
	replyFunc   map[string]func([]byte) []byte
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[string][]chan []byte),
		replyFunc:   make(map[string]func([]byte) []byte),
	}
}

// NewPublishSocket implements Factory.
func (b *MemoryBus) NewPublishSocket(endpoint string) PublishSocket {
	return &memoryPublishSocket{bus: b, endpoint: endpoint}
}

// NewSubscribeSocket implements Factory.
func (b *MemoryBus) NewSubscribeSocket(endpoint string) SubscribeSocket {
	return &memorySubscribeSocket{bus: b, endpoint: endpoint, ch: make(chan []byte, 64)}
}

// NewRequestClientSocket implements Factory.
func (b *MemoryBus) NewRequestClientSocket(endpoint string) RequestClientSocket {
	return &memoryRequestClientSocket{bus: b, endpoint: endpoint}
}

// NewReplyServerSocket implements Factory.
func (b *MemoryBus) NewReplyServerSocket(endpoint string) ReplyServerSocket {
	return &memoryReplyServerSocket{bus: b, endpoint: endpoint, stop: make(chan struct{})}
}

func (b *MemoryBus) publish(endpoint string, data []byte) {
	b.mu.Lock()
	subs := append([]chan []byte(nil), b.subscribers[endpoint]...)
	b.mu.Unlock()
	for _, ch := range subs {
		ch <- data
	}
}

func (b *MemoryBus) addSubscriber(endpoint string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[endpoint] = append(b.subscribers[endpoint], ch)
}

func (b *MemoryBus) removeSubscriber(endpoint string, ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[endpoint]
	for i, s := range subs {
		if s == ch {
			b.subscribers[endpoint] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *MemoryBus) request(endpoint string, data []byte) ([]byte, error) {
	b.mu.Lock()
	fn, ok := b.replyFunc[endpoint]
	b.mu.Unlock()
	if !ok {
		return nil, plumberrors.NewTransportError("request", plumberrors.ErrNoConnection)
	}
	return fn(data), nil
}

func (b *MemoryBus) setReplyFunc(endpoint string, fn func([]byte) []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replyFunc[endpoint] = fn
}

func (b *MemoryBus) clearReplyFunc(endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.replyFunc, endpoint)
}

type memoryPublishSocket struct {
	bus      *MemoryBus
	endpoint string
}

func (s *memoryPublishSocket) Start(string) error { return nil }
func (s *memoryPublishSocket) Send(data []byte) error {
	s.bus.publish(s.endpoint, data)
	return nil
}
func (s *memoryPublishSocket) Close() error { return nil }

type memorySubscribeSocket struct {
	bus      *MemoryBus
	endpoint string
	ch       chan []byte
	started  bool
}

func (s *memorySubscribeSocket) Start(string) error {
	if !s.started {
		s.bus.addSubscriber(s.endpoint, s.ch)
		s.started = true
	}
	return nil
}

func (s *memorySubscribeSocket) Receive(ctx context.Context, onMessage func([]byte)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-s.ch:
			if !ok {
				return nil
			}
			onMessage(data)
		}
	}
}

func (s *memorySubscribeSocket) Close() error {
	if s.started {
		s.bus.removeSubscriber(s.endpoint, s.ch)
		s.started = false
	}
	return nil
}

type memoryRequestClientSocket struct {
	bus      *MemoryBus
	endpoint string
}

func (s *memoryRequestClientSocket) Start(string) error { return nil }

func (s *memoryRequestClientSocket) Send(ctx context.Context, request []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return s.bus.request(s.endpoint, request)
}

func (s *memoryRequestClientSocket) Close() error { return nil }

type memoryReplyServerSocket struct {
	bus      *MemoryBus
	endpoint string
	stop     chan struct{}
	closed   sync.Once
}

func (s *memoryReplyServerSocket) Start(string) error { return nil }

// Serve registers the endpoint's reply function and blocks until ctx is
// done or Close is called. Callers that start a server goroutine and
// immediately issue a request on another goroutine race this
// registration: a Send landing before Serve runs sees no replyFunc and
// gets ErrNoConnection. Real transports don't have this gap since the
// listening socket exists before Serve is called; tests using MemoryBus
// should wait for the server to be up (e.g. a ready channel) before
// sending.
func (s *memoryReplyServerSocket) Serve(ctx context.Context, inBuf, outBuf []byte, handler func(requestLen int) (responseLen int)) error {
	s.bus.setReplyFunc(s.endpoint, func(request []byte) []byte {
		n := copy(inBuf, request)
		respLen := handler(n)
		return append([]byte(nil), outBuf[:respLen]...)
	})
	defer s.bus.clearReplyFunc(s.endpoint)

	select {
	case <-ctx.Done():
		return nil
	case <-s.stop:
		return nil
	}
}

func (s *memoryReplyServerSocket) Close() error {
	s.closed.Do(func() { close(s.stop) })
	return nil
}
