package wstransport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/transport"
)

// Factory builds sockets that speak websocket: the publish and
// reply-server roles serve an HTTP endpoint per stream/command name under
// listenAddr; the subscribe and request-client roles dial dialBase as a
// websocket client. A Factory used purely client-side never binds a port;
// one used purely server-side never dials out.
type Factory struct {
	listenAddr string
	dialBase   string
	dialer     *websocket.Dialer

	mu     sync.Mutex
	server *http.Server
	mux    *http.ServeMux
	ln     chan error
}

// NewFactory creates a Factory. listenAddr is where this side's HTTP
// server listens (e.g. ":8085"), used by publish/reply-server sockets;
// dialBase is the peer's base URL (e.g. "ws://peer-host:8085"), used by
// subscribe/request-client sockets. Either may be left empty if this side
// never plays that role.
func NewFactory(listenAddr, dialBase string, handshakeTimeout time.Duration) *Factory {
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	return &Factory{
		listenAddr: listenAddr,
		dialBase:   dialBase,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// NewPublishSocket implements transport.Factory.
func (f *Factory) NewPublishSocket(endpoint string) transport.PublishSocket {
	return &publishSocket{factory: f, endpoint: endpoint, broadcaster: newBroadcaster()}
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
	return &replyServerSocket{factory: f, endpoint: endpoint, pending: make(chan pendingRequest)}
}

// handle registers pattern on the shared HTTP server, starting it lazily
// on first use.
func (f *Factory) handle(pattern string, fn http.HandlerFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mux == nil {
		f.mux = http.NewServeMux()
		f.server = &http.Server{Addr: f.listenAddr, Handler: f.mux}
		f.ln = make(chan error, 1)
		go func() {
			f.ln <- f.server.ListenAndServe()
		}()
	}
	f.mux.HandleFunc(pattern, fn)
	return nil
}

func (f *Factory) shutdown() error {
	f.mu.Lock()
	server := f.server
	f.mu.Unlock()
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return plumberrors.NewTransportError("wstransport.shutdown", err)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}
