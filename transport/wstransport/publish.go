package wstransport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
)

// broadcaster fans a published frame out to every currently connected
// websocket client, mirroring the teacher's Output.clients map guarded by
// a single mutex.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

func (b *broadcaster) add(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[conn] = struct{}{}
}

func (b *broadcaster) remove(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
}

func (b *broadcaster) send(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type publishSocket struct {
	factory     *Factory
	endpoint    string
	broadcaster *broadcaster
}

func (s *publishSocket) Start(string) error {
	return s.factory.handle("/ws/"+s.endpoint, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.broadcaster.add(conn)
		defer func() {
			s.broadcaster.remove(conn)
			conn.Close()
		}()
		// Subscribers never send anything meaningful on this connection;
		// keep reading so gorilla/websocket processes pings/close frames
		// until the peer disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

func (s *publishSocket) Send(data []byte) error {
	if err := s.broadcaster.send(data); err != nil {
		return plumberrors.NewTransportError("ws.publish.Send", err)
	}
	return nil
}

func (s *publishSocket) Close() error {
	return s.factory.shutdown()
}
