package wstransport

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
)

type requestClientSocket struct {
	factory  *Factory
	endpoint string
	conn     *websocket.Conn
}

func (s *requestClientSocket) Start(string) error {
	url := strings.TrimSuffix(s.factory.dialBase, "/") + "/rpc/" + s.endpoint
	conn, _, err := s.factory.dialer.Dial(url, nil)
	if err != nil {
		return plumberrors.NewTransportError("ws.request.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *requestClientSocket) Send(ctx context.Context, request []byte) ([]byte, error) {
	if s.conn == nil {
		return nil, plumberrors.NewTransportError("ws.request.Send", plumberrors.ErrNotStarted)
	}
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
		s.conn.SetReadDeadline(deadline)
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, request); err != nil {
		return nil, plumberrors.NewTransportError("ws.request.Send", err)
	}
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, plumberrors.NewTransportError("ws.request.Send", err)
	}
	return data, nil
}

func (s *requestClientSocket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// pendingRequest is one inbound command frame, paired with the connection
// it arrived on so the reply can be written back to the right peer.
type pendingRequest struct {
	conn *websocket.Conn
	data []byte
}

type replyServerSocket struct {
	factory  *Factory
	endpoint string
	pending  chan pendingRequest
}

func (s *replyServerSocket) Start(string) error {
	return s.factory.handle("/rpc/"+s.endpoint, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.pending <- pendingRequest{conn: conn, data: data}
		}
	})
}

// Serve implements transport.ReplyServerSocket: one goroutine per
// connection reads requests into s.pending, this loop drains it and
// invokes handler on its own goroutine, matching the single-owner
// inBuf/outBuf contract every other backend upholds.
func (s *replyServerSocket) Serve(ctx context.Context, inBuf, outBuf []byte, handler func(requestLen int) (responseLen int)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-s.pending:
			n := copy(inBuf, req.data)
			respLen := handler(n)
			_ = req.conn.WriteMessage(websocket.BinaryMessage, outBuf[:respLen])
		}
	}
}

func (s *replyServerSocket) Close() error {
	return s.factory.shutdown()
}
