package wstransport

import (
	"context"
	"strings"

	"github.com/gorilla/websocket"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
)

type subscribeSocket struct {
	factory  *Factory
	endpoint string
	conn     *websocket.Conn
}

func (s *subscribeSocket) Start(string) error {
	url := strings.TrimSuffix(s.factory.dialBase, "/") + "/ws/" + s.endpoint
	conn, _, err := s.factory.dialer.Dial(url, nil)
	if err != nil {
		return plumberrors.NewTransportError("ws.subscribe.Start", err)
	}
	s.conn = conn
	return nil
}

func (s *subscribeSocket) Receive(ctx context.Context, onMessage func([]byte)) error {
	if s.conn == nil {
		return plumberrors.NewTransportError("ws.subscribe.Receive", plumberrors.ErrNotStarted)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				return
			}
			onMessage(data)
		}
	}()

	select {
	case <-ctx.Done():
		s.conn.Close()
		<-done
		return nil
	case <-done:
		return nil
	}
}

func (s *subscribeSocket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
