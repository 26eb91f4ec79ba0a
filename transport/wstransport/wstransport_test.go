package wstransport

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	port := freePort(t)
	addr := fmt.Sprintf(":%d", port)
	dial := fmt.Sprintf("ws://127.0.0.1:%d", port)

	serverFactory := NewFactory(addr, "", time.Second)
	clientFactory := NewFactory("", dial, time.Second)

	pub := serverFactory.NewPublishSocket("prices")
	require.NoError(t, pub.Start(""))
	defer pub.Close()

	sub := clientFactory.NewSubscribeSocket("prices")
	require.NoError(t, waitForDial(sub.Start))
	defer sub.Close()

	received := make(chan []byte, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go sub.Receive(ctx, func(data []byte) { received <- data })

	require.Eventually(t, func() bool {
		return pub.Send([]byte("hello")) == nil
	}, time.Second, 10*time.Millisecond)

	select {
	case got := <-received:
		require.Equal(t, "hello", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRequestReply_RoundTrip(t *testing.T) {
	port := freePort(t)
	addr := fmt.Sprintf(":%d", port)
	dial := fmt.Sprintf("ws://127.0.0.1:%d", port)

	serverFactory := NewFactory(addr, "", time.Second)
	clientFactory := NewFactory("", dial, time.Second)

	reply := serverFactory.NewReplyServerSocket("commands")
	require.NoError(t, reply.Start(""))
	defer reply.Close()

	inBuf := make([]byte, 256)
	outBuf := make([]byte, 256)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reply.Serve(ctx, inBuf, outBuf, func(n int) int {
		copy(outBuf, inBuf[:n])
		return n
	})

	clt := clientFactory.NewRequestClientSocket("commands")
	require.NoError(t, waitForDial(clt.Start))
	defer clt.Close()

	rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
	defer rcancel()
	resp, err := clt.Send(rctx, []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "ping", string(resp))
}

// waitForDial retries start a few times: the HTTP server goroutine needs a
// moment to bind the listener before a client can dial it.
func waitForDial(start func(string) error) error {
	var err error
	for i := 0; i < 50; i++ {
		if err = start(""); err == nil {
			return nil
		}
		time.Sleep(20 * time.Millisecond)
	}
	return err
}
