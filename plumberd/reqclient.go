package plumberd

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/modelingevolution/cppplumberd/frame"
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/pkg/retry"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// RequestClient implements spec.md §4.5: a blocking request/reply client.
// A single RequestClient's send/recv buffers are owned by the calling
// goroutine; concurrent Send calls on the same client require external
// synchronization or one client per goroutine.
type RequestClient struct {
	socket   transport.RequestClientSocket
	registry *registry.Registry
	sendBuf  []byte
	metrics  *metric.Metrics
	logger   *slog.Logger
	retry    retry.Config

	mu      sync.Mutex
	started bool
}

// NewRequestClient creates a RequestClient whose send buffer is bufSize
// bytes. The socket.Send call is retried with plumberrors.DefaultRetryConfig
// on transient transport errors (spec.md §7); use SetRetryConfig to
// override.
func NewRequestClient(socket transport.RequestClientSocket, reg *registry.Registry, bufSize int, m *metric.Metrics) *RequestClient {
	return &RequestClient{
		socket:   socket,
		registry: reg,
		sendBuf:  make([]byte, bufSize),
		metrics:  m,
		logger:   slog.Default().With("component", "reqclient"),
		retry:    plumberrors.DefaultRetryConfig().ToRetryConfig(),
	}
}

// SetRetryConfig overrides the backoff used around the blocking socket.Send
// call.
func (c *RequestClient) SetRetryConfig(cfg retry.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = cfg
}

func (c *RequestClient) ensureStarted(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if err := c.socket.Start(url); err != nil {
		return plumberrors.NewTransportError("reqclient.Start", err)
	}
	c.started = true
	return nil
}

// Send implements the void form: send<Req>(cmd) -> error. On a
// non-success response it returns a *Fault or a typed fault reconstructed
// via AsTypedFault.
func Send[Req any](c *RequestClient, ctx context.Context, url, recipient string, cmd Req) error {
	_, _, err := sendFrame[Req](c, ctx, url, recipient, cmd)
	return err
}

// SendRequest implements the typed form: send<Req, Rsp>(cmd) -> (Rsp,
// error).
func SendRequest[Req, Rsp any](c *RequestClient, ctx context.Context, url, recipient string, cmd Req) (Rsp, error) {
	var zero Rsp

	_, payload, err := sendFrame[Req](c, ctx, url, recipient, cmd)
	if err != nil {
		return zero, err
	}
	if payload == nil {
		return zero, nil
	}
	typed, ok := payload.(Rsp)
	if !ok {
		return zero, &ResponseTypeMismatch{Want: reflect.TypeOf(zero), Got: reflect.TypeOf(payload)}
	}
	return typed, nil
}

// sendFrame performs the common request/response mechanics shared by Send
// and SendRequest: frame the command, send it, parse the reply, and
// translate a non-success status into an error. On success it returns the
// response header and decoded payload (nil if none) with a nil error.
func sendFrame[Req any](c *RequestClient, ctx context.Context, url, recipient string, cmd Req) (messages.CommandResponse, any, error) {
	var zero messages.CommandResponse

	if err := c.ensureStarted(url); err != nil {
		return zero, nil, err
	}

	id, err := c.registry.IDOf(cmd)
	if err != nil {
		return zero, nil, err
	}

	correlationID := uuid.New().String()
	header := messages.CommandHeader{CommandType: id, Recipient: recipient, CorrelationID: correlationID}

	c.mu.Lock()
	n, err := frame.Write(c.sendBuf, header, cmd, c.registry)
	if err != nil {
		c.mu.Unlock()
		return zero, nil, err
	}

	watch := NewStopwatch()
	retryCfg := c.retry
	var respBytes []byte
	sendErr := retry.Do(ctx, retryCfg, func() error {
		var err error
		respBytes, err = c.socket.Send(ctx, c.sendBuf[:n])
		if err == nil {
			return nil
		}
		wrapped := plumberrors.NewTransportError("reqclient.Send", err)
		if !plumberrors.IsTransient(wrapped) {
			return retry.NonRetryable(wrapped)
		}
		return wrapped
	})
	c.mu.Unlock()

	c.metrics.RecordCommandLatency(recipient, watch.Elapsed())
	if sendErr != nil {
		c.logger.Error("command send failed", "correlation_id", correlationID, "error", sendErr)
		return zero, nil, sendErr
	}

	respHeader, payload, err := frame.Read[messages.CommandResponse](respBytes, len(respBytes), c.registry,
		func(h messages.CommandResponse) uint32 { return h.ResponseType })
	if err != nil {
		return zero, nil, err
	}

	if respHeader.Success() {
		return respHeader, payload, nil
	}

	if payload != nil {
		c.metrics.RecordFault("typed")
		return respHeader, nil, &untypedFault{
			id:      respHeader.ResponseType,
			code:    respHeader.StatusCode,
			message: respHeader.ErrorMessage,
			payload: payload,
		}
	}
	c.metrics.RecordFault("generic")
	return respHeader, nil, NewFault(respHeader.StatusCode, respHeader.ErrorMessage)
}

// RegisterError registers E under id so the client can reconstruct a
// TypedFault carrying it (spec.md §4.5's "Error-factory registry"). This
// is the same registry registration every payload type uses; the name is
// kept distinct to match the vocabulary of spec.md §4.5/§4.6.
func RegisterError[E any](reg *registry.Registry, id uint32) error {
	return registry.RegisterMsgpack[E](reg, id)
}
