package plumberd

import (
	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// Client is the top-level façade spec.md §4.10 describes for the client
// side: a request/reply client plus a subscription manager, sharing one
// message registry, with the built-in CreateStream command pre-registered.
type Client struct {
	Registry      *registry.Registry
	RequestClt    *RequestClient
	Subscriptions *SubscriptionManager

	rootURL string
}

// NewClient assembles a Client bound to factory, dialing rootURL on first
// use.
func NewClient(factory transport.Factory, rootURL string, bufSize int, m *metric.Metrics) (*Client, error) {
	reg := registry.New()

	if err := RegisterError[messages.CreateStream](reg, messages.CreateStreamID); err != nil {
		return nil, err
	}

	reqSocket := factory.NewRequestClientSocket(commandsEndpoint)
	reqClt := NewRequestClient(reqSocket, reg, bufSize, m)

	subMgr := NewSubscriptionManager(factory, reg, reqClt, rootURL, bufSize, m)

	return &Client{
		Registry:      reg,
		RequestClt:    reqClt,
		Subscriptions: subMgr,
		rootURL:       rootURL,
	}, nil
}

// Close tears down every open subscription and the request/reply client.
func (c *Client) Close() error {
	if err := c.Subscriptions.Close(); err != nil {
		return err
	}
	return c.RequestClt.socket.Close()
}
