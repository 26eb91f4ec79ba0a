package plumberd

import (
	"context"
	"sync"

	"github.com/modelingevolution/cppplumberd/messages"
	"github.com/modelingevolution/cppplumberd/metric"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// builtinRecipient is the server's reserved recipient name for built-in
// commands such as CreateStream (spec.md §4.8 step 1).
const builtinRecipient = "$"

// Subscription is the handle spec.md §4.8 step 5 returns: dropping it is
// equivalent to calling Unsubscribe.
type Subscription struct {
	stream string
	sub    *Subscriber
	mgr    *SubscriptionManager
}

// Unsubscribe tears down the subscribe socket and removes the subscription
// from its manager. Safe to call more than once.
func (s *Subscription) Unsubscribe() error {
	return s.mgr.unsubscribe(s)
}

// SubscriptionManager implements spec.md §4.8: the client-side subscribe
// entry point, which asks the server to create the stream before opening a
// local subscribe socket for it.
type SubscriptionManager struct {
	factory  transport.Factory
	registry *registry.Registry
	client   *RequestClient
	rootURL  string
	bufSize  int
	metrics  *metric.Metrics

	mu            sync.Mutex
	subscriptions map[*Subscription]struct{}
}

// NewSubscriptionManager creates a SubscriptionManager that dials rootURL
// for every subscribe socket it opens, and uses client to send the
// built-in CreateStream command.
func NewSubscriptionManager(factory transport.Factory, reg *registry.Registry, client *RequestClient, rootURL string, bufSize int, m *metric.Metrics) *SubscriptionManager {
	return &SubscriptionManager{
		factory:       factory,
		registry:      reg,
		client:        client,
		rootURL:       rootURL,
		bufSize:       bufSize,
		metrics:       m,
		subscriptions: make(map[*Subscription]struct{}),
	}
}

// Subscribe implements spec.md §4.8's subscribe(stream_name, dispatcher):
// it asks the server to create the stream, opens a subscribe socket for
// it, lets configure register typed handlers on the resulting Subscriber,
// starts it, and returns a handle tracking it.
func (m *SubscriptionManager) Subscribe(ctx context.Context, streamName string, configure func(*Subscriber)) (*Subscription, error) {
	if err := Send[messages.CreateStream](m.client, ctx, m.rootURL, builtinRecipient, messages.CreateStream{Name: streamName}); err != nil {
		return nil, err
	}

	socket := m.factory.NewSubscribeSocket(streamName)
	sub := NewSubscriber(socket, m.registry, streamName, m.metrics)
	if configure != nil {
		configure(sub)
	}
	if err := sub.Start(m.rootURL); err != nil {
		return nil, err
	}

	handle := &Subscription{stream: streamName, sub: sub, mgr: m}
	m.mu.Lock()
	m.subscriptions[handle] = struct{}{}
	m.metrics.SetOpenSubscriptions(len(m.subscriptions))
	m.mu.Unlock()

	return handle, nil
}

func (m *SubscriptionManager) unsubscribe(s *Subscription) error {
	m.mu.Lock()
	if _, ok := m.subscriptions[s]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.subscriptions, s)
	m.metrics.SetOpenSubscriptions(len(m.subscriptions))
	m.mu.Unlock()

	return s.sub.Stop()
}

// Close tears down every open subscription.
func (m *SubscriptionManager) Close() error {
	m.mu.Lock()
	handles := make([]*Subscription, 0, len(m.subscriptions))
	for h := range m.subscriptions {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := m.unsubscribe(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
