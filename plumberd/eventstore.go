package plumberd

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	plumberrors "github.com/modelingevolution/cppplumberd/errors"
	"github.com/modelingevolution/cppplumberd/metric"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

// EventMetadata is the context a local in-process subscriber receives
// alongside an event's id and value (spec.md §4.7).
type EventMetadata struct {
	Stream  string
	Created time.Time
}

// LocalSubscriber is an in-process fanout target, invoked synchronously
// during EventStore.Publish.
type LocalSubscriber func(meta EventMetadata, id uint32, value any) error

type subscriberEntry struct {
	id int
	fn LocalSubscriber
}

type streamState struct {
	mu          sync.Mutex
	publisher   *Publisher
	subscribers []subscriberEntry
	nextID      int
}

// EventStore implements spec.md §4.7: one publish endpoint per created
// stream, fanning out to local in-process subscribers before handing the
// event to the remote publish socket.
type EventStore struct {
	registry *registry.Registry
	factory  transport.Factory
	bufSize  int
	metrics  *metric.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	streams map[string]*streamState
}

// NewEventStore creates an EventStore bound to reg and factory.
func NewEventStore(reg *registry.Registry, factory transport.Factory, bufSize int, m *metric.Metrics) *EventStore {
	return &EventStore{
		registry: reg,
		factory:  factory,
		bufSize:  bufSize,
		metrics:  m,
		logger:   slog.Default().With("component", "eventstore"),
		streams:  make(map[string]*streamState),
	}
}

// CreateStream provisions a publish endpoint for name. If Subscribe
// already created a publisher-less placeholder for name (a local
// subscriber arrived before the stream was created), the publisher is
// attached to it. Re-binding a name that already has a publisher is a
// ConfigurationError (spec.md §9 open question (c)).
func (es *EventStore) CreateStream(name string) error {
	es.mu.Lock()
	st, exists := es.streams[name]
	if !exists {
		st = &streamState{}
		es.streams[name] = st
	}
	es.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.publisher != nil {
		return plumberrors.NewConfigurationError("eventstore", fmt.Sprintf("stream %q already created", name), nil)
	}

	socket := es.factory.NewPublishSocket(name)
	pub := NewPublisher(socket, es.registry, name, es.bufSize, es.metrics)
	if err := pub.Start(""); err != nil {
		return err
	}

	st.publisher = pub
	return nil
}

// Subscribe registers fn as a local in-process subscriber of name,
// returning a function that removes it. Publishing to a stream before it
// is created fails; subscribing does not require the stream to already
// exist, since remote create_stream may race with local setup.
func (es *EventStore) Subscribe(name string, fn LocalSubscriber) func() {
	es.mu.Lock()
	st, ok := es.streams[name]
	if !ok {
		st = &streamState{}
		es.streams[name] = st
	}
	es.mu.Unlock()

	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subscribers = append(st.subscribers, subscriberEntry{id: id, fn: fn})
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		for i, e := range st.subscribers {
			if e.id == id {
				st.subscribers = append(st.subscribers[:i], st.subscribers[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers event synchronously to every local subscriber of name,
// in registration order (spec.md §4.7): every subscriber is invoked, every
// error is logged, and the first one is remembered and returned after the
// whole fanout completes. It then hands the event to the remote publish
// socket.
func Publish[E any](es *EventStore, name string, event E) error {
	id, err := es.registry.IDOf(event)
	if err != nil {
		return err
	}

	es.mu.Lock()
	st, ok := es.streams[name]
	es.mu.Unlock()
	if !ok {
		return plumberrors.NewConfigurationError("eventstore",
			fmt.Sprintf("publish to unknown stream %q: call CreateStream first", name), nil)
	}

	meta := EventMetadata{Stream: name, Created: time.Now()}

	st.mu.Lock()
	subs := make([]LocalSubscriber, len(st.subscribers))
	for i, e := range st.subscribers {
		subs[i] = e.fn
	}
	publisher := st.publisher
	st.mu.Unlock()

	if publisher == nil {
		return plumberrors.NewConfigurationError("eventstore",
			fmt.Sprintf("publish to stream %q before it was created", name), nil)
	}

	var localErr error
	for _, sub := range subs {
		if err := sub(meta, id, event); err != nil {
			es.logger.Warn("local subscriber failed", "stream", name, "error", err)
			if localErr == nil {
				localErr = err
			}
		}
	}

	if err := publisher.Publish(event); err != nil {
		return err
	}
	return localErr
}
