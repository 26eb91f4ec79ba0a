package plumberd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/modelingevolution/cppplumberd/transport"
)

type orderPlaced struct {
	OrderID string
}

func TestEventStore_PublishBeforeCreateStreamFails(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)
	err := Publish(es, "orders", orderPlaced{OrderID: "1"})
	require.Error(t, err)
}

func TestEventStore_CreateStreamTwiceFails(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	es := NewEventStore(reg, bus, 4096, nil)

	require.NoError(t, es.CreateStream("orders"))
	require.Error(t, es.CreateStream("orders"))
}

func TestEventStore_LocalFanoutInRegistrationOrder(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)
	require.NoError(t, es.CreateStream("orders"))

	var order []int
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		order = append(order, 1)
		require.Equal(t, "orders", meta.Stream)
		return nil
	})
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		order = append(order, 2)
		return nil
	})

	require.NoError(t, Publish(es, "orders", orderPlaced{OrderID: "42"}))
	require.Equal(t, []int{1, 2}, order)
}

func TestEventStore_LocalSubscriberErrorPropagates(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)
	require.NoError(t, es.CreateStream("orders"))

	boom := errors.New("boom")
	secondCalled := make(chan struct{}, 1)
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		return boom
	})
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		close(secondCalled)
		return nil
	})

	err := Publish(es, "orders", orderPlaced{OrderID: "1"})
	require.Error(t, err)

	select {
	case <-secondCalled:
	case <-time.After(time.Second):
		t.Fatal("second subscriber was not invoked despite first subscriber's error")
	}
}

func TestEventStore_SubscribeBeforeCreateStreamThenPublish(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)

	received := make(chan orderPlaced, 1)
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		received <- value.(orderPlaced)
		return nil
	})

	require.NoError(t, es.CreateStream("orders"))
	require.Error(t, es.CreateStream("orders"))

	require.NoError(t, Publish(es, "orders", orderPlaced{OrderID: "7"}))

	select {
	case got := <-received:
		require.Equal(t, "7", got.OrderID)
	case <-time.After(time.Second):
		t.Fatal("subscriber registered before CreateStream was never invoked")
	}
}

func TestEventStore_PublishBeforeCreateStreamAfterSubscribeFails(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)
	es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		return nil
	})

	require.Error(t, Publish(es, "orders", orderPlaced{OrderID: "1"}))
}

func TestEventStore_UnsubscribeStopsDelivery(t *testing.T) {
	bus := transport.NewMemoryBus()
	reg := registry.New()
	require.NoError(t, registry.RegisterMsgpack[orderPlaced](reg, 1))

	es := NewEventStore(reg, bus, 4096, nil)
	require.NoError(t, es.CreateStream("orders"))

	var calls int
	unsub := es.Subscribe("orders", func(meta EventMetadata, id uint32, value any) error {
		calls++
		return nil
	})
	unsub()

	require.NoError(t, Publish(es, "orders", orderPlaced{OrderID: "1"}))
	require.Equal(t, 0, calls)
}
