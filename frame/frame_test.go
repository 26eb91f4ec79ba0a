package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelingevolution/cppplumberd/registry"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type commandHeader struct {
	CommandType uint32
	Recipient   string
}

type setterPayload struct {
	Element  string
	Property string
	Value    []byte
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, registry.RegisterMsgpack[setterPayload](r, 1))
	return r
}

func TestWriteRead_RoundTrip(t *testing.T) {
	r := newRegistry(t)

	header := commandHeader{CommandType: 1, Recipient: "foo"}
	payload := setterPayload{Element: "e", Property: "p", Value: []byte{0x2A, 0, 0, 0}}

	buf := make([]byte, 1024)
	n, err := Write(buf, header, payload, r)
	require.NoError(t, err)

	headerBytes, _ := msgpack.Marshal(header)
	payloadBytes, _ := msgpack.Marshal(payload)
	require.Equal(t, HeaderSize+len(headerBytes)+len(payloadBytes), n)

	gotHeader, gotPayload, err := Read[commandHeader](buf, n, r, func(h commandHeader) uint32 { return h.CommandType })
	require.NoError(t, err)

	if diff := cmp.Diff(header, gotHeader); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	got, ok := gotPayload.(setterPayload)
	require.True(t, ok)
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_EmptyPayload(t *testing.T) {
	r := newRegistry(t)
	header := commandHeader{CommandType: 1, Recipient: "foo"}

	buf := make([]byte, 1024)
	n, err := Write(buf, header, nil, r)
	require.NoError(t, err)

	headerBytes, _ := msgpack.Marshal(header)
	require.Equal(t, HeaderSize+len(headerBytes), n)

	_, payload, err := Read[commandHeader](buf, n, r, func(h commandHeader) uint32 { return h.CommandType })
	require.NoError(t, err)
	require.Nil(t, payload)
}

func TestWrite_Overflow(t *testing.T) {
	r := newRegistry(t)
	header := commandHeader{CommandType: 1, Recipient: "foo"}
	payload := setterPayload{Element: "e", Property: "p", Value: make([]byte, 4096)}

	buf := make([]byte, 8)
	_, err := Write(buf, header, payload, r)
	require.Error(t, err)
}

func TestRead_TruncatedBuffer(t *testing.T) {
	r := newRegistry(t)
	_, _, err := Read[commandHeader](make([]byte, 4), 4, r, func(h commandHeader) uint32 { return h.CommandType })
	require.Error(t, err)
}

func TestRead_UnknownPayloadID(t *testing.T) {
	r := newRegistry(t)
	header := commandHeader{CommandType: 1, Recipient: "foo"}
	payload := setterPayload{Element: "e"}

	buf := make([]byte, 1024)
	n, err := Write(buf, header, payload, r)
	require.NoError(t, err)

	_, _, err = Read[commandHeader](buf, n, r, func(h commandHeader) uint32 { return 999 })
	require.Error(t, err)
}
