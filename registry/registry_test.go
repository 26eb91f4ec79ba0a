package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type setter struct {
	Element  string
	Property string
	Value    []byte
}

func registerSetter(t *testing.T, r *Registry, id uint32) {
	t.Helper()
	err := RegisterMsgpack[setter](r, id)
	require.NoError(t, err)
}

func TestRegister_Idempotent(t *testing.T) {
	r := New()
	registerSetter(t, r, 1)
	// Re-registering the same (id, type) pair is a no-op.
	registerSetter(t, r, 1)

	id, err := IDFor[setter](r)
	require.NoError(t, err)
	require.Equal(t, uint32(1), id)
}

func TestRegister_ConflictingType(t *testing.T) {
	r := New()
	registerSetter(t, r, 1)

	err := RegisterMsgpack[string](r, 1)
	require.Error(t, err)
}

func TestRegister_ConflictingID(t *testing.T) {
	r := New()
	registerSetter(t, r, 1)

	err := RegisterMsgpack[setter](r, 2)
	require.Error(t, err)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	r := New()
	registerSetter(t, r, 1)

	want := setter{Element: "e", Property: "p", Value: []byte{0x2A, 0, 0, 0}}
	data, err := r.Encode(want)
	require.NoError(t, err)

	decoded, err := r.Decode(1, data)
	require.NoError(t, err)

	got, ok := decoded.(setter)
	require.True(t, ok)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_UnknownID(t *testing.T) {
	r := New()
	_, err := r.Decode(99, []byte{})
	require.Error(t, err)
}

func TestIDOf_UnknownType(t *testing.T) {
	r := New()
	_, err := r.IDOf("not registered")
	require.Error(t, err)
}

func TestName(t *testing.T) {
	r := New()
	registerSetter(t, r, 1)

	name, err := r.Name(1)
	require.NoError(t, err)
	require.Contains(t, name, "setter")
}

func TestHas(t *testing.T) {
	r := New()
	require.False(t, r.Has(1))
	registerSetter(t, r, 1)
	require.True(t, r.Has(1))
}

func TestRegisterJSON_RoundTrip(t *testing.T) {
	r := New()
	require.NoError(t, RegisterJSON[setter](r, 1))

	want := setter{Element: "e", Property: "p", Value: []byte{1, 2, 3}}
	data, err := r.Encode(want)
	require.NoError(t, err)

	decoded, err := r.Decode(1, data)
	require.NoError(t, err)
	require.Equal(t, want, decoded)
}
