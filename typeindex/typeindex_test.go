package typeindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndValue(t *testing.T) {
	ti := New()
	bits := []bool{true, false, false, true, true, false, false, false, true}
	for _, b := range bits {
		ti.Append(b)
	}
	require.Equal(t, len(bits), ti.Len())
	for i, b := range bits {
		require.Equal(t, b, ti.Value(i), "bit %d", i)
	}
	require.Len(t, ti.Bytes(), 2) // ceil(9/8)
}

func TestMSBFirstPacking(t *testing.T) {
	ti := New()
	for _, b := range []bool{true, false, true, false, false, false, false, false} {
		ti.Append(b)
	}
	require.Equal(t, []byte{0b10100000}, ti.Bytes())
}

func TestFromBytesRoundTrip(t *testing.T) {
	ti := New()
	for i := 0; i < 13; i++ {
		ti.Append(i%3 == 0)
	}
	raw := ti.Bytes()
	got, consumed := FromBytes(raw, 13)
	require.Equal(t, len(raw), consumed)
	for i := 0; i < 13; i++ {
		require.Equal(t, ti.Value(i), got.Value(i))
	}
}

func TestFromReader(t *testing.T) {
	ti := New()
	for _, b := range []bool{true, true, false, true} {
		ti.Append(b)
	}
	r := bytes.NewReader(ti.Bytes())
	got, err := FromReader(r, 4)
	require.NoError(t, err)
	require.Equal(t, ti.Bytes(), got.Bytes())
}
