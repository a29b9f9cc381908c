package packedindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarioS3(t *testing.T) {
	v := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	pi, err := FromSlice(v)
	require.NoError(t, err)
	require.Equal(t, uint8(4), pi.Precision)
	require.Equal(t, []byte{0x01, 0x23, 0x45, 0x67, 0x89}, pi.Data)
	require.Equal(t, v, pi.ToSlice())
}

func TestScenarioS5(t *testing.T) {
	v := []uint32{0, 1, 2, 3}
	pi, err := FromSlice(v)
	require.NoError(t, err)
	require.Equal(t, uint8(2), pi.Precision)
	require.Equal(t, v, pi.ToSlice())
	require.Len(t, pi.Bytes(), 5+1)
}

func TestAllZeroPrecisionZero(t *testing.T) {
	pi, err := FromSlice([]uint32{0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, uint8(0), pi.Precision)
	require.Equal(t, []uint32{0, 0, 0}, pi.ToSlice())
}

func TestBytesRoundTripFromBytes(t *testing.T) {
	v := []uint32{100, 200, 65000, 3}
	pi, err := FromSlice(v)
	require.NoError(t, err)
	raw := pi.Bytes()
	got, n, err := FromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, v, got.ToSlice())
}

func TestFromReader(t *testing.T) {
	v := []uint32{7, 8, 9, 1000}
	pi, err := FromSlice(v)
	require.NoError(t, err)
	r := bytes.NewReader(pi.Bytes())
	got, err := FromReader(r)
	require.NoError(t, err)
	require.Equal(t, v, got.ToSlice())
}

func TestMaxUint32PrecisionFits(t *testing.T) {
	_, err := precisionFor([]uint32{1 << 32 - 1})
	require.NoError(t, err) // fits in 32 bits exactly
}
