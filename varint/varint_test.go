package varint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, MaxValue} {
		enc := Encode(v)
		got, n, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, v, got)
	}
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := Append(nil, MaxValue+1)
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeTruncated(t *testing.T) {
	_, _, err := Decode([]byte{0x80, 0x80})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, 300))
	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, uint32(300), got)
}

func TestKnownEncodings(t *testing.T) {
	// single byte, no continuation
	require.Equal(t, []byte{0x01}, Encode(1))
	// two groups: 128 = 0b1_0000000 -> groups (1, 0)
	require.Equal(t, []byte{0x81, 0x00}, Encode(128))
}
