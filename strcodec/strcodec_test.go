package strcodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoCompressionRoundTrip(t *testing.T) {
	c := NoCompression{}
	for _, s := range []string{"", "hello world", "café 文字"} {
		got, err := c.Decompress(c.Compress(s))
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestSmazRoundTrip(t *testing.T) {
	c := SmazCompression{}
	for _, s := range []string{
		"", "the quick brown fox", "hello, world!", "aaaaaaaaaa",
		"éèê unicode mixed with the",
	} {
		enc := c.Compress(s)
		got, err := c.Decompress(enc)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestSmazDecompressInvalid(t *testing.T) {
	c := SmazCompression{}
	_, err := c.Decompress([]byte{escapeByte, 5, 'a', 'b'}) // claims 5 bytes, only 2 given
	require.ErrorIs(t, err, ErrDecoding)
}

func TestShocoDefaultRoundTrip(t *testing.T) {
	c := ShocoDefault()
	for _, s := range []string{
		"", "the and to of in a", "hello there friend", "THE QUICK BROWN FOX",
		"mixed 123 punctuation!",
	} {
		enc := c.Compress(s)
		got, err := c.Decompress(enc)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestShocoTrainedRoundTrip(t *testing.T) {
	samples := []string{
		"the quick brown fox jumps over the lazy dog",
		"the dog barked at the fox",
		"quick foxes and lazy dogs",
	}
	m := TrainShoco(samples, 1<<20)
	c := NewShocoCompression(m)
	for _, s := range samples {
		enc := c.Compress(s)
		got, err := c.Decompress(enc)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestShocoTrainedCompressesBetterThanLiteral(t *testing.T) {
	samples := []string{"the the the the the the the the"}
	m := TrainShoco(samples, 1<<20)
	c := NewShocoCompression(m)
	enc := c.Compress(samples[0])
	require.Less(t, len(enc), len(samples[0]))
}

func TestModelRoundTripSerialization(t *testing.T) {
	m := TrainShoco([]string{"the quick brown fox"}, 1<<20)
	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, m))
	got, err := ReadModel(&buf)
	require.NoError(t, err)
	require.Equal(t, m.MinChr, got.MinChr)
	require.Equal(t, m.MaxChr, got.MaxChr)
	require.Equal(t, m.ChrByID, got.ChrByID)
	require.Equal(t, m.Successor, got.Successor)
	require.Equal(t, m.Reverse, got.Reverse)
	require.Equal(t, m.MaxSuccessorN, got.MaxSuccessorN)

	c1 := NewShocoCompression(m)
	c2 := NewShocoCompression(got)
	enc := c1.Compress("the quick brown fox")
	dec, err := c2.Decompress(enc)
	require.NoError(t, err)
	require.Equal(t, "the quick brown fox", dec)
}
