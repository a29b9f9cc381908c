package datacolumn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

func TestEnumRoundTrip(t *testing.T) {
	data := model.EnumData([]string{"NOUN", "VERB", "ADJ", "DET"})
	cells := []string{"NOUN", "DET", "VERB", "NOUN", "ADJ"}
	pi, err := EncodeEnum(cells, data)
	require.NoError(t, err)
	got, err := DecodeEnum(pi, data)
	require.NoError(t, err)
	require.Equal(t, cells, got)
}

func TestEnumInvalidValue(t *testing.T) {
	data := model.EnumData([]string{"NOUN", "VERB"})
	_, err := EncodeEnum([]string{"NOUN", "ADVERB"}, data)
	require.ErrorIs(t, err, model.ErrInvalidEnumValue)
}

func TestStringsRoundTrip(t *testing.T) {
	d := dict.New()
	codec := strcodec.NoCompression{}
	cells := []string{"cat", "dog", "cat", "dog", "cat", "bird"}

	var buf bytes.Buffer
	require.NoError(t, EncodeStrings(&buf, cells, d, codec))

	reader := dict.New()
	got, err := DecodeStrings(&buf, reader, codec)
	require.NoError(t, err)
	require.Equal(t, cells, got)
	require.Equal(t, d.Len(), reader.Len())
}

func TestStringsSingleOccurrenceNeverIndexed(t *testing.T) {
	d := dict.New()
	codec := strcodec.NoCompression{}
	cells := []string{"only-once-a", "only-once-b"}

	var buf bytes.Buffer
	require.NoError(t, EncodeStrings(&buf, cells, d, codec))
	require.Equal(t, 0, d.Len())

	reader := dict.New()
	got, err := DecodeStrings(&buf, reader, codec)
	require.NoError(t, err)
	require.Equal(t, cells, got)
}
