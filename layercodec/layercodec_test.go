package layercodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

func roundTrip(t *testing.T, l model.Layer, ld *model.LayerDesc) model.Layer {
	t.Helper()
	d := dict.New()
	codec := strcodec.NoCompression{}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, l, ld, d, codec))

	reader := dict.New()
	tag, err := ReadTag(&buf)
	require.NoError(t, err)
	got, err := Decode(&buf, tag, ld, reader, codec)
	require.NoError(t, err)
	return got
}

func charLD(t *testing.T) *model.LayerDesc {
	ld, err := model.New("text", model.Characters, "", model.NoData())
	require.NoError(t, err)
	return ld
}

func seqLD(t *testing.T) *model.LayerDesc {
	ld, err := model.New("tokens", model.Seq, "text", model.NoData())
	require.NoError(t, err)
	return ld
}

func TestCharactersRoundTrip(t *testing.T) {
	l := model.NewCharacters("hello world, a test string")
	got := roundTrip(t, l, charLD(t))
	require.Equal(t, l, got)
}

func TestL1DeltaSelected(t *testing.T) {
	l := model.NewL1([]uint32{0, 5, 10, 20})
	d := dict.New()
	codec := strcodec.NoCompression{}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, l, seqLD(t), d, codec))
	require.Equal(t, byte(TagL1Delta), buf.Bytes()[0])

	reader := dict.New()
	tag, err := ReadTag(&buf)
	require.NoError(t, err)
	got, err := Decode(&buf, tag, seqLD(t), reader, codec)
	require.NoError(t, err)
	require.Equal(t, l, got)
}

func TestL1NoDeltaSelected(t *testing.T) {
	l := model.NewL1([]uint32{5, 1, 10, 2})
	got := roundTrip(t, l, seqLD(t))
	require.Equal(t, l, got)
}

func TestL2RoundTripAllTransformCombos(t *testing.T) {
	ld, err := model.New("sentences", model.Div, "tokens", model.NoData())
	require.NoError(t, err)

	cases := [][]model.Pair{
		{{A: 0, B: 3}, {A: 3, B: 7}, {A: 7, B: 12}}, // ascending col1, diff-applicable
		{{A: 1, B: 0}, {A: 4, B: 9}},                // ascending col1, no diff
		{{A: 4, B: 6}, {A: 2, B: 3}},                // no delta, diff-applicable
		{{A: 5, B: 2}, {A: 1, B: 0}, {A: 9, B: 1}},  // no delta, no diff
	}
	for _, v := range cases {
		l := model.NewL2(v)
		got := roundTrip(t, l, ld)
		require.Equal(t, l, got)
	}
}

func TestL3RoundTrip(t *testing.T) {
	ld, err := model.New("links", model.Span, "tokens", model.LinkData())
	require.NoError(t, err)
	l := model.NewL3([]model.Triple{{A: 0, B: 2, C: 9}, {A: 2, B: 5, C: 3}})
	got := roundTrip(t, l, ld)
	require.Equal(t, l, got)
}

func TestLSRoundTrip(t *testing.T) {
	ld, err := model.New("pos", model.Seq, "tokens", model.StringData())
	require.NoError(t, err)
	l := model.NewLS([]string{"NOUN", "VERB", "NOUN", "DET"})
	got := roundTrip(t, l, ld)
	require.Equal(t, l, got)
}

func TestL1SRoundTripEnum(t *testing.T) {
	ld, err := model.New("pos", model.Div, "tokens", model.EnumData([]string{"NOUN", "VERB", "DET"}))
	require.NoError(t, err)
	l := model.NewL1S([]model.L1SItem{{Index: 0, Data: "NOUN"}, {Index: 3, Data: "VERB"}, {Index: 7, Data: "DET"}})
	got := roundTrip(t, l, ld)
	require.Equal(t, l, got)
}

func TestL2SRoundTrip(t *testing.T) {
	ld, err := model.New("chunks", model.Span, "tokens", model.StringData())
	require.NoError(t, err)
	l := model.NewL2S([]model.L2SItem{{A: 0, B: 2, Data: "NP"}, {A: 2, B: 5, Data: "VP"}})
	got := roundTrip(t, l, ld)
	require.Equal(t, l, got)
}

func TestL3SRoundTrip(t *testing.T) {
	ld, err := model.New("deps", model.Span, "tokens", model.LinkData())
	ld.LinkTypes = []string{"nsubj", "dobj"}
	require.NoError(t, err)
	l := model.NewL3S([]model.L3SItem{{A: 0, B: 1, C: 3, Data: "nsubj"}, {A: 1, B: 2, C: 4, Data: "dobj"}})
	got := roundTrip(t, l, ld)
	require.Equal(t, l, got)
}

func TestMetaLayerRoundTrip(t *testing.T) {
	ld, err := model.New("info", model.Seq, "tokens", model.NoData())
	require.NoError(t, err)
	l := model.NewMetaLayer(map[string]any{"source": "news", "year": uint64(2020)})
	got := roundTrip(t, l, ld)
	require.Equal(t, l.Kind, got.Kind)
	require.Equal(t, l.Meta, got.Meta)
}

func TestAbsentSentinel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAbsent(&buf))
	require.Equal(t, []byte{Absent}, buf.Bytes())
}
