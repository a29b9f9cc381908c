package cuac

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teanga-nlp/teanga-go/corpus"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

func s2Meta(t *testing.T) ([]string, map[string]*model.LayerDesc) {
	t.Helper()
	text, err := model.New("text", model.Characters, "", model.NoData())
	require.NoError(t, err)
	tokens, err := model.New("tokens", model.Span, "text", model.NoData())
	require.NoError(t, err)
	return []string{"text", "tokens"}, map[string]*model.LayerDesc{"text": text, "tokens": tokens}
}

func TestScenarioS2WriteReadRoundTrip(t *testing.T) {
	order, meta := s2Meta(t)
	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta(order, meta))

	doc := model.NewDocument()
	doc.Content["text"] = model.NewCharacters("This is an example")
	doc.Content["tokens"] = model.NewL2([]model.Pair{{A: 0, B: 4}, {A: 5, B: 7}, {A: 8, B: 10}, {A: 11, B: 18}})
	id, err := src.AddDoc(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, "ecWc", id)

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, src, Config{StringCompression: strcodec.TagNone}))

	lazy, err := Read(&buf)
	require.NoError(t, err)

	var gotIDs []string
	var gotDocs []model.Document
	for gotID, gotDoc := range lazy.IterDocs(context.Background()) {
		gotIDs = append(gotIDs, gotID)
		gotDocs = append(gotDocs, gotDoc)
	}
	require.NoError(t, lazy.Err())
	require.Equal(t, []string{id}, gotIDs)
	require.Len(t, gotDocs, 1)
	require.Equal(t, doc.Content["tokens"], gotDocs[0].Content["tokens"])
	require.Equal(t, doc.Content["text"], gotDocs[0].Content["text"])
}

func TestOrderPreservation(t *testing.T) {
	order, meta := s2Meta(t)
	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta(order, meta))

	var wantTexts []string
	for _, s := range []string{"first text", "second text", "third text"} {
		doc := model.NewDocument()
		doc.Content["text"] = model.NewCharacters(s)
		doc.Content["tokens"] = model.NewL2(nil)
		_, err := src.AddDoc(context.Background(), doc)
		require.NoError(t, err)
		wantTexts = append(wantTexts, s)
	}

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, src, Config{StringCompression: strcodec.TagNone}))

	lazy, err := Read(&buf)
	require.NoError(t, err)
	var gotTexts []string
	for _, doc := range lazy.IterDocs(context.Background()) {
		gotTexts = append(gotTexts, doc.Content["text"].Characters)
	}
	require.Equal(t, wantTexts, gotTexts)
}

func TestAbsentLayerRoundTrip(t *testing.T) {
	order, meta := s2Meta(t)
	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta(order, meta))

	doc := model.NewDocument()
	doc.Content["text"] = model.NewCharacters("no tokens here")
	_, err := src.AddDoc(context.Background(), doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, src, Config{StringCompression: strcodec.TagNone}))

	lazy, err := Read(&buf)
	require.NoError(t, err)
	var docs []model.Document
	for _, d := range lazy.IterDocs(context.Background()) {
		docs = append(docs, d)
	}
	require.Len(t, docs, 1)
	_, hasTokens := docs[0].Content["tokens"]
	require.False(t, hasTokens)
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("NOTCUAC!")))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestReadRejectsVersionMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	require.NoError(t, writeU16(&buf, 99))
	require.NoError(t, writeU32(&buf, 0))
	_, err := Read(&buf)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestEOFAtDocumentBoundaryIsNormal(t *testing.T) {
	order, meta := s2Meta(t)
	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta(order, meta))

	var buf bytes.Buffer
	require.NoError(t, Write(context.Background(), &buf, src, Config{StringCompression: strcodec.TagNone}))

	lazy, err := Read(&buf)
	require.NoError(t, err)
	count := 0
	for range lazy.IterDocs(context.Background()) {
		count++
	}
	require.Equal(t, 0, count)
	require.NoError(t, lazy.Err())
}

func TestScenarioS6TrainedShocoRoundTrip(t *testing.T) {
	textLD, err := model.New("text", model.Characters, "", model.NoData())
	require.NoError(t, err)
	meta := map[string]*model.LayerDesc{"text": textLD}

	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta([]string{"text"}, meta))

	long1 := "the quick brown fox jumps over the lazy dog, again and again, the quick brown fox"
	long2 := "the rain in spain falls mainly on the plain, the quick brown fox runs through it"
	for _, s := range []string{long1, long2} {
		doc := model.NewDocument()
		doc.Content["text"] = model.NewCharacters(s)
		_, err := src.AddDoc(context.Background(), doc)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	cfg := Config{StringCompression: strcodec.TagShocoTrained, ShocoTrainBudget: 32}
	require.NoError(t, Write(context.Background(), &buf, src, cfg))

	wire := buf.Bytes()
	metaStart := len(Magic) + 2 + 4
	metaLen := int(be32(wire[len(Magic)+2 : metaStart]))
	codecTagOffset := metaStart + metaLen
	require.Equal(t, byte(strcodec.TagShocoTrained), wire[codecTagOffset])
	require.Greater(t, len(wire), codecTagOffset+1)

	lazy, err := Read(bytes.NewReader(wire))
	require.NoError(t, err)
	var got []string
	for _, doc := range lazy.IterDocs(context.Background()) {
		got = append(got, doc.Content["text"].Characters)
	}
	require.Equal(t, []string{long1, long2}, got)
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func TestWriteRespectsCancellation(t *testing.T) {
	order, meta := s2Meta(t)
	src := corpus.NewMemory()
	require.NoError(t, src.SetMeta(order, meta))
	doc := model.NewDocument()
	doc.Content["text"] = model.NewCharacters("x")
	doc.Content["tokens"] = model.NewL2(nil)
	_, err := src.AddDoc(context.Background(), doc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err = Write(ctx, &buf, src, Config{StringCompression: strcodec.TagNone})
	require.ErrorIs(t, err, context.Canceled)
}
