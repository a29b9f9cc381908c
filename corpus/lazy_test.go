package corpus

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teanga-nlp/teanga-go/model"
)

type sliceSource struct {
	docs []model.Document
	i    int
}

func (s *sliceSource) Next() (model.Document, error) {
	if s.i >= len(s.docs) {
		return model.Document{}, io.EOF
	}
	d := s.docs[s.i]
	s.i++
	return d, nil
}

func TestLazyAssignsIDsAndCachesForReplay(t *testing.T) {
	order, meta := textMeta(t)
	mkDoc := func(s string) model.Document {
		d := model.NewDocument()
		d.Content["text"] = model.NewCharacters(s)
		return d
	}
	src := &sliceSource{docs: []model.Document{mkDoc("first"), mkDoc("second")}}
	lazy := NewLazy(order, meta, src)

	gotOrder, gotMeta := lazy.GetMeta()
	require.Equal(t, order, gotOrder)
	require.Equal(t, meta, gotMeta)

	var firstPass []string
	for id := range lazy.IterDocs(context.Background()) {
		firstPass = append(firstPass, id)
	}
	require.Len(t, firstPass, 2)
	require.NoError(t, lazy.Err())

	var secondPass []string
	for id := range lazy.IterDocs(context.Background()) {
		secondPass = append(secondPass, id)
	}
	require.Equal(t, firstPass, secondPass)
	require.Equal(t, firstPass, lazy.IterDocIDs())
}

type erroringSource struct{ err error }

func (e *erroringSource) Next() (model.Document, error) {
	return model.Document{}, e.err
}

func TestLazyPropagatesNonEOFError(t *testing.T) {
	order, meta := textMeta(t)
	boom := io.ErrUnexpectedEOF
	lazy := NewLazy(order, meta, &erroringSource{err: boom})
	for range lazy.IterDocs(context.Background()) {
	}
	require.ErrorIs(t, lazy.Err(), boom)
}
