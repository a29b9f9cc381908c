package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/teanga-nlp/teanga-go/docid"
	"github.com/teanga-nlp/teanga-go/model"
)

// ErrMetaAlreadySet is returned by a second call to ChannelWriter.SetMeta.
var ErrMetaAlreadySet = errors.New("corpus: meta already sent on this pipe")

type metaMsg struct {
	order []string
	meta  map[string]*model.LayerDesc
}

// ChannelPipe is a single-producer/single-consumer bridge between a
// Writeable and a Readable: the consumer blocks on GetMeta until the
// producer calls SetMeta, then streams documents until the producer
// closes the pipe (the "terminal sentinel" spec.md §4.10 describes,
// realised here as closing docCh).
type ChannelPipe struct {
	metaCh chan metaMsg
	docCh  chan model.Document

	metaOnce sync.Once
	closed   sync.Once
}

// NewChannelPipe returns a pipe with the given document buffer depth.
func NewChannelPipe(bufSize int) *ChannelPipe {
	return &ChannelPipe{
		metaCh: make(chan metaMsg, 1),
		docCh:  make(chan model.Document, bufSize),
	}
}

// Writer returns the producer side of the pipe.
func (p *ChannelPipe) Writer() *ChannelWriter {
	return &ChannelWriter{pipe: p, existing: make(map[string]bool)}
}

// Reader returns the consumer side of the pipe.
func (p *ChannelPipe) Reader() *ChannelReader {
	return &ChannelReader{pipe: p, ids: make([]string, 0)}
}

// ChannelWriter is the Writeable side of a ChannelPipe.
type ChannelWriter struct {
	pipe     *ChannelPipe
	mu       sync.Mutex
	existing map[string]bool
	metaSet  bool
}

// SetMeta sends the corpus's layer declarations once; a second call
// returns ErrMetaAlreadySet.
func (w *ChannelWriter) SetMeta(order []string, meta map[string]*model.LayerDesc) error {
	if err := model.ValidateMeta(meta); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metaSet {
		return ErrMetaAlreadySet
	}
	w.metaSet = true
	w.pipe.metaCh <- metaMsg{order: order, meta: meta}
	return nil
}

// SetOrder is not supported over a channel: a streaming producer only
// ever appends in AddDoc call order.
func (w *ChannelWriter) SetOrder(order []string) error {
	return fmt.Errorf("%w: channel corpus orders documents by arrival", ErrNotSupported)
}

// AddDoc assigns content a content-addressed id and sends it downstream,
// blocking until the consumer receives it or ctx is cancelled.
func (w *ChannelWriter) AddDoc(ctx context.Context, content model.Document) (string, error) {
	w.mu.Lock()
	id := docid.For(content, w.existing, "")
	w.existing[id] = true
	w.mu.Unlock()

	select {
	case w.pipe.docCh <- content:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close signals end-of-stream to the reader. Safe to call more than once.
func (w *ChannelWriter) Close() {
	w.pipe.closed.Do(func() { close(w.pipe.docCh) })
}

// ChannelReader is the Readable side of a ChannelPipe.
type ChannelReader struct {
	pipe *ChannelPipe

	mu       sync.Mutex
	order    []string
	meta     map[string]*model.LayerDesc
	gotMeta  bool
	ids      []string
	cache    []model.Document
	drained  bool
}

// GetMeta blocks until the writer calls SetMeta.
func (r *ChannelReader) GetMeta() (order []string, meta map[string]*model.LayerDesc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gotMeta {
		return r.order, r.meta
	}
	m := <-r.pipe.metaCh
	r.order, r.meta, r.gotMeta = m.order, m.meta, true
	return r.order, r.meta
}

// IterDocs streams documents as they arrive, assigning each the id the
// writer assigned it (recomputed identically here since ids are a pure
// function of content — the channel never carries ids on the wire).
// The first full range drains the pipe and caches the result so a later
// IterDocIDs or repeat IterDocs still sees every document.
func (r *ChannelReader) IterDocs(ctx context.Context) iter.Seq2[string, model.Document] {
	return func(yield func(string, model.Document) bool) {
		r.mu.Lock()
		cached := append([]model.Document(nil), r.cache...)
		drained := r.drained
		r.mu.Unlock()

		existing := make(map[string]bool, len(cached))
		for i, doc := range cached {
			id := r.idAt(i, doc, existing)
			existing[id] = true
			if !yield(id, doc) {
				return
			}
		}
		if drained {
			return
		}
		for {
			select {
			case doc, ok := <-r.pipe.docCh:
				if !ok {
					r.mu.Lock()
					r.drained = true
					r.mu.Unlock()
					return
				}
				r.mu.Lock()
				idx := len(r.cache)
				r.cache = append(r.cache, doc)
				r.mu.Unlock()
				id := r.idAt(idx, doc, existing)
				existing[id] = true
				if !yield(id, doc) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *ChannelReader) idAt(i int, doc model.Document, existing map[string]bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < len(r.ids) {
		return r.ids[i]
	}
	id := docid.For(doc, existing, "")
	r.ids = append(r.ids, id)
	return id
}

// IterDocIDs fully drains the pipe (blocking) if it hasn't been already,
// then returns every id seen. A forward-only stream has no way to report
// ids it hasn't reached yet without doing this.
func (r *ChannelReader) IterDocIDs() []string {
	for range r.IterDocs(context.Background()) {
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// Next implements DocSource, for parity with cuac.Reader when a channel
// corpus needs to act as a plain document source rather than a full
// Readable (e.g. feeding corpus.Lazy-style consumers).
func (r *ChannelReader) Next() (model.Document, error) {
	doc, ok := <-r.pipe.docCh
	if !ok {
		return model.Document{}, io.EOF
	}
	return doc, nil
}

var _ Writeable = (*ChannelWriter)(nil)
var _ Readable = (*ChannelReader)(nil)
var _ DocSource = (*ChannelReader)(nil)
