package corpus

import (
	"context"
	"io"
	"iter"
	"sync"

	"github.com/teanga-nlp/teanga-go/docid"
	"github.com/teanga-nlp/teanga-go/model"
)

// Lazy adapts a DocSource (a Cuac byte stream, typically) into a Readable.
// Documents are pulled from src on demand; ids are never stored on the
// wire, so Lazy recomputes each one the same way the writer did, via
// docid.For over the documents seen so far. The first full range over
// IterDocs drains src and caches every document, so later calls (a second
// IterDocs, or IterDocIDs) don't need to re-read the stream.
type Lazy struct {
	order []string
	meta  map[string]*model.LayerDesc
	src   DocSource

	mu      sync.Mutex
	ids     []string
	docs    []model.Document
	drained bool
	err     error
}

// NewLazy wraps src, whose header has already been parsed into order/meta.
func NewLazy(order []string, meta map[string]*model.LayerDesc, src DocSource) *Lazy {
	return &Lazy{order: order, meta: meta, src: src}
}

// GetMeta implements Readable.
func (l *Lazy) GetMeta() (order []string, meta map[string]*model.LayerDesc) {
	return l.order, l.meta
}

// Err returns the first non-EOF error IterDocs encountered, if any.
func (l *Lazy) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// IterDocs implements Readable: forward-only over src the first time,
// replayed from cache thereafter.
func (l *Lazy) IterDocs(ctx context.Context) iter.Seq2[string, model.Document] {
	return func(yield func(string, model.Document) bool) {
		l.mu.Lock()
		cachedIDs := append([]string(nil), l.ids...)
		cachedDocs := append([]model.Document(nil), l.docs...)
		drained := l.drained
		l.mu.Unlock()

		existing := make(map[string]bool, len(cachedIDs))
		for _, id := range cachedIDs {
			existing[id] = true
		}
		for i, doc := range cachedDocs {
			if !yield(cachedIDs[i], doc) {
				return
			}
		}
		if drained {
			return
		}
		for {
			if ctx.Err() != nil {
				l.mu.Lock()
				l.err = ctx.Err()
				l.mu.Unlock()
				return
			}
			doc, err := l.src.Next()
			if err != nil {
				l.mu.Lock()
				l.drained = true
				if err != io.EOF {
					l.err = err
				}
				l.mu.Unlock()
				return
			}
			id := docid.For(doc, existing, "")
			existing[id] = true
			l.mu.Lock()
			l.ids = append(l.ids, id)
			l.docs = append(l.docs, doc)
			l.mu.Unlock()
			if !yield(id, doc) {
				return
			}
		}
	}
}

// IterDocIDs implements Readable, fully draining src on first use.
func (l *Lazy) IterDocIDs() []string {
	for range l.IterDocs(context.Background()) {
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.ids...)
}

var _ Readable = (*Lazy)(nil)
