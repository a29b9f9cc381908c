// Package corpus implements the CorpusContract (spec.md §4.10): the
// Readable/Writeable interfaces that bound the Cuac file codec on each
// side, plus an in-memory and a channel-backed implementation of them.
package corpus

import (
	"context"
	"errors"
	"iter"

	"github.com/teanga-nlp/teanga-go/model"
)

// ErrNotSupported is returned by operations a particular Readable/
// Writeable implementation doesn't back — e.g. SetOrder on a streaming
// writer that has no notion of reordering once documents are in flight.
var ErrNotSupported = errors.New("corpus: operation not supported by this implementation")

// Writeable is the write side of the corpus contract: declare layer
// metadata once, then stream documents in.
type Writeable interface {
	// SetMeta declares the corpus's layer set, in declaration order.
	// Implementations validate via model.ValidateMeta before accepting.
	SetMeta(order []string, meta map[string]*model.LayerDesc) error

	// SetOrder overrides document iteration order. Optional: streaming
	// writers that only ever append in add_doc order may return
	// ErrNotSupported.
	SetOrder(order []string) error

	// AddDoc inserts content and returns its assigned id.
	AddDoc(ctx context.Context, content model.Document) (string, error)
}

// Readable is the read side of the corpus contract.
type Readable interface {
	// GetMeta returns the declared layer order and metadata.
	GetMeta() (order []string, meta map[string]*model.LayerDesc)

	// IterDocIDs returns every document id currently available.
	IterDocIDs() []string

	// IterDocs yields (id, document) pairs in corpus order. Implementations
	// backed by a single-pass stream may need to fully consume the
	// underlying source the first time this is ranged over.
	IterDocs(ctx context.Context) iter.Seq2[string, model.Document]
}

// DocSource is a pull-based single-document stream: Next returns io.EOF
// (unwrapped) at a clean document boundary, any other error is fatal.
// cuac.Reader implements this, letting corpus.Lazy wrap a Cuac byte
// stream without corpus importing cuac.
type DocSource interface {
	Next() (model.Document, error)
}
