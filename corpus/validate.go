package corpus

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/teanga-nlp/teanga-go/model"
)

// ValidateAll walks every document a Readable yields and checks each
// populated layer against the corpus's declared metadata
// (model.ValidateDocumentLayer), the same per-layer shape check cuac.Write
// applies document-by-document before encoding. IterDocs itself is driven
// from a single goroutine (spec.md gives no iterator a concurrent-pull
// contract), but the validation of each decoded document is fanned out
// across a bounded worker pool via errgroup, so a corpus with expensive
// per-document invariants (long Characters text, large packed columns)
// validates faster than strictly sequential document-by-document checking
// on multi-core hosts. The first error encountered, from any worker,
// cancels ctx for the rest and is returned; a fully valid corpus returns
// nil.
func ValidateAll(ctx context.Context, src Readable) error {
	_, meta := src.GetMeta()

	limit := runtime.GOMAXPROCS(0)
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for id, doc := range src.IterDocs(gctx) {
		if err := gctx.Err(); err != nil {
			break
		}
		id, doc := id, doc
		g.Go(func() error {
			for name, l := range doc.Content {
				if err := model.ValidateDocumentLayer(name, meta[name], l); err != nil {
					return fmt.Errorf("corpus: document %q: %w", id, err)
				}
			}
			return nil
		})
	}

	return g.Wait()
}
