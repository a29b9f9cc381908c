package corpus

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/teanga-nlp/teanga-go/docid"
	"github.com/teanga-nlp/teanga-go/model"
)

// Memory is the in-memory CorpusContract implementation: a (meta, order,
// id -> Document) triple, guarded so it can serve as both a Writeable
// being populated and a Readable being drained by a concurrent reader
// (spec.md §4.10's in-memory implementation keeps exactly this triple).
type Memory struct {
	mu   sync.RWMutex
	meta map[string]*model.LayerDesc
	c    *model.Corpus
}

// NewMemory returns an empty in-memory corpus.
func NewMemory() *Memory {
	return &Memory{c: model.NewCorpus()}
}

// SetMeta declares the layer set, validating it as a whole via
// model.ValidateMeta before accepting any of it.
func (m *Memory) SetMeta(order []string, meta map[string]*model.LayerDesc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := model.ValidateMeta(meta); err != nil {
		return err
	}
	m.c.Meta = meta
	m.c.MetaOrder = order
	return nil
}

// SetOrder overrides the document iteration order. Every id in order must
// already be present in the corpus.
func (m *Memory) SetOrder(order []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range order {
		if _, ok := m.c.Docs[id]; !ok {
			return fmt.Errorf("%w: id %q in requested order has no document", model.ErrModel, id)
		}
	}
	m.c.Order = order
	return nil
}

// AddDoc validates content against the declared meta, assigns it a
// content-addressed id via docid.For, and appends it to Order.
func (m *Memory) AddDoc(ctx context.Context, content model.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, l := range content.Content {
		ld, ok := m.c.Meta[name]
		if !ok {
			return "", fmt.Errorf("%w: document references undeclared layer %q", model.ErrModel, name)
		}
		if err := model.ValidateDocumentLayer(name, ld, l); err != nil {
			return "", err
		}
	}
	existing := make(map[string]bool, len(m.c.Docs))
	for id := range m.c.Docs {
		existing[id] = true
	}
	id := docid.For(content, existing, "")
	m.c.AddDoc(id, content)
	return id, nil
}

// UpdateDoc replaces the document at priorID with content, recomputing
// its id (treating priorID itself as not-a-collision, per spec.md §4.8)
// and updating Order/Docs in place.
func (m *Memory) UpdateDoc(priorID string, content model.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.c.Docs[priorID]; !ok {
		return "", fmt.Errorf("%w: no document with id %q to update", model.ErrModel, priorID)
	}
	existing := make(map[string]bool, len(m.c.Docs))
	for id := range m.c.Docs {
		if id != priorID {
			existing[id] = true
		}
	}
	newID := docid.For(content, existing, priorID)
	delete(m.c.Docs, priorID)
	m.c.Docs[newID] = content
	for i, id := range m.c.Order {
		if id == priorID {
			m.c.Order[i] = newID
			break
		}
	}
	return newID, nil
}

// GetMeta implements Readable.
func (m *Memory) GetMeta() (order []string, meta map[string]*model.LayerDesc) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.c.MetaOrder, m.c.Meta
}

// IterDocIDs implements Readable.
func (m *Memory) IterDocIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.c.Order))
	copy(out, m.c.Order)
	return out
}

// IterDocs implements Readable, yielding in the corpus's recorded Order.
func (m *Memory) IterDocs(ctx context.Context) iter.Seq2[string, model.Document] {
	return func(yield func(string, model.Document) bool) {
		m.mu.RLock()
		order := make([]string, len(m.c.Order))
		copy(order, m.c.Order)
		m.mu.RUnlock()
		for _, id := range order {
			if ctx.Err() != nil {
				return
			}
			m.mu.RLock()
			doc, ok := m.c.Docs[id]
			m.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(id, doc) {
				return
			}
		}
	}
}

var _ Writeable = (*Memory)(nil)
var _ Readable = (*Memory)(nil)
