package model

import (
	"fmt"
	"sort"
)

// Corpus is the in-memory form of spec.md §3's Corpus: ordered layer
// metadata, an ordered document-id list (the authoritative iteration
// order), and an id-to-Document map. Every id in Order must be a key of
// Docs and vice versa; this invariant is checked by Validate, not enforced
// by the type itself (mutating corpora in place — e.g. the in-memory
// corpus.Readable/Writeable implementations — must preserve it).
type Corpus struct {
	MetaOrder []string // declaration order of layer names
	Meta      map[string]*LayerDesc
	Order     []string // document ids, in submission/iteration order
	Docs      map[string]Document
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		Meta: make(map[string]*LayerDesc),
		Docs: make(map[string]Document),
	}
}

// DeclareLayer adds a new layer declaration. Mutating an existing
// declaration is rejected: spec.md §3's lifecycle says layer metadata is
// immutable once declared.
func (c *Corpus) DeclareLayer(name string, ld *LayerDesc) error {
	if _, exists := c.Meta[name]; exists {
		return fmt.Errorf("%w: layer %q already declared", ErrModel, name)
	}
	c.Meta[name] = ld
	c.MetaOrder = append(c.MetaOrder, name)
	return ValidateMeta(c.Meta)
}

// Validate checks the Order/Docs bijection spec.md §3 requires.
func (c *Corpus) Validate() error {
	if len(c.Order) != len(c.Docs) {
		return fmt.Errorf("%w: order has %d ids but docs has %d", ErrModel, len(c.Order), len(c.Docs))
	}
	seen := make(map[string]bool, len(c.Order))
	for _, id := range c.Order {
		if seen[id] {
			return fmt.Errorf("%w: duplicate id %q in order", ErrModel, id)
		}
		seen[id] = true
		if _, ok := c.Docs[id]; !ok {
			return fmt.Errorf("%w: id %q in order has no document", ErrModel, id)
		}
	}
	return nil
}

// SortedLayerNames returns every declared layer name in ascending
// lexicographic order, the canonical order used for on-disk per-document
// serialization (spec.md §4.9).
func (c *Corpus) SortedLayerNames() []string {
	names := make([]string, 0, len(c.Meta))
	for name := range c.Meta {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddDoc inserts a document under id, appending to Order. Callers (the
// docid package) are responsible for id assignment; Corpus itself doesn't
// hash.
func (c *Corpus) AddDoc(id string, doc Document) {
	if _, exists := c.Docs[id]; !exists {
		c.Order = append(c.Order, id)
	}
	c.Docs[id] = doc
}

// RemoveDoc deletes a document by id.
func (c *Corpus) RemoveDoc(id string) {
	if _, ok := c.Docs[id]; !ok {
		return
	}
	delete(c.Docs, id)
	for i, oid := range c.Order {
		if oid == id {
			c.Order = append(c.Order[:i], c.Order[i+1:]...)
			break
		}
	}
}
