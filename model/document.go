package model

import "sort"

// Document maps layer name to layer value. A document need not populate
// every declared layer: spec.md §3 says a missing layer reads back as its
// declared default, or is simply absent if there is none.
type Document struct {
	Content map[string]Layer
}

// NewDocument returns an empty document.
func NewDocument() Document {
	return Document{Content: make(map[string]Layer)}
}

// SortedLayerNames returns the document's populated layer names in
// ascending lexicographic order — the "canonical layer order" spec.md §4.9
// requires for on-disk serialization and §4.8 requires for hashing. Go map
// iteration order is randomized, so every canonical-order consumer must
// route through this (or Corpus.SortedLayerNames for the full declared
// set), mirroring how teanga/src/document.rs keeps an explicit ordered key
// list rather than relying on its HashMap's iteration order.
func (d Document) SortedLayerNames() []string {
	names := make([]string, 0, len(d.Content))
	for k := range d.Content {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns the layer for name, applying ld.Default if the document
// omits it. The second return is false only when the layer is both absent
// and has no default.
func (d Document) Get(name string, ld *LayerDesc) (Layer, bool) {
	if l, ok := d.Content[name]; ok {
		return l, true
	}
	if ld != nil && ld.Default != nil {
		return *ld.Default, true
	}
	return Layer{}, false
}
