package model

import (
	"fmt"

	"go.uber.org/multierr"
)

// LayerDesc describes one declared layer, mirroring teanga/src/layer.rs's
// LayerDesc. LinkTypes distinguishes nil (untyped link, or no link data at
// all) from a non-nil-but-empty slice (typed link declared with zero
// variants so far) — see SPEC_FULL.md §9's resolution of that Open
// Question.
type LayerDesc struct {
	Kind      LayerKind
	Base      string // empty iff Kind == Characters
	Data      DataKind
	LinkTypes []string
	Target    string
	Default   *Layer
	Meta      map[string]any
}

// New validates and constructs a LayerDesc, mirroring LayerDesc::new's
// characters/base contradiction check in teanga/src/layer.rs.
func New(name string, kind LayerKind, base string, data DataKind) (*LayerDesc, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: layer %q has unknown kind %q", ErrModel, name, kind)
	}
	if kind == Characters && base != "" {
		return nil, fmt.Errorf("%w: layer %q of kind characters cannot declare a base", ErrModel, name)
	}
	if kind != Characters && base == "" {
		return nil, fmt.Errorf("%w: layer %q of kind %s must declare a base", ErrModel, name, kind)
	}
	return &LayerDesc{Kind: kind, Base: base, Data: data}, nil
}

// ValidateMeta checks every declared-layer invariant from spec.md §3 across
// the full layer set: base references resolve, no cycles in the base
// graph, and enum value lists are non-empty when declared. Every violation
// found is joined with go.uber.org/multierr instead of returning on the
// first one, so a corpus author sees every problem in one pass.
func ValidateMeta(meta map[string]*LayerDesc) error {
	var err error
	for name, ld := range meta {
		if ld.Kind == Characters {
			if ld.Base != "" {
				err = multierr.Append(err, fmt.Errorf("%w: layer %q of kind characters cannot declare a base", ErrModel, name))
			}
			continue
		}
		if ld.Base == "" {
			err = multierr.Append(err, fmt.Errorf("%w: layer %q of kind %s must declare a base", ErrModel, name, ld.Kind))
			continue
		}
		if _, ok := meta[ld.Base]; !ok {
			err = multierr.Append(err, fmt.Errorf("%w: layer %q bases on undeclared layer %q", ErrModel, name, ld.Base))
			continue
		}
		if ld.Data.Tag == DataEnum && len(ld.Data.Values) == 0 {
			err = multierr.Append(err, fmt.Errorf("%w: layer %q declares an empty enum", ErrModel, name))
		}
	}
	err = multierr.Append(err, checkCycles(meta))
	return err
}

// checkCycles walks each layer's base chain looking for a cycle.
func checkCycles(meta map[string]*LayerDesc) error {
	var err error
	for start := range meta {
		seen := map[string]bool{start: true}
		cur := start
		for {
			ld, ok := meta[cur]
			if !ok || ld.Kind == Characters || ld.Base == "" {
				break
			}
			if seen[ld.Base] {
				err = multierr.Append(err, fmt.Errorf("%w: cycle in base graph starting at %q", ErrModel, start))
				break
			}
			seen[ld.Base] = true
			cur = ld.Base
		}
	}
	return err
}

// ValidateDocumentLayer checks that a Layer's shape matches the (kind,
// data) pair declared for it, and that any enum data is in range. Mirrors
// the shape checks IntoLayer performs in teanga/src/layer.rs before
// accepting a native value as a given LayerKind.
func ValidateDocumentLayer(name string, ld *LayerDesc, l Layer) error {
	var wantKind LayerValueKind
	switch {
	case ld.Kind == Characters:
		wantKind = KindCharacters
	case ld.Data.Tag == DataNone && (ld.Kind == Seq || ld.Kind == Div || ld.Kind == Element):
		wantKind = KindL1
	case ld.Data.Tag == DataNone && ld.Kind == Span:
		wantKind = KindL2
	case (ld.Data.Tag == DataLink || ld.Data.Tag == DataEnum) && ld.Kind == Span && ld.LinkTypes == nil:
		wantKind = KindL3
	case ld.Data.Tag == DataString && ld.Kind == Seq:
		wantKind = KindLS
	case (ld.Data.Tag == DataString || ld.Data.Tag == DataEnum) && (ld.Kind == Div || ld.Kind == Element):
		wantKind = KindL1S
	case ld.Data.Tag == DataLink && ld.Kind == Seq && ld.LinkTypes != nil:
		wantKind = KindL1S
	case (ld.Data.Tag == DataLink) && (ld.Kind == Div || ld.Kind == Element) && ld.LinkTypes != nil:
		wantKind = KindL2S
	case ld.Data.Tag == DataString && ld.Kind == Span:
		wantKind = KindL2S
	case ld.Data.Tag == DataLink && ld.Kind == Span && ld.LinkTypes != nil:
		wantKind = KindL3S
	default:
		wantKind = l.Kind // MetaLayer and other free-form cases: accept as-is
	}
	if l.Kind != wantKind && l.Kind != KindMeta {
		return fmt.Errorf("%w: layer %q expected shape %d, got %d", ErrModel, name, wantKind, l.Kind)
	}
	return l.ValidateEnum(ld.Data)
}
