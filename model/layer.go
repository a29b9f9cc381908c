// Package model implements the layered-corpus data model: LayerKind,
// DataKind, LayerMeta, Layer, Document and Corpus, together with the
// invariants spec.md §3 and §4.11 place on them. It has no knowledge of
// the Cuac wire format; that lives in the cuac/layercodec/datacolumn
// packages, which operate on these types.
package model

import "fmt"

// LayerKind is the shape a layer's indexes take relative to its base.
type LayerKind string

const (
	Characters LayerKind = "characters"
	Seq        LayerKind = "seq"
	Div        LayerKind = "div"
	Element    LayerKind = "element"
	Span       LayerKind = "span"
)

func (k LayerKind) valid() bool {
	switch k {
	case Characters, Seq, Div, Element, Span:
		return true
	}
	return false
}

// DataKindTag discriminates the DataKind union.
type DataKindTag int

const (
	DataNone DataKindTag = iota
	DataString
	DataEnum
	DataLink
)

// DataKind describes what, if anything, a layer's cells carry.
type DataKind struct {
	Tag    DataKindTag
	Values []string // populated (non-nil) only when Tag == DataEnum
}

func NoData() DataKind          { return DataKind{Tag: DataNone} }
func StringData() DataKind      { return DataKind{Tag: DataString} }
func LinkData() DataKind        { return DataKind{Tag: DataLink} }
func EnumData(v []string) DataKind {
	return DataKind{Tag: DataEnum, Values: v}
}

// ordinal returns the position of s in an enum's value list.
func (d DataKind) ordinal(s string) (int, bool) {
	for i, v := range d.Values {
		if v == s {
			return i, true
		}
	}
	return 0, false
}

// LayerValueKind is the tagged-union discriminator for Layer.
type LayerValueKind int

const (
	KindCharacters LayerValueKind = iota
	KindL1
	KindL2
	KindL3
	KindLS
	KindL1S
	KindL2S
	KindL3S
	KindMeta
)

// Pair is a (start, end) or (index, target) tuple used by L2/L2S.
type Pair struct{ A, B uint32 }

// Triple is a (start, end, target) or similar tuple used by L3/L3S.
type Triple struct{ A, B, C uint32 }

// L1SItem pairs a single index with a data string.
type L1SItem struct {
	Index uint32
	Data  string
}

// L2SItem pairs a (start, end) index pair with a data string.
type L2SItem struct {
	A, B uint32
	Data string
}

// L3SItem pairs a (start, end, target) index triple with a data string.
type L3SItem struct {
	A, B, C uint32
	Data    string
}

// Layer is the closed sum type over shapes described by spec.md §3. The
// Kind field is authoritative; only the field matching Kind is populated.
// Mirrors teanga/src/layer.rs's untagged `Layer` enum, made explicit
// because Go has no sum types.
type Layer struct {
	Kind       LayerValueKind
	Characters string
	L1         []uint32
	L2         []Pair
	L3         []Triple
	LS         []string
	L1S        []L1SItem
	L2S        []L2SItem
	L3S        []L3SItem
	Meta       any // arbitrary CBOR-able attribute value, or nil
}

func NewCharacters(s string) Layer { return Layer{Kind: KindCharacters, Characters: s} }
func NewL1(v []uint32) Layer       { return Layer{Kind: KindL1, L1: v} }
func NewL2(v []Pair) Layer         { return Layer{Kind: KindL2, L2: v} }
func NewL3(v []Triple) Layer       { return Layer{Kind: KindL3, L3: v} }
func NewLS(v []string) Layer       { return Layer{Kind: KindLS, LS: v} }
func NewL1S(v []L1SItem) Layer     { return Layer{Kind: KindL1S, L1S: v} }
func NewL2S(v []L2SItem) Layer     { return Layer{Kind: KindL2S, L2S: v} }
func NewL3S(v []L3SItem) Layer     { return Layer{Kind: KindL3S, L3S: v} }
func NewMetaLayer(v any) Layer     { return Layer{Kind: KindMeta, Meta: v} }

// Len returns the number of annotatable elements in the layer (the UTF-8
// byte length for Characters, the element count otherwise; 0 for MetaLayer).
func (l Layer) Len() int {
	switch l.Kind {
	case KindCharacters:
		return len(l.Characters)
	case KindL1:
		return len(l.L1)
	case KindL2:
		return len(l.L2)
	case KindL3:
		return len(l.L3)
	case KindLS:
		return len(l.LS)
	case KindL1S:
		return len(l.L1S)
	case KindL2S:
		return len(l.L2S)
	case KindL3S:
		return len(l.L3S)
	default:
		return 0
	}
}

// Indexes projects the layer's positions relative to its base, per
// spec.md §3's "indexes" projection. n is the length of the base layer,
// needed to close the final div span. Mirrors Layer::indexes in
// teanga/src/layer.rs.
func (l Layer) Indexes(kind LayerKind, n uint32) ([]Pair, error) {
	switch l.Kind {
	case KindCharacters:
		return []Pair{{0, uint32(len(l.Characters))}}, nil
	case KindL1:
		return l1Indexes(l.L1, kind, n)
	case KindL2:
		return l2Indexes(l.L2, kind, n)
	case KindL3:
		out := make([]Pair, len(l.L3))
		for i, t := range l.L3 {
			out[i] = Pair{t.A, t.B}
		}
		return out, nil
	case KindLS:
		out := make([]Pair, len(l.LS))
		for i := range l.LS {
			out[i] = Pair{uint32(i), uint32(i + 1)}
		}
		return out, nil
	case KindL1S:
		return l1sIndexes(l.L1S, kind, n)
	case KindL2S:
		return l2sIndexes(l.L2S, kind, n)
	case KindL3S:
		out := make([]Pair, len(l.L3S))
		for i, t := range l.L3S {
			out[i] = Pair{t.A, t.B}
		}
		return out, nil
	case KindMeta:
		return nil, nil
	}
	return nil, fmt.Errorf("model: unknown layer kind %d", l.Kind)
}

func l1Indexes(v []uint32, kind LayerKind, n uint32) ([]Pair, error) {
	out := make([]Pair, len(v))
	switch kind {
	case Seq:
		for i := range v {
			out[i] = Pair{uint32(i), uint32(i + 1)}
		}
	case Div:
		for i := range v {
			end := n
			if i != len(v)-1 {
				end = v[i+1]
			}
			out[i] = Pair{v[i], end}
		}
	case Element:
		for i := range v {
			out[i] = Pair{v[i], v[i] + 1}
		}
	default:
		return nil, fmt.Errorf("model: L1 not supported for layer kind %s", kind)
	}
	return out, nil
}

func l2Indexes(v []Pair, kind LayerKind, n uint32) ([]Pair, error) {
	out := make([]Pair, len(v))
	switch kind {
	case Div:
		for i := range v {
			end := n
			if i != len(v)-1 {
				end = v[i+1].A
			}
			out[i] = Pair{v[i].A, end}
		}
	case Element:
		copy(out, v)
	case Span:
		copy(out, v)
	default:
		return nil, fmt.Errorf("model: L2 not supported for layer kind %s", kind)
	}
	return out, nil
}

func l1sIndexes(v []L1SItem, kind LayerKind, n uint32) ([]Pair, error) {
	out := make([]Pair, len(v))
	switch kind {
	case Div:
		for i := range v {
			end := n
			if i != len(v)-1 {
				end = v[i+1].Index
			}
			out[i] = Pair{v[i].Index, end}
		}
	case Element:
		for i := range v {
			out[i] = Pair{v[i].Index, v[i].Index + 1}
		}
	case Seq:
		for i := range v {
			out[i] = Pair{uint32(i), uint32(i + 1)}
		}
	default:
		return nil, fmt.Errorf("model: L1S not supported for layer kind %s", kind)
	}
	return out, nil
}

func l2sIndexes(v []L2SItem, kind LayerKind, n uint32) ([]Pair, error) {
	out := make([]Pair, len(v))
	switch kind {
	case Div:
		for i := range v {
			end := n
			if i != len(v)-1 {
				end = v[i+1].A
			}
			out[i] = Pair{v[i].A, end}
		}
	case Element:
		for i := range v {
			out[i] = Pair{v[i].A, v[i].B}
		}
	case Span:
		for i := range v {
			out[i] = Pair{v[i].A, v[i].B}
		}
	default:
		return nil, fmt.Errorf("model: L2S not supported for layer kind %s", kind)
	}
	return out, nil
}

// DataStrings projects the string cells of a layer carrying DataKind ==
// string/enum/link, in element order. Layers with no data kind return nil.
func (l Layer) DataStrings(data DataKind) []string {
	switch l.Kind {
	case KindLS:
		return l.LS
	case KindL1S:
		out := make([]string, len(l.L1S))
		for i, it := range l.L1S {
			out[i] = it.Data
		}
		return out
	case KindL2S:
		out := make([]string, len(l.L2S))
		for i, it := range l.L2S {
			out[i] = it.Data
		}
		return out
	case KindL3S:
		out := make([]string, len(l.L3S))
		for i, it := range l.L3S {
			out[i] = it.Data
		}
		return out
	default:
		return nil
	}
}

// ValidateEnum checks that every data string in the layer is a member of
// data.Values, returning ErrInvalidEnumValue on the first violation.
func (l Layer) ValidateEnum(data DataKind) error {
	if data.Tag != DataEnum {
		return nil
	}
	for _, s := range l.DataStrings(data) {
		if _, ok := data.ordinal(s); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidEnumValue, s)
		}
	}
	return nil
}
