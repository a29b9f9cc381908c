package model

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// wireLayerDesc is the CBOR-facing shape of LayerDesc. Unlike
// teanga/src/layer.rs's #[serde(untagged)] Layer, this module tags each
// union variant explicitly by name — CBOR has no structural ambiguity
// resolution step the way serde's untagged enums do, and an explicit tag
// is the idiomatic Go way to round-trip a closed sum type through a
// self-describing encoding.
type wireLayerDesc struct {
	Kind      string         `cbor:"type"`
	Base      string         `cbor:"base,omitempty"`
	Data      *wireDataKind  `cbor:"data,omitempty"`
	LinkTypes []string       `cbor:"link_types,omitempty"`
	Target    string         `cbor:"target,omitempty"`
	Default   *wireLayer     `cbor:"default,omitempty"`
	Meta      map[string]any `cbor:"meta,omitempty"`
}

type wireDataKind struct {
	Kind   string   `cbor:"kind"`
	Values []string `cbor:"values,omitempty"`
}

type wireLayer struct {
	Kind       string      `cbor:"kind"`
	Characters string      `cbor:"characters,omitempty"`
	L1         []uint32    `cbor:"l1,omitempty"`
	L2         [][2]uint32 `cbor:"l2,omitempty"`
	L3         [][3]uint32 `cbor:"l3,omitempty"`
	LS         []string    `cbor:"ls,omitempty"`
	L1S        []L1SItem   `cbor:"l1s,omitempty"`
	L2S        []L2SItem   `cbor:"l2s,omitempty"`
	L3S        []L3SItem   `cbor:"l3s,omitempty"`
	Meta       any         `cbor:"meta,omitempty"`
}

func layerToWire(l Layer) wireLayer {
	w := wireLayer{Kind: kindName(l.Kind)}
	switch l.Kind {
	case KindCharacters:
		w.Characters = l.Characters
	case KindL1:
		w.L1 = l.L1
	case KindL2:
		w.L2 = make([][2]uint32, len(l.L2))
		for i, p := range l.L2 {
			w.L2[i] = [2]uint32{p.A, p.B}
		}
	case KindL3:
		w.L3 = make([][3]uint32, len(l.L3))
		for i, t := range l.L3 {
			w.L3[i] = [3]uint32{t.A, t.B, t.C}
		}
	case KindLS:
		w.LS = l.LS
	case KindL1S:
		w.L1S = l.L1S
	case KindL2S:
		w.L2S = l.L2S
	case KindL3S:
		w.L3S = l.L3S
	case KindMeta:
		w.Meta = l.Meta
	}
	return w
}

func wireToLayer(w wireLayer) (Layer, error) {
	switch w.Kind {
	case "characters":
		return NewCharacters(w.Characters), nil
	case "l1":
		return NewL1(w.L1), nil
	case "l2":
		pairs := make([]Pair, len(w.L2))
		for i, p := range w.L2 {
			pairs[i] = Pair{p[0], p[1]}
		}
		return NewL2(pairs), nil
	case "l3":
		triples := make([]Triple, len(w.L3))
		for i, t := range w.L3 {
			triples[i] = Triple{t[0], t[1], t[2]}
		}
		return NewL3(triples), nil
	case "ls":
		return NewLS(w.LS), nil
	case "l1s":
		return NewL1S(w.L1S), nil
	case "l2s":
		return NewL2S(w.L2S), nil
	case "l3s":
		return NewL3S(w.L3S), nil
	case "meta":
		return NewMetaLayer(w.Meta), nil
	default:
		return Layer{}, fmt.Errorf("%w: unknown layer kind %q in cbor meta", ErrModel, w.Kind)
	}
}

func kindName(k LayerValueKind) string {
	switch k {
	case KindCharacters:
		return "characters"
	case KindL1:
		return "l1"
	case KindL2:
		return "l2"
	case KindL3:
		return "l3"
	case KindLS:
		return "ls"
	case KindL1S:
		return "l1s"
	case KindL2S:
		return "l2s"
	case KindL3S:
		return "l3s"
	case KindMeta:
		return "meta"
	default:
		return "unknown"
	}
}

func dataKindName(tag DataKindTag) string {
	switch tag {
	case DataNone:
		return "none"
	case DataString:
		return "string"
	case DataEnum:
		return "enum"
	case DataLink:
		return "link"
	default:
		return "none"
	}
}

func dataKindFromName(name string, values []string) DataKind {
	switch name {
	case "string":
		return StringData()
	case "enum":
		return EnumData(values)
	case "link":
		return LinkData()
	default:
		return NoData()
	}
}

// MarshalCBOR implements cbor.Marshaler.
func (ld LayerDesc) MarshalCBOR() ([]byte, error) {
	w := wireLayerDesc{
		Kind:      string(ld.Kind),
		Base:      ld.Base,
		LinkTypes: ld.LinkTypes,
		Target:    ld.Target,
		Meta:      ld.Meta,
	}
	if ld.Data.Tag != DataNone {
		w.Data = &wireDataKind{Kind: dataKindName(ld.Data.Tag), Values: ld.Data.Values}
	}
	if ld.Default != nil {
		wl := layerToWire(*ld.Default)
		w.Default = &wl
	}
	return cborEncMode().Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (ld *LayerDesc) UnmarshalCBOR(data []byte) error {
	var w wireLayerDesc
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	ld.Kind = LayerKind(w.Kind)
	ld.Base = w.Base
	ld.LinkTypes = w.LinkTypes
	ld.Target = w.Target
	ld.Meta = w.Meta
	if w.Data != nil {
		ld.Data = dataKindFromName(w.Data.Kind, w.Data.Values)
	} else {
		ld.Data = NoData()
	}
	if w.Default != nil {
		l, err := wireToLayer(*w.Default)
		if err != nil {
			return err
		}
		ld.Default = &l
	}
	return nil
}

// cborEncMode returns the deterministic ("canonical") CBOR encoding mode
// spec.md §9's design notes call for, so the same meta map always
// serializes to the same bytes regardless of Go map iteration order —
// the same option the teacher's CBOR codec
// (ipld/ipldbindcode/cbor.go's encodeCBOR) selects via
// cbor.CanonicalEncOptions.
func cborEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err) // CanonicalEncOptions is always a valid EncMode
	}
	return mode
}

// EncodeValue CBOR-encodes an arbitrary attribute value, for MetaLayer
// payloads (spec.md §4.7's "opaque attribute payload").
func EncodeValue(v any) ([]byte, error) {
	return cborEncMode().Marshal(v)
}

var anyValueDecMode = mustDecMode()

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any{}),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// DecodeValue is the inverse of EncodeValue. CBOR maps decode as
// map[string]any rather than cbor/v2's default map[any]any, so a
// round-tripped free-form meta value compares equal to what was encoded.
func DecodeValue(b []byte) (any, error) {
	var v any
	if err := anyValueDecMode.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeMeta CBOR-encodes the full layer-name -> LayerDesc map,
// deterministically ordered by name (spec.md §4.9's meta block).
func EncodeMeta(meta map[string]*LayerDesc) ([]byte, error) {
	return cborEncMode().Marshal(meta)
}

// DecodeMeta parses a CBOR-encoded layer-name -> LayerDesc map.
func DecodeMeta(b []byte) (map[string]*LayerDesc, error) {
	var meta map[string]*LayerDesc
	if err := cbor.Unmarshal(b, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
