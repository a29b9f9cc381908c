// Package datacolumn implements the Cuac DataColumn encoding (spec.md
// §4.6): a layer's data payload, either an enum column of packed
// ordinals or a string/link column of dictionary references and
// codec-compressed inline strings.
package datacolumn

import (
	"fmt"
	"io"

	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/packedindex"
	"github.com/teanga-nlp/teanga-go/strcodec"
	"github.com/teanga-nlp/teanga-go/typeindex"
	"github.com/teanga-nlp/teanga-go/varint"
)

// EncodeEnum packs each cell's ordinal position in data.Values, failing
// with model.ErrInvalidEnumValue if any cell isn't a declared value.
func EncodeEnum(cells []string, data model.DataKind) (*packedindex.PackedIndex, error) {
	ordinals := make([]uint32, len(cells))
	for i, s := range cells {
		idx, ok := ordinalOf(data, s)
		if !ok {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidEnumValue, s)
		}
		ordinals[i] = uint32(idx)
	}
	return packedindex.FromSlice(ordinals)
}

// DecodeEnum unpacks a PackedIndex of ordinals back into enum value strings.
func DecodeEnum(pi *packedindex.PackedIndex, data model.DataKind) ([]string, error) {
	ordinals := pi.ToSlice()
	out := make([]string, len(ordinals))
	for i, ord := range ordinals {
		if int(ord) >= len(data.Values) {
			return nil, fmt.Errorf("%w: ordinal %d out of range", model.ErrInvalidEnumValue, ord)
		}
		out[i] = data.Values[ord]
	}
	return out, nil
}

func ordinalOf(data model.DataKind, s string) (int, bool) {
	for i, v := range data.Values {
		if v == s {
			return i, true
		}
	}
	return 0, false
}

// EncodeStrings writes a string/link column: a varint cell-count prefix,
// a TypeIndex of that length, then for each cell either a varint
// dictionary id (TypeIndex bit 0) or a varint byte-length followed by
// codec-compressed bytes (TypeIndex bit 1).
func EncodeStrings(w io.Writer, cells []string, d *dict.Dictionary, codec strcodec.Codec) error {
	if err := varint.Write(w, uint32(len(cells))); err != nil {
		return err
	}
	entries := make([]dict.Entry, len(cells))
	ti := typeindex.New()
	for i, s := range cells {
		e := d.Idx(s)
		entries[i] = e
		ti.Append(!e.Indexed)
	}
	if _, err := w.Write(ti.Bytes()); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Indexed {
			if err := varint.Write(w, e.ID); err != nil {
				return err
			}
			continue
		}
		enc := codec.Compress(e.Inline)
		if err := varint.Write(w, uint32(len(enc))); err != nil {
			return err
		}
		if _, err := w.Write(enc); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStrings is the inverse of EncodeStrings. The Cuac wire format
// never serializes its dictionary: d mirrors the writer's Idx state
// machine live, by being fed every decoded inline string in stream
// order, so that by the time a dictionary-reference cell is decoded its
// id is already present (spec.md §5's dictionary-consistency invariant).
func DecodeStrings(r io.Reader, d *dict.Dictionary, codec strcodec.Codec) ([]string, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReaderWrapper{r}
	}
	n, err := varint.Read(br)
	if err != nil {
		return nil, err
	}
	ti, err := typeindex.FromReader(r, int(n))
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if !ti.Value(i) {
			id, err := varint.Read(br)
			if err != nil {
				return nil, err
			}
			s, err := d.Resolve(id)
			if err != nil {
				return nil, err
			}
			out[i] = s
			continue
		}
		length, err := varint.Read(br)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
		}
		s, err := codec.Decompress(buf)
		if err != nil {
			return nil, err
		}
		d.Idx(s) // mirror the writer's promotion state machine
		out[i] = s
	}
	return out, nil
}

// byteReaderWrapper adapts an io.Reader without ReadByte to io.ByteReader,
// for varint.Read's byte-at-a-time decoding.
type byteReaderWrapper struct {
	r io.Reader
}

func (b *byteReaderWrapper) ReadByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(b.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}
