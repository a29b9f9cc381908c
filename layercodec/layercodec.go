// Package layercodec implements the Cuac LayerCodec (spec.md §4.7): a
// one-byte variant tag selecting a Layer's shape and its delta/diff
// integer-column transforms, plus the reserved 0xFF "absent layer"
// sentinel used when walking canonical layer order during whole-document
// encoding.
package layercodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/teanga-nlp/teanga-go/datacolumn"
	"github.com/teanga-nlp/teanga-go/dict"
	"github.com/teanga-nlp/teanga-go/model"
	"github.com/teanga-nlp/teanga-go/packedindex"
	"github.com/teanga-nlp/teanga-go/strcodec"
)

// Absent is the sentinel tag byte meaning "layer absent at this position
// in the document stream".
const Absent = 0xFF

// Tag values, exhaustive over [0,22].
const (
	TagCharacters = 0
	TagL1Delta    = 1
	TagL1NoDelta  = 2
	tagL2Base     = 3 // 3..6, + 2*(!delta) + (!diff)
	tagL3Base     = 7 // 7..10
	TagLS         = 11
	tagL1SBase    = 12 // 12 = delta, 13 = no delta
	tagL2SBase    = 14 // 14..17
	tagL3SBase    = 18 // 18..21
	TagMeta       = 22
)

var ErrBadTag = fmt.Errorf("%w: unrecognized layer codec tag", model.ErrModel)

// WriteAbsent writes the sentinel marking a declared layer absent from
// this document.
func WriteAbsent(w io.Writer) error {
	_, err := w.Write([]byte{Absent})
	return err
}

// ReadTag reads the next tag byte and returns it. The caller compares it
// against Absent and, for any other value, passes it on to Decode, which
// reads only the payload that follows.
func ReadTag(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Encode writes one Layer value's LayerCodec encoding (tag byte plus
// payload) to w.
func Encode(w io.Writer, l model.Layer, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	switch l.Kind {
	case model.KindCharacters:
		return encodeCharacters(w, l, codec)
	case model.KindL1:
		return encodeL1(w, l.L1)
	case model.KindL2:
		return encodeL2(w, l.L2)
	case model.KindL3:
		return encodeL3(w, l.L3)
	case model.KindLS:
		return encodeLS(w, l.LS, ld, d, codec)
	case model.KindL1S:
		return encodeL1S(w, l.L1S, ld, d, codec)
	case model.KindL2S:
		return encodeL2S(w, l.L2S, ld, d, codec)
	case model.KindL3S:
		return encodeL3S(w, l.L3S, ld, d, codec)
	case model.KindMeta:
		return encodeMeta(w, l.Meta)
	default:
		return fmt.Errorf("%w: unknown layer value kind %d", model.ErrModel, l.Kind)
	}
}

// Decode reads from r the payload introduced by tag, a tag byte the
// caller has already consumed (e.g. via ReadTag), returning the
// reconstructed Layer. Callers must have already established (e.g. via
// canonical layer order walking in the corpus reader) that tag is not the
// Absent sentinel.
func Decode(r io.Reader, tag byte, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) (model.Layer, error) {
	switch {
	case tag == TagCharacters:
		return decodeCharacters(r, codec)
	case tag == TagL1NoDelta || tag == TagL1Delta:
		return decodeL1(r, tag == TagL1Delta)
	case tag >= tagL2Base && tag < tagL2Base+4:
		return decodeL2(r, tag-tagL2Base)
	case tag >= tagL3Base && tag < tagL3Base+4:
		return decodeL3(r, tag-tagL3Base)
	case tag == TagLS:
		return decodeLS(r, ld, d, codec)
	case tag >= tagL1SBase && tag < tagL1SBase+2:
		return decodeL1S(r, tag-tagL1SBase, ld, d, codec)
	case tag >= tagL2SBase && tag < tagL2SBase+4:
		return decodeL2S(r, tag-tagL2SBase, ld, d, codec)
	case tag >= tagL3SBase && tag < tagL3SBase+4:
		return decodeL3S(r, tag-tagL3SBase, ld, d, codec)
	case tag == TagMeta:
		return decodeMeta(r)
	default:
		return model.Layer{}, fmt.Errorf("%w: tag %d", ErrBadTag, tag)
	}
}

func encodeCharacters(w io.Writer, l model.Layer, codec strcodec.Codec) error {
	if _, err := w.Write([]byte{TagCharacters}); err != nil {
		return err
	}
	enc := codec.Compress(l.Characters)
	if len(enc) > 0xFFFF {
		return fmt.Errorf("%w: characters layer compressed length %d exceeds u16", model.ErrModel, len(enc))
	}
	if err := writeU16(w, uint16(len(enc))); err != nil {
		return err
	}
	_, err := w.Write(enc)
	return err
}

func decodeCharacters(r io.Reader, codec strcodec.Codec) (model.Layer, error) {
	n, err := readU16(r)
	if err != nil {
		return model.Layer{}, err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return model.Layer{}, err
		}
	}
	s, err := codec.Decompress(buf)
	if err != nil {
		return model.Layer{}, err
	}
	return model.NewCharacters(s), nil
}

func encodeL1(w io.Writer, v []uint32) error {
	delta := isStrictlyAscending(v)
	tag := byte(TagL1NoDelta)
	col := v
	if delta {
		tag = TagL1Delta
		col = deltaEncode(v)
	}
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	return writePackedColumn(w, col)
}

func decodeL1(r io.Reader, delta bool) (model.Layer, error) {
	col, err := readPackedColumn(r)
	if err != nil {
		return model.Layer{}, err
	}
	if delta {
		col = deltaDecode(col)
	}
	return model.NewL1(col), nil
}

func splitL2(v []model.Pair) (c1, c2 []uint32) {
	c1 = make([]uint32, len(v))
	c2 = make([]uint32, len(v))
	for i, p := range v {
		c1[i] = p.A
		c2[i] = p.B
	}
	return
}

func joinL2(c1, c2 []uint32) []model.Pair {
	out := make([]model.Pair, len(c1))
	for i := range c1 {
		out[i] = model.Pair{A: c1[i], B: c2[i]}
	}
	return out
}

func encodeL2(w io.Writer, v []model.Pair) error {
	c1, c2 := splitL2(v)
	tag, e1, e2 := chooseDeltaDiffTag(tagL2Base, c1, c2)
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writePackedColumn(w, e1); err != nil {
		return err
	}
	return writePackedColumn(w, e2)
}

func decodeL2(r io.Reader, bits byte) (model.Layer, error) {
	c1, c2, err := readDeltaDiffColumns(r, bits)
	if err != nil {
		return model.Layer{}, err
	}
	return model.NewL2(joinL2(c1, c2)), nil
}

func encodeL3(w io.Writer, v []model.Triple) error {
	c1 := make([]uint32, len(v))
	c2 := make([]uint32, len(v))
	c3 := make([]uint32, len(v))
	for i, t := range v {
		c1[i], c2[i], c3[i] = t.A, t.B, t.C
	}
	tag, e1, e2 := chooseDeltaDiffTag(tagL3Base, c1, c2)
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writePackedColumn(w, e1); err != nil {
		return err
	}
	if err := writePackedColumn(w, e2); err != nil {
		return err
	}
	return writePackedColumn(w, c3)
}

func decodeL3(r io.Reader, bits byte) (model.Layer, error) {
	c1, c2, err := readDeltaDiffColumns(r, bits)
	if err != nil {
		return model.Layer{}, err
	}
	c3, err := readPackedColumn(r)
	if err != nil {
		return model.Layer{}, err
	}
	out := make([]model.Triple, len(c1))
	for i := range c1 {
		out[i] = model.Triple{A: c1[i], B: c2[i], C: c3[i]}
	}
	return model.NewL3(out), nil
}

func encodeLS(w io.Writer, v []string, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	if _, err := w.Write([]byte{TagLS}); err != nil {
		return err
	}
	return encodeDataColumn(w, v, ld, d, codec)
}

func decodeLS(r io.Reader, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) (model.Layer, error) {
	v, err := decodeDataColumn(r, ld, d, codec)
	if err != nil {
		return model.Layer{}, err
	}
	return model.NewLS(v), nil
}

func encodeL1S(w io.Writer, v []model.L1SItem, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	idx := make([]uint32, len(v))
	data := make([]string, len(v))
	for i, it := range v {
		idx[i] = it.Index
		data[i] = it.Data
	}
	delta := isStrictlyAscending(idx)
	tag := byte(tagL1SBase + 1)
	col := idx
	if delta {
		tag = tagL1SBase
		col = deltaEncode(idx)
	}
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writePackedColumn(w, col); err != nil {
		return err
	}
	return encodeDataColumn(w, data, ld, d, codec)
}

func decodeL1S(r io.Reader, bits byte, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) (model.Layer, error) {
	col, err := readPackedColumn(r)
	if err != nil {
		return model.Layer{}, err
	}
	if bits == 0 {
		col = deltaDecode(col)
	}
	data, err := decodeDataColumn(r, ld, d, codec)
	if err != nil {
		return model.Layer{}, err
	}
	out := make([]model.L1SItem, len(col))
	for i := range col {
		out[i] = model.L1SItem{Index: col[i], Data: data[i]}
	}
	return model.NewL1S(out), nil
}

func encodeL2S(w io.Writer, v []model.L2SItem, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	c1 := make([]uint32, len(v))
	c2 := make([]uint32, len(v))
	data := make([]string, len(v))
	for i, it := range v {
		c1[i], c2[i], data[i] = it.A, it.B, it.Data
	}
	tag, e1, e2 := chooseDeltaDiffTag(tagL2SBase, c1, c2)
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writePackedColumn(w, e1); err != nil {
		return err
	}
	if err := writePackedColumn(w, e2); err != nil {
		return err
	}
	return encodeDataColumn(w, data, ld, d, codec)
}

func decodeL2S(r io.Reader, bits byte, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) (model.Layer, error) {
	c1, c2, err := readDeltaDiffColumns(r, bits)
	if err != nil {
		return model.Layer{}, err
	}
	data, err := decodeDataColumn(r, ld, d, codec)
	if err != nil {
		return model.Layer{}, err
	}
	out := make([]model.L2SItem, len(c1))
	for i := range c1 {
		out[i] = model.L2SItem{A: c1[i], B: c2[i], Data: data[i]}
	}
	return model.NewL2S(out), nil
}

func encodeL3S(w io.Writer, v []model.L3SItem, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	c1 := make([]uint32, len(v))
	c2 := make([]uint32, len(v))
	c3 := make([]uint32, len(v))
	data := make([]string, len(v))
	for i, it := range v {
		c1[i], c2[i], c3[i], data[i] = it.A, it.B, it.C, it.Data
	}
	tag, e1, e2 := chooseDeltaDiffTag(tagL3SBase, c1, c2)
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := writePackedColumn(w, e1); err != nil {
		return err
	}
	if err := writePackedColumn(w, e2); err != nil {
		return err
	}
	if err := writePackedColumn(w, c3); err != nil {
		return err
	}
	return encodeDataColumn(w, data, ld, d, codec)
}

func decodeL3S(r io.Reader, bits byte, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) (model.Layer, error) {
	c1, c2, err := readDeltaDiffColumns(r, bits)
	if err != nil {
		return model.Layer{}, err
	}
	c3, err := readPackedColumn(r)
	if err != nil {
		return model.Layer{}, err
	}
	data, err := decodeDataColumn(r, ld, d, codec)
	if err != nil {
		return model.Layer{}, err
	}
	out := make([]model.L3SItem, len(c1))
	for i := range c1 {
		out[i] = model.L3SItem{A: c1[i], B: c2[i], C: c3[i], Data: data[i]}
	}
	return model.NewL3S(out), nil
}

func encodeMeta(w io.Writer, v any) error {
	if _, err := w.Write([]byte{TagMeta}); err != nil {
		return err
	}
	enc, err := model.EncodeValue(v)
	if err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(enc))); err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

func decodeMeta(r io.Reader) (model.Layer, error) {
	n, err := readU32(r)
	if err != nil {
		return model.Layer{}, err
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return model.Layer{}, err
		}
	}
	v, err := model.DecodeValue(buf)
	if err != nil {
		return model.Layer{}, err
	}
	return model.NewMetaLayer(v), nil
}

// chooseDeltaDiffTag picks among the four (delta, diff) combinations for
// a two-column layer variant and returns the tag plus the two encoded
// columns. Tag offsets follow the reference's (delta,diff)->tag mapping:
// (T,T)->base+0, (T,F)->base+1, (F,T)->base+2, (F,F)->base+3, i.e.
// base + 2*(!delta) + (!diff).
func chooseDeltaDiffTag(base byte, c1, c2 []uint32) (tag byte, e1, e2 []uint32) {
	delta := isStrictlyAscending(c1)
	diff := diffApplicable(c1, c2)
	e1, e2 = c1, c2
	if delta {
		e1 = deltaEncode(c1)
	}
	if diff {
		e2 = diffEncode(c1, c2)
	}
	var notDeltaBit, notDiffBit byte
	if !delta {
		notDeltaBit = 1
	}
	if !diff {
		notDiffBit = 1
	}
	return base + 2*notDeltaBit + notDiffBit, e1, e2
}

func readDeltaDiffColumns(r io.Reader, bits byte) (c1, c2 []uint32, err error) {
	notDeltaBit := (bits >> 1) & 1
	notDiffBit := bits & 1
	c1, err = readPackedColumn(r)
	if err != nil {
		return nil, nil, err
	}
	if notDeltaBit == 0 {
		c1 = deltaDecode(c1)
	}
	c2, err = readPackedColumn(r)
	if err != nil {
		return nil, nil, err
	}
	if notDiffBit == 0 {
		c2 = diffDecode(c1, c2)
	}
	return c1, c2, nil
}

func encodeDataColumn(w io.Writer, data []string, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) error {
	if ld.Data.Tag == model.DataEnum {
		pi, err := datacolumn.EncodeEnum(data, ld.Data)
		if err != nil {
			return err
		}
		_, err = w.Write(pi.Bytes())
		return err
	}
	return datacolumn.EncodeStrings(w, data, d, codec)
}

func decodeDataColumn(r io.Reader, ld *model.LayerDesc, d *dict.Dictionary, codec strcodec.Codec) ([]string, error) {
	if ld.Data.Tag == model.DataEnum {
		pi, err := packedindex.FromReader(r)
		if err != nil {
			return nil, err
		}
		return datacolumn.DecodeEnum(pi, ld.Data)
	}
	return datacolumn.DecodeStrings(r, d, codec)
}

func writePackedColumn(w io.Writer, v []uint32) error {
	pi, err := packedindex.FromSlice(v)
	if err != nil {
		return err
	}
	_, err = w.Write(pi.Bytes())
	return err
}

func readPackedColumn(r io.Reader) ([]uint32, error) {
	pi, err := packedindex.FromReader(r)
	if err != nil {
		return nil, err
	}
	return pi.ToSlice(), nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
