package strcodec

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// maxSuccessors bounds how many successor ranks a modeled character can
// have (rank r is written as tag byte r+1, so packed tags run from 1 to
// maxSuccessors and never collide with tagLiteral below).
const maxSuccessors = 126

// tagLiteral is the reserved stream tag meaning "a literal run follows":
// the next byte is a run length (1-255), then that many raw bytes. Tags in
// [1, maxSuccessors] mean "packed successor hit": tag-1 is the successor
// id of the current character relative to the previous modeled character.
const tagLiteral = 0

// Pack mirrors one entry of spec.md §4.5's trained-model "packs" array.
// This module only ever emits a single pack describing its one-character,
// one-byte scheme; the field set is kept to match the spec's described
// layout rather than because multiple levels are exercised.
type Pack struct {
	Word          uint32
	BytesPacked   uint32
	BytesUnpacked uint32
	Offsets       []uint32
	Masks         []uint32
	HeaderMask    uint32
	Header        uint32
}

// Model is the trained or default parameter set for the Shoco-like codec.
type Model struct {
	MinChr byte
	MaxChr byte
	// ChrByID maps a dense character id to its byte value.
	ChrByID []byte
	// IDByChr maps a byte value to its dense id, or -1 if unmodeled.
	IDByChr [256]int16
	// Successor[prevID][nextID] is the rank (0 = most frequent) of nextID
	// among prevID's successors, or -1 if nextID isn't one of the top
	// maxSuccessors successors of prevID. prevID == len(ChrByID) is the
	// reserved "start of string" id.
	Successor [][]int16
	// Reverse[prevID][rank] inverts Successor: the next-char id for a
	// given rank, or -1.
	Reverse       [][]int16
	Packs         []Pack
	MaxSuccessorN int
}

func defaultPacks() []Pack {
	return []Pack{{
		Word:          1,
		BytesPacked:   1,
		BytesUnpacked: 1,
		Offsets:       []uint32{0},
		Masks:         []uint32{0x7F},
		HeaderMask:    0x80,
		Header:        0x00,
	}}
}

// newModel allocates an empty model over the alphabet [minChr, maxChr].
func newModel(minChr, maxChr byte) *Model {
	n := int(maxChr) - int(minChr) + 1
	m := &Model{MinChr: minChr, MaxChr: maxChr, ChrByID: make([]byte, n), Packs: defaultPacks(), MaxSuccessorN: maxSuccessors}
	for i := range m.IDByChr {
		m.IDByChr[i] = -1
	}
	for i := 0; i < n; i++ {
		m.ChrByID[i] = minChr + byte(i)
		m.IDByChr[minChr+byte(i)] = int16(i)
	}
	// one extra row for the "start of string" pseudo-character.
	m.Successor = make([][]int16, n+1)
	m.Reverse = make([][]int16, n+1)
	for i := range m.Successor {
		m.Successor[i] = fillNeg(make([]int16, n))
		m.Reverse[i] = fillNeg(make([]int16, maxSuccessors))
	}
	return m
}

func fillNeg(v []int16) []int16 {
	for i := range v {
		v[i] = -1
	}
	return v
}

// buildFromCounts populates Successor/Reverse from bigram counts, keeping
// each (prev) row's top maxSuccessors next-ids ranked by frequency
// descending, so rank 0 (the single cheapest byte) is the most frequent
// continuation.
func (m *Model) buildFromCounts(counts map[[2]int16]int) {
	n := len(m.ChrByID)
	byPrev := make(map[int16][]int16, n+1)
	for k := range counts {
		byPrev[k[0]] = append(byPrev[k[0]], k[1])
	}
	for prev, nexts := range byPrev {
		sortByCountDesc(nexts, prev, counts)
		if len(nexts) > maxSuccessors {
			nexts = nexts[:maxSuccessors]
		}
		for rank, next := range nexts {
			m.Successor[prev][next] = int16(rank)
			m.Reverse[prev][rank] = next
		}
	}
}

func sortByCountDesc(ids []int16, prev int16, counts map[[2]int16]int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && counts[[2]int16{prev, ids[j-1]}] < counts[[2]int16{prev, ids[j]}]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// startID is the pseudo-id representing "no previous character yet".
func (m *Model) startID() int16 { return int16(len(m.ChrByID)) }

func (m *Model) idOf(b byte) int16 {
	return m.IDByChr[b]
}

// ShocoCompression implements the single-level packed 2-gram successor
// codec described by spec.md §4.5.
type ShocoCompression struct {
	model *Model
}

// DefaultModel returns the static (untrained) model: a small, fixed
// bigram table over common lowercase English letters and space, standing
// in for spec.md's "Shoco-default" static model.
func DefaultModel() *Model {
	m := newModel(' ', 'z')
	counts := map[[2]int16]int{}
	add := func(prev, next byte, n int) {
		p, q := m.idOf(prev), m.idOf(next)
		if p < 0 || q < 0 {
			return
		}
		counts[[2]int16{p, q}] += n
	}
	bigrams := []string{
		"th", "he", "in", "er", "an", "re", "on", "at", "en", "nd",
		"ti", "es", "or", "te", "of", "ed", "is", "it", "al", "ar",
		"st", "to", "nt", "ng", "se", "ha", "as", "ou", "io", "le",
	}
	for rank, bg := range bigrams {
		add(bg[0], bg[1], len(bigrams)-rank)
	}
	for _, w := range []string{"the", "and", "to", "of", "in", "a"} {
		p := m.startID()
		for i := 0; i < len(w); i++ {
			q := m.idOf(w[i])
			if q < 0 {
				break
			}
			counts[[2]int16{p, q}] += 50
			p = q
		}
	}
	m.buildFromCounts(counts)
	return m
}

// NewShocoCompression wraps a model.
func NewShocoCompression(m *Model) ShocoCompression {
	return ShocoCompression{model: m}
}

// ShocoDefault returns the codec using DefaultModel.
func ShocoDefault() ShocoCompression {
	return NewShocoCompression(DefaultModel())
}

// TrainShoco builds a model from a sample of text, as spec.md §4.5's
// "Shoco-trained" variant: an up-to-budget-bytes sample of characters
// layers sampled from the head of the document stream. Ported in spirit
// from teanga/src/tcf/string.rs's ShocoCompression::from_corpus, which
// performs the same head-of-stream sampling.
func TrainShoco(samples []string, byteBudget int) *Model {
	var minSeen, maxSeen byte = 255, 0
	seenAny := false
	total := 0
	for _, s := range samples {
		for i := 0; i < len(s) && total < byteBudget; i++ {
			b := s[i]
			if b >= utf8.RuneSelf {
				continue // only single-byte (ASCII) characters are modeled
			}
			if !seenAny || b < minSeen {
				minSeen = b
			}
			if !seenAny || b > maxSeen {
				maxSeen = b
			}
			seenAny = true
			total++
		}
	}
	if !seenAny {
		minSeen, maxSeen = ' ', '~'
	}
	m := newModel(minSeen, maxSeen)
	counts := map[[2]int16]int{}
	total = 0
	for _, s := range samples {
		prev := m.startID()
		for i := 0; i < len(s) && total < byteBudget; i++ {
			b := s[i]
			if b >= utf8.RuneSelf {
				prev = m.startID()
				continue
			}
			id := m.idOf(b)
			if id < 0 {
				prev = m.startID()
				continue
			}
			counts[[2]int16{prev, id}]++
			prev = id
			total++
		}
	}
	m.buildFromCounts(counts)
	return m
}

func (c ShocoCompression) Compress(s string) []byte {
	m := c.model
	out := make([]byte, 0, len(s))
	var literal []byte
	flush := func() {
		for len(literal) > 0 {
			chunk := literal
			if len(chunk) > 255 {
				chunk = chunk[:255]
			}
			out = append(out, tagLiteral, byte(len(chunk)))
			out = append(out, chunk...)
			literal = literal[len(chunk):]
		}
	}
	prev := m.startID()
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf {
			literal = append(literal, b)
			prev = m.startID()
			continue
		}
		id := m.idOf(b)
		if id < 0 {
			literal = append(literal, b)
			prev = m.startID()
			continue
		}
		if int(prev) < len(m.Successor) && m.Successor[prev][id] >= 0 {
			flush()
			out = append(out, byte(m.Successor[prev][id])+1)
			prev = id
			continue
		}
		literal = append(literal, b)
		prev = id
	}
	flush()
	return out
}

func (c ShocoCompression) Decompress(b []byte) (string, error) {
	m := c.model
	out := make([]byte, 0, len(b)*2)
	prev := m.startID()
	for i := 0; i < len(b); {
		tag := b[i]
		if tag == tagLiteral {
			if i+1 >= len(b) {
				return "", ErrDecoding
			}
			n := int(b[i+1])
			if i+2+n > len(b) {
				return "", ErrDecoding
			}
			lit := b[i+2 : i+2+n]
			out = append(out, lit...)
			i += 2 + n
			if n > 0 {
				last := lit[n-1]
				if last < utf8.RuneSelf {
					if id := m.idOf(last); id >= 0 {
						prev = id
						continue
					}
				}
			}
			prev = m.startID()
			continue
		}
		rank := int(tag) - 1
		if rank < 0 || int(prev) >= len(m.Reverse) || rank >= len(m.Reverse[prev]) {
			return "", ErrDecoding
		}
		id := m.Reverse[prev][rank]
		if id < 0 {
			return "", ErrDecoding
		}
		out = append(out, m.ChrByID[id])
		prev = id
		i++
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}

// WriteModel serializes a trained model's parameters field-by-field
// big-endian, per spec.md §4.5's trained-model payload layout. Ported
// from teanga/src/tcf/string.rs's write_shoco_model.
func WriteModel(w io.Writer, m *Model) error {
	if err := writeBytes(w, m.MinChr, m.MaxChr); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.ChrByID))); err != nil {
		return err
	}
	if _, err := w.Write(m.ChrByID); err != nil {
		return err
	}
	for _, id := range m.IDByChr {
		if err := writeU16(w, uint16(int32(id))); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(m.Successor))); err != nil {
		return err
	}
	for _, row := range m.Successor {
		if err := writeU32(w, uint32(len(row))); err != nil {
			return err
		}
		for _, v := range row {
			if err := writeU16(w, uint16(int32(v))); err != nil {
				return err
			}
		}
	}
	if err := writeU32(w, uint32(len(m.Reverse))); err != nil {
		return err
	}
	for _, row := range m.Reverse {
		if err := writeU32(w, uint32(len(row))); err != nil {
			return err
		}
		for _, v := range row {
			if err := writeU16(w, uint16(int32(v))); err != nil {
				return err
			}
		}
	}
	if err := writeU32(w, uint32(len(m.Packs))); err != nil {
		return err
	}
	for _, p := range m.Packs {
		if err := writeU32(w, p.Word, p.BytesPacked, p.BytesUnpacked); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(p.Offsets))); err != nil {
			return err
		}
		if err := writeU32(w, p.Offsets...); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(p.Masks))); err != nil {
			return err
		}
		if err := writeU32(w, p.Masks...); err != nil {
			return err
		}
		if err := writeU32(w, p.HeaderMask, p.Header); err != nil {
			return err
		}
	}
	return writeU32(w, uint32(m.MaxSuccessorN))
}

// ReadModel is the inverse of WriteModel.
func ReadModel(r io.Reader) (*Model, error) {
	minChr, maxChr, err := readBytes2(r)
	if err != nil {
		return nil, err
	}
	m := &Model{MinChr: minChr, MaxChr: maxChr}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	m.ChrByID = make([]byte, n)
	if err := readFullBytes(r, m.ChrByID); err != nil {
		return nil, err
	}
	for i := range m.IDByChr {
		v, err := readU16(r)
		if err != nil {
			return nil, err
		}
		m.IDByChr[i] = int16(v)
	}
	rows, err := readU32(r)
	if err != nil {
		return nil, err
	}
	m.Successor = make([][]int16, rows)
	for i := range m.Successor {
		row, err := readInt16Row(r)
		if err != nil {
			return nil, err
		}
		m.Successor[i] = row
	}
	rows, err = readU32(r)
	if err != nil {
		return nil, err
	}
	m.Reverse = make([][]int16, rows)
	for i := range m.Reverse {
		row, err := readInt16Row(r)
		if err != nil {
			return nil, err
		}
		m.Reverse[i] = row
	}
	nPacks, err := readU32(r)
	if err != nil {
		return nil, err
	}
	m.Packs = make([]Pack, nPacks)
	for i := range m.Packs {
		p := &m.Packs[i]
		if p.Word, err = readU32(r); err != nil {
			return nil, err
		}
		if p.BytesPacked, err = readU32(r); err != nil {
			return nil, err
		}
		if p.BytesUnpacked, err = readU32(r); err != nil {
			return nil, err
		}
		if p.Offsets, err = readU32Row(r); err != nil {
			return nil, err
		}
		if p.Masks, err = readU32Row(r); err != nil {
			return nil, err
		}
		if p.HeaderMask, err = readU32(r); err != nil {
			return nil, err
		}
		if p.Header, err = readU32(r); err != nil {
			return nil, err
		}
	}
	maxN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	m.MaxSuccessorN = int(maxN)
	return m, nil
}

func readInt16Row(r io.Reader) ([]int16, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	row := make([]int16, n)
	for i := range row {
		v, err := readU16(r)
		if err != nil {
			return nil, err
		}
		row[i] = int16(v)
	}
	return row, nil
}

func readU32Row(r io.Reader) ([]uint32, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	row := make([]uint32, n)
	for i := range row {
		if row[i], err = readU32(r); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func writeBytes(w io.Writer, bs ...byte) error {
	_, err := w.Write(bs)
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, vs ...uint32) error {
	for _, v := range vs {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], v)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func readBytes2(r io.Reader) (byte, byte, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, 0, err
	}
	return buf[0], buf[1], nil
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readFullBytes(r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_, err := io.ReadFull(r, buf)
	return err
}
