// Package dict implements the Cuac corpus-global StringDictionary
// (spec.md §4.4): a three-state string table (unseen, admission-cache
// pending, promoted with a stable id) guarding how inline strings are
// allowed to become dictionary references.
package dict

import (
	"bytes"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// AdmissionCapacity is the admission cache's strict-LRU capacity.
const AdmissionCapacity = 1_000_000

// ErrUnknownID is returned by Resolve when an id has no entry.
var ErrUnknownID = errors.New("dict: unknown dictionary id")

// Entry is the result of looking a string up for writing: either a
// reference to an existing promoted id, or an inline string that must be
// codec-compressed by the caller.
type Entry struct {
	Indexed bool
	ID      uint32
	Inline  string
}

// Dictionary is the writer-side corpus-global string table. The zero
// value is not usable; use New.
type Dictionary struct {
	mu sync.RWMutex

	admitted *lru.Cache[string, struct{}]
	promoted map[string]uint32
	idVec    []string
	frozen   bool
}

// New returns an empty, unfrozen Dictionary.
func New() *Dictionary {
	cache, err := lru.New[string, struct{}](AdmissionCapacity)
	if err != nil {
		// AdmissionCapacity is a positive constant; lru.New only rejects size<=0.
		panic(err)
	}
	return &Dictionary{
		admitted: cache,
		promoted: make(map[string]uint32),
	}
}

// Idx implements spec.md §4.4's idx(s) state machine:
//   - promoted: return the existing Index(id)
//   - frozen (and not promoted): return String(s), no state change
//   - admission-cache hit: promote, assign the next id, return String(s)
//     (the first occurrence is always written inline)
//   - otherwise: insert into the admission cache, return String(s)
func (d *Dictionary) Idx(s string) Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.promoted[s]; ok {
		return Entry{Indexed: true, ID: id}
	}
	if d.frozen {
		return Entry{Inline: s}
	}
	if _, ok := d.admitted.Get(s); ok {
		id := uint32(len(d.idVec))
		d.idVec = append(d.idVec, s)
		d.promoted[s] = id
		d.admitted.Remove(s)
		return Entry{Inline: s}
	}
	d.admitted.Add(s, struct{}{})
	return Entry{Inline: s}
}

// Freeze snapshots the promoted table. After Freeze, new strings are
// never promoted; Idx keeps returning inline entries for them.
func (d *Dictionary) Freeze() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frozen = true
}

// Len returns the number of promoted (stable-id) strings.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.idVec)
}

// Resolve returns the promoted string at id. The Cuac wire format never
// serializes the dictionary directly (spec.md §5's "header-recorded
// dictionary" invariant): a reader mirrors the writer's exact Idx
// transitions by feeding every decoded inline string back through Idx,
// so by the time a dictionary-reference cell is decoded, Resolve's id is
// guaranteed already present — see datacolumn.DecodeStrings.
func (d *Dictionary) Resolve(id uint32) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.idVec) {
		return "", ErrUnknownID
	}
	return d.idVec[id], nil
}

// Serialize writes the promoted table per spec.md §4.4: each string's
// UTF-8 bytes followed by a 0x00 terminator, in id order.
func (d *Dictionary) Serialize() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	for _, s := range d.idVec {
		buf.WriteString(s)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// Reader is a frozen, read-only dictionary loaded from a previously
// Serialize'd promoted table. This is an import/export utility for
// sharing a prebuilt dictionary across corpora (mirroring
// cuac::index::Index::from_bytes) — it is not how a Cuac stream's own
// dictionary is reconstructed. A Cuac document stream never serializes
// its dictionary at all; the reader mirrors the writer's Idx state
// machine live as it decodes inline strings (see Dictionary.Resolve and
// datacolumn.DecodeStrings).
type Reader struct {
	mu    sync.RWMutex
	idVec []string
}

// FromBytes parses a Serialize-produced byte string into a Reader,
// splitting on the 0x00 terminator and assigning ids by order.
func FromBytes(b []byte) *Reader {
	var idVec []string
	start := 0
	for i, c := range b {
		if c == 0 {
			idVec = append(idVec, string(b[start:i]))
			start = i + 1
		}
	}
	return &Reader{idVec: idVec}
}

// Resolve returns the string at the given promoted id.
func (r *Reader) Resolve(id uint32) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.idVec) {
		return "", ErrUnknownID
	}
	return r.idVec[id], nil
}

// Len returns the number of entries in the reader's id-vector.
func (r *Reader) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.idVec)
}
