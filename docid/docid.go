// Package docid implements the Cuac DocumentIdentifier (spec.md §4.8):
// a SHA-256 content hash over a document's Characters layers, base64
// encoded and truncated to the shortest prefix unique within a corpus's
// existing id list.
package docid

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/teanga-nlp/teanga-go/model"
)

// MinPrefixLen is the shortest id prefix ever handed out.
const MinPrefixLen = 4

// Hash computes the document's content digest: for each layer in
// ascending name order whose value is a Characters layer, ingest
// name-bytes · 0x00 · value-bytes · 0x00. Other variants contribute
// nothing, matching teanga_id's exclusive match on Layer::Characters.
func Hash(doc model.Document) [32]byte {
	h := sha256.New()
	for _, name := range doc.SortedLayerNames() {
		l := doc.Content[name]
		if l.Kind != model.KindCharacters {
			continue
		}
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(l.Characters))
		h.Write([]byte{0})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Encode base64-encodes a digest with the standard, padded alphabet.
func Encode(digest [32]byte) string {
	return base64.StdEncoding.EncodeToString(digest[:])
}

// ShortestUniquePrefix returns the shortest prefix of encoded (starting
// at MinPrefixLen) not already present in existing, treating an exact
// match against priorID (the document's own previous id, during update)
// as not a collision. If no prefix is unique, the full encoded string is
// returned.
func ShortestUniquePrefix(encoded string, existing map[string]bool, priorID string) string {
	for n := MinPrefixLen; n <= len(encoded); n++ {
		candidate := encoded[:n]
		if candidate == priorID {
			return candidate
		}
		if !existing[candidate] {
			return candidate
		}
	}
	return encoded
}

// For computes the id to assign doc when inserted into (or updated
// within) a corpus whose existing ids are given, treating priorID (empty
// for a fresh insert) as the document's own id from a prior revision.
func For(doc model.Document, existing map[string]bool, priorID string) string {
	digest := Hash(doc)
	encoded := Encode(digest)
	return ShortestUniquePrefix(encoded, existing, priorID)
}
