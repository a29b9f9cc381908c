package strcodec

import "unicode/utf8"

// book is the static dictionary of common short English n-grams the
// Smaz-like codec matches against; matchBook always picks the longest
// entry that matches at a given position regardless of book order.
// Indices into book double as the encoded byte value, so len(book) must
// stay under escapeByte.
var book = buildBook()

// escapeByte marks a literal run: the following byte is a run length
// (1-255), then that many raw UTF-8 bytes follow verbatim.
const escapeByte = 255

func buildBook() []string {
	entries := []string{
		"the", "ing", "and", "tion", "ed ", "er ", "ent", "for", "her", "ter",
		"hat", "tha", "ere", "ate", "his", "con", "res", "ver", "all", "ons",
		" th", "th ", "he ", " a ", " an", "re ", "nd ", "ar ", " to", "to ",
		" is", "is ", " of", "of ", " an", "and", "es ", "ng ", "ion", "st ",
		"or ", "ti", "en", "in", "ar", "on", "at", "to", "is", "it",
		"al", "as", "re", "le", "ic", "ly", "ou", "ow", "ch", "sh",
		" ", "e", "t", "a", "o", "i", "n", "s", "h", "r",
		"d", "l", "c", "u", "m", "w", "f", "g", "y", "p",
		"b", "v", "k", "j", "x", "q", "z", ",", ".", "'",
		"-", "\n", "\t", "0", "1", "2", "3", "4", "5", "6",
		"7", "8", "9", ":", ";", "!", "?",
	}
	return entries
}

// SmazCompression implements the Smaz-like codec described by spec.md
// §4.5: a static dictionary of short n-grams, greedily matched, with a
// byte escape for runs of unmatched literal bytes.
type SmazCompression struct{}

func (SmazCompression) Compress(s string) []byte {
	in := []byte(s)
	out := make([]byte, 0, len(in))
	var literal []byte
	flush := func() {
		for len(literal) > 0 {
			chunk := literal
			if len(chunk) > 255 {
				chunk = chunk[:255]
			}
			out = append(out, escapeByte, byte(len(chunk)))
			out = append(out, chunk...)
			literal = literal[len(chunk):]
		}
	}
	for i := 0; i < len(in); {
		if idx, n := matchBook(in[i:]); idx >= 0 {
			flush()
			out = append(out, byte(idx))
			i += n
			continue
		}
		literal = append(literal, in[i])
		i++
	}
	flush()
	return out
}

// matchBook returns the book index and byte length of the longest entry
// that is a prefix of b, or (-1, 0) if none matches.
func matchBook(b []byte) (int, int) {
	best, bestLen := -1, 0
	for idx, entry := range book {
		if len(entry) <= bestLen || len(entry) > len(b) {
			continue
		}
		if string(b[:len(entry)]) == entry {
			best, bestLen = idx, len(entry)
		}
	}
	return best, bestLen
}

func (SmazCompression) Decompress(b []byte) (string, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		tag := b[i]
		if tag == escapeByte {
			if i+1 >= len(b) {
				return "", ErrDecoding
			}
			n := int(b[i+1])
			if i+2+n > len(b) {
				return "", ErrDecoding
			}
			out = append(out, b[i+2:i+2+n]...)
			i += 2 + n
			continue
		}
		if int(tag) >= len(book) {
			return "", ErrDecoding
		}
		out = append(out, book[tag]...)
		i++
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidUTF8
	}
	return string(out), nil
}
