// Package varint implements the Cuac variable-length integer encoding: an
// unsigned 32-bit value packed as 1-5 big-endian 7-bit groups, with the
// continuation bit (0x80) set on every byte except the last.
//
// This is not the LEB128 varint used by protobuf/encoding/binary (which is
// little-endian group order); the Cuac format stores the most significant
// 7-bit group first, matching teanga's cuac/data.rs u32_to_varbytes.
package varint

import (
	"errors"
	"io"
)

// MaxValue is the largest value the format can encode. The cap sits just
// under 1<<31 (1001 below it), matching the reference encoder's
// range check.
const MaxValue = 2147482647

// MaxLen is the longest a varint encoding can be.
const MaxLen = 5

// ErrTooLarge is returned when encoding a value beyond MaxValue.
var ErrTooLarge = errors.New("varint: value exceeds maximum encodable value")

// ErrTruncated is returned when Decode exhausts its input, or when either
// decoder reads MaxLen bytes, without seeing a terminating (continuation-bit
// clear) byte. Read reports an exhausted reader with the reader's own error.
var ErrTruncated = errors.New("varint: truncated or non-terminating sequence")

// Append encodes v and appends the result to dst, returning the extended
// slice.
func Append(dst []byte, v uint32) ([]byte, error) {
	if v > MaxValue {
		return nil, ErrTooLarge
	}
	var groups [MaxLen]byte
	n := 0
	groups[n] = byte(v & 0x7f)
	n++
	v >>= 7
	for v > 0 {
		groups[n] = byte(v&0x7f) | 0x80
		n++
		v >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, groups[i])
	}
	return dst, nil
}

// Encode returns v as a standalone varint byte sequence.
func Encode(v uint32) []byte {
	b, err := Append(make([]byte, 0, MaxLen), v)
	if err != nil {
		// Callers that need the error must use Append; Encode is for the
		// common case where v is already known to be in range.
		panic(err)
	}
	return b
}

// Decode reads a varint from the head of b and returns the value together
// with the number of bytes consumed.
func Decode(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < MaxLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		v = (v << 7) | uint32(c&0x7f)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// Read decodes a single varint from r, byte at a time.
func Read(r io.ByteReader) (uint32, error) {
	var v uint32
	for i := 0; i < MaxLen; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v = (v << 7) | uint32(c&0x7f)
		if c&0x80 == 0 {
			return v, nil
		}
	}
	return 0, ErrTruncated
}

// Write encodes v and writes it directly to w.
func Write(w io.Writer, v uint32) error {
	b, err := Append(nil, v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
