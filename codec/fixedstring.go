package codec

import (
	"bytes"
	"fmt"
)

// FixedStringCap is the backing buffer size for FixedString. The original
// Arduino library templated this per use (fsString<N>); Go has no value
// generics for array lengths, so a single generous capacity is used instead
// and the logical length is tracked separately.
const FixedStringCap = 64

// ErrOutOfRange is returned by Substr/Substring when the requested range is
// invalid (in particular when to < from).
var ErrOutOfRange = fmt.Errorf("codec: index out of range")

// FixedString is a fixed-capacity, fixed-width string type: unlike String
// (variable-length, zero-terminated on disk) it always serializes to
// exactly FixedStringCap+1 bytes, so it needs no padding headroom on
// insert. It stands in for the original library's fsString<N> external
// collaborator, which Go has no built-in equivalent of.
type FixedString struct {
	buf [FixedStringCap]byte
	len uint8
}

// NewFixedString truncates s to FixedStringCap bytes if necessary.
func NewFixedString(s string) FixedString {
	var fs FixedString
	n := copy(fs.buf[:], s)
	fs.len = uint8(n)
	return fs
}

func (f FixedString) String() string { return string(f.buf[:f.len]) }

func (f FixedString) Len() int { return int(f.len) }

// Substr mirrors fsString::substr(pos, len): returns up to len bytes
// starting at pos, clamped to min(len, sourceLen-pos). pos at or beyond
// the string's length yields an empty result without an error; a negative
// pos or length returns ErrOutOfRange.
func (f FixedString) Substr(pos, length int) (FixedString, error) {
	if pos < 0 || length < 0 {
		return FixedString{}, ErrOutOfRange
	}
	if pos >= f.Len() {
		return FixedString{}, nil
	}
	end := pos + length
	if end > f.Len() {
		end = f.Len()
	}
	return NewFixedString(f.String()[pos:end]), nil
}

// Substring mirrors fsString::substring(from, to): a half-open [from, to)
// range. to < from is rejected outright rather than silently clamped, per
// the original's undefined-strncpy-length edge case.
func (f FixedString) Substring(from, to int) (FixedString, error) {
	if from < 0 || to < from {
		return FixedString{}, ErrOutOfRange
	}
	return f.Substr(from, to-from)
}

// FixedStringCodec is a KeyCodec[FixedString]/ValueCodec[FixedString]: fixed
// width (never Variable), one length byte followed by the full buffer.
type FixedStringCodec struct{}

func (FixedStringCodec) Marshal(v FixedString) ([]byte, error) {
	buf := make([]byte, 1+FixedStringCap)
	buf[0] = v.len
	copy(buf[1:], v.buf[:])
	return buf, nil
}

func (FixedStringCodec) Unmarshal(data []byte) (FixedString, int, error) {
	const width = 1 + FixedStringCap
	if len(data) < width {
		return FixedString{}, 0, ErrTruncated
	}
	var fs FixedString
	fs.len = data[0]
	copy(fs.buf[:], data[1:width])
	return fs, width, nil
}

func (FixedStringCodec) Variable() bool { return false }

func (FixedStringCodec) Compare(a, b FixedString) int {
	return bytes.Compare(a.buf[:a.len], b.buf[:b.len])
}
