package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ErrTruncated is returned when a buffer ends before a terminator or a
// fixed-width field is found.
var ErrTruncated = fmt.Errorf("codec: truncated data")

// String is a variable-length, zero-terminated codec for Go strings. It
// satisfies both KeyCodec[string] and ValueCodec[string].
type String struct{}

func (String) Marshal(v string) ([]byte, error) { return []byte(v), nil }

func (String) Unmarshal(data []byte) (string, int, error) {
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return "", 0, ErrTruncated
	}
	return string(data[:idx]), idx + 1, nil
}

func (String) Variable() bool { return true }

func (String) Compare(a, b string) int { return strings.Compare(a, b) }

// fixedNumeric implements the repeated marshal/unmarshal/compare pattern
// shared by every fixed-width primitive; each concrete type below wires it
// to a specific width and encode/decode pair.
type fixedNumeric[T any] struct {
	width  int
	encode func([]byte, T)
	decode func([]byte) T
	less   func(a, b T) bool
}

func (c fixedNumeric[T]) Marshal(v T) ([]byte, error) {
	buf := make([]byte, c.width)
	c.encode(buf, v)
	return buf, nil
}

func (c fixedNumeric[T]) Unmarshal(data []byte) (T, int, error) {
	var zero T
	if len(data) < c.width {
		return zero, 0, ErrTruncated
	}
	return c.decode(data), c.width, nil
}

func (c fixedNumeric[T]) Variable() bool { return false }

func (c fixedNumeric[T]) Compare(a, b T) int {
	switch {
	case c.less(a, b):
		return -1
	case c.less(b, a):
		return 1
	default:
		return 0
	}
}

// Int32 is a fixed-width, little-endian codec for int32.
var Int32 = fixedNumeric[int32]{
	width:  4,
	encode: func(b []byte, v int32) { binary.LittleEndian.PutUint32(b, uint32(v)) },
	decode: func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) },
	less:   func(a, b int32) bool { return a < b },
}

// Int64 is a fixed-width, little-endian codec for int64.
var Int64 = fixedNumeric[int64]{
	width:  8,
	encode: func(b []byte, v int64) { binary.LittleEndian.PutUint64(b, uint64(v)) },
	decode: func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) },
	less:   func(a, b int64) bool { return a < b },
}

// Uint32 is a fixed-width, little-endian codec for uint32.
var Uint32 = fixedNumeric[uint32]{
	width:  4,
	encode: func(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) },
	decode: func(b []byte) uint32 { return binary.LittleEndian.Uint32(b) },
	less:   func(a, b uint32) bool { return a < b },
}

// Uint64 is a fixed-width, little-endian codec for uint64.
var Uint64 = fixedNumeric[uint64]{
	width:  8,
	encode: func(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) },
	decode: func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) },
	less:   func(a, b uint64) bool { return a < b },
}

// Float32 is a fixed-width, little-endian codec for float32.
var Float32 = fixedNumeric[float32]{
	width: 4,
	encode: func(b []byte, v float32) {
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	},
	decode: func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
	less:   func(a, b float32) bool { return a < b },
}

// Float64 is a fixed-width, little-endian codec for float64.
var Float64 = fixedNumeric[float64]{
	width: 8,
	encode: func(b []byte, v float64) {
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	},
	decode: func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) },
	less:   func(a, b float64) bool { return a < b },
}
