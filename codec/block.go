package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the width in bytes of a block's size header.
	HeaderSize = 2
	// MaxBlockSize is the largest a single block (header + key + value +
	// padding) may be.
	MaxBlockSize = 32768
)

// ErrCorrupt describes a block header of zero, which the on-disk format
// forbids (spec §3.1). ReadBlock does not return it: it reports a zero
// header as size 0 with a nil error and leaves the decision to the caller.
var ErrCorrupt = fmt.Errorf("codec: corrupt block header")

// ReadBlockHeader reads only the 2-byte signed header at offset.
func ReadBlockHeader(r io.ReaderAt, offset int64) (int16, error) {
	var hdr [HeaderSize]byte
	if _, err := r.ReadAt(hdr[:], offset); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(hdr[:])), nil
}

// ReadBlock reads the block at offset. If the header is non-positive it is
// returned immediately with the key and value left at their zero values —
// callers distinguish "free" (negative) from "corrupt" (zero) themselves,
// since only the store's load walk needs to treat zero specially. If
// skipValue is true the value is not decoded, matching the load-time and
// key-verification call sites that only need the key.
func ReadBlock[K, V any](r io.ReaderAt, offset int64, keyCodec KeyCodec[K], valCodec ValueCodec[V], skipValue bool) (size int16, key K, value V, err error) {
	size, err = ReadBlockHeader(r, offset)
	if err != nil {
		return 0, key, value, err
	}
	if size <= 0 {
		return size, key, value, nil
	}

	body := make([]byte, int(size)-HeaderSize)
	if _, err = r.ReadAt(body, offset+HeaderSize); err != nil {
		return size, key, value, err
	}

	var n int
	key, n, err = keyCodec.Unmarshal(body)
	if err != nil {
		return size, key, value, err
	}
	if skipValue {
		return size, key, value, nil
	}

	value, _, err = valCodec.Unmarshal(body[n:])
	if err != nil {
		return size, key, value, err
	}
	return size, key, value, nil
}

// DataSize returns the number of bytes (header + key + value, no padding)
// needed to store (key, value) with the given codecs.
func DataSize[K, V any](key K, value V, keyCodec KeyCodec[K], valCodec ValueCodec[V]) (int, error) {
	keyBytes, err := keyCodec.Marshal(key)
	if err != nil {
		return 0, err
	}
	valBytes, err := valCodec.Marshal(value)
	if err != nil {
		return 0, err
	}
	size := HeaderSize + len(keyBytes)
	if keyCodec.Variable() {
		size++ // terminator
	}
	size += len(valBytes)
	if valCodec.Variable() {
		size++
	}
	return size, nil
}

// BuildBlock assembles a full block buffer of exactly size bytes: header,
// serialized key (zero-terminated if variable-length), serialized value
// (likewise), and zero padding out to size. Building the whole buffer up
// front lets the store issue one WriteAt call per block, bounding the
// window during which the file can be observed half-written.
func BuildBlock[K, V any](size int16, key K, value V, keyCodec KeyCodec[K], valCodec ValueCodec[V]) ([]byte, error) {
	if size < HeaderSize || int(size) > MaxBlockSize {
		return nil, fmt.Errorf("codec: invalid block size %d", size)
	}

	keyBytes, err := keyCodec.Marshal(key)
	if err != nil {
		return nil, err
	}
	valBytes, err := valCodec.Marshal(value)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint16(buf[:HeaderSize], uint16(size))

	idx := HeaderSize
	idx += copy(buf[idx:], keyBytes)
	if keyCodec.Variable() {
		idx++ // zero terminator byte, already zero-valued
	}
	idx += copy(buf[idx:], valBytes)
	if valCodec.Variable() {
		idx++
	}
	// Remaining bytes to size are padding; buf is already zero-filled.
	return buf, nil
}
