// Package codec implements the serialization capability every stored key or
// value type must provide, plus the on-disk block format built on top of it.
package codec

// KeyCodec is the serialization capability a type must provide to be used as
// a store key: it can be marshaled/unmarshaled and it knows how to order two
// decoded values, since the key index keeps keys sorted.
type KeyCodec[K any] interface {
	// Marshal returns the raw serialized bytes of k. Variable-length codecs
	// return the bytes without a terminator; BuildBlock appends it.
	Marshal(k K) ([]byte, error)
	// Unmarshal decodes a value starting at the head of data and returns it
	// along with the number of bytes consumed.
	Unmarshal(data []byte) (K, int, error)
	// Variable reports whether this codec produces variable-length output
	// and therefore needs padding headroom and a terminator byte.
	Variable() bool
	// Compare returns <0, 0, >0 as a is less than, equal to, or greater
	// than b, defining the key index's iteration order.
	Compare(a, b K) int
}

// ValueCodec is the serialization capability for a stored value. It has no
// ordering requirement.
type ValueCodec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, int, error)
	Variable() bool
}
