// Package keydir implements the in-memory ordered key → block-offset index
// (spec §3.3/§4.3): an ordered map from a generic key type to a 32-bit
// data-file offset, with in-key-order iteration.
//
// Index is not internally synchronized. The store that owns it already
// serializes every access through a single mutex (spec §5); adding a second
// lock here would only duplicate that bookkeeping without adding
// correctness, so callers are responsible for external synchronization.
package keydir

import (
	"fmt"

	"github.com/google/btree"
)

const degree = 32

// ErrNotUnique is returned by Insert when the key is already present.
var ErrNotUnique = fmt.Errorf("keydir: key already exists")

type item[K any] struct {
	key    K
	offset uint32
}

// Index is an ordered map from K to a data-file block offset.
type Index[K any] struct {
	tree *btree.BTreeG[item[K]]
}

// New builds an empty Index ordered by less.
func New[K any](less func(a, b K) bool) *Index[K] {
	itemLess := func(a, b item[K]) bool { return less(a.key, b.key) }
	return &Index[K]{
		tree: btree.NewG(degree, itemLess),
	}
}

// Find returns the offset stored for key, if present.
func (idx *Index[K]) Find(key K) (uint32, bool) {
	got, ok := idx.tree.Get(item[K]{key: key})
	if !ok {
		return 0, false
	}
	return got.offset, true
}

// Insert adds (key, offset). It returns ErrNotUnique if key is already
// present, leaving the index unchanged.
func (idx *Index[K]) Insert(key K, offset uint32) error {
	if _, exists := idx.tree.Get(item[K]{key: key}); exists {
		return ErrNotUnique
	}
	idx.tree.ReplaceOrInsert(item[K]{key: key, offset: offset})
	return nil
}

// Set overwrites the offset for an existing key, or inserts it if absent.
// Used by the store's reallocating update path, which must change a key's
// offset in place rather than erase-then-reinsert.
func (idx *Index[K]) Set(key K, offset uint32) {
	idx.tree.ReplaceOrInsert(item[K]{key: key, offset: offset})
}

// Erase removes key, reporting whether it was present.
func (idx *Index[K]) Erase(key K) bool {
	_, existed := idx.tree.Delete(item[K]{key: key})
	return existed
}

// Clear empties the index.
func (idx *Index[K]) Clear() {
	idx.tree.Clear(false)
}

// Len returns the number of entries.
func (idx *Index[K]) Len() int {
	return idx.tree.Len()
}

// Ascend visits every (key, offset) pair in key order, stopping early if fn
// returns false.
func (idx *Index[K]) Ascend(fn func(key K, offset uint32) bool) {
	idx.tree.Ascend(func(it item[K]) bool {
		return fn(it.key, it.offset)
	})
}

// Min returns the smallest key and its offset, corresponding to the
// original API's first_element.
func (idx *Index[K]) Min() (key K, offset uint32, ok bool) {
	it, ok := idx.tree.Min()
	return it.key, it.offset, ok
}

// Max returns the largest key and its offset, corresponding to the
// original API's last_element.
func (idx *Index[K]) Max() (key K, offset uint32, ok bool) {
	it, ok := idx.tree.Max()
	return it.key, it.offset, ok
}
