// Package flashkv implements an embedded, single-file, generic key-value
// store: a complete in-memory key → block-offset index over a
// block-allocated data file, with a best-fit free-block allocator
// reclaiming space from deletions and oversize-replacement updates.
package flashkv

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/flashkv/flashkv/codec"
	"github.com/flashkv/flashkv/fio"
	"github.com/flashkv/flashkv/keydir"
)

var errNotLoaded = errors.New("flashkv: store not loaded")

// Store is the top-level engine. Every exported method takes the store's
// mutex once and delegates to an unexported *Locked helper; composite
// operations (Upsert, callback Update) call those helpers directly instead
// of re-entering a public method, which is how this store gets the
// composite-operation atomicity the original library got from a reentrant
// mutex without Go needing one of its own.
type Store[K any, V any] struct {
	mu   sync.Mutex
	opts options

	keyCodec codec.KeyCodec[K]
	valCodec codec.ValueCodec[V]

	file fio.IOManager
	lock fio.FileLocker
	path string

	loaded    bool
	fileSize  uint32
	index     *keydir.Index[K]
	free      freeList
	iterCount int
	errFlags  ErrFlag
}

// New builds an empty, unloaded Store. Call Load before using it.
func New[K any, V any](keyCodec codec.KeyCodec[K], valCodec codec.ValueCodec[V], opts ...Option) *Store[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, V]{
		opts:     o,
		keyCodec: keyCodec,
		valCodec: valCodec,
	}
}

func (s *Store[K, V]) fail(err error) error {
	if err != nil {
		s.errFlags |= flagFor(err)
	}
	return err
}

// Load opens (creating if necessary) the data file at path and rebuilds the
// key index and free-block list by scanning it (spec §4.4.1). It refuses if
// this Store already has a file loaded.
func (s *Store[K, V]) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.fail(ErrCantDoItNow)
	}
	if len(path) > s.opts.maxPathLength {
		return s.fail(wrapIO(errors.New("data file path exceeds configured maximum length")))
	}

	lock := fio.NewFlock(path)
	acquired, err := lock.TryLock()
	if err != nil {
		return s.fail(wrapIO(err))
	}
	if !acquired {
		return s.fail(ErrCantDoItNow)
	}

	file, err := s.opts.ioManagerCreator(path)
	if err != nil {
		_ = lock.Unlock()
		return s.fail(wrapIO(err))
	}

	fileSize, err := file.Size()
	if err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return s.fail(wrapIO(err))
	}

	index := keydir.New[K](func(a, b K) bool { return s.keyCodec.Compare(a, b) < 0 })
	var free freeList

	var offset int64
	for offset < fileSize {
		if offset > math.MaxUint32 {
			_ = file.Close()
			_ = lock.Unlock()
			return s.fail(wrapIO(errors.New("data file too large")))
		}

		blockSize, key, _, err := codec.ReadBlock[K, V](file, offset, s.keyCodec, s.valCodec, true)
		if err != nil {
			_ = file.Close()
			_ = lock.Unlock()
			return s.fail(wrapIO(err))
		}
		if blockSize == 0 {
			_ = file.Close()
			_ = lock.Unlock()
			return s.fail(ErrDataChanged)
		}

		if blockSize > 0 {
			if err := index.Insert(key, uint32(offset)); err != nil {
				_ = file.Close()
				_ = lock.Unlock()
				return s.fail(ErrDataChanged)
			}
			offset += int64(blockSize)
		} else {
			free.pushBack(freeEntry{offset: uint32(offset), size: -blockSize})
			offset += int64(-blockSize)
		}
	}

	s.file = file
	s.lock = lock
	s.path = path
	s.fileSize = uint32(fileSize)
	s.index = index
	s.free = free
	s.loaded = true
	return nil
}

// Size returns the number of key-value pairs currently stored.
func (s *Store[K, V]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0
	}
	return s.index.Len()
}

// DataLoaded reports whether Load has successfully completed.
func (s *Store[K, V]) DataLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// DataFileSize returns the length of the data file in bytes.
func (s *Store[K, V]) DataFileSize() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileSize
}

// ErrorFlags returns the sticky bitwise-OR of every error observed since
// the last ClearErrorFlags.
func (s *Store[K, V]) ErrorFlags() ErrFlag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errFlags
}

// ClearErrorFlags resets the sticky error accumulator.
func (s *Store[K, V]) ClearErrorFlags() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errFlags = 0
}

// Lock and Unlock take and release the store's mutex directly. The mutex
// is not reentrant: every other exported Store method locks it too, so
// calling one from the same goroutine between Lock and Unlock blocks
// forever.
func (s *Store[K, V]) Lock()   { s.mu.Lock() }
func (s *Store[K, V]) Unlock() { s.mu.Unlock() }

// blockSizes returns dataSize (header + key + value, with terminators for
// variable-length fields but no padding — the free-list fit test always
// searches against this, per the original allocator: a reused free block
// keeps its existing size rather than being shrunk to fit) and blockSize
// (dataSize plus the configured padding fraction on each variable-length
// field — used only to size a brand-new block when no free block fits).
func (s *Store[K, V]) blockSizes(k K, v V) (dataSize int, blockSize int, err error) {
	dataSize, err = codec.DataSize[K, V](k, v, s.keyCodec, s.valCodec)
	if err != nil {
		return 0, 0, err
	}

	keyBytes, err := s.keyCodec.Marshal(k)
	if err != nil {
		return 0, 0, err
	}
	valBytes, err := s.valCodec.Marshal(v)
	if err != nil {
		return 0, 0, err
	}

	blockSize = dataSize
	if s.keyCodec.Variable() {
		blockSize += s.padding(len(keyBytes) + 1)
	}
	if s.valCodec.Variable() {
		blockSize += s.padding(len(valBytes) + 1)
	}

	return dataSize, blockSize, nil
}

func (s *Store[K, V]) padding(fieldLen int) int {
	return int(float64(fieldLen)*s.opts.paddingFraction + 0.5)
}

// Insert adds a new key-value pair (spec §4.4.2).
func (s *Store[K, V]) Insert(k K, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(k, v)
}

func (s *Store[K, V]) insertLocked(k K, v V) error {
	if !s.loaded {
		return s.fail(wrapIO(errNotLoaded))
	}
	if s.iterCount > 0 {
		return s.fail(ErrCantDoItNow)
	}

	dataSize, blockSize, err := s.blockSizes(k, v)
	if err != nil {
		return s.fail(ErrBadAlloc)
	}
	if blockSize > codec.MaxBlockSize {
		return s.fail(ErrBadAlloc)
	}

	var offset uint32
	var actualSize int16
	fitIdx, fit := s.free.bestFit(int16(dataSize))
	if fit {
		offset = s.free.entries[fitIdx].offset
		actualSize = s.free.entries[fitIdx].size
	} else {
		offset = s.fileSize
		actualSize = int16(blockSize)
	}

	if err := s.index.Insert(k, offset); err != nil {
		return s.fail(ErrNotUnique)
	}

	buf, err := codec.BuildBlock[K, V](actualSize, k, v, s.keyCodec, s.valCodec)
	if err != nil {
		s.index.Erase(k)
		return s.fail(ErrBadAlloc)
	}

	n, werr := s.file.WriteAt(buf, int64(offset))
	if werr != nil || n != len(buf) {
		s.markFreeOrClose(offset, actualSize)
		s.index.Erase(k)
		if werr == nil {
			werr = errors.New("short write")
		}
		return s.fail(wrapIO(werr))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}

	if fit {
		s.free.erase(fitIdx)
	} else {
		s.fileSize += uint32(actualSize)
	}
	return nil
}

// markFreeOrClose overwrites the header at offset with a free header of
// size; if that write itself fails there is no further recovery available,
// so the file is closed and every subsequent operation fails with IoError
// until a new Store is created (spec §7).
func (s *Store[K, V]) markFreeOrClose(offset uint32, size int16) {
	hdr := make([]byte, codec.HeaderSize)
	binary.LittleEndian.PutUint16(hdr, uint16(-size))
	if _, err := s.file.WriteAt(hdr, int64(offset)); err != nil {
		_ = s.file.Close()
		return
	}
	_ = s.file.Sync()
}

// FindBlockOffset resolves the data-file offset of the block holding key.
func (s *Store[K, V]) FindBlockOffset(k K) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0, s.fail(wrapIO(errNotLoaded))
	}
	offset, ok := s.index.Find(k)
	if !ok {
		return 0, s.fail(ErrNotFound)
	}
	return offset, nil
}

// FindValue looks up the value stored under key.
func (s *Store[K, V]) FindValue(k K) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findValueLocked(k, nil)
}

// FindValueAt looks up the value at a known block offset, short-circuiting
// the index lookup. Iterator.Value reads through the same unexported
// helper without re-locking the store.
func (s *Store[K, V]) FindValueAt(k K, offset uint32) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findValueLocked(k, &offset)
}

func (s *Store[K, V]) findValueLocked(k K, hint *uint32) (V, error) {
	var zero V
	if !s.loaded {
		return zero, s.fail(wrapIO(errNotLoaded))
	}

	offset, err := s.resolveOffset(k, hint)
	if err != nil {
		return zero, err
	}

	size, storedKey, value, err := codec.ReadBlock[K, V](s.file, int64(offset), s.keyCodec, s.valCodec, false)
	if err != nil {
		return zero, s.fail(wrapIO(err))
	}
	if size <= 0 || s.keyCodec.Compare(storedKey, k) != 0 {
		return zero, s.fail(ErrDataChanged)
	}
	return value, nil
}

func (s *Store[K, V]) resolveOffset(k K, hint *uint32) (uint32, error) {
	if hint != nil {
		return *hint, nil
	}
	offset, ok := s.index.Find(k)
	if !ok {
		return 0, s.fail(ErrNotFound)
	}
	return offset, nil
}

// Update overwrites the value stored under key (spec §4.4.5): if the new
// payload still fits in the existing block only the value bytes are
// rewritten in place, otherwise the block is reallocated and the old one
// freed.
func (s *Store[K, V]) Update(k K, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(k, v, nil)
}

// UpdateAt is Update with a known block offset, skipping the index lookup.
func (s *Store[K, V]) UpdateAt(k K, v V, offset uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(k, v, &offset)
}

func (s *Store[K, V]) updateLocked(k K, v V, hint *uint32) error {
	if !s.loaded {
		return s.fail(wrapIO(errNotLoaded))
	}

	offset, err := s.resolveOffset(k, hint)
	if err != nil {
		return err
	}

	curSize, storedKey, _, err := codec.ReadBlock[K, V](s.file, int64(offset), s.keyCodec, s.valCodec, true)
	if err != nil {
		return s.fail(wrapIO(err))
	}
	if curSize <= 0 || s.keyCodec.Compare(storedKey, k) != 0 {
		return s.fail(ErrDataChanged)
	}

	dataSize, blockSize, err := s.blockSizes(k, v)
	if err != nil {
		return s.fail(ErrBadAlloc)
	}
	if blockSize > codec.MaxBlockSize {
		return s.fail(ErrBadAlloc)
	}

	if dataSize <= int(curSize) {
		return s.updateInPlace(k, v, offset)
	}
	return s.updateReallocate(k, v, offset, curSize, dataSize, blockSize)
}

func (s *Store[K, V]) updateInPlace(k K, v V, offset uint32) error {
	keyBytes, err := s.keyCodec.Marshal(k)
	if err != nil {
		return s.fail(ErrBadAlloc)
	}
	keyFieldLen := len(keyBytes)
	if s.keyCodec.Variable() {
		keyFieldLen++
	}

	valBytes, err := s.valCodec.Marshal(v)
	if err != nil {
		return s.fail(ErrBadAlloc)
	}
	buf := valBytes
	if s.valCodec.Variable() {
		buf = append(append([]byte{}, valBytes...), 0)
	}

	writeOffset := int64(offset) + codec.HeaderSize + int64(keyFieldLen)
	n, werr := s.file.WriteAt(buf, writeOffset)
	if werr != nil || n != len(buf) {
		if werr == nil {
			werr = errors.New("short write")
		}
		return s.fail(wrapIO(werr))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}
	return nil
}

func (s *Store[K, V]) updateReallocate(k K, v V, oldOffset uint32, oldSize int16, dataSize int, blockSize int) error {
	var newOffset uint32
	var newSize int16
	fitIdx, fit := s.free.bestFit(int16(dataSize))
	if fit {
		newOffset = s.free.entries[fitIdx].offset
		newSize = s.free.entries[fitIdx].size
	} else {
		newOffset = s.fileSize
		newSize = int16(blockSize)
	}

	buf, err := codec.BuildBlock[K, V](newSize, k, v, s.keyCodec, s.valCodec)
	if err != nil {
		return s.fail(ErrBadAlloc)
	}

	n, werr := s.file.WriteAt(buf, int64(newOffset))
	if werr != nil || n != len(buf) {
		s.markFreeOrClose(newOffset, newSize)
		if werr == nil {
			werr = errors.New("short write")
		}
		return s.fail(wrapIO(werr))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}

	oldHdr := make([]byte, codec.HeaderSize)
	binary.LittleEndian.PutUint16(oldHdr, uint16(-oldSize))
	if _, err := s.file.WriteAt(oldHdr, int64(oldOffset)); err != nil {
		return s.fail(wrapIO(err))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}

	s.index.Set(k, newOffset)
	if fit {
		s.free.erase(fitIdx)
	} else {
		s.fileSize += uint32(newSize)
	}
	s.free.pushBack(freeEntry{offset: oldOffset, size: oldSize})
	return nil
}

// UpdateFunc loads the current value, applies mutator to it while still
// holding the store's lock, and writes the (possibly modified) value back.
// A mutator error is returned to the caller after the write, not instead of
// it — a compound read-modify-write is atomic with respect to other
// callers regardless of whether the mutator itself succeeded.
func (s *Store[K, V]) UpdateFunc(k K, mutator func(*V) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFuncLocked(k, mutator, nil)
}

// UpdateFuncAt is UpdateFunc with a known block offset.
func (s *Store[K, V]) UpdateFuncAt(k K, mutator func(*V) error, offset uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFuncLocked(k, mutator, &offset)
}

func (s *Store[K, V]) updateFuncLocked(k K, mutator func(*V) error, hint *uint32) error {
	v, err := s.findValueLocked(k, hint)
	if err != nil {
		return err
	}
	mutatorErr := mutator(&v)
	if writeErr := s.updateLocked(k, v, hint); writeErr != nil {
		return writeErr
	}
	return mutatorErr
}

// Upsert updates the value under key if it exists, otherwise inserts
// (key, v) as a new pair.
func (s *Store[K, V]) Upsert(k K, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.updateLocked(k, v, nil)
	if errors.Is(err, ErrNotFound) {
		return s.insertLocked(k, v)
	}
	return err
}

// UpsertFunc updates key via mutator if it exists, otherwise inserts
// (key, def) as a new pair.
func (s *Store[K, V]) UpsertFunc(k K, mutator func(*V) error, def V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.updateFuncLocked(k, mutator, nil)
	if errors.Is(err, ErrNotFound) {
		return s.insertLocked(k, def)
	}
	return err
}

// Delete removes key (spec §4.4.8).
func (s *Store[K, V]) Delete(k K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(k)
}

func (s *Store[K, V]) deleteLocked(k K) error {
	if !s.loaded {
		return s.fail(wrapIO(errNotLoaded))
	}
	if s.iterCount > 0 {
		return s.fail(ErrCantDoItNow)
	}

	offset, ok := s.index.Find(k)
	if !ok {
		return s.fail(ErrNotFound)
	}

	header, err := codec.ReadBlockHeader(s.file, int64(offset))
	if err != nil {
		return s.fail(wrapIO(err))
	}
	if header <= 0 {
		return s.fail(ErrDataChanged)
	}

	s.index.Erase(k)

	hdr := make([]byte, codec.HeaderSize)
	binary.LittleEndian.PutUint16(hdr, uint16(-header))
	if _, err := s.file.WriteAt(hdr, int64(offset)); err != nil {
		if reErr := s.index.Insert(k, offset); reErr != nil {
			_ = s.file.Close()
		}
		return s.fail(wrapIO(err))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}

	s.free.pushBack(freeEntry{offset: offset, size: header})
	return nil
}

// Truncate discards every key-value pair and resets the data file to
// empty (spec §4.4.9).
func (s *Store[K, V]) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.truncateLocked()
}

func (s *Store[K, V]) truncateLocked() error {
	if !s.loaded {
		return s.fail(wrapIO(errNotLoaded))
	}
	if s.iterCount > 0 {
		return s.fail(ErrCantDoItNow)
	}

	if err := s.file.Truncate(0); err != nil {
		return s.fail(wrapIO(err))
	}
	if err := s.file.Sync(); err != nil {
		return s.fail(wrapIO(err))
	}

	s.fileSize = 0
	s.index.Clear()
	s.free = freeList{}
	return nil
}

// FirstElement returns the smallest key and its offset, or ok=false if the
// store is empty.
func (s *Store[K, V]) FirstElement() (key K, offset uint32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Min()
}

// LastElement returns the largest key and its offset, or ok=false if the
// store is empty.
func (s *Store[K, V]) LastElement() (key K, offset uint32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Max()
}

// Close releases the data file and its lock. It does not clear in-memory
// state; the Store must be discarded afterward.
func (s *Store[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil
	}
	err := s.file.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}
