package keydir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intLess(a, b int) bool { return a < b }

func TestIndex_InsertFind(t *testing.T) {
	idx := New[int](intLess)

	assert.Nil(t, idx.Insert(1, 100))
	off, ok := idx.Find(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(100), off)

	_, ok = idx.Find(2)
	assert.False(t, ok)
}

func TestIndex_InsertDuplicate(t *testing.T) {
	idx := New[int](intLess)
	assert.Nil(t, idx.Insert(1, 100))
	assert.ErrorIs(t, idx.Insert(1, 200), ErrNotUnique)

	off, _ := idx.Find(1)
	assert.Equal(t, uint32(100), off)
}

func TestIndex_Set(t *testing.T) {
	idx := New[int](intLess)
	idx.Set(1, 100)
	idx.Set(1, 200)
	off, ok := idx.Find(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(200), off)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_Erase(t *testing.T) {
	idx := New[int](intLess)
	idx.Set(1, 100)
	assert.True(t, idx.Erase(1))
	assert.False(t, idx.Erase(1))
	_, ok := idx.Find(1)
	assert.False(t, ok)
}

func TestIndex_AscendOrder(t *testing.T) {
	idx := New[int](intLess)
	for _, k := range []int{5, 1, 3, 4, 2} {
		idx.Set(k, uint32(k*10))
	}

	var seen []int
	idx.Ascend(func(k int, offset uint32) bool {
		seen = append(seen, k)
		assert.Equal(t, uint32(k*10), offset)
		return true
	})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestIndex_AscendEarlyStop(t *testing.T) {
	idx := New[int](intLess)
	for _, k := range []int{1, 2, 3} {
		idx.Set(k, uint32(k))
	}

	var seen []int
	idx.Ascend(func(k int, offset uint32) bool {
		seen = append(seen, k)
		return k < 2
	})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestIndex_MinMax(t *testing.T) {
	idx := New[int](intLess)
	_, _, ok := idx.Min()
	assert.False(t, ok)

	idx.Set(3, 30)
	idx.Set(1, 10)
	idx.Set(2, 20)

	minK, minOff, ok := idx.Min()
	assert.True(t, ok)
	assert.Equal(t, 1, minK)
	assert.Equal(t, uint32(10), minOff)

	maxK, maxOff, ok := idx.Max()
	assert.True(t, ok)
	assert.Equal(t, 3, maxK)
	assert.Equal(t, uint32(30), maxOff)
}

func TestIndex_Clear(t *testing.T) {
	idx := New[int](intLess)
	idx.Set(1, 1)
	idx.Set(2, 2)
	idx.Clear()
	assert.Equal(t, 0, idx.Len())
}
