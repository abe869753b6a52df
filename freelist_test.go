package flashkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeList_BestFit_PicksMinimumExcess(t *testing.T) {
	var fl freeList
	fl.pushBack(freeEntry{offset: 0, size: 100})
	fl.pushBack(freeEntry{offset: 100, size: 30})
	fl.pushBack(freeEntry{offset: 200, size: 50})

	idx, ok := fl.bestFit(20)
	assert.True(t, ok)
	assert.Equal(t, 1, idx) // size 30 wastes 10, less than 100's 80 or 50's 30
}

func TestFreeList_BestFit_TieBreaksEarliest(t *testing.T) {
	var fl freeList
	fl.pushBack(freeEntry{offset: 0, size: 50})
	fl.pushBack(freeEntry{offset: 50, size: 50})

	idx, ok := fl.bestFit(50)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestFreeList_BestFit_NoFit(t *testing.T) {
	var fl freeList
	fl.pushBack(freeEntry{offset: 0, size: 10})
	_, ok := fl.bestFit(100)
	assert.False(t, ok)
}

func TestFreeList_EraseAndLen(t *testing.T) {
	var fl freeList
	fl.pushBack(freeEntry{offset: 0, size: 10})
	fl.pushBack(freeEntry{offset: 10, size: 20})
	assert.Equal(t, 2, fl.len())

	fl.erase(0)
	assert.Equal(t, 1, fl.len())
	assert.Equal(t, uint32(10), fl.entries[0].offset)
}

func TestFreeList_NoCoalescing(t *testing.T) {
	var fl freeList
	fl.pushBack(freeEntry{offset: 0, size: 10})
	fl.pushBack(freeEntry{offset: 10, size: 10}) // physically adjacent, stays separate
	assert.Equal(t, 2, fl.len())
}
