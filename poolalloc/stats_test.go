package poolalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsFreshPool(t *testing.T) {
	p := newTestPool(t, 1024)
	s := p.Stats()
	assert.Equal(t, 1024, s.Size)
	assert.Equal(t, 0, s.Allocated)
	assert.Equal(t, 0, s.Allocs)
	assert.Equal(t, 0, s.Frees)
	assert.Equal(t, 1, s.FreeBlocks)
	assert.Equal(t, s.Available, s.LargestFreeBlock, "a fresh pool has one maximal free block")
	assert.Greater(t, s.LargestFreeBlock, 0)
}

func TestStatsTrackMixedOps(t *testing.T) {
	p := newTestPool(t, 4096)

	b1 := p.Alloc(100)
	b2 := p.Alloc(300)
	b3 := p.Alloc(57)
	require.NotNil(t, b3)
	assert.Equal(t, 457, p.Allocated())
	assert.Equal(t, 3, p.Allocs())
	assert.Equal(t, 0, p.Frees())

	p.Free(b2)
	assert.Equal(t, 157, p.Allocated())
	assert.Equal(t, 3, p.Allocs())
	assert.Equal(t, 1, p.Frees())
	assert.Equal(t, 2, p.FreeBlocks())

	// Available counts every free payload; the largest block alone
	// cannot exceed it
	assert.LessOrEqual(t, p.LargestFreeBlock(), p.Available())

	p.Free(b1)
	p.Free(b3)
	assert.Equal(t, 0, p.Allocated())
	assert.Equal(t, 3, p.Frees())
	assert.Equal(t, 1, p.FreeBlocks())
	assert.Equal(t, p.Available(), p.LargestFreeBlock())
}

func TestLargestFreeBlockIsExact(t *testing.T) {
	p := newTestPool(t, 2048)

	// fragment the region: allocate pairs and free every other one
	var holes, pins [][]byte
	for {
		a := p.Alloc(100)
		if a == nil {
			break
		}
		b := p.Alloc(100)
		holes = append(holes, a)
		if b == nil {
			break
		}
		pins = append(pins, b)
	}
	for _, h := range holes {
		p.Free(h)
	}
	checkIntegrity(t, p)

	// exactness: the reported size fits, one byte more does not
	n := p.LargestFreeBlock()
	require.Greater(t, n, 0)
	assert.Nil(t, p.Alloc(n+1), "external fragmentation must not be papered over")
	assert.NotNil(t, p.Alloc(n))

	for _, b := range pins {
		p.Free(b)
	}
	checkIntegrity(t, p)
}

func TestStatsAfterDestroy(t *testing.T) {
	p, err := New(1024)
	require.NoError(t, err)
	b := p.Alloc(10)
	require.NotNil(t, b)
	p.Destroy()

	assert.Equal(t, 0, p.Size())
	assert.Equal(t, 0, p.FreeBlocks())
	assert.Equal(t, 0, p.LargestFreeBlock())
	assert.Equal(t, 0, p.Available())
	// counters keep their final values for post-mortem inspection
	assert.Equal(t, 1, p.Allocs())
}
