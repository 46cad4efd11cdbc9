package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmapSetAndIsSet(t *testing.T) {
	var b Bitmap

	assert.False(t, b.IsSet(0))
	assert.False(t, b.IsSet(255))

	b = b.Set(0)
	b = b.Set(63)
	b = b.Set(64)
	b = b.Set(255)

	assert.True(t, b.IsSet(0))
	assert.True(t, b.IsSet(63))
	assert.True(t, b.IsSet(64))
	assert.True(t, b.IsSet(255))
	assert.False(t, b.IsSet(1))
	assert.False(t, b.IsSet(128))
}

func TestBitmapQueriesAreTotal(t *testing.T) {
	var b Bitmap
	b = b.Set(3)

	// Out-of-range queries return false instead of panicking.
	assert.False(t, b.IsSet(-1))
	assert.False(t, b.IsSet(256))
	assert.False(t, b.IsSet(100000))

	// Out-of-range sets leave the bitmap untouched.
	assert.Equal(t, b, b.Set(256))
	assert.Equal(t, b, b.Set(-1))
}

func TestBitmapCountIdempotence(t *testing.T) {
	var b Bitmap

	b = b.Set(7)
	require.Equal(t, 1, b.Count())

	// Re-setting an already-set bit must not change the count.
	b = b.Set(7)
	assert.Equal(t, 1, b.Count())

	b = b.Set(70)
	assert.Equal(t, 2, b.Count())
}

func TestBitmapMonotonicity(t *testing.T) {
	var b Bitmap
	indices := []int{0, 5, 63, 64, 127, 128, 200, 255}

	for i, idx := range indices {
		before := b.Count()
		b = b.Set(idx)
		require.Equal(t, before+1, b.Count())
		assert.Equal(t, indices[:i+1], b.SetIndices(BitmapCapacity))
	}
}

func TestBitmapFullCapacity(t *testing.T) {
	var b Bitmap
	for i := 0; i < BitmapCapacity; i++ {
		b = b.Set(i)
	}
	assert.Equal(t, 256, b.Count())
	assert.Len(t, b.SetIndices(BitmapCapacity), 256)
}

func TestBitmapSetIndicesRespectsLimit(t *testing.T) {
	b := BitmapFromIndices([]int{1, 9, 10, 42})
	assert.Equal(t, []int{1, 9}, b.SetIndices(10))
	assert.Equal(t, []int{1, 9, 10, 42}, b.SetIndices(1000))
}
