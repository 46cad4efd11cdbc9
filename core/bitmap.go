package core

import "math/bits"

// BitmapWords is the number of 64-bit words in a completion bitmap.
// The size mirrors the [u64; 4] lesson_flags field of the on-chain
// enrollment account, capping a course at 256 lessons.
const BitmapWords = 4

// BitmapCapacity is the number of lesson slots a bitmap can hold.
const BitmapCapacity = BitmapWords * 64

// Bitmap records which lesson indices of a course are complete.
// Bit i set means lesson i is complete. Bits are never cleared.
type Bitmap [BitmapWords]uint64

// IsSet reports whether the lesson at index is complete.
// Indices at or beyond capacity are simply not set.
func (b Bitmap) IsSet(index int) bool {
	if index < 0 || index >= BitmapCapacity {
		return false
	}
	return b[index/64]&(1<<uint(index%64)) != 0
}

// Set returns a copy of the bitmap with the bit at index set.
// Setting an already-set bit is a no-op. Indices beyond capacity
// must be rejected by the caller before reaching this point.
func (b Bitmap) Set(index int) Bitmap {
	if index < 0 || index >= BitmapCapacity {
		return b
	}
	b[index/64] |= 1 << uint(index%64)
	return b
}

// Count returns the number of completed lessons.
func (b Bitmap) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// SetIndices returns the sorted indices of all set bits below limit.
func (b Bitmap) SetIndices(limit int) []int {
	if limit > BitmapCapacity {
		limit = BitmapCapacity
	}
	indices := make([]int, 0, b.Count())
	for i := 0; i < limit; i++ {
		if b.IsSet(i) {
			indices = append(indices, i)
		}
	}
	return indices
}

// BitmapFromIndices builds a bitmap with the given indices set.
// Out-of-range indices are ignored.
func BitmapFromIndices(indices []int) Bitmap {
	var b Bitmap
	for _, i := range indices {
		b = b.Set(i)
	}
	return b
}
