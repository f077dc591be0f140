package fuzzbytes

import "encoding/binary"

// DimWidth is the number of bytes one dimension consumes in the common
// encoding: a little-endian int64.
const DimWidth = 8

// BoundDim folds an arbitrary signed value into [min, max] as
// min + (|raw| mod (max-min+1)). |MinInt64| is taken in unsigned arithmetic.
func BoundDim(raw, min, max int64) int64 {
	if max <= min {
		return min
	}
	span := uint64(max) - uint64(min) + 1
	if span == 0 {
		// [MinInt64, MaxInt64]: every value is already in range.
		return min + int64(absUint64(raw))
	}
	return min + int64(absUint64(raw)%span)
}

func absUint64(v int64) uint64 {
	if v < 0 {
		return uint64(^v) + 1
	}
	return uint64(v)
}

// Dimension reads an 8-byte dimension and bounds it into [min, max].
// With fewer than 8 bytes left it returns min and consumes nothing.
func (c *Cursor) Dimension(min, max int64) int64 {
	b, ok := c.take(DimWidth)
	if !ok {
		return min
	}
	return BoundDim(int64(binary.LittleEndian.Uint64(b)), min, max)
}

// Dimension8 is the lean one-byte variant of Dimension.
func (c *Cursor) Dimension8(min, max int64) int64 {
	b, ok := c.Byte()
	if !ok {
		return min
	}
	return BoundDim(int64(b), min, max)
}

// Shape decodes rank dimensions in order. Rank 0 yields an empty shape
// without consuming anything. Dimensions that run out of input take min.
func (c *Cursor) Shape(rank int, min, max int64) []int64 {
	if rank <= 0 {
		return []int64{}
	}
	shape := make([]int64, rank)
	for i := range shape {
		shape[i] = c.Dimension(min, max)
	}
	return shape
}

// Shape8 decodes rank one-byte dimensions.
func (c *Cursor) Shape8(rank int, min, max int64) []int64 {
	if rank <= 0 {
		return []int64{}
	}
	shape := make([]int64, rank)
	for i := range shape {
		shape[i] = c.Dimension8(min, max)
	}
	return shape
}
