package fuzzbytes

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func TestSelectEnum(t *testing.T) {
	tests := []struct {
		b    byte
		n    int
		want int
	}{
		{0, 2, 0},
		{1, 2, 1},
		{255, 12, 255 % 12},
		{7, 1, 0},
		{7, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectEnum(tt.b, tt.n), "SelectEnum(%d, %d)", tt.b, tt.n)
	}
}

func TestSelectRange(t *testing.T) {
	assert.Equal(t, 1, SelectRange(0x00, 1, 4))
	assert.Equal(t, 4, SelectRange(0x03, 1, 4))
	assert.Equal(t, 1, SelectRange(0x04, 1, 4))
	assert.Equal(t, 5, SelectRange(0xFF, 5, 5))
	assert.Equal(t, 5, SelectRange(0xFF, 5, 2))
	for b := 0; b < 256; b++ {
		v := SelectRange(byte(b), 1, 4)
		require.True(t, v >= 1 && v <= 4, "byte %d gave %d", b, v)
	}
}

func TestByteExhaustion(t *testing.T) {
	c := NewCursor([]byte{9})
	b, ok := c.Byte()
	require.True(t, ok)
	require.Equal(t, byte(9), b)

	_, ok = c.Byte()
	require.False(t, ok)
	require.Equal(t, 1, c.Offset())
	require.Equal(t, byte(42), c.ByteOr(42))
	require.True(t, c.Exhausted())
}

func TestEmptyBuffer(t *testing.T) {
	c := NewCursor(nil)
	assert.Equal(t, 3, c.Enum(4, 3))
	assert.Equal(t, 2, c.Rank(2, 4))
	assert.Equal(t, int64(1), c.Dimension(1, 10))
	assert.Equal(t, []int64{1, 1}, c.Shape(2, 1, 10))
	assert.Equal(t, []float32{0, 0, 0}, Fill[float32](c, 3))
	assert.Equal(t, []string{"d", "d"}, c.Strings(2, 1, 10, "d"))
	assert.Equal(t, 0, c.Offset())
}

func TestDimensionNegativeRaw(t *testing.T) {
	c := NewCursor(le64(-7))
	require.Equal(t, int64(8), c.Dimension(1, 10))
	require.Equal(t, 8, c.Offset())
}

func TestDimensionBounds(t *testing.T) {
	patterns := [][]byte{
		bytes.Repeat([]byte{0x00}, 8),
		bytes.Repeat([]byte{0xFF}, 8),
		le64(math.MinInt64),
		le64(math.MaxInt64),
		le64(-1),
	}
	bounds := [][2]int64{{1, 10}, {0, 0}, {-1, 5}, {1, 1}, {math.MinInt64, math.MaxInt64}}
	for _, p := range patterns {
		for _, bnd := range bounds {
			got := NewCursor(p).Dimension(bnd[0], bnd[1])
			assert.True(t, got >= bnd[0] && got <= bnd[1], "pattern %x bounds %v gave %d", p, bnd, got)
		}
	}
}

func TestDimensionStarved(t *testing.T) {
	c := NewCursor(bytes.Repeat([]byte{0x05}, 7))
	require.Equal(t, int64(1), c.Dimension(1, 10))
	require.Equal(t, 0, c.Offset())
	require.Equal(t, int64(1+5%10), c.Dimension8(1, 10))
	require.Equal(t, 1, c.Offset())
}

func TestShapeRankZero(t *testing.T) {
	c := NewCursor(bytes.Repeat([]byte{0x01}, 32))
	shape := c.Shape(0, 1, 10)
	require.NotNil(t, shape)
	require.Empty(t, shape)
	require.Equal(t, 0, c.Offset())
}

func TestZeroBufferRankAndShape(t *testing.T) {
	c := NewCursor(make([]byte, 10))
	rank := c.Rank(1, 4)
	require.Equal(t, 1, rank)

	shape := c.Shape(rank, 1, 10)
	require.Equal(t, []int64{1}, shape)
	require.Equal(t, 9, c.Offset())
}

func TestShapeMidStarvation(t *testing.T) {
	buf := append(le64(3), 0x01, 0x02)
	c := NewCursor(buf)
	shape := c.Shape(3, 1, 10)
	require.Equal(t, []int64{4, 1, 1}, shape)
	require.Equal(t, 8, c.Offset())
}

func TestFillFloatOneByteLeft(t *testing.T) {
	c := NewCursor([]byte{0xAA})
	out := Fill[float32](c, 1)
	require.Equal(t, []float32{0}, out)
	require.Equal(t, 0, c.Offset())
}

func TestFillGreedyThenDefault(t *testing.T) {
	buf := make([]byte, 0, 10)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(1.5))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(-2))
	buf = append(buf, 0x01, 0x02)
	c := NewCursor(buf)
	out := Fill[float32](c, 4)
	require.Equal(t, []float32{1.5, -2, 0, 0}, out)
	require.Equal(t, 8, c.Offset())
	require.Equal(t, 2, c.Remaining())
}

func TestReadTypes(t *testing.T) {
	c := NewCursor([]byte{0x02, 0xFF, 0x34, 0x12})
	v, ok := Read[bool](c)
	require.True(t, ok)
	require.True(t, v)
	require.Equal(t, int8(-1), c.Int8())
	require.Equal(t, uint16(0x1234), c.Uint16())
	require.Equal(t, uint64(0), c.Uint64())

	require.Equal(t, 16, SizeOf[complex128]())
	require.Equal(t, 8, SizeOf[complex64]())
	require.Equal(t, 1, SizeOf[bool]())
}

func TestFillLengthInvariant(t *testing.T) {
	f := fuzz.NewWithSeed(7).NilChance(0).NumElements(0, 64)
	for i := 0; i < 500; i++ {
		var buf []byte
		var n uint8
		f.Fuzz(&buf)
		f.Fuzz(&n)

		c := NewCursor(buf)
		out := Fill[float32](c, int(n))
		require.Len(t, out, int(n))

		fit := len(buf) / 4
		if fit > int(n) {
			fit = int(n)
		}
		require.Equal(t, fit*4, c.Offset())

		c = NewCursor(buf)
		halves := Fill[uint16](c, int(n))
		require.Len(t, halves, int(n))
		require.LessOrEqual(t, c.Offset(), len(buf))
	}
}

func TestStringTruncated(t *testing.T) {
	// length byte 9 -> 1 + 9%10 = 10, but only three payload bytes remain.
	c := NewCursor([]byte{9, 'a', 'b', 'c'})
	s, ok := c.String(1, 10)
	require.True(t, ok)
	require.Equal(t, "abc", s)
	require.True(t, c.Exhausted())

	s, ok = c.String(1, 10)
	require.False(t, ok)
	require.Equal(t, "", s)
}

func TestStringsDefault(t *testing.T) {
	c := NewCursor([]byte{0, 'x'})
	out := c.Strings(3, 1, 10, "default")
	require.Equal(t, []string{"x", "default", "default"}, out)
}

func TestASCII(t *testing.T) {
	require.Equal(t, "A", ASCII(string([]byte{0xC1})))
}

func TestBytesPadsAndAdvances(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	c.Byte()
	out := c.Bytes(4)
	require.Equal(t, []byte{2, 3, 0, 0}, out)
	require.Equal(t, 3, c.Offset())
	require.Empty(t, c.Rest())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 1))
	assert.Equal(t, 1.0, Clamp(math.Inf(1), 0, 1))
	assert.Equal(t, 0.0, Clamp(math.Inf(-1), 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))

	c := NewCursor(nil)
	assert.Equal(t, 0.25, c.FloatIn(0, 1, 0.25))
}

func TestMonotonicCursor(t *testing.T) {
	f := fuzz.NewWithSeed(11).NilChance(0).NumElements(0, 48)
	for i := 0; i < 300; i++ {
		var buf []byte
		f.Fuzz(&buf)
		c := NewCursor(buf)
		steps := []func(){
			func() { c.Enum(12, 0) },
			func() { c.Rank(1, 4) },
			func() { c.Dimension(1, 10) },
			func() { c.Dimension8(0, 3) },
			func() { Fill[float64](c, 2) },
			func() { c.Strings(2, 0, 7, "") },
			func() { c.Bool(false) },
			func() { c.Unit(0.5) },
		}
		prev := 0
		for _, step := range steps {
			step()
			require.GreaterOrEqual(t, c.Offset(), prev)
			require.LessOrEqual(t, c.Offset(), len(buf))
			prev = c.Offset()
		}
	}
}

func FuzzCursorTotality(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, 10))
	f.Add(bytes.Repeat([]byte{0xFF}, 40))
	f.Fuzz(func(t *testing.T, data []byte) {
		c := NewCursor(data)
		rank := c.Rank(0, 4)
		shape := c.Shape(rank, 1, 6)
		n, ok := NumElements(shape)
		if !ok {
			t.Fatalf("bounded shape %v overflowed", shape)
		}
		if got := Fill[float32](c, int(n)); len(got) != int(n) {
			t.Fatalf("fill returned %d of %d", len(got), n)
		}
		c.Strings(2, 0, 9, "")
		if c.Offset() > len(data) {
			t.Fatalf("offset %d past length %d", c.Offset(), len(data))
		}
	})
}
