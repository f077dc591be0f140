package fuzzbytes

import (
	"encoding/binary"
	"math"
)

// Element is the set of fixed-width values a cursor can read directly.
type Element interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 |
		float32 | float64 | complex64 | complex128
}

// SizeOf returns the encoded width of T in bytes.
func SizeOf[T Element]() int {
	var v T
	switch any(v).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64, complex64:
		return 8
	case complex128:
		return 16
	}
	return 0
}

// Read decodes one little-endian value of type T. With fewer than SizeOf[T]
// bytes left it returns the zero value, false and does not advance.
func Read[T Element](c *Cursor) (T, bool) {
	var v T
	b, ok := c.take(SizeOf[T]())
	if !ok {
		return v, false
	}
	switch p := any(&v).(type) {
	case *bool:
		*p = b[0] != 0
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(b))
	case *uint64:
		*p = binary.LittleEndian.Uint64(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	case *complex64:
		re := math.Float32frombits(binary.LittleEndian.Uint32(b[0:4]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b[4:8]))
		*p = complex(re, im)
	case *complex128:
		re := math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
		*p = complex(re, im)
	}
	return v, true
}

// ReadOr is Read with an explicit fallback.
func ReadOr[T Element](c *Cursor, def T) T {
	if v, ok := Read[T](c); ok {
		return v
	}
	return def
}

// Fill decodes n values of type T in order. Positions past the end of the
// input hold the zero value and do not advance the cursor, so the result
// always has exactly n elements.
func Fill[T Element](c *Cursor, n int) []T {
	if n < 0 {
		n = 0
	}
	out := make([]T, n)
	for i := range out {
		out[i], _ = Read[T](c)
	}
	return out
}

// Typed shorthands for the common scalar reads.

func (c *Cursor) Uint8() uint8     { return ReadOr[uint8](c, 0) }
func (c *Cursor) Uint16() uint16   { return ReadOr[uint16](c, 0) }
func (c *Cursor) Uint32() uint32   { return ReadOr[uint32](c, 0) }
func (c *Cursor) Uint64() uint64   { return ReadOr[uint64](c, 0) }
func (c *Cursor) Int8() int8       { return ReadOr[int8](c, 0) }
func (c *Cursor) Int16() int16     { return ReadOr[int16](c, 0) }
func (c *Cursor) Int32() int32     { return ReadOr[int32](c, 0) }
func (c *Cursor) Int64() int64     { return ReadOr[int64](c, 0) }
func (c *Cursor) Float32() float32 { return ReadOr[float32](c, 0) }
func (c *Cursor) Float64() float64 { return ReadOr[float64](c, 0) }

// Clamp folds v into [min, max]. NaN maps to min and infinities to the nearer
// bound.
func Clamp(v, min, max float64) float64 {
	switch {
	case math.IsNaN(v):
		return min
	case v < min:
		return min
	case v > max:
		return max
	}
	return v
}

// FloatIn reads a float32 and clamps it into [min, max]. On starvation it
// returns def.
func (c *Cursor) FloatIn(min, max, def float64) float64 {
	v, ok := Read[float32](c)
	if !ok {
		return def
	}
	return Clamp(float64(v), min, max)
}
