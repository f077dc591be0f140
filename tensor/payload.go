package tensor

import (
	"fmt"

	"github.com/openfluke/loomfuzz/fuzzbytes"
)

// DefaultString stands in for string elements with no input left.
const DefaultString = "default"

// Payload is a decoded tensor: an element type, a shape and a flat row-major
// slice whose Go type follows the DType. F16 and BF16 hold raw uint16 bits.
type Payload struct {
	DType DType
	Shape []int64
	Data  any
}

// Len returns the number of elements in Data.
func (p Payload) Len() int {
	switch v := p.Data.(type) {
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []int8:
		return len(v)
	case []int16:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []uint64:
		return len(v)
	case []bool:
		return len(v)
	case []complex64:
		return len(v)
	case []complex128:
		return len(v)
	case []string:
		return len(v)
	}
	return 0
}

// Rank returns len(Shape).
func (p Payload) Rank() int { return len(p.Shape) }

func (p Payload) String() string {
	return fmt.Sprintf("%s%v", p.DType, p.Shape)
}

// Fill decodes a payload of the given type and shape, element by element.
// Elements past the end of the input are zero ("default" for strings).
func Fill(c *fuzzbytes.Cursor, dt DType, shape []int64) (Payload, error) {
	n, ok := fuzzbytes.NumElements(shape)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	if n > fuzzbytes.DefaultMaxElements {
		return Payload{}, fmt.Errorf("%w: %v has %d elements", ErrTooLarge, shape, n)
	}
	return Payload{DType: dt, Shape: shape, Data: fillData(c, dt, int(n))}, nil
}

func fillData(c *fuzzbytes.Cursor, dt DType, n int) any {
	switch dt {
	case F32:
		return fuzzbytes.Fill[float32](c, n)
	case F64:
		return fuzzbytes.Fill[float64](c, n)
	case F16, BF16, U16:
		return fuzzbytes.Fill[uint16](c, n)
	case I8:
		return fuzzbytes.Fill[int8](c, n)
	case I16:
		return fuzzbytes.Fill[int16](c, n)
	case I32:
		return fuzzbytes.Fill[int32](c, n)
	case I64:
		return fuzzbytes.Fill[int64](c, n)
	case U8:
		return fuzzbytes.Fill[uint8](c, n)
	case U32:
		return fuzzbytes.Fill[uint32](c, n)
	case U64:
		return fuzzbytes.Fill[uint64](c, n)
	case Bool:
		return fuzzbytes.Fill[bool](c, n)
	case Complex64:
		return fuzzbytes.Fill[complex64](c, n)
	case Complex128:
		return fuzzbytes.Fill[complex128](c, n)
	case String:
		out := c.Strings(n, 1, 10, DefaultString)
		for i := range out {
			out[i] = fuzzbytes.ASCII(out[i])
		}
		return out
	}
	return fuzzbytes.Fill[float32](c, n)
}
