package tensor

import (
	"errors"
	"fmt"

	"github.com/openfluke/loomfuzz/fuzzbytes"
)

var (
	ErrInvalidShape = errors.New("tensor: invalid shape")
	ErrTooLarge     = errors.New("tensor: too many elements")
)

// Decoder reads one tensor in the common layout:
//
//	[dtype selector][rank byte][rank x 8-byte dimension][elements...]
type Decoder struct {
	Types       Set
	MinRank     int
	MaxRank     int
	MinDim      int64
	MaxDim      int64
	MaxElements int
}

// DefaultDecoder returns the decoder most harnesses start from.
func DefaultDecoder() Decoder {
	return Decoder{
		Types:       AllTypes,
		MinRank:     0,
		MaxRank:     4,
		MinDim:      1,
		MaxDim:      8,
		MaxElements: 4096,
	}
}

// WithTypes returns a copy of d restricted to types.
func (d Decoder) WithTypes(types Set) Decoder {
	d.Types = types
	return d
}

// WithRank returns a copy of d with the rank bounds replaced.
func (d Decoder) WithRank(min, max int) Decoder {
	d.MinRank, d.MaxRank = min, max
	return d
}

// Decode reads one payload. With fewer than two bytes left for the selector
// and rank it returns fuzzbytes.ErrStarved and consumes nothing.
func (d Decoder) Decode(c *fuzzbytes.Cursor) (Payload, error) {
	if c.Remaining() < 2 {
		return Payload{}, fuzzbytes.ErrStarved
	}
	sel, _ := c.Byte()
	dt := d.Types.Select(sel)
	rank := c.Rank(d.MinRank, d.MaxRank)
	shape := c.Shape(rank, d.MinDim, d.MaxDim)

	n, ok := fuzzbytes.NumElements(shape)
	if !ok {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	limit := d.MaxElements
	if limit <= 0 {
		limit = fuzzbytes.DefaultMaxElements
	}
	if n > int64(limit) {
		return Payload{}, fmt.Errorf("%w: %v has %d elements", ErrTooLarge, shape, n)
	}
	return Payload{DType: dt, Shape: shape, Data: fillData(c, dt, int(n))}, nil
}

// DecodeN reads count payloads in sequence, stopping at the first error.
func (d Decoder) DecodeN(c *fuzzbytes.Cursor, count int) ([]Payload, error) {
	out := make([]Payload, 0, count)
	for i := 0; i < count; i++ {
		p, err := d.Decode(c)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}
