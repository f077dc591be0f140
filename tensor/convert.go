package tensor

import (
	"errors"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// ErrUnsupported is returned for conversions with no numeric meaning, such as
// strings.
var ErrUnsupported = errors.New("tensor: unsupported conversion")

// =============================================================================
// Universal conversion through float64
// =============================================================================

// ConvertSlice converts a typed slice from one DType to another. Integer
// targets saturate at their range and map NaN to zero.
func ConvertSlice(values any, from, to DType) (any, error) {
	if from == to {
		return values, nil
	}
	wide, err := float64s(values, from)
	if err != nil {
		return nil, err
	}
	return fromFloat64s(wide, to)
}

// Convert returns p with its data converted to dtype to.
func Convert(p Payload, to DType) (Payload, error) {
	data, err := ConvertSlice(p.Data, p.DType, to)
	if err != nil {
		return Payload{}, err
	}
	return Payload{DType: to, Shape: append([]int64(nil), p.Shape...), Data: data}, nil
}

// AsFloat32 returns the payload's elements as float32. Complex values keep
// their real part.
func AsFloat32(p Payload) ([]float32, error) {
	if v, ok := p.Data.([]float32); ok && p.DType == F32 {
		return v, nil
	}
	out, err := ConvertSlice(p.Data, p.DType, F32)
	if err != nil {
		return nil, err
	}
	return out.([]float32), nil
}

func float64s(values any, from DType) ([]float64, error) {
	mismatch := func() error {
		return fmt.Errorf("%w: %T is not %s data", ErrUnsupported, values, from)
	}
	switch from {
	case F32:
		return widen[float32](values, mismatch)
	case F64:
		return widen[float64](values, mismatch)
	case I8:
		return widen[int8](values, mismatch)
	case I16:
		return widen[int16](values, mismatch)
	case I32:
		return widen[int32](values, mismatch)
	case I64:
		return widen[int64](values, mismatch)
	case U8:
		return widen[uint8](values, mismatch)
	case U16:
		return widen[uint16](values, mismatch)
	case U32:
		return widen[uint32](values, mismatch)
	case U64:
		return widen[uint64](values, mismatch)
	case F16, BF16:
		bits, ok := values.([]uint16)
		if !ok {
			return nil, mismatch()
		}
		out := make([]float64, len(bits))
		for i, b := range bits {
			if from == F16 {
				out[i] = float64(float16.Frombits(b).Float32())
			} else {
				out[i] = float64(BFloat16ToFloat32(b))
			}
		}
		return out, nil
	case Bool:
		bs, ok := values.([]bool)
		if !ok {
			return nil, mismatch()
		}
		out := make([]float64, len(bs))
		for i, b := range bs {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	case Complex64:
		cs, ok := values.([]complex64)
		if !ok {
			return nil, mismatch()
		}
		out := make([]float64, len(cs))
		for i, c := range cs {
			out[i] = float64(real(c))
		}
		return out, nil
	case Complex128:
		cs, ok := values.([]complex128)
		if !ok {
			return nil, mismatch()
		}
		out := make([]float64, len(cs))
		for i, c := range cs {
			out[i] = real(c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: from %s", ErrUnsupported, from)
}

type real64 interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func widen[T real64](values any, mismatch func() error) ([]float64, error) {
	vs, ok := values.([]T)
	if !ok {
		return nil, mismatch()
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out, nil
}

func fromFloat64s(vals []float64, to DType) (any, error) {
	switch to {
	case F32:
		return narrow(vals, func(v float64) float32 { return float32(v) }), nil
	case F64:
		return vals, nil
	case F16:
		return narrow(vals, func(v float64) uint16 { return float16.Fromfloat32(float32(v)).Bits() }), nil
	case BF16:
		return narrow(vals, func(v float64) uint16 { return Float32ToBFloat16(float32(v)) }), nil
	case I8:
		return narrow(vals, func(v float64) int8 { return int8(saturate(v, math.MinInt8, math.MaxInt8)) }), nil
	case I16:
		return narrow(vals, func(v float64) int16 { return int16(saturate(v, math.MinInt16, math.MaxInt16)) }), nil
	case I32:
		return narrow(vals, func(v float64) int32 { return int32(saturate(v, math.MinInt32, math.MaxInt32)) }), nil
	case I64:
		return narrow(vals, func(v float64) int64 {
			switch {
			case math.IsNaN(v):
				return 0
			case v >= math.MaxInt64:
				return math.MaxInt64
			case v <= math.MinInt64:
				return math.MinInt64
			}
			return int64(v)
		}), nil
	case U8:
		return narrow(vals, func(v float64) uint8 { return uint8(saturate(v, 0, math.MaxUint8)) }), nil
	case U16:
		return narrow(vals, func(v float64) uint16 { return uint16(saturate(v, 0, math.MaxUint16)) }), nil
	case U32:
		return narrow(vals, func(v float64) uint32 { return uint32(saturate(v, 0, math.MaxUint32)) }), nil
	case U64:
		return narrow(vals, func(v float64) uint64 {
			switch {
			case math.IsNaN(v) || v <= 0:
				return 0
			case v >= math.MaxUint64:
				return math.MaxUint64
			}
			return uint64(v)
		}), nil
	case Bool:
		return narrow(vals, func(v float64) bool { return v != 0 }), nil
	case Complex64:
		return narrow(vals, func(v float64) complex64 { return complex(float32(v), 0) }), nil
	case Complex128:
		return narrow(vals, func(v float64) complex128 { return complex(v, 0) }), nil
	}
	return nil, fmt.Errorf("%w: to %s", ErrUnsupported, to)
}

func narrow[T any](vals []float64, f func(float64) T) []T {
	out := make([]T, len(vals))
	for i, v := range vals {
		out[i] = f(v)
	}
	return out
}

// saturate clamps v into [lo, hi] for integer targets that fit in int64.
func saturate(v, lo, hi float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < lo:
		return int64(lo)
	case v > hi:
		return int64(hi)
	}
	return int64(v)
}

// =============================================================================
// Half precision helpers
// =============================================================================

// BFloat16ToFloat32 widens bfloat16 bits: the top half of a float32.
func BFloat16ToFloat32(b uint16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// Float32ToBFloat16 truncates a float32 to bfloat16 with round-to-nearest-even.
// NaN stays NaN.
func Float32ToBFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		return uint16(bits>>16) | 0x40
	}
	rounding := uint32(0x7FFF) + (bits>>16)&1
	return uint16((bits + rounding) >> 16)
}

// Range returns the representable range of d.
func Range(d DType) (min, max float64) {
	switch d {
	case F32, Complex64:
		return -math.MaxFloat32, math.MaxFloat32
	case F64, Complex128:
		return -math.MaxFloat64, math.MaxFloat64
	case F16:
		return -65504, 65504
	case BF16:
		return -3.39e38, 3.39e38
	case I8:
		return math.MinInt8, math.MaxInt8
	case I16:
		return math.MinInt16, math.MaxInt16
	case I32:
		return math.MinInt32, math.MaxInt32
	case I64:
		return math.MinInt64, math.MaxInt64
	case U8:
		return 0, math.MaxUint8
	case U16:
		return 0, math.MaxUint16
	case U32:
		return 0, math.MaxUint32
	case U64:
		return 0, math.MaxUint64
	case Bool:
		return 0, 1
	}
	return 0, 0
}
