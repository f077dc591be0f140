// Package tensor decodes typed, shaped tensors out of fuzz input and converts
// between element types.
package tensor

import (
	"fmt"
	"strings"

	"github.com/openfluke/loomfuzz/fuzzbytes"
)

// =============================================================================
// Element types
// =============================================================================

// DType tags the element type of a Payload.
type DType uint8

const (
	F32 DType = iota
	F64
	F16
	BF16
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	Bool
	Complex64
	Complex128
	String
)

var dtypeNames = [...]string{
	F32: "F32", F64: "F64", F16: "F16", BF16: "BF16",
	I8: "I8", I16: "I16", I32: "I32", I64: "I64",
	U8: "U8", U16: "U16", U32: "U32", U64: "U64",
	Bool: "BOOL", Complex64: "C64", Complex128: "C128", String: "STRING",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", uint8(d))
}

// ParseDType looks a type up by name, case-insensitively.
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if strings.EqualFold(name, s) {
			return DType(i), nil
		}
	}
	return 0, fmt.Errorf("tensor: unknown dtype %q", s)
}

// Size returns the encoded element width in bytes. String is variable width
// and reports 0.
func (d DType) Size() int {
	switch d {
	case I8, U8, Bool:
		return 1
	case F16, BF16, I16, U16:
		return 2
	case F32, I32, U32:
		return 4
	case F64, I64, U64, Complex64:
		return 8
	case Complex128:
		return 16
	}
	return 0
}

// IsFloat reports whether d is a real floating point type.
func (d DType) IsFloat() bool {
	return d == F32 || d == F64 || d == F16 || d == BF16
}

// IsInteger reports whether d is a signed or unsigned integer type.
func (d DType) IsInteger() bool {
	return d >= I8 && d <= U64
}

// IsComplex reports whether d is a complex type.
func (d DType) IsComplex() bool {
	return d == Complex64 || d == Complex128
}

// =============================================================================
// Type sets
// =============================================================================

// Set is an ordered list of types a selector byte chooses from. The order is
// part of the input format.
type Set []DType

// Select maps a selector byte onto the set. An empty set yields F32.
func (s Set) Select(b byte) DType {
	if len(s) == 0 {
		return F32
	}
	return s[fuzzbytes.SelectEnum(b, len(s))]
}

// Contains reports whether d is in the set.
func (s Set) Contains(d DType) bool {
	for _, x := range s {
		if x == d {
			return true
		}
	}
	return false
}

var (
	// AllTypes is the general-purpose type list, in selector order.
	AllTypes = Set{F32, F64, F16, BF16, Complex64, Complex128, I8, U8, I16, I32, I64, Bool}

	// FloatTypes covers the low and single precision floats the GPU path handles.
	FloatTypes = Set{F16, F32}

	NumericTypes = Set{F32, F64, I8, I16, I32, I64, U8, U16, U32, U64}
)
