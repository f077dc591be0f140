package fuzzbytes

import (
	"errors"
	"fmt"
	"math"
)

// ErrElementLimit is returned when a decoded shape describes more elements
// than the grammar allows.
var ErrElementLimit = errors.New("fuzzbytes: element count over limit")

// DefaultMaxElements bounds Elements and Strings steps when a grammar sets no
// limit of its own.
const DefaultMaxElements = 1 << 16

// Kind selects what a Step decodes.
type Kind int

const (
	KindEnum     Kind = iota // one selector byte mod N
	KindRange                // one byte mapped into [Min, Max]
	KindDim                  // 8-byte dimension in [Min, Max]
	KindDim8                 // 1-byte dimension in [Min, Max]
	KindShape                // Rank(From) dimensions in [Min, Max]
	KindBool                 // one byte, odd = true
	KindUnit                 // one byte scaled to [0, 1]
	KindFloat                // float32 clamped to [Lo, Hi]
	KindElements             // product(Shape(From)) values via Fill
	KindStrings              // product(Shape(From)) strings, lengths in [Min, Max]
)

var kindNames = [...]string{"enum", "range", "dim", "dim8", "shape", "bool", "unit", "float", "elements", "strings"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FillFunc decodes n elements from the cursor.
type FillFunc func(c *Cursor, n int) any

// FillOf returns a FillFunc that decodes values of type T.
func FillOf[T Element]() FillFunc {
	return func(c *Cursor, n int) any { return Fill[T](c, n) }
}

// Step is one positional field of a harness input.
type Step struct {
	Kind Kind
	Name string

	N        int     // KindEnum: number of choices
	Min, Max int64   // bounds for ranges, dimensions and string lengths
	Lo, Hi   float64 // KindFloat bounds
	Def      any     // value used when the input is exhausted (enum, bool, unit, float, strings)

	From string   // KindShape: rank step; KindElements/KindStrings: shape step
	Fill FillFunc // KindElements
}

// Grammar is the ordered list of fields a harness decodes. Two harnesses
// decoding the same bytes with different grammars will in general see
// different values; the order is the wire format.
type Grammar struct {
	Steps       []Step
	MaxElements int
}

// Record holds decoded values by step name.
type Record map[string]any

// Decode runs every step in order against c. It only fails when the grammar
// itself is malformed or a shape exceeds the element limit; running out of
// input never fails.
func (g Grammar) Decode(c *Cursor) (Record, error) {
	rec := make(Record, len(g.Steps))
	limit := g.MaxElements
	if limit <= 0 {
		limit = DefaultMaxElements
	}
	for _, s := range g.Steps {
		if s.Name == "" {
			return nil, fmt.Errorf("fuzzbytes: %s step without a name", s.Kind)
		}
		switch s.Kind {
		case KindEnum:
			rec[s.Name] = c.Enum(s.N, defInt(s.Def))
		case KindRange:
			rec[s.Name] = c.Range(int(s.Min), int(s.Max))
		case KindDim:
			rec[s.Name] = c.Dimension(s.Min, s.Max)
		case KindDim8:
			rec[s.Name] = c.Dimension8(s.Min, s.Max)
		case KindShape:
			rank, ok := rec[s.From].(int)
			if !ok {
				return nil, fmt.Errorf("fuzzbytes: shape %q needs an int rank from %q", s.Name, s.From)
			}
			rec[s.Name] = c.Shape(rank, s.Min, s.Max)
		case KindBool:
			def, _ := s.Def.(bool)
			rec[s.Name] = c.Bool(def)
		case KindUnit:
			def, _ := s.Def.(float64)
			rec[s.Name] = c.Unit(def)
		case KindFloat:
			def, _ := s.Def.(float64)
			rec[s.Name] = c.FloatIn(s.Lo, s.Hi, def)
		case KindElements, KindStrings:
			n, err := rec.count(s, limit)
			if err != nil {
				return nil, err
			}
			if s.Kind == KindStrings {
				def, _ := s.Def.(string)
				rec[s.Name] = c.Strings(n, int(s.Min), int(s.Max), def)
				break
			}
			if s.Fill == nil {
				return nil, fmt.Errorf("fuzzbytes: elements %q without a fill func", s.Name)
			}
			rec[s.Name] = s.Fill(c, n)
		default:
			return nil, fmt.Errorf("fuzzbytes: unknown step kind %s", s.Kind)
		}
	}
	return rec, nil
}

func (r Record) count(s Step, limit int) (int, error) {
	shape, ok := r[s.From].([]int64)
	if !ok {
		return 0, fmt.Errorf("fuzzbytes: %q needs a shape from %q", s.Name, s.From)
	}
	n, ok := NumElements(shape)
	if !ok || n > int64(limit) {
		return 0, fmt.Errorf("%w: %q has shape %v", ErrElementLimit, s.Name, shape)
	}
	return int(n), nil
}

// NumElements multiplies the dimensions of shape. It reports false for a
// negative dimension or on int64 overflow. The empty shape has one element.
func NumElements(shape []int64) (int64, bool) {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return 0, false
		}
		if d > 0 && n > math.MaxInt64/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func defInt(v any) int {
	i, _ := v.(int)
	return i
}

// Int returns the int stored under name, or 0.
func (r Record) Int(name string) int {
	v, _ := r[name].(int)
	return v
}

// Int64 returns the int64 stored under name, or 0.
func (r Record) Int64(name string) int64 {
	v, _ := r[name].(int64)
	return v
}

// Bool returns the bool stored under name.
func (r Record) Bool(name string) bool {
	v, _ := r[name].(bool)
	return v
}

// Float returns the float64 stored under name.
func (r Record) Float(name string) float64 {
	v, _ := r[name].(float64)
	return v
}

// Shape returns the shape stored under name.
func (r Record) Shape(name string) []int64 {
	v, _ := r[name].([]int64)
	return v
}

// Strings returns the strings stored under name.
func (r Record) Strings(name string) []string {
	v, _ := r[name].([]string)
	return v
}

// Elements returns the typed elements stored under name.
func Elements[T Element](r Record, name string) []T {
	v, _ := r[name].([]T)
	return v
}
