package harness

import (
	"fmt"
	"math"
)

// DivergenceError reports two implementations of one operator disagreeing.
type DivergenceError struct {
	Op        string
	Index     int
	Want, Got float64
	Tol       float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%s: diverged at %d: want %g, got %g (tol %g)", e.Op, e.Index, e.Want, e.Got, e.Tol)
}

// Number is what Compare can diff.
type Number interface {
	~float32 | ~float64 | ~uint32 | ~int32
}

// Compare checks got against the reference want elementwise with a mixed
// tolerance |w-g| <= tol*(1+|w|). NaN matches only NaN and an infinity only
// the same infinity. A length mismatch is a plain error: the backend returned
// the wrong shape.
func Compare[T Number](op string, want, got []T, tol float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("%s: reference has %d values, backend %d", op, len(want), len(got))
	}
	for i := range want {
		w, g := float64(want[i]), float64(got[i])
		switch {
		case math.IsNaN(w) || math.IsNaN(g):
			if math.IsNaN(w) && math.IsNaN(g) {
				continue
			}
		case math.IsInf(w, 0) || math.IsInf(g, 0):
			if w == g {
				continue
			}
		case w == g || math.Abs(w-g) <= tol*(1+math.Abs(w)):
			continue
		}
		return &DivergenceError{Op: op, Index: i, Want: w, Got: g, Tol: tol}
	}
	return nil
}
