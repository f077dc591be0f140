package pods

import "math"

type ImageFrame struct {
	W, H   int
	Pixels []float32 // interleaved, Channels() values per pixel
	Stride int       // values per row; 0 means W*Channels()
	Format string    // "RGB" or "RGBA"
}

// Channels returns the interleaved channel count implied by Format.
func (f ImageFrame) Channels() int {
	if f.Format == "RGBA" {
		return 4
	}
	return 3
}

type AudioBuffer struct {
	SampleRate int
	Channels   int
	Samples    [][]float32 // [ch][n]
}

// maxElements bounds every allocation a pod makes from caller-supplied sizes.
const maxElements = 1 << 22

// checkedMul multiplies non-negative sizes, reporting false on a negative
// factor or when the product passes maxElements.
func checkedMul(dims ...int) (int, bool) {
	n := 1
	for _, d := range dims {
		if d < 0 {
			return 0, false
		}
		if d != 0 && n > maxElements/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
