package harness

import fuzz "github.com/google/gofuzz"

// RandomInputs returns n pseudo-random inputs of up to maxLen bytes. The same
// seed always yields the same inputs.
func RandomInputs(seed int64, n, maxLen int) [][]byte {
	f := fuzz.NewWithSeed(seed).NilChance(0).NumElements(0, maxLen)
	out := make([][]byte, n)
	for i := range out {
		f.Fuzz(&out[i])
	}
	return out
}
