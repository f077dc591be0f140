//go:build !gpu

package detector

// Detect always fails without the gpu build tag.
func Detect() (*Report, error) { return nil, ErrUnavailable }
