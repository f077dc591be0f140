package pods

import (
	"errors"
	"fmt"
)

// Single canonical error used across CPU/GPU builds.
var ErrNoGPU = errors.New("gpu unavailable (build with -tags=gpu to enable)")

// Configuration errors an operator reports for inputs it refuses.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrUnsupportedType = errors.New("unsupported type")
)

// OpError is the error every pod returns for a configuration it rejects.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op string, kind error, format string, args ...any) error {
	return &OpError{Op: op, Err: wrapf(kind, format, args...)}
}

// IsOpError reports whether err is, or wraps, an operator rejection.
func IsOpError(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}

// inputErr reports a pod called with the wrong input struct. That is a bug in
// the caller, so it deliberately is not an *OpError.
func inputErr(op string, in any) error {
	return fmt.Errorf("%s: unexpected input %T", op, in)
}

func wrapf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
