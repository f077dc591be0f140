package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-stack/stack"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
	"github.com/openfluke/loomfuzz/tensor"
)

// Status is the verdict on one input.
type Status int

const (
	Accepted Status = iota // the operator ran
	Starved                // too few bytes to try anything
	Rejected               // the framework refused the configuration
	Diverged               // GPU and CPU results disagree
	Fault                  // anything else: a bug
)

var statusNames = [...]string{"accepted", "starved", "rejected", "diverged", "fault"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for i, n := range statusNames {
		if n == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// Result describes one execution.
type Result struct {
	Harness string
	Status  Status
	Err     error
	Offset  int    // cursor position when the harness returned
	Stack   string // recovered panics only
	Elapsed time.Duration
}

// Code is the libFuzzer return value: -1 for a fault, 0 otherwise.
func (r Result) Code() int {
	if r.Status == Fault {
		return -1
	}
	return 0
}

// Interesting reports whether the input should be kept as a finding.
func (r Result) Interesting() bool {
	return r.Status == Fault || r.Status == Diverged
}

// PanicError wraps a value recovered from a panicking harness.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Execute runs h on data inside the one recover boundary. Inputs shorter
// than h.MinSize are Starved without being read.
func Execute(x *pods.ExecContext, h Harness, data []byte) (res Result) {
	res.Harness = h.Name()
	if len(data) < h.MinSize() {
		res.Status = Starved
		return res
	}
	c := fuzzbytes.NewCursor(data)
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		res.Offset = c.Offset()
		if r := recover(); r != nil {
			res.Status = Fault
			res.Err = &PanicError{Value: r}
			res.Stack = formatStack(stack.Trace().TrimRuntime())
		}
	}()
	err := h.Run(x, c)
	res.Status, res.Err = Classify(err), err
	return res
}

// formatStack prints one "file:line func" frame per line.
func formatStack(cs stack.CallStack) string {
	var b strings.Builder
	for _, c := range cs {
		fmt.Fprintf(&b, "%+v %n\n", c, c)
	}
	return b.String()
}

// TestOneInput is Execute reduced to the libFuzzer return convention.
func TestOneInput(x *pods.ExecContext, h Harness, data []byte) int {
	return Execute(x, h, data).Code()
}

// Classify maps a harness error onto a Status.
func Classify(err error) Status {
	var div *DivergenceError
	switch {
	case err == nil:
		return Accepted
	case errors.Is(err, fuzzbytes.ErrStarved):
		return Starved
	case errors.As(err, &div):
		return Diverged
	case pods.IsOpError(err),
		errors.Is(err, tensor.ErrInvalidShape),
		errors.Is(err, tensor.ErrTooLarge),
		errors.Is(err, fuzzbytes.ErrElementLimit):
		return Rejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The driver gave up on the input; not the operator's fault.
		return Rejected
	}
	return Fault
}
