package engine

import (
	"fmt"
	"runtime"
)

// Kind classifies a fatal failure raised by the scheduler.
type Kind int

const (
	// ResourceExhausted covers allocation and pool-growth failures.
	ResourceExhausted Kind = iota
	// InvariantViolated covers geometry/bookkeeping invariants that a
	// correct caller should never be able to trip.
	InvariantViolated
	// KernelError wraps a failure surfaced by a physics callback.
	KernelError
)

func (k Kind) String() string {
	switch k {
	case ResourceExhausted:
		return "ResourceExhausted"
	case InvariantViolated:
		return "InvariantViolated"
	case KernelError:
		return "KernelError"
	default:
		return "Unknown"
	}
}

// Fault is the diagnostic carried by every fatal error: it pins down the
// kind of failure plus the file, function, and line of the invariant that
// tripped, per the scheduler's "no silent failure" contract.
type Fault struct {
	Kind     Kind
	Message  string
	File     string
	Function string
	Line     int
	Err      error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s at %s:%d (%s): %s: %v", f.Kind, f.File, f.Line, f.Function, f.Message, f.Err)
	}
	return fmt.Sprintf("%s at %s:%d (%s): %s", f.Kind, f.File, f.Line, f.Function, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

// newFault builds a Fault with the caller's location two frames up the
// stack (the fatalf helper itself, then its caller).
func newFault(kind Kind, err error, format string, args ...any) *Fault {
	pc, file, line, ok := runtime.Caller(2)
	fn := "unknown"
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			fn = f.Name()
		}
	}
	return &Fault{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Function: fn,
		Line:     line,
		Err:      err,
	}
}

// fatalf panics with a *Fault describing a ResourceExhausted or
// InvariantViolated condition. The scheduler has no other user-visible
// failure mode.
func fatalf(kind Kind, format string, args ...any) {
	panic(newFault(kind, nil, format, args...))
}

// fatalErrf panics with a *Fault wrapping an underlying error, used when
// rethrowing a KernelError after draining in-flight tasks.
func fatalErrf(kind Kind, err error, format string, args ...any) {
	panic(newFault(kind, err, format, args...))
}
