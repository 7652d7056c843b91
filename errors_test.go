package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestFatalfPanicsWithFault(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected fatalf to panic")
		}
		f, ok := rec.(*Fault)
		if !ok {
			t.Fatalf("expected *Fault, got %T", rec)
		}
		if f.Kind != InvariantViolated {
			t.Errorf("expected InvariantViolated, got %v", f.Kind)
		}
		if !strings.Contains(f.Error(), "errors_test.go") {
			t.Errorf("expected diagnostic to name the source file, got %q", f.Error())
		}
	}()
	fatalf(InvariantViolated, "bad state: %d", 7)
}

func TestFatalErrfWrapsUnderlying(t *testing.T) {
	defer func() {
		rec := recover()
		f, ok := rec.(*Fault)
		if !ok {
			t.Fatalf("expected *Fault, got %T", rec)
		}
		if !errors.Is(f, errBoom) {
			t.Errorf("expected Unwrap to reach the sentinel error")
		}
		if f.Kind != KernelError {
			t.Errorf("expected KernelError, got %v", f.Kind)
		}
	}()
	fatalErrf(KernelError, errBoom, "kernel exploded")
}

var errBoom = errors.New("boom")

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		ResourceExhausted: "ResourceExhausted",
		InvariantViolated:  "InvariantViolated",
		KernelError:        "KernelError",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
