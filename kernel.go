package engine

// Kernel is the contract the scheduler calls into for every dispatched
// task. Implementations are physics callbacks; they are out of scope
// for this package beyond this interface. Kernels must be safe to call
// concurrently provided they never see overlapping particle slices,
// which the scheduler guarantees via per-cell locking.
type Kernel interface {
	SelfDensity(c *Cell, store *ParticleStore)
	PairDensity(ci, cj *Cell, sid int, store *ParticleStore)
	// SubDensity is called for both self-sub (cj == nil) and pair-sub
	// (cj != nil) aggregated tasks.
	SubDensity(ci, cj *Cell, sid int, store *ParticleStore)

	SelfForce(c *Cell, store *ParticleStore)
	PairForce(ci, cj *Cell, sid int, store *ParticleStore)
	SubForce(ci, cj *Cell, sid int, store *ParticleStore)

	// Ghost is called exactly once per cell per step, between the
	// density and force phases.
	Ghost(c *Cell, store *ParticleStore)
}

// KernelFailure is the error a Kernel callback reports through Fail,
// which wraps it in a *Fault of kind KernelError and panics. The Runner
// recovers that panic, lets the other workers finish, and then panics
// again with the same *Fault.
type KernelFailure struct {
	Op  string
	Err error
}

func (e *KernelFailure) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *KernelFailure) Unwrap() error { return e.Err }

// Fail panics with a *Fault of kind KernelError wrapping err. Kernel
// implementations call this instead of returning an error, matching the
// scheduler's panic-and-drain contract for fatal conditions.
func Fail(op string, err error) {
	fatalErrf(KernelError, &KernelFailure{Op: op, Err: err}, "kernel callback failed: %s", op)
}
