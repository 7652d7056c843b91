package engine

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Runner is the worker-thread pool that drives a TaskGraph to
// completion. Each worker repeatedly finds a ready, untaken task,
// acquires the 1 or 2 cell locks it needs, dispatches it to the kernel,
// and decrements its successors' wait counts.
type Runner struct {
	Workers int
	logger  Logger
}

// NewRunner creates a runner with the given worker count. A count <= 0
// defaults to GOMAXPROCS, capped at 8 to match the teacher's worker-pool
// convention for CPU-bound fan-out.
func NewRunner(workers int, logger Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
		if workers > 8 {
			workers = 8
		}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Runner{Workers: workers, logger: logger}
}

// Run resets g to its freshly-built wait/taken state and drives every
// task to completion against store, recovering a KernelError panic from
// a worker, draining the remaining in-flight tasks, and rethrowing it
// once all workers have stopped. It returns the number of tasks
// actually dispatched (TaskNone relays do not count). Resetting makes
// Run safe to call repeatedly against the same graph, which is what
// happens across steps whose tree did not change enough to need a
// rebuild.
func (r *Runner) Run(g *TaskGraph, store *ParticleStore, kernel Kernel) int {
	n := len(g.Tasks)
	if n == 0 {
		return 0
	}

	g.Reset()
	order := rand.Perm(n)

	var dispatched atomic.Int32
	var wg sync.WaitGroup
	var once sync.Once
	var kernelFault *Fault

	for w := 0; w < r.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					if f, ok := rec.(*Fault); ok && f.Kind == KernelError {
						once.Do(func() { kernelFault = f })
						return
					}
					panic(rec)
				}
			}()
			r.workerLoop(g, order, store, kernel, &dispatched)
		}()
	}
	wg.Wait()

	if kernelFault != nil {
		panic(kernelFault)
	}

	return int(dispatched.Load())
}

func (r *Runner) workerLoop(g *TaskGraph, order []int, store *ParticleStore, kernel Kernel, dispatched *atomic.Int32) {
	remaining := len(order)
	for remaining > 0 {
		progressed := false
		for _, idx := range order {
			t := g.Tasks[idx]
			if !t.ready() || !t.tryTake() {
				continue
			}
			progressed = true
			remaining--
			r.execute(t, store, kernel)
			if t.Kind != TaskNone {
				dispatched.Add(1)
			}
			for _, succ := range t.unlock {
				succ.wait.Add(-1)
			}
		}
		if !progressed {
			return
		}
	}
}

// execute acquires the cell locks a task needs (in address order, to
// avoid deadlock between two workers racing the same pair), dispatches
// to the kernel, and releases them. TaskNone is a zero-cost relay.
func (r *Runner) execute(t *Task, store *ParticleStore, kernel Kernel) {
	if t.Kind == TaskNone {
		return
	}

	cells := t.cells()
	if len(cells) == 2 && cellAddrLess(cells[1], cells[0]) {
		cells[0], cells[1] = cells[1], cells[0]
	}
	for _, c := range cells {
		c.Lock()
	}
	defer func() {
		for _, c := range cells {
			c.Unlock()
		}
	}()

	switch t.Kind {
	case TaskSort:
		runSortTask(t.Ci, store, &t.Ci.sortPerm, t.Flags)

	case TaskSelfDensity:
		kernel.SelfDensity(t.Ci, store)
	case TaskPairDensity:
		kernel.PairDensity(t.Ci, t.Cj, t.SID, store)
	case TaskSubDensity:
		kernel.SubDensity(t.Ci, t.Cj, t.SID, store)

	case TaskSelfForce:
		kernel.SelfForce(t.Ci, store)
	case TaskPairForce:
		kernel.PairForce(t.Ci, t.Cj, t.SID, store)
	case TaskSubForce:
		kernel.SubForce(t.Ci, t.Cj, t.SID, store)

	case TaskGhost:
		kernel.Ghost(t.Ci, store)
	}
}

// cellAddrLess orders two cells by pointer identity so a 2-cell task
// always acquires locks in the same global order regardless of which
// cell is ci vs cj.
func cellAddrLess(a, b *Cell) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}
