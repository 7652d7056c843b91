package engine

import "sync/atomic"

// TaskKind tags the shape of a Task's work. A task may be demoted to
// TaskNone during graph pruning (recursively split parent tasks, and
// sort tasks with no remaining successors); a None task is still walked
// by the scheduler as a zero-cost relay that decrements its successors.
type TaskKind int

const (
	TaskNone TaskKind = iota
	TaskSort
	TaskSelfDensity
	TaskPairDensity
	TaskSubDensity
	TaskSelfForce
	TaskPairForce
	TaskSubForce
	TaskGhost
)

func (k TaskKind) String() string {
	switch k {
	case TaskNone:
		return "none"
	case TaskSort:
		return "sort"
	case TaskSelfDensity:
		return "self_density"
	case TaskPairDensity:
		return "pair_density"
	case TaskSubDensity:
		return "sub_density"
	case TaskSelfForce:
		return "self_force"
	case TaskPairForce:
		return "pair_force"
	case TaskSubForce:
		return "sub_force"
	case TaskGhost:
		return "ghost"
	default:
		return "unknown"
	}
}

// isDensity and isForce classify which phase a task belongs to.
func (k TaskKind) isDensity() bool {
	return k == TaskSelfDensity || k == TaskPairDensity || k == TaskSubDensity
}

func (k TaskKind) isForce() bool {
	return k == TaskSelfForce || k == TaskPairForce || k == TaskSubForce
}

func (k TaskKind) isSort() bool { return k == TaskSort }

// Task is a unit of scheduled work. It is immutable after creation
// except for Kind (may be zeroed to TaskNone), Flags (sort direction
// mask), Ci, Cj and SID (reassigned when a pair task becomes a sub
// task), and the atomic wait counter and taken flag.
type Task struct {
	Kind  TaskKind
	Flags uint16
	SID   int // direction class, meaningful for pair/sub tasks

	Ci, Cj *Cell

	wait     atomic.Int32
	taken    atomic.Bool
	unlock   []*Task
	inDegree int32 // wait's value once the graph is fully wired; restored by reset
}

// addUnlock registers dst as a successor of src: when src completes,
// dst's wait count is decremented. A nil src is a no-op, matching the
// "sort task pruned to nothing" case.
func addUnlock(src, dst *Task) {
	if src == nil || dst == nil {
		return
	}
	src.unlock = append(src.unlock, dst)
	dst.wait.Add(1)
}

// removeUnlock removes a single instance of dst from src's successor
// list and decrements dst's wait count to match, used when a parent pair
// task is replaced by its progeny expansion.
func removeUnlock(src, dst *Task) {
	if src == nil || dst == nil {
		return
	}
	for i, t := range src.unlock {
		if t == dst {
			src.unlock = append(src.unlock[:i], src.unlock[i+1:]...)
			dst.wait.Add(-1)
			return
		}
	}
}

// ready reports whether the task's wait count has reached zero and it
// has not yet been claimed by a worker.
func (t *Task) ready() bool {
	return t.wait.Load() <= 0 && !t.taken.Load()
}

// snapshotInDegree records the task's current wait count as its
// in-degree, called once the graph is fully wired (after which no more
// addUnlock/removeUnlock calls touch it). reset uses this to restore
// the task to its pre-run state so the same graph can be driven again.
func (t *Task) snapshotInDegree() {
	t.inDegree = t.wait.Load()
}

// reset restores the task to its freshly-built state: wait count back
// to its in-degree, and the taken flag cleared, so a Runner can drive
// the same TaskGraph through another step without rebuilding it.
func (t *Task) reset() {
	t.wait.Store(t.inDegree)
	t.taken.Store(false)
}

// tryTake attempts to atomically claim this task for execution.
func (t *Task) tryTake() bool {
	return t.taken.CompareAndSwap(false, true)
}

// cells returns the 1 or 2 cells this task needs locked before it may
// dispatch to the kernel.
func (t *Task) cells() []*Cell {
	if t.Cj != nil {
		return []*Cell{t.Ci, t.Cj}
	}
	return []*Cell{t.Ci}
}
