package engine

import (
	"sort"
	"sync"
)

// sidAxis gives a representative integer offset vector for each of the
// 13 direction classes, used as the projection axis when building a
// cell's per-direction sort permutation.
var sidAxis = [13][3]int{
	{-1, -1, -1}, {-1, -1, 0}, {-1, -1, 1},
	{-1, 0, -1}, {-1, 0, 0}, {-1, 0, 1},
	{-1, 1, -1}, {-1, 1, 0}, {-1, 1, 1},
	{0, -1, -1}, {0, -1, 0}, {0, -1, 1},
	{0, 0, -1},
}

// SortPerm holds, per direction class, the permutation of a cell's
// particle indices (0..count-1, relative to the cell's base) ordered by
// projection onto that direction's axis.
type SortPerm struct {
	perms [13][]int32
}

// Perm returns the permutation for direction class dir (0..12), or nil
// if it has not been computed.
func (s *SortPerm) Perm(dir int) []int32 { return s.perms[dir] }

// sortCellDirection builds the ordered permutation of c's particles
// along direction class dir and stores it on dest.
func sortCellDirection(c *Cell, store *ParticleStore, dest *SortPerm, dir int) {
	n := c.Count
	perm := make([]int32, n)
	for i := range perm {
		perm[i] = int32(i)
	}
	axis := sidAxis[dir]
	proj := func(i int32) float32 {
		p := store.Condensed[c.Base+int(i)].Pos
		return p.X()*float32(axis[0]) + p.Y()*float32(axis[1]) + p.Z()*float32(axis[2])
	}
	sort.Slice(perm, func(i, j int) bool {
		return proj(perm[i]) < proj(perm[j])
	})
	dest.perms[dir] = perm
}

// runSortTask executes a sort task: for every direction bit set in
// flags, (re)builds that direction's permutation on the cell.
func runSortTask(c *Cell, store *ParticleStore, dest *SortPerm, flags uint16) {
	for dir := 0; dir < 13; dir++ {
		if flags&(1<<uint(dir)) != 0 {
			sortCellDirection(c, store, dest, dir)
		}
	}
}

const (
	insertionCutoff = 16
	parallelCutoff  = 100
)

// parallelQuicksort sorts store's particles and condensed mirror in
// lockstep by the integer keys in ind, whose values lie in the inclusive
// bucket-index range [lo, hi]. It mirrors the
// reference bucket sort: insertion sort below insertionCutoff elements,
// otherwise a single quicksort partition around pivot=(lo+hi)/2 followed
// by a one-time verification of the partition before recursing (the two
// halves verified are [0,j] and [i,N), matching what the partition pass
// itself establishes). Recursion fans out onto goroutines when both
// halves still need sorting and each is at least parallelCutoff
// elements wide; otherwise the halves are sorted one after the other.
func parallelQuicksort(store *ParticleStore, ind []int32, lo, hi int) {
	n := len(ind)
	if n < 2 {
		return
	}

	if n < insertionCutoff {
		for i := 1; i < n; i++ {
			j := i
			for j > 0 && ind[j-1] > ind[j] {
				ind[j-1], ind[j] = ind[j], ind[j-1]
				store.Swap(j-1, j)
				j--
			}
		}
		return
	}

	pivot := int32((lo + hi) / 2)
	i, j := 0, n-1
	for i < j {
		for i < n && ind[i] <= pivot {
			i++
		}
		for j >= 0 && ind[j] > pivot {
			j--
		}
		if i < j {
			ind[i], ind[j] = ind[j], ind[i]
			store.Swap(i, j)
		}
	}

	for k := 0; k <= j; k++ {
		if ind[k] > pivot {
			fatalf(InvariantViolated, "parts_sort: left partition element %d has key %d > pivot %d", k, ind[k], pivot)
		}
	}
	for k := i; k < n; k++ {
		if ind[k] <= pivot {
			fatalf(InvariantViolated, "parts_sort: right partition element %d has key %d <= pivot %d", k, ind[k], pivot)
		}
	}

	// Recurse only where the partition actually narrowed the range; a
	// bucket of keys all equal to pivot leaves j==-1 or i==n (or pivot
	// sitting on the range boundary), and recursing there would hand the
	// identical [lo,hi] range to the same slice forever.
	recurseLeft := j > 0 && pivot > int32(lo)
	recurseRight := i < n && int(pivot)+1 < hi
	leftInd, rightInd := ind[:j+1], ind[i:]
	leftStore := &ParticleStore{Particles: store.Particles[:j+1], Condensed: store.Condensed[:j+1]}
	rightStore := &ParticleStore{Particles: store.Particles[i:], Condensed: store.Condensed[i:]}

	if recurseLeft && recurseRight && len(leftInd) >= parallelCutoff && len(rightInd) >= parallelCutoff {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			parallelQuicksort(leftStore, leftInd, lo, int(pivot))
		}()
		go func() {
			defer wg.Done()
			parallelQuicksort(rightStore, rightInd, int(pivot)+1, hi)
		}()
		wg.Wait()
	} else {
		if recurseLeft {
			parallelQuicksort(leftStore, leftInd, lo, int(pivot))
		}
		if recurseRight {
			parallelQuicksort(rightStore, rightInd, int(pivot)+1, hi)
		}
	}
}
