package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Space owns the top-level grid, the particle store, and the cell pool.
// It is the root of the adaptive octree.
type Space struct {
	Config   Config
	Dim      mgl32.Vec3
	Periodic bool

	Cdim  [3]int
	Cells []*Cell // top-level grid, linearised i + cdim[0]*(j + cdim[1]*k)

	Store *ParticleStore
	pool  *CellPool

	MaxDepth int
	TotCells int

	logger Logger
}

// NewSpace creates an empty space over the box [0, dim) with the given
// configuration. Periodic controls wrap during direction classification
// and neighbour enumeration; it may be changed between steps.
func NewSpace(dim mgl32.Vec3, periodic bool, cfg Config, logger Logger) *Space {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Space{
		Config:   cfg,
		Dim:      dim,
		Periodic: periodic,
		pool:     NewCellPool(cfg.CellAllocChunk),
		logger:   logger,
	}
}

func cellGetID(cdim [3]int, i, j, k int) int {
	return i + cdim[0]*(j+cdim[1]*k)
}

// Rebuild recomputes the top-level grid (if force is set or the particle
// radii have grown past what the current grid supports) and recurses
// into every top cell to refresh the split structure. It returns true
// if any cell's split state or progeny composition changed, signalling
// that the task graph must be rebuilt.
func (s *Space) Rebuild(store *ParticleStore, force bool) bool {
	s.Store = store
	n := store.Len()
	if n == 0 {
		return false
	}

	hMax := float32(0)
	for _, p := range store.Particles {
		if p.H > hMax {
			hMax = p.H
		}
	}

	cellSize := hMax * s.Config.Stretch
	if s.Config.CellMax > cellSize {
		cellSize = s.Config.CellMax
	}
	if cellSize <= 0 {
		fatalf(InvariantViolated, "rebuild: degenerate cell size (h_max=%v, stretch=%v, cell_max=%v)", hMax, s.Config.Stretch, s.Config.CellMax)
	}

	cdim := [3]int{
		maxInt(1, int(math.Floor(float64(s.Dim.X()/cellSize)))),
		maxInt(1, int(math.Floor(float64(s.Dim.Y()/cellSize)))),
		maxInt(1, int(math.Floor(float64(s.Dim.Z()/cellSize)))),
	}

	needsFresh := force || s.Cells == nil
	for k := 0; k < 3; k++ {
		if cdim[k] < s.Cdim[k] {
			needsFresh = true
		}
	}

	if needsFresh {
		s.allocTopGrid(cdim)
	}

	s.bucketParticles(store)

	changed := needsFresh
	for _, c := range s.Cells {
		if s.splitRecurse(c) {
			changed = true
		}
	}

	return changed
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// allocTopGrid frees all existing cells back to the pool and allocates a
// fresh uniform top-level grid of cdim[0]*cdim[1]*cdim[2] cells.
func (s *Space) allocTopGrid(cdim [3]int) {
	for _, c := range s.Cells {
		s.pool.PutTree(c)
	}

	s.Cdim = cdim
	total := cdim[0] * cdim[1] * cdim[2]
	if total <= 0 {
		fatalf(ResourceExhausted, "rebuild: non-positive top grid dimensions %v", cdim)
	}
	s.Cells = make([]*Cell, total)
	h := mgl32.Vec3{s.Dim.X() / float32(cdim[0]), s.Dim.Y() / float32(cdim[1]), s.Dim.Z() / float32(cdim[2])}

	for i := 0; i < cdim[0]; i++ {
		for j := 0; j < cdim[1]; j++ {
			for k := 0; k < cdim[2]; k++ {
				c := s.pool.Get()
				c.Loc = mgl32.Vec3{float32(i) * h.X(), float32(j) * h.Y(), float32(k) * h.Z()}
				c.H = h
				c.Depth = 0
				c.Parent = nil
				s.Cells[cellGetID(cdim, i, j, k)] = c
			}
		}
	}
	s.TotCells = total
}

// bucketParticles assigns each particle to its top cell via a parallel
// quicksort on the linearised top-cell index, then hooks up each cell's
// (base, count) view.
func (s *Space) bucketParticles(store *ParticleStore) {
	n := store.Len()
	ind := make([]int32, n)
	idim := mgl32.Vec3{float32(s.Cdim[0]) / s.Dim.X(), float32(s.Cdim[1]) / s.Dim.Y(), float32(s.Cdim[2]) / s.Dim.Z()}

	for i, p := range store.Particles {
		if !s.Periodic {
			for axis := 0; axis < 3; axis++ {
				if p.Pos[axis] < 0 || p.Pos[axis] >= s.Dim[axis] {
					fatalf(InvariantViolated, "rebuild: particle %d position %v outside non-periodic domain [0,%v)", i, p.Pos, s.Dim)
				}
			}
		}
		ci := int(math.Floor(float64(p.Pos.X() * idim.X())))
		cj := int(math.Floor(float64(p.Pos.Y() * idim.Y())))
		ck := int(math.Floor(float64(p.Pos.Z() * idim.Z())))
		ci, cj, ck = clampIdx(ci, s.Cdim[0]), clampIdx(cj, s.Cdim[1]), clampIdx(ck, s.Cdim[2])
		ind[i] = int32(cellGetID(s.Cdim, ci, cj, ck))
	}

	parallelQuicksort(store, ind, 0, s.TotCells-1)
	store.SyncCondensed()

	counts := make([]int, s.TotCells)
	for _, id := range ind {
		counts[id]++
	}
	base := 0
	for id, c := range s.Cells {
		c.Base = base
		c.Count = counts[id]
		base += counts[id]
	}
}

func clampIdx(v, dim int) int {
	if v < 0 {
		return 0
	}
	if v >= dim {
		return dim - 1
	}
	return v
}

// splitRecurse applies the split/collapse predicate to c and recurses
// into its progeny, returning true if c's split state or progeny
// composition changed.
func (s *Space) splitRecurse(c *Cell) bool {
	if c.Depth > s.MaxDepth {
		s.MaxDepth = c.Depth
	}

	if c.Count == 0 {
		if c.Split {
			s.collapse(c)
			return true
		}
		return false
	}

	hLimit := minF(c.H.X(), minF(c.H.Y(), c.H.Z())) / 2
	belowLimit := 0
	hMax := float32(0)
	for _, p := range s.Store.Slice(c.Base, c.Count) {
		if p.H <= hLimit {
			belowLimit++
		}
		if p.H > hMax {
			hMax = p.H
		}
	}
	c.HMax = hMax
	fracBelow := float32(belowLimit) / float32(c.Count)

	changed := false

	if c.Split {
		if fracBelow < s.Config.SplitRatio || c.Count < s.Config.SplitSize {
			s.collapse(c)
			changed = true
		} else {
			var prevCounts [8]int
			for k, p := range c.Progeny {
				if p != nil {
					prevCounts[k] = p.Count
				}
			}
			s.redistribute(c)
			for k, p := range c.Progeny {
				newCount := 0
				if p != nil {
					newCount = p.Count
				}
				if newCount != prevCounts[k] {
					changed = true
					break
				}
			}
		}
	} else if fracBelow >= s.Config.SplitRatio && c.Count >= s.Config.SplitSize {
		c.Split = true
		s.redistribute(c)
		changed = true
	}

	if c.Split {
		for _, p := range c.Progeny {
			if p != nil {
				if s.splitRecurse(p) {
					changed = true
				}
			}
		}
	}

	return changed
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// collapse returns all of c's progeny to the pool and clears its split
// flag. c's own (base, count) view is left untouched: it now owns its
// particles directly again.
func (s *Space) collapse(c *Cell) {
	for k := 0; k < 8; k++ {
		if c.Progeny[k] != nil {
			s.pool.PutTree(c.Progeny[k])
			c.Progeny[k] = nil
		}
	}
	c.Split = false
}

// redistribute (re)creates c's 8 progeny, partitions c's particle slice
// among them by octant, and prunes any progeny that end up empty.
func (s *Space) redistribute(c *Cell) {
	for k := 0; k < 8; k++ {
		if c.Progeny[k] == nil {
			p := s.pool.Get()
			loc, h := c.progenyBox(k)
			p.Loc, p.H = loc, h
			p.Depth = c.Depth + 1
			p.Parent = c
			c.Progeny[k] = p
		}
	}

	// Partition the slice [c.Base, c.Base+c.Count) in place by octant,
	// counting-sort style: one pass to count, one to place.
	slice := s.Store.Slice(c.Base, c.Count)
	counts := make([]int, 8)
	octants := make([]int, len(slice))
	for i, p := range slice {
		oc := c.octant(p.Pos)
		octants[i] = oc
		counts[oc]++
	}

	offsets := make([]int, 8)
	running := 0
	for k := 0; k < 8; k++ {
		offsets[k] = running
		running += counts[k]
	}

	sorted := make([]Particle, len(slice))
	cursor := append([]int(nil), offsets...)
	for i, p := range slice {
		oc := octants[i]
		sorted[cursor[oc]] = p
		cursor[oc]++
	}
	copy(slice, sorted)
	s.Store.SyncCondensed()

	for k := 0; k < 8; k++ {
		c.Progeny[k].Base = c.Base + offsets[k]
		c.Progeny[k].Count = counts[k]
		if counts[k] == 0 {
			s.pool.PutTree(c.Progeny[k])
			c.Progeny[k] = nil
		}
	}
}
