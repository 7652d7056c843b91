package engine

import "github.com/go-gl/mathgl/mgl32"

// Cell is a node of the adaptive octree. It owns a contiguous run of
// particles (as a (base, count) view into the space's ParticleStore),
// its geometric extent, up to 8 progeny, and the bookkeeping the task
// graph builder and scheduler need.
type Cell struct {
	Loc mgl32.Vec3 // lower corner of the cell's box
	H   mgl32.Vec3 // extent along each axis; box is [Loc, Loc+H)

	Depth  int
	Split  bool
	Parent *Cell

	Progeny [8]*Cell

	Base  int // index into the space's particle store
	Count int
	HMax  float32 // max radius among owned particles

	// Sorts holds the 14 sort handles (13 real direction classes plus
	// index 13 aliased to index 12).
	Sorts [14]*Task

	NrTasks   int
	NrPairs   int
	NrDensity int
	Density   []*Task

	// Super is the highest ancestor (possibly itself) reached by walking
	// up through parents that still have at least one task attached; it
	// scopes the ghost barrier.
	Super *Cell
	Ghost *Task

	sortPerm SortPerm

	lock spinLock
}

// Lock acquires the cell's spinlock.
func (c *Cell) Lock() { c.lock.Lock() }

// TryLock attempts to acquire the cell's spinlock without blocking.
func (c *Cell) TryLock() bool { return c.lock.TryLock() }

// Unlock releases the cell's spinlock.
func (c *Cell) Unlock() { c.lock.Unlock() }

// reset clears a cell's bookkeeping for reuse from the pool. Geometry
// fields (Loc, H, Depth, Parent) are not cleared; callers of
// CellPool.Get set them explicitly.
func (c *Cell) reset() {
	c.Split = false
	c.Progeny = [8]*Cell{}
	c.Base = 0
	c.Count = 0
	c.HMax = 0
	c.Sorts = [14]*Task{}
	c.NrTasks = 0
	c.NrPairs = 0
	c.NrDensity = 0
	c.Density = c.Density[:0]
	c.Super = nil
	c.Ghost = nil
	c.sortPerm = SortPerm{}
	c.lock = spinLock{}
}

// SortPermutation returns the ordered permutation of this cell's
// particles along direction class dir, as produced by its sort task.
func (c *Cell) SortPermutation(dir int) []int32 { return c.sortPerm.Perm(dir) }

// octant returns the progeny index (0..7) that a position within this
// cell's box belongs to. Bit 2 selects x, bit 1 selects y, bit 0 selects
// z, each bit set when the coordinate is at or past the midpoint.
func (c *Cell) octant(pos mgl32.Vec3) int {
	mid := mgl32.Vec3{
		c.Loc.X() + c.H.X()/2,
		c.Loc.Y() + c.H.Y()/2,
		c.Loc.Z() + c.H.Z()/2,
	}
	idx := 0
	if pos.X() >= mid.X() {
		idx |= 4
	}
	if pos.Y() >= mid.Y() {
		idx |= 2
	}
	if pos.Z() >= mid.Z() {
		idx |= 1
	}
	return idx
}

// progenyBox returns the (loc, h) box for progeny index k of this cell.
func (c *Cell) progenyBox(k int) (loc, h mgl32.Vec3) {
	half := mgl32.Vec3{c.H.X() / 2, c.H.Y() / 2, c.H.Z() / 2}
	loc = c.Loc
	if k&4 != 0 {
		loc[0] += half.X()
	}
	if k&2 != 0 {
		loc[1] += half.Y()
	}
	if k&1 != 0 {
		loc[2] += half.Z()
	}
	return loc, half
}

// IsLeaf reports whether the cell currently has no progeny.
func (c *Cell) IsLeaf() bool { return !c.Split }

// findSuper walks up the parent chain to the highest ancestor that still
// has at least one task attached to it.
func findSuper(c *Cell) *Cell {
	super := c
	for super.Parent != nil && super.Parent.NrTasks > 0 {
		super = super.Parent
	}
	return super
}
