package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildTaskGraphPeriodicWrapScenario covers scenario S2: two
// particles near opposite faces of a periodic unit box, h=0.15, must be
// classified as interacting through the wrap with sid=4.
func TestBuildTaskGraphPeriodicWrapScenario(t *testing.T) {
	store := NewParticleStore([]Particle{
		{Pos: mgl32.Vec3{0.1, 0.5, 0.5}, H: 0.15},
		{Pos: mgl32.Vec3{0.9, 0.5, 0.5}, H: 0.15},
	})
	cfg := NewConfig()
	cfg.CellMax = 0.3
	s := NewSpace(mgl32.Vec3{1, 1, 1}, true, cfg, nil)
	s.Rebuild(store, true)

	g := BuildTaskGraph(s)

	found := false
	for _, tk := range g.Tasks {
		if tk.Kind == TaskPairDensity && tk.Ci.Count > 0 && tk.Cj.Count > 0 {
			found = true
			assert.Equal(t, 4, tk.SID, "the wrapped pair must carry direction class 4")
		}
	}
	assert.True(t, found, "the wrapped pair must be visited by a density task")
}

// TestCanonicalSIDWrapsUnderPeriodic exercises the sid canonicalisation
// directly: cells straddling the periodic boundary must resolve to the
// same sid family as adjacent cells in the interior.
func TestCanonicalSIDWrapsUnderPeriodic(t *testing.T) {
	cfg := NewConfig()
	s := NewSpace(mgl32.Vec3{1, 1, 1}, true, cfg, nil)
	s.Cdim = [3]int{10, 10, 10}

	ci := &Cell{Loc: mgl32.Vec3{0.9, 0.5, 0.5}}
	cj := &Cell{Loc: mgl32.Vec3{0.0, 0.5, 0.5}}

	sid := canonicalSID(ci, cj, s)
	if sid >= 13 {
		sid = 26 - sid
	}
	assert.Equal(t, 4, sid)
}

// TestSplitPairTaskExpandsToTableSize covers scenario S4: a pair task
// over two sufficiently-refined split cells must expand into exactly
// the {1,4,16} progeny-pairs dictated by the sid's geometric class, and
// the parent's sort-handle edges must be removed.
func TestSplitPairTaskExpandsToTableSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Stretch = 1.0

	ci := makeSplitCellFixture(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1})
	cj := makeSplitCellFixture(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 1, 1})

	g := &TaskGraph{}
	parentSortI := &Task{Kind: TaskSort, Ci: ci}
	parentSortJ := &Task{Kind: TaskSort, Ci: cj}
	pair := g.add(&Task{Kind: TaskPairDensity, Ci: ci, Cj: cj})
	ci.Sorts[4] = parentSortI
	cj.Sorts[4] = parentSortJ
	addUnlock(parentSortI, pair)
	addUnlock(parentSortJ, pair)

	s := &Space{Dim: mgl32.Vec3{3, 1, 1}, Periodic: false, Config: cfg}
	splitPairTask(g, pair, s)

	assert.Equal(t, TaskNone, pair.Kind)

	expanded := 0
	for _, tk := range g.Tasks {
		if tk != pair && tk.Kind == TaskPairDensity {
			expanded++
		}
	}
	assert.Equal(t, len(splitTable[4]), expanded, "face-touching sid=4 must expand to 16 progeny pairs")

	for _, edge := range parentSortI.unlock {
		assert.NotEqual(t, pair, edge, "parent sort handle must no longer unlock the replaced pair task")
	}
}

func makeSplitCellFixture(loc, h mgl32.Vec3) *Cell {
	c := &Cell{Loc: loc, H: h, Split: true, HMax: 0.01, Count: 1000}
	half := mgl32.Vec3{h.X() / 2, h.Y() / 2, h.Z() / 2}
	for k := 0; k < 8; k++ {
		pLoc := loc
		if k&4 != 0 {
			pLoc[0] += half.X()
		}
		if k&2 != 0 {
			pLoc[1] += half.Y()
		}
		if k&1 != 0 {
			pLoc[2] += half.Z()
		}
		progeny := &Cell{Loc: pLoc, H: half, Count: 100}
		for d := 0; d < 14; d++ {
			progeny.Sorts[d] = &Task{Kind: TaskSort, Ci: progeny}
		}
		c.Progeny[k] = progeny
	}
	return c
}

// TestTaskBudget covers scenario S5: total task count must not exceed
// 43 * tot_cells on a synthetic top grid.
func TestTaskBudget(t *testing.T) {
	store := NewParticleStore(uniformParticles(2000, 0.02, 9))
	cfg := NewConfig()
	cfg.CellMax = 0.1
	s := NewSpace(mgl32.Vec3{1, 1, 1}, false, cfg, nil)
	s.Rebuild(store, true)

	g := BuildTaskGraph(s)
	require.LessOrEqual(t, len(g.Tasks), 43*s.TotCells)
}

// TestTaskGraphAcyclic is a coarse acyclicity check: no task may appear
// as its own direct or transitive successor.
func TestTaskGraphAcyclic(t *testing.T) {
	store := NewParticleStore(uniformParticles(5000, 0.02, 10))
	cfg := NewConfig()
	cfg.CellMax = 0.1
	s := NewSpace(mgl32.Vec3{1, 1, 1}, false, cfg, nil)
	s.Rebuild(store, true)
	g := BuildTaskGraph(s)

	visiting := make(map[*Task]bool)
	visited := make(map[*Task]bool)
	var dfs func(t *Task) bool
	dfs = func(t *Task) bool {
		if visiting[t] {
			return true
		}
		if visited[t] {
			return false
		}
		visiting[t] = true
		for _, succ := range t.unlock {
			if dfs(succ) {
				return true
			}
		}
		visiting[t] = false
		visited[t] = true
		return false
	}
	for _, tk := range g.Tasks {
		require.False(t, dfs(tk), "task graph must be acyclic")
	}
}
