package engine

// TaskGraph is the dependency DAG produced for one simulation step: a
// flat list of tasks plus, per cell, the bookkeeping the scheduler and
// physics kernels read back (sort handles, density task list, ghost).
type TaskGraph struct {
	Tasks []*Task
}

func (g *TaskGraph) add(t *Task) *Task {
	g.Tasks = append(g.Tasks, t)
	return t
}

// Reset restores every task's wait count and taken flag to the state
// BuildTaskGraph left them in, so a Runner can drive the same graph
// through another step without rebuilding it (the tree-unchanged case).
func (g *TaskGraph) Reset() {
	for _, t := range g.Tasks {
		t.reset()
	}
}

// BuildTaskGraph enumerates sort, self, pair, sub, and ghost tasks for
// the space's current cell structure, wiring up the sort-barrier,
// ghost-barrier, and density/force-phase edges described in the design.
// The pre-sized capacity hint (43 per cell) matches the empirically safe
// upper bound for the fan-out below; exceeding it is a bug in this
// function, not a caller error, so it is still reported as fatal.
func BuildTaskGraph(s *Space) *TaskGraph {
	g := &TaskGraph{Tasks: make([]*Task, 0, 43*s.TotCells)}

	for _, c := range s.Cells {
		makeSortTasksRecursive(g, c)
	}

	enumerateTopLevelPairs(g, s)

	splitTasks(g, s)

	pruneDeadSorts(g)

	countCellTasks(g)

	assignSupersAndGhosts(g, s)

	addForcePhase(g)

	checkBudget(g, s.TotCells)

	for _, t := range g.Tasks {
		t.snapshotInDegree()
	}

	return g
}

func checkBudget(g *TaskGraph, totCells int) {
	limit := 43 * totCells
	if len(g.Tasks) > limit {
		fatalf(InvariantViolated, "task graph: %d tasks exceeds budget %d (43 * %d cells)", len(g.Tasks), limit, totCells)
	}
}

// makeSortTasksRecursive creates a cell's sort task(s), sized by
// particle count per the three-tier scheme (1, 2, or 7 tasks), then
// recurses into progeny and wires child-sort -> parent-sort edges so a
// parent's sort never starts before the matching child sort.
func makeSortTasksRecursive(g *TaskGraph, c *Cell) {
	if c.Count > 0 {
		switch {
		case c.Count < 1000:
			t := g.add(&Task{Kind: TaskSort, Ci: c, Flags: 0x1fff})
			for k := 0; k < 13; k++ {
				c.Sorts[k] = t
			}
			c.Sorts[13] = c.Sorts[12]

		case c.Count < 5000:
			t1 := g.add(&Task{Kind: TaskSort, Ci: c, Flags: 0x7f})
			for k := 0; k < 7; k++ {
				c.Sorts[k] = t1
			}
			t2 := g.add(&Task{Kind: TaskSort, Ci: c, Flags: 0x1f80})
			for k := 7; k < 14; k++ {
				c.Sorts[k] = t2
			}

		default:
			pairFlags := [7]uint16{0x1 | 0x2, 0x4 | 0x8, 0x10 | 0x20, 0x40 | 0x80, 0x100 | 0x200, 0x400 | 0x800, 0x1000}
			for pair := 0; pair < 7; pair++ {
				t := g.add(&Task{Kind: TaskSort, Ci: c, Flags: pairFlags[pair]})
				lo := pair * 2
				c.Sorts[lo] = t
				if lo+1 < 14 {
					c.Sorts[lo+1] = t
				}
			}
		}
	}

	if !c.Split {
		return
	}
	for _, child := range c.Progeny {
		if child == nil {
			continue
		}
		makeSortTasksRecursive(g, child)
		// Dedup on the (child task, parent task) pair itself, not on
		// either side's own tier-boundary alone: a child's tier boundary
		// can fall strictly inside one of the parent's task groups (e.g.
		// a tier2 child's split at j=7 inside a tier3 parent's j=6/7
		// pair), and checking only c.Sorts[j] != c.Sorts[j-1] would then
		// silently drop that child sort task as a predecessor.
		type edge struct{ child, parent *Task }
		seen := make(map[edge]bool, 14)
		for j := 0; j < 14; j++ {
			e := edge{child.Sorts[j], c.Sorts[j]}
			if seen[e] {
				continue
			}
			seen[e] = true
			addUnlock(child.Sorts[j], c.Sorts[j])
		}
	}
}

// enumerateTopLevelPairs emits one self(density) task per occupied top
// cell and one pair(density) task per occupied, non-duplicate neighbour
// of the 26 offsets, wrapping under periodic boundaries.
func enumerateTopLevelPairs(g *TaskGraph, s *Space) {
	cdim := s.Cdim
	for i := 0; i < cdim[0]; i++ {
		for j := 0; j < cdim[1]; j++ {
			for k := 0; k < cdim[2]; k++ {
				cid := cellGetID(cdim, i, j, k)
				ci := s.Cells[cid]
				if ci.Count == 0 {
					continue
				}
				g.add(&Task{Kind: TaskSelfDensity, Ci: ci})

				// seen guards against a small periodic cdim (1 or 2 cells
				// along an axis) wrapping two distinct offsets onto the same
				// neighbour: without it the same (ci, cj) pair would get a
				// second, duplicate TaskPairDensity.
				seen := make(map[int]bool, 26)
				for di := -1; di <= 1; di++ {
					ii, ok := wrap(i+di, cdim[0], s.Periodic)
					if !ok {
						continue
					}
					for dj := -1; dj <= 1; dj++ {
						jj, ok := wrap(j+dj, cdim[1], s.Periodic)
						if !ok {
							continue
						}
						for dk := -1; dk <= 1; dk++ {
							kk, ok := wrap(k+dk, cdim[2], s.Periodic)
							if !ok {
								continue
							}
							cjd := cellGetID(cdim, ii, jj, kk)
							if s.Cells[cjd].Count == 0 || cid >= cjd || seen[cjd] {
								continue
							}
							seen[cjd] = true
							cj := s.Cells[cjd]
							dir := directionClass(di, dj, dk)
							t := g.add(&Task{Kind: TaskPairDensity, Ci: ci, Cj: cj, SID: dir})
							addUnlock(ci.Sorts[dir], t)
							addUnlock(cj.Sorts[dir], t)
							ci.NrPairs++
							cj.NrPairs++
						}
					}
				}
			}
		}
	}
}

func wrap(v, dim int, periodic bool) (int, bool) {
	if !periodic {
		if v < 0 || v >= dim {
			return 0, false
		}
		return v, true
	}
	return ((v % dim) + dim) % dim, true
}

// splitTasks walks the task list, expanding self tasks over split cells
// into progeny self/pair tasks, and expanding pair tasks over two split
// cells into the progeny-progeny expansion dictated by splitTable (or a
// single sub task when both cells are small enough). The slice grows
// during iteration as new tasks are appended, matching the reference
// builder's recycle-the-current-slot iteration.
func splitTasks(g *TaskGraph, s *Space) {
	for idx := 0; idx < len(g.Tasks); idx++ {
		t := g.Tasks[idx]

		switch t.Kind {
		case TaskSelfDensity:
			splitSelfTask(g, t, s.Config)

		case TaskPairDensity:
			splitPairTask(g, t, s)
		}
	}
}

func splitSelfTask(g *TaskGraph, t *Task, cfg Config) {
	ci := t.Ci
	if !ci.Split {
		return
	}

	if ci.Count < cfg.SubSize {
		t.Kind = TaskSubDensity
		for k := 0; k < 14; k++ {
			if k == 0 || ci.Sorts[k] != ci.Sorts[k-1] {
				addUnlock(ci.Sorts[k], t)
			}
		}
		return
	}

	t.Kind = TaskNone
	for k := 0; k < 8; k++ {
		if ci.Progeny[k] != nil {
			g.add(&Task{Kind: TaskSelfDensity, Ci: ci.Progeny[k]})
		}
	}
	for j := 0; j < 8; j++ {
		if ci.Progeny[j] == nil || ci.Progeny[j].Count == 0 {
			continue
		}
		for k := j + 1; k < 8; k++ {
			if ci.Progeny[k] == nil || ci.Progeny[k].Count == 0 {
				continue
			}
			dir := progenyPairDirection(j, k)
			pt := g.add(&Task{Kind: TaskPairDensity, Ci: ci.Progeny[j], Cj: ci.Progeny[k], SID: dir})
			addUnlock(ci.Progeny[j].Sorts[dir], pt)
			addUnlock(ci.Progeny[k].Sorts[dir], pt)
			ci.Progeny[j].NrPairs++
			ci.Progeny[k].NrPairs++
		}
	}
}

func splitPairTask(g *TaskGraph, t *Task, s *Space) {
	cfg := s.Config
	ci, cj := t.Ci, t.Cj
	hi := maxF3(ci.H)
	hj := maxF3(cj.H)

	if !(ci.Split && cj.Split && ci.HMax*cfg.Stretch < hi/2 && cj.HMax*cfg.Stretch < hj/2) {
		return
	}

	sid := canonicalSID(ci, cj, s)
	if sid < 13 {
		ci, cj = cj, ci
	} else {
		sid = 26 - sid
	}

	if ci.Count < cfg.SubSize && cj.Count < cfg.SubSize && !isCornerSid(sid) {
		t.Kind = TaskSubDensity
		t.Ci, t.Cj = ci, cj
		t.SID = sid
		for j := 0; j < 8; j++ {
			if ci.Progeny[j] != nil {
				for k := 0; k < 14; k++ {
					addUnlock(ci.Progeny[j].Sorts[k], t)
				}
			}
			if cj.Progeny[j] != nil {
				for k := 0; k < 14; k++ {
					addUnlock(cj.Progeny[j].Sorts[k], t)
				}
			}
		}
		return
	}

	removeUnlock(ci.Sorts[sid], t)
	removeUnlock(cj.Sorts[sid], t)
	ci.NrPairs--
	cj.NrPairs--
	t.Kind = TaskNone

	entries := splitTable[sid]
	if len(entries) == 0 {
		fatalf(InvariantViolated, "task graph: empty split table for sid %d", sid)
	}
	for _, e := range entries {
		pci, pcj := ci.Progeny[e.CiProg], cj.Progeny[e.CjProg]
		pt := g.add(&Task{Kind: TaskPairDensity, Ci: pci, Cj: pcj, SID: e.CiSort})
		addUnlock(pci.Sorts[e.CiSort], pt)
		addUnlock(pcj.Sorts[e.CjSort], pt)
		pci.NrPairs++
		pcj.NrPairs++
	}
}

func maxF3(v [3]float32) float32 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}

// canonicalSID computes the raw sid in [0, 27) for the relative offset
// cj.Loc - ci.Loc, resolved under periodic wrap when the signed
// component exceeds half the domain along that axis.
func canonicalSID(ci, cj *Cell, s *Space) int {
	sid := 0
	for k := 0; k < 3; k++ {
		d := cj.Loc[k] - ci.Loc[k]
		if s != nil && s.Periodic {
			if d < -s.Dim[k]/2 {
				d += s.Dim[k]
			} else if d > s.Dim[k]/2 {
				d -= s.Dim[k]
			}
		}
		sign := 1
		switch {
		case d < 0:
			sign = 0
		case d > 0:
			sign = 2
		}
		sid = 3*sid + sign
	}
	return sid
}

// pruneDeadSorts demotes sort tasks with no remaining successors to
// TaskNone and nulls out their sort handles, removing the matching
// unlock edges from their children.
func pruneDeadSorts(g *TaskGraph) {
	for _, t := range g.Tasks {
		if t.Kind != TaskSort || len(t.unlock) != 0 {
			continue
		}
		for i := 0; i < 13; i++ {
			if t.Flags&(1<<uint(i)) == 0 {
				continue
			}
			if t.Ci.Split {
				for _, child := range t.Ci.Progeny {
					if child != nil {
						removeUnlock(child.Sorts[i], t)
					}
				}
			}
			t.Ci.Sorts[i] = nil
		}
		t.Ci.Sorts[13] = t.Ci.Sorts[12]
		t.Kind = TaskNone
	}
}

// countCellTasks tallies NrTasks per cell and populates each cell's
// Density task list, used later to find super cells and wire ghosts.
func countCellTasks(g *TaskGraph) {
	for _, t := range g.Tasks {
		switch t.Kind {
		case TaskSelfDensity:
			t.Ci.NrTasks++
			t.Ci.Density = append(t.Ci.Density, t)
			t.Ci.NrDensity++

		case TaskPairDensity:
			t.Ci.NrTasks++
			t.Cj.NrTasks++
			t.Ci.Density = append(t.Ci.Density, t)
			t.Ci.NrDensity++
			t.Cj.Density = append(t.Cj.Density, t)
			t.Cj.NrDensity++

		case TaskSubDensity:
			t.Ci.NrTasks++
			t.Ci.Density = append(t.Ci.Density, t)
			t.Ci.NrDensity++
			if t.Cj != nil {
				t.Cj.NrTasks++
				t.Cj.Density = append(t.Cj.Density, t)
				t.Cj.NrDensity++
			}
		}
	}
}

// assignSupersAndGhosts computes each cell's super cell and appends a
// ghost task per cell, linking parent.ghost -> this.ghost when a cell is
// not its own super.
func assignSupersAndGhosts(g *TaskGraph, s *Space) {
	var walk func(c *Cell)
	walk = func(c *Cell) {
		c.Super = findSuper(c)
		c.Ghost = g.add(&Task{Kind: TaskGhost, Ci: c})
		if c.Parent != nil && c.Super != c {
			addUnlock(c.Parent.Ghost, c.Ghost)
		}
		for _, child := range c.Progeny {
			if child != nil {
				walk(child)
			}
		}
	}
	for _, c := range s.Cells {
		walk(c)
	}
}

// addForcePhase emits a force-phase twin for every density task and
// wires it through the ghost barrier of each of its cells' super cells.
func addForcePhase(g *TaskGraph) {
	n := len(g.Tasks)
	for idx := 0; idx < n; idx++ {
		t := g.Tasks[idx]

		switch t.Kind {
		case TaskSelfDensity:
			addUnlock(t, t.Ci.Super.Ghost)
			t2 := g.add(&Task{Kind: TaskSelfForce, Ci: t.Ci})
			addUnlock(t.Ci.Ghost, t2)

		case TaskPairDensity:
			addUnlock(t, t.Ci.Super.Ghost)
			addUnlock(t, t.Cj.Super.Ghost)
			t2 := g.add(&Task{Kind: TaskPairForce, Ci: t.Ci, Cj: t.Cj, SID: t.SID})
			addUnlock(t.Ci.Ghost, t2)
			addUnlock(t.Cj.Ghost, t2)

		case TaskSubDensity:
			addUnlock(t, t.Ci.Super.Ghost)
			if t.Cj != nil {
				addUnlock(t, t.Cj.Super.Ghost)
			}
			t2 := g.add(&Task{Kind: TaskSubForce, Ci: t.Ci, Cj: t.Cj, SID: t.SID})
			addUnlock(t.Ci.Ghost, t2)
			if t.Cj != nil {
				addUnlock(t.Cj.Ghost, t2)
			}
		}
	}
}
