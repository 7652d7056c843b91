package engine

import "sync"

// CellPool is a bulk allocator/recycler for Cells with free-list
// semantics. Cells are allocated in Chunk-sized slabs so pointers stay
// stable for the lifetime of the pool; a single lock protects the free
// list, touched only during tree rebuilds.
type CellPool struct {
	mu    sync.Mutex
	chunk int
	slabs [][]Cell
	free  []*Cell
}

// NewCellPool creates a pool that grows in increments of chunk cells.
func NewCellPool(chunk int) *CellPool {
	if chunk <= 0 {
		chunk = 1000
	}
	return &CellPool{chunk: chunk}
}

// Get returns a cell from the free list with its bookkeeping cleared by
// reset, growing the pool first if the list is empty. Loc, H, Depth and
// Parent keep their previous values until the caller sets them.
func (p *CellPool) Get() *Cell {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) == 0 {
		p.grow()
	}
	n := len(p.free)
	c := p.free[n-1]
	p.free = p.free[:n-1]
	c.reset()
	return c
}

// Put returns a cell to the free list for reuse.
func (p *CellPool) Put(c *Cell) {
	if c == nil {
		return
	}
	p.mu.Lock()
	p.free = append(p.free, c)
	p.mu.Unlock()
}

// PutTree recursively returns c and all of its progeny to the pool.
func (p *CellPool) PutTree(c *Cell) {
	if c == nil {
		return
	}
	for k := 0; k < 8; k++ {
		if c.Progeny[k] != nil {
			p.PutTree(c.Progeny[k])
			c.Progeny[k] = nil
		}
	}
	p.Put(c)
}

// grow allocates another chunk-sized slab and appends its cells to the
// free list. Must be called with mu held.
func (p *CellPool) grow() {
	slab := make([]Cell, p.chunk)
	p.slabs = append(p.slabs, slab)
	for i := range slab {
		p.free = append(p.free, &slab[i])
	}
}

// Len reports the number of cells currently allocated across all slabs.
func (p *CellPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, s := range p.slabs {
		total += len(s)
	}
	return total
}
