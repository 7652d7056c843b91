package engine

// Config carries the process-wide tunables that govern tree building and
// task splitting. Zero-value Config is not valid; use NewConfig for sane
// defaults.
type Config struct {
	// SplitSize is the minimum particle count a cell must hold before it
	// is allowed to split into progeny.
	SplitSize int

	// SubSize is the particle-count threshold below which a self or pair
	// task is collapsed into a cheaper sub task.
	SubSize int

	// SplitRatio is the fraction of a cell's particles that must satisfy
	// h <= cell_h/2 for the cell to remain split.
	SplitRatio float32

	// Stretch is the safety factor applied to h_max when sizing the top
	// grid and when deciding whether a pair task may still be split.
	Stretch float32

	// CellMax is a floor on top-cell size, independent of h_max.
	CellMax float32

	// CellAllocChunk is the cell pool's growth quantum.
	CellAllocChunk int

	// MaxDepth is informational; the tree builder tracks the deepest
	// cell reached but never refuses to split past it.
	MaxDepth int
}

// NewConfig returns the defaults used throughout the test suite and
// matching the reference values quoted in the design documentation.
func NewConfig() Config {
	return Config{
		SplitSize:      400,
		SubSize:        48,
		SplitRatio:     0.75,
		Stretch:        1.0,
		CellMax:        0,
		CellAllocChunk: 1000,
		MaxDepth:       64,
	}
}
