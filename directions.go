package engine

// sortlistID maps the 27 relative cell offsets (dx,dy,dz) in {-1,0,1}^3,
// linearised as (dz+1) + 3*((dy+1) + 3*(dx+1)), to one of 13 direction
// classes. The zero offset and its two "all axes flip" siblings alias to
// class 0 (self); every other offset shares a class with its negation.
var sortlistID = [27]int{
	0, 1, 2,
	3, 4, 5,
	6, 7, 8,
	9, 10, 11,
	12, 0, 12,
	11, 10, 9,
	8, 7, 6,
	5, 4, 3,
	2, 1, 0,
}

// directionIndex returns the linear index into sortlistID for the
// relative offset (dx, dy, dz), each in {-1, 0, 1}.
func directionIndex(dx, dy, dz int) int {
	return (dz + 1) + 3*((dy+1)+3*(dx+1))
}

// directionClass returns the direction class (0..12) for the relative
// offset (dx, dy, dz).
func directionClass(dx, dy, dz int) int {
	return sortlistID[directionIndex(dx, dy, dz)]
}

// pts maps a pair of progeny indices (j < k) within a single split cell
// to the direction class of the geometric contact between them. Only the
// upper triangle (j < k) is populated; it mirrors the fixed 8-way octant
// layout where bit 0 selects z, bit 1 selects y, bit 2 selects x.
var pts = [7][8]int{
	{-1, 12, 10, 9, 4, 3, 1, 0},
	{-1, -1, 11, 10, 5, 4, 2, 1},
	{-1, -1, -1, 12, 7, 6, 4, 3},
	{-1, -1, -1, -1, 8, 7, 5, 4},
	{-1, -1, -1, -1, -1, 12, 10, 9},
	{-1, -1, -1, -1, -1, -1, 11, 10},
	{-1, -1, -1, -1, -1, -1, -1, 12},
}

// progenyPairDirection returns the direction class between progeny j and
// k (j != k) of the same parent cell.
func progenyPairDirection(j, k int) int {
	if j > k {
		j, k = k, j
	}
	return pts[j][k]
}

// cornerSids and faceSids classify the 13 direction classes by the
// geometric contact they represent between two top-level split cells,
// used to size the progeny-progeny pair expansion; a class in neither
// set is an edge class.
var cornerSids = map[int]bool{0: true, 2: true, 6: true, 8: true}
var faceSids = map[int]bool{4: true, 10: true, 12: true}

func isCornerSid(sid int) bool { return cornerSids[sid] }
func isFaceSid(sid int) bool   { return faceSids[sid] }
