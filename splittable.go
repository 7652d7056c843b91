package engine

// progenyPairTask describes one progeny-progeny pair task produced when
// a top-level pair task between two split cells is expanded. CiProg and
// CjProg index into ci.Progeny and cj.Progeny respectively; CiSort and
// CjSort give the direction class each progeny's sort handle must have
// completed before the pair may run.
type progenyPairTask struct {
	CiProg, CjProg int
	CiSort, CjSort int
}

// splitTable gives, for each direction class sid in [0, 13), the exact
// set of progeny-progeny pair tasks a parent pair(ci, cj) task expands
// into. Corner classes (0, 2, 6, 8) touch through a single progeny pair;
// edge classes (1, 3, 5, 7, 9, 11) touch through 4; face classes
// (4, 10, 12) touch through all 16 possible progeny-progeny contacts
// along that face. This table is fixed octree geometry, transcribed
// directly from the reference splitting routine; it is not re-derived.
var splitTable = [13][]progenyPairTask{
	0: {{7, 0, 0, 0}},
	1: {
		{6, 0, 1, 1}, {7, 1, 1, 1},
		{6, 1, 0, 0}, {7, 0, 2, 2},
	},
	2: {{6, 1, 2, 2}},
	3: {
		{5, 0, 3, 3}, {7, 2, 3, 3},
		{5, 2, 0, 0}, {7, 0, 6, 6},
	},
	4: {
		{4, 0, 4, 4}, {5, 0, 5, 5}, {6, 0, 7, 7}, {7, 0, 8, 8},
		{4, 1, 3, 3}, {5, 1, 4, 4}, {6, 1, 6, 6}, {7, 1, 7, 7},
		{4, 2, 1, 1}, {5, 2, 2, 2}, {6, 2, 4, 4}, {7, 2, 5, 5},
		{4, 3, 0, 0}, {5, 3, 1, 1}, {6, 3, 3, 3}, {7, 3, 4, 4},
	},
	5: {
		{4, 1, 5, 5}, {6, 3, 5, 5},
		{4, 3, 2, 2}, {6, 1, 8, 8},
	},
	6: {{5, 2, 6, 6}},
	7: {
		{4, 3, 6, 6}, {5, 2, 8, 8},
		{4, 2, 7, 7}, {5, 3, 7, 7},
	},
	8: {{4, 3, 8, 8}},
	9: {
		{3, 0, 9, 9}, {7, 4, 9, 9},
		{3, 4, 0, 0}, {7, 0, 8, 8},
	},
	10: {
		{2, 0, 10, 10}, {3, 0, 11, 11}, {6, 0, 7, 7}, {7, 0, 6, 6},
		{2, 1, 9, 9}, {3, 1, 10, 10}, {6, 1, 8, 8}, {7, 1, 7, 7},
		{2, 4, 1, 1}, {3, 4, 2, 2}, {6, 4, 10, 10}, {7, 4, 11, 11},
		{2, 5, 0, 0}, {3, 5, 1, 1}, {6, 5, 9, 9}, {7, 5, 10, 10},
	},
	11: {
		{2, 1, 11, 11}, {6, 5, 11, 11},
		{2, 5, 2, 2}, {6, 1, 6, 6},
	},
	12: {
		{1, 0, 12, 12}, {3, 0, 11, 11}, {5, 0, 5, 5}, {7, 0, 2, 2},
		{1, 2, 9, 9}, {3, 2, 12, 12}, {5, 2, 8, 8}, {7, 2, 5, 5},
		{1, 4, 3, 3}, {3, 4, 6, 6}, {5, 4, 12, 12}, {7, 4, 11, 11},
		{1, 6, 0, 0}, {3, 6, 3, 3}, {5, 6, 9, 9}, {7, 6, 12, 12},
	},
}
