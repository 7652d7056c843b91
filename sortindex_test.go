package engine

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelQuicksortIsAPermutationAndOrdered(t *testing.T) {
	const n = 2000
	rng := rand.New(rand.NewSource(42))

	ind := make([]int32, n)
	ps := make([]Particle, n)
	for i := range ind {
		ind[i] = int32(rng.Intn(64))
		ps[i] = Particle{H: float32(i)} // tag each particle with its original position
	}
	store := NewParticleStore(ps)

	parallelQuicksort(store, ind, 0, 63)

	for i := 0; i+1 < n; i++ {
		if ind[i] > ind[i+1] {
			t.Fatalf("not sorted at %d: %d > %d", i, ind[i], ind[i+1])
		}
	}

	seen := make([]bool, n)
	for _, p := range store.Particles {
		tag := int(p.H)
		require.False(t, seen[tag], "tag %d appeared twice", tag)
		seen[tag] = true
	}
	for i, s := range seen {
		assert.True(t, s, "tag %d missing from permutation", i)
	}
}

func TestParallelQuicksortSmallInputInsertionSort(t *testing.T) {
	ind := []int32{3, 1, 2}
	ps := []Particle{{H: 3}, {H: 1}, {H: 2}}
	store := NewParticleStore(ps)

	parallelQuicksort(store, ind, 0, 3)

	assert.Equal(t, []int32{1, 2, 3}, ind)
	assert.Equal(t, float32(1), store.Particles[0].H)
	assert.Equal(t, float32(2), store.Particles[1].H)
	assert.Equal(t, float32(3), store.Particles[2].H)
}

func TestSortCellDirectionOrdersByProjection(t *testing.T) {
	store := NewParticleStore([]Particle{
		{Pos: mgl32.Vec3{3, 0, 0}},
		{Pos: mgl32.Vec3{1, 0, 0}},
		{Pos: mgl32.Vec3{2, 0, 0}},
	})
	c := &Cell{Base: 0, Count: 3}

	var dest SortPerm
	// direction class 4 corresponds to axis (-1, 0, 0): projection is -x,
	// so the highest-x particle (index 0, x=3) sorts first.
	sortCellDirection(c, store, &dest, 4)

	perm := dest.Perm(4)
	require.Len(t, perm, 3)
	assert.Equal(t, []int32{0, 2, 1}, perm)
}
