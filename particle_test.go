package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParticleStoreSyncsCondensed(t *testing.T) {
	ps := []Particle{
		{Pos: mgl32.Vec3{1, 2, 3}, H: 0.5, Dt: 0.1},
		{Pos: mgl32.Vec3{4, 5, 6}, H: 0.25, Dt: 0.2},
	}
	store := NewParticleStore(ps)

	require.Equal(t, 2, store.Len())
	for i, p := range store.Particles {
		assert.Equal(t, p.Pos, store.Condensed[i].Pos)
		assert.Equal(t, p.H, store.Condensed[i].H)
		assert.Equal(t, p.Dt, store.Condensed[i].Dt)
	}
}

func TestParticleStoreSwapKeepsMirrorInLockstep(t *testing.T) {
	store := NewParticleStore([]Particle{
		{Pos: mgl32.Vec3{0, 0, 0}, H: 1},
		{Pos: mgl32.Vec3{1, 1, 1}, H: 2},
	})

	store.Swap(0, 1)

	assert.Equal(t, float32(2), store.Particles[0].H)
	assert.Equal(t, float32(2), store.Condensed[0].H)
	assert.Equal(t, float32(1), store.Particles[1].H)
	assert.Equal(t, float32(1), store.Condensed[1].H)
}

func TestParticleStoreSlice(t *testing.T) {
	store := NewParticleStore([]Particle{
		{H: 1}, {H: 2}, {H: 3}, {H: 4},
	})
	mid := store.Slice(1, 2)
	require.Len(t, mid, 2)
	assert.Equal(t, float32(2), mid[0].H)
	assert.Equal(t, float32(3), mid[1].H)
}
