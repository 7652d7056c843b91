package engine

import "github.com/go-gl/mathgl/mgl32"

// Particle is the full per-particle state the scheduler observes. Fields
// beyond position, radius, and timestep are owned by the physics kernel
// and only ever read or written inside kernel callbacks.
type Particle struct {
	Pos      mgl32.Vec3
	H        float32
	Dt       float32
	Mass     float32
	Velocity mgl32.Vec3
	Density  float32
}

// CondensedParticle is the cache-friendly, read-only-during-a-step mirror
// of a Particle used for neighbour scans.
type CondensedParticle struct {
	Pos mgl32.Vec3
	H   float32
	Dt  float32
}

// ParticleStore owns the particle array and its condensed mirror as
// parallel slices. Cells hold non-owning (base, count) views into both.
type ParticleStore struct {
	Particles []Particle
	Condensed []CondensedParticle
}

// NewParticleStore copies ps into a freshly owned store and builds the
// matching condensed mirror.
func NewParticleStore(ps []Particle) *ParticleStore {
	store := &ParticleStore{
		Particles: make([]Particle, len(ps)),
		Condensed: make([]CondensedParticle, len(ps)),
	}
	copy(store.Particles, ps)
	store.SyncCondensed()
	return store
}

// Len reports the number of particles owned by the store.
func (s *ParticleStore) Len() int { return len(s.Particles) }

// SyncCondensed rebuilds the condensed mirror from the full particle
// array. Called after every reorder (bucket sort, octant redistribution)
// so the two slices stay in lockstep.
func (s *ParticleStore) SyncCondensed() {
	if cap(s.Condensed) < len(s.Particles) {
		s.Condensed = make([]CondensedParticle, len(s.Particles))
	} else {
		s.Condensed = s.Condensed[:len(s.Particles)]
	}
	for i, p := range s.Particles {
		s.Condensed[i] = CondensedParticle{Pos: p.Pos, H: p.H, Dt: p.Dt}
	}
}

// Swap exchanges particles i and j in both the full and condensed arrays,
// keeping them in lockstep. Used by the bucket sort.
func (s *ParticleStore) Swap(i, j int) {
	s.Particles[i], s.Particles[j] = s.Particles[j], s.Particles[i]
	s.Condensed[i], s.Condensed[j] = s.Condensed[j], s.Condensed[i]
}

// Slice returns the [base, base+count) view of the owned particle array.
func (s *ParticleStore) Slice(base, count int) []Particle {
	return s.Particles[base : base+count]
}
