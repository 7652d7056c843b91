package engine

import (
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKernel struct{ calls atomic.Int32 }

func (k *stubKernel) SelfDensity(c *Cell, store *ParticleStore)              { k.calls.Add(1) }
func (k *stubKernel) PairDensity(ci, cj *Cell, sid int, store *ParticleStore) { k.calls.Add(1) }
func (k *stubKernel) SubDensity(ci, cj *Cell, sid int, store *ParticleStore)  { k.calls.Add(1) }
func (k *stubKernel) SelfForce(c *Cell, store *ParticleStore)                { k.calls.Add(1) }
func (k *stubKernel) PairForce(ci, cj *Cell, sid int, store *ParticleStore)  { k.calls.Add(1) }
func (k *stubKernel) SubForce(ci, cj *Cell, sid int, store *ParticleStore)   { k.calls.Add(1) }
func (k *stubKernel) Ghost(c *Cell, store *ParticleStore)                   { k.calls.Add(1) }

func TestEngineStepProducesReport(t *testing.T) {
	store := NewParticleStore(uniformParticles(3000, 0.02, 20))
	cfg := NewConfig()
	cfg.CellMax = 0.1
	kernel := &stubKernel{}
	e := NewEngine(mgl32.Vec3{1, 1, 1}, false, cfg, kernel, 4, nil)

	report := e.Step(store, true)

	assert.NotEmpty(t, report.ID)
	assert.True(t, report.Rebuilt)
	assert.True(t, report.GraphBuilt)
	assert.Greater(t, report.TasksRun, 0)
	assert.Equal(t, store.Len(), report.ParticleLen)
	require.Greater(t, kernel.calls.Load(), int32(0))
}

// TestEngineStepSkipsGraphRebuildWhenTreeUnchanged: a second Step over
// the same unchanged particle set should not rebuild the task graph.
func TestEngineStepSkipsGraphRebuildWhenTreeUnchanged(t *testing.T) {
	store := NewParticleStore(uniformParticles(3000, 0.02, 21))
	cfg := NewConfig()
	cfg.CellMax = 0.1
	kernel := &stubKernel{}
	e := NewEngine(mgl32.Vec3{1, 1, 1}, false, cfg, kernel, 4, nil)

	first := e.Step(store, true)
	require.True(t, first.GraphBuilt)
	callsAfterFirst := kernel.calls.Load()

	second := e.Step(store, false)
	assert.False(t, second.Rebuilt, "an unchanged tree should not be marked rebuilt")
	assert.False(t, second.GraphBuilt, "an unchanged tree should reuse the existing task graph")
	assert.Greater(t, second.TasksRun, 0, "reusing the task graph must still dispatch its tasks")
	assert.Greater(t, kernel.calls.Load(), callsAfterFirst, "reusing the task graph must still invoke the kernel")
}

func TestEngineStepIDsAreUnique(t *testing.T) {
	store := NewParticleStore(uniformParticles(1000, 0.03, 22))
	cfg := NewConfig()
	cfg.CellMax = 0.15
	kernel := &stubKernel{}
	e := NewEngine(mgl32.Vec3{1, 1, 1}, false, cfg, kernel, 2, nil)

	r1 := e.Step(store, true)
	r2 := e.Step(store, true)
	assert.NotEqual(t, r1.ID, r2.ID)
}
