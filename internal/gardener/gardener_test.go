package gardener

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/api"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
)

func TestObserveRunningSimulation(t *testing.T) {
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	persona, _ := config.LookupPersona("casual")
	cfg, err := config.Compile(4, persona, nil)
	require.NoError(t, err)
	sim, err := engine.NewSimulation(cfg, cat, nil)
	require.NoError(t, err)

	mon := api.NewMonitor()
	srv := httptest.NewServer((&api.Server{Monitor: mon, Diag: sim}).Handler())
	defer srv.Close()
	for range 10 {
		mon.Publish(sim.Tick())
	}

	obs := NewObserver(srv.URL)
	require.True(t, obs.Ready())
	snap, err := obs.Observe()
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Status.Ticks)
	assert.Equal(t, 50, snap.Status.Minute)
	assert.Equal(t, 3, snap.Status.Plots)
	assert.Contains(t, snap.Status.Screens, "farm")
	for _, e := range snap.Events {
		assert.GreaterOrEqual(t, e.Severity, events.Medium)
	}

	mem := &CycleMemory{}
	h := Triage(snap, mem)
	assert.Zero(t, h.Faults)
	assert.NotEqual(t, Critical, h.Level)
}

func TestTriageLevels(t *testing.T) {
	mem := &CycleMemory{}
	base := &Snapshot{Status: Status{Minute: 100, Plots: 3, HeroLevel: 1, Running: true}}

	h := Triage(base, mem)
	assert.Equal(t, Healthy, h.Level)
	mem.Record(base, h)

	idle := &Snapshot{Status: Status{Minute: 200, Plots: 3, HeroLevel: 1, Running: true}}
	h = Triage(idle, mem)
	assert.Equal(t, Watch, h.Level)
	assert.Equal(t, 1, h.IdleCycles)
	assert.Equal(t, 100, h.MinutesActive)
	mem.Record(idle, h)

	for i := range 2 {
		s := &Snapshot{Status: Status{Minute: 300 + 100*i, Plots: 3, HeroLevel: 1}}
		h = Triage(s, mem)
		mem.Record(s, h)
	}
	assert.Equal(t, Warning, h.Level)
	assert.Equal(t, 3, h.IdleCycles)

	grown := &Snapshot{Status: Status{Minute: 600, Plots: 4, HeroLevel: 1}}
	h = Triage(grown, mem)
	assert.Equal(t, Healthy, h.Level)
	assert.Zero(t, h.IdleCycles)

	faulted := &Snapshot{
		Status: Status{Minute: 700, Plots: 5, HeroLevel: 1},
		Events: []events.Event{{Severity: events.High, Category: events.CategoryFault}},
	}
	assert.Equal(t, Critical, Triage(faulted, mem).Level)

	stuck := &Snapshot{Status: Status{Minute: 800, Plots: 5, IsStuck: true}}
	assert.Equal(t, Critical, Triage(stuck, mem).Level)

	won := &Snapshot{Status: Status{Minute: 900, Plots: 40, IsComplete: true}}
	assert.Equal(t, Finished, Triage(won, mem).Level)
}

func TestMemoryPersistsAndTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	assert.Zero(t, LoadMemory(path).Len())

	mem := &CycleMemory{}
	for i := range maxRecords + 3 {
		mem.Record(&Snapshot{Status: Status{Minute: i}}, &RunHealth{Level: Healthy})
	}
	require.Equal(t, maxRecords, mem.Len())
	mem.Save(path)

	loaded := LoadMemory(path)
	last, ok := loaded.Last()
	require.True(t, ok)
	assert.Equal(t, maxRecords+2, last.Minute)
	assert.Equal(t, 3, loaded.Records[0].Minute)
}
