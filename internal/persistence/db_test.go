package persistence

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/action"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openDB(t)
	id, err := db.BeginRun(RunMeta{Seed: 42, Persona: "balanced", Overrides: map[string]any{"decision.top_k": 2}})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	res := engine.TickResult{
		Events: []events.Event{
			{Minute: 5, Severity: events.Info, Category: events.CategoryFarm, Description: "carrot on plot 0 is ready"},
			{Minute: 5, Severity: events.Medium, Category: events.CategoryAction, Description: "build:tower failed"},
			{Minute: 10, Severity: events.High, Category: events.CategoryFault, Description: "tick fault"},
		},
		Executed: []action.Executed{
			{Minute: 5, Kind: decision.ActionHarvest, Screen: gamedata.ScreenFarm, Minutes: 2, Detail: "harvested 1"},
			{Minute: 5, Kind: decision.ActionPlant, Target: "carrot", Screen: gamedata.ScreenFarm, Minutes: 3},
			{Minute: 10, Kind: decision.ActionPlant, Target: "radish", Screen: gamedata.ScreenFarm, Minutes: 3},
		},
	}
	require.NoError(t, db.RecordTick(id, res))
	require.NoError(t, db.RecordTick(id, engine.TickResult{}))

	recent, err := db.RecentEvents(id, events.Medium, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, events.High, recent[0].Severity)
	assert.Equal(t, "build:tower failed", recent[1].Description)

	counts, err := db.ActionCounts(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"harvest": 1, "plant": 2}, counts)

	require.NoError(t, db.FinishRun(id, engine.Summary{Outcome: engine.OutcomeVictory, Ticks: 12}))
	run, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	require.NotNil(t, run.Outcome)
	assert.Equal(t, "victory", *run.Outcome)
	assert.Equal(t, 12, run.Ticks)

	assert.Error(t, db.FinishRun("missing", engine.Summary{}))
}

func TestSeedKeepsHighBit(t *testing.T) {
	db := openDB(t)
	seed := uint64(math.MaxUint64 - 6)
	id, err := db.BeginRun(RunMeta{Seed: seed, Persona: "optimizer"})
	require.NoError(t, err)

	run, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Negative(t, run.Seed)
	assert.Equal(t, seed, uint64(run.Seed))
}

func TestSnapshotRoundTrip(t *testing.T) {
	db := openDB(t)
	id, err := db.BeginRun(RunMeta{Seed: 1, Persona: "casual"})
	require.NoError(t, err)

	_, err = db.LoadSnapshot(id)
	require.ErrorIs(t, err, ErrNoSnapshot)

	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	p := config.Defaults()
	s, err := state.New(p, cat)
	require.NoError(t, err)
	st := state.NewStore(s, cat, p)
	require.NoError(t, db.SaveSnapshot(id, st.Snapshot()))

	s.Clock.Advance(90)
	s.Resources.Seeds[gamedata.CropRadish] = 4
	s.Inventory.Weapons[gamedata.WeaponSword] = 2
	s.Processes.Crops = append(s.Processes.Crops, state.Crop{ID: 1, Plot: 0, Kind: gamedata.CropCarrot, Water: 1.5, Grown: 12})
	s.Gnomes = append(s.Gnomes, state.Gnome{ID: 1, Name: "Pip", Level: 1, Role: state.RoleWaterer})
	require.NoError(t, db.SaveSnapshot(id, st.Snapshot()))

	got, err := db.LoadSnapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Clock.Total)
	assert.Equal(t, s.Resources, got.Resources)
	assert.Equal(t, s.Inventory.Weapons, got.Inventory.Weapons)
	assert.Equal(t, s.Processes.Crops, got.Processes.Crops)
	assert.Equal(t, s.Gnomes, got.Gnomes)
	assert.Equal(t, s.Derived.Screens, got.Derived.Screens)
	assert.Equal(t, s.Town.Supply, got.Town.Supply)
}
