package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newSim(t *testing.T, seed uint64, edit func(p *config.Params)) *Simulation {
	t.Helper()
	return newSimAs(t, "balanced", seed, edit)
}

func newSimAs(t *testing.T, name string, seed uint64, edit func(p *config.Params)) *Simulation {
	t.Helper()
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	persona, ok := config.LookupPersona(name)
	require.True(t, ok, name)
	p := config.Defaults()
	if edit != nil {
		edit(&p)
	}
	require.NoError(t, p.Validate())
	sim, err := NewSimulation(config.Config{Seed: seed, Persona: persona, Params: p}, cat, quiet())
	require.NoError(t, err)
	return sim
}

func TestShouldCheckIn(t *testing.T) {
	p := config.CheckInParams{MinInterval: 60, UrgentInterval: 15, NightStartHour: 23, NightEndHour: 7}
	tests := []struct {
		name string
		in   CheckIn
		want bool
	}{
		{"first tick", CheckIn{Now: 5, Last: -1, Hour: 6}, true},
		{"first tick while busy", CheckIn{Now: 5, Last: -1, BusyUntil: 10, Hour: 12}, false},
		{"routine too soon", CheckIn{Now: 100, Last: 60, Hour: 12}, false},
		{"routine due", CheckIn{Now: 120, Last: 60, Hour: 12}, true},
		{"urgent shortens", CheckIn{Now: 80, Last: 60, Hour: 12, Urgent: true}, true},
		{"urgent still waits", CheckIn{Now: 70, Last: 60, Hour: 12, Urgent: true}, false},
		{"night blocks routine", CheckIn{Now: 500, Last: 60, Hour: 2}, false},
		{"night blocks urgent", CheckIn{Now: 500, Last: 60, Hour: 23, Urgent: true}, false},
		{"emergency overrides night", CheckIn{Now: 500, Last: 60, Hour: 2, Emergency: true}, true},
		{"emergency waits for busy", CheckIn{Now: 500, Last: 60, BusyUntil: 510, Hour: 2, Emergency: true}, false},
		{"night ends", CheckIn{Now: 500, Last: 60, Hour: 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldCheckIn(p, tt.in))
		})
	}
}

func TestNightWindow(t *testing.T) {
	wrap := config.CheckInParams{NightStartHour: 23, NightEndHour: 7}
	assert.True(t, Night(wrap, 23))
	assert.True(t, Night(wrap, 0))
	assert.True(t, Night(wrap, 6))
	assert.False(t, Night(wrap, 7))
	assert.False(t, Night(wrap, 22))

	day := config.CheckInParams{NightStartHour: 1, NightEndHour: 5}
	assert.True(t, Night(day, 3))
	assert.False(t, Night(day, 5))

	off := config.CheckInParams{NightStartHour: 4, NightEndHour: 4}
	for h := range 24 {
		assert.False(t, Night(off, h))
	}
}

func TestTowerScenario(t *testing.T) {
	sim := newSim(t, 7, nil)
	s := sim.Store().State()
	require.Equal(t, 3, s.Progression.Plots)
	require.Equal(t, 75, s.Resources.Gold)
	require.Equal(t, 5, s.Resources.Materials[gamedata.MaterialStone])

	var res TickResult
	for range 2000 {
		res = sim.Tick()
		if res.State.Progression.BuiltStructures["tower"] {
			break
		}
	}
	final := res.State
	require.True(t, final.Progression.BuiltStructures["tower"], "tower never built")
	assert.True(t, final.Inventory.Blueprints["tower"].Purchased)
	assert.True(t, final.Derived.HasScreen(gamedata.ScreenTower))
	assert.Equal(t, 25, final.Stats.GoldSpent)
	assert.Equal(t, 75-25+final.Stats.GoldEarned, final.Resources.Gold)
	assert.Equal(t, 5, final.Resources.Materials[gamedata.MaterialStone])
	assert.Positive(t, final.Stats.Harvests)
}

func TestStuckRunIsDetected(t *testing.T) {
	sim := newSim(t, 1, func(p *config.Params) {
		p.Start.Plots = 0
		p.Start.Gold = 0
		p.Start.Energy = 0
		p.Start.Water = 0
		p.Start.Seeds = map[string]int{}
		p.Start.Materials = map[string]int{}
	})

	r := &Runner{Sim: sim, MaxTicks: 2000}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeStuck, sum.Outcome)
	assert.Greater(t, sum.Duration, 3*state.MinutesPerDay)
	assert.Less(t, sum.Duration, 4*state.MinutesPerDay)
	assert.True(t, sim.Done())
}

func TestLongRunKeepsInvariants(t *testing.T) {
	sim := newSim(t, 11, nil)
	prev := sim.Store().Snapshot()
	days := 0
	r := &Runner{
		Sim:      sim,
		MaxTicks: 3000,
		OnDay:    func(int, TickResult) { days++ },
		OnTick: func(res TickResult) {
			s := res.State
			assert.GreaterOrEqual(t, s.Resources.Energy, 0)
			assert.GreaterOrEqual(t, s.Resources.Gold, 0)
			assert.GreaterOrEqual(t, s.Resources.Water, 0)
			for k, n := range s.Resources.Seeds {
				assert.GreaterOrEqual(t, n, 0, k.String())
			}
			for k, n := range s.Resources.Materials {
				assert.GreaterOrEqual(t, n, 0, k.String())
				assert.LessOrEqual(t, n, s.Derived.MaterialCap, k.String())
			}
			for id := range s.Progression.BuiltStructures {
				assert.True(t, s.Inventory.Blueprints[id].Purchased, id)
			}
			assert.GreaterOrEqual(t, s.Derived.FarmStage, prev.Derived.FarmStage)
			assert.GreaterOrEqual(t, s.Progression.HeroLevel, prev.Progression.HeroLevel)
			assert.GreaterOrEqual(t, s.Progression.Plots, prev.Progression.Plots)
			assert.Equal(t, prev.Clock.Total+res.Delta, s.Clock.Total)
			prev = s
		},
	}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Faults)
	assert.Positive(t, sum.Actions)
	assert.Positive(t, days)
}

func TestDefaultPersonasKeepProgressing(t *testing.T) {
	const tenDays = 10 * state.MinutesPerDay / 5
	harvests, withered := 0, 0
	for _, name := range config.PersonaNames() {
		for _, seed := range []uint64{1, 2, 3} {
			t.Run(fmt.Sprintf("%s/%d", name, seed), func(t *testing.T) {
				sim := newSimAs(t, name, seed, nil)
				sum, err := (&Runner{Sim: sim, MaxTicks: tenDays}).Run(context.Background())
				require.NoError(t, err)
				assert.NotEqual(t, OutcomeStuck, sum.Outcome)
				assert.Zero(t, sum.Faults)

				final := sum.Final
				assert.NotEmpty(t, final.Inventory.Weapons, "a weapon opens the only steady gold source")
				assert.Positive(t, final.Stats.GoldEarned)
				harvests += final.Stats.Harvests
				withered += final.Stats.Withered
			})
		}
	}
	assert.Greater(t, harvests, 2*withered, "harvested %d, withered %d", harvests, withered)
}

func TestDayRolloverRelaxesMarket(t *testing.T) {
	sim := newSim(t, 4, nil)
	sim.Store().State().Town.Supply[gamedata.MaterialCoal] = 3

	var relaxed float64
	r := &Runner{
		Sim:      sim,
		MaxTicks: 2 * state.MinutesPerDay / 5,
		OnDay: func(_ int, res TickResult) {
			if relaxed == 0 {
				relaxed = res.State.Town.Supply[gamedata.MaterialCoal]
			}
		},
	}
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, relaxed, 3.0)
	assert.GreaterOrEqual(t, relaxed, 1.0)
	assert.False(t, sim.Store().InTransaction())
}

func TestFaultRestoresState(t *testing.T) {
	sim := newSim(t, 5, nil)
	sim.Tick()
	st := sim.Store()
	st.State().Processes.Crops = append(st.State().Processes.Crops, state.Crop{ID: 999, Kind: gamedata.CropKind(99)})
	before := st.Snapshot()

	var res TickResult
	require.NotPanics(t, func() { res = sim.Tick() })
	require.Len(t, res.Events, 1)
	assert.Equal(t, events.High, res.Events[0].Severity)
	assert.Equal(t, events.CategoryFault, res.Events[0].Category)
	assert.Empty(t, res.Executed)

	after := st.State()
	assert.Equal(t, before.Clock.Total+before.Clock.Speed, after.Clock.Total)
	assert.Equal(t, before.Resources, after.Resources)
	assert.Equal(t, before.Processes, after.Processes)
	assert.False(t, st.InTransaction())
	assert.NotSame(t, after, res.State)
}

func TestCanceledRun(t *testing.T) {
	sim := newSim(t, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := (&Runner{Sim: sim}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeCanceled, sum.Outcome)
	assert.Zero(t, sum.Ticks)
}

func TestDiagnoseDoesNotMutate(t *testing.T) {
	sim := newSim(t, 3, nil)
	before := sim.Store().Snapshot()
	d := sim.Diagnose()
	require.NotNil(t, d.Best)
	assert.NotEmpty(t, d.Reasoning)
	assert.Equal(t, before, sim.Store().State())
}
