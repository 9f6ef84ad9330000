package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/economy"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
	"github.com/talgya/farmsim/internal/weather"
)

func setup(t *testing.T) (*Executor, *state.Store, *economy.Market) {
	t.Helper()
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	p := config.Defaults()
	s, err := state.New(p, cat)
	require.NoError(t, err)
	persona, _ := config.LookupPersona("balanced")
	rng := entropy.New(3)
	procs := process.NewManager(cat, p, persona, weather.NewWindField(3), rng)
	market := economy.NewMarket(cat, p.Town.SupplyPerUnit, p.Town.SupplyRelax)
	x := New(cat, p, procs, market, gnomes.NewSpawner(rng.Fork("gnomes")))
	return x, state.NewStore(s, cat, p), market
}

func TestBlueprintMustPrecedeBuild(t *testing.T) {
	x, st, _ := setup(t)
	log := events.NewLog(0)
	s := st.State()
	s.Resources.Energy = 5

	build := decision.Candidate{
		Kind: decision.ActionBuild, Target: "tower", Screen: gamedata.ScreenFarm, Minutes: 30,
		Costs: []state.Op{state.Energy(-5)},
	}
	_, err := x.Execute(st, build, log)
	require.ErrorIs(t, err, process.ErrLocked)
	assert.False(t, s.Progression.BuiltStructures["tower"])
	assert.Equal(t, 5, s.Resources.Energy)

	buy := decision.Candidate{
		Kind: decision.ActionBuyBlueprint, Target: "tower", Screen: gamedata.ScreenTown, Minutes: 5,
		Costs: []state.Op{state.Gold(-25)},
	}
	rec, err := x.Execute(st, buy, log)
	require.NoError(t, err)
	assert.True(t, rec.Navigated)
	assert.Equal(t, 10, rec.Minutes)
	assert.Equal(t, 10, s.BusyUntil)
	assert.Equal(t, gamedata.ScreenTown, s.Location.Screen)
	assert.Equal(t, 50, s.Resources.Gold)

	bp := s.Inventory.Blueprints["tower"]
	require.True(t, bp.Purchased)
	assert.Equal(t, 5, bp.Cost.Energy)

	// the captured price is what the build spends
	bp.Cost.Energy = 2
	s.Inventory.Blueprints["tower"] = bp

	_, err = x.Execute(st, build, log)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Resources.Energy)
	assert.True(t, s.Progression.BuiltStructures["tower"])
	assert.True(t, s.Inventory.Blueprints["tower"].Built)
	assert.True(t, s.Derived.HasScreen(gamedata.ScreenTower))
	assert.Equal(t, 2, s.Stats.ActionsDone)
	assert.Equal(t, 1, s.Stats.ActionsFailed)
}

func TestAdventureWithoutEnergyIsRejected(t *testing.T) {
	x, st, _ := setup(t)
	log := events.NewLog(0)
	s := st.State()
	s.Inventory.Weapons[gamedata.WeaponSword] = 1
	s.Resources.Energy = 2

	c := decision.Candidate{
		Kind: decision.ActionAdventure, Target: "meadow_short", Screen: gamedata.ScreenAdventure, Minutes: 30,
		Costs: []state.Op{state.Energy(-4)},
	}
	rec, err := x.Execute(st, c, log)
	require.ErrorIs(t, err, state.ErrInsufficient)
	assert.Zero(t, rec)
	assert.Nil(t, s.Processes.Adventure)
	assert.Equal(t, gamedata.ScreenFarm, s.Location.Screen)
	assert.Equal(t, 2, s.Resources.Energy)

	require.Equal(t, 1, log.Len())
	assert.Equal(t, events.Medium, log.Events()[0].Severity)
	assert.Equal(t, events.CategoryAction, log.Events()[0].Category)
}

func TestFailedEffectRollsBackEverything(t *testing.T) {
	x, st, _ := setup(t)
	s := st.State()
	s.Progression.BuiltStructures["forge"] = true
	s.Resources.Materials[gamedata.MaterialWood] = 2
	for i := range 3 {
		s.Processes.Forge.Queue = append(s.Processes.Forge.Queue, state.CraftEntry{ID: 100 + i, Recipe: "craft_axe", Remaining: 30})
	}
	st.Refresh()

	c := decision.Candidate{
		Kind: decision.ActionCraft, Target: "craft_shovel", Screen: gamedata.ScreenForge, Minutes: 5,
		Costs: state.Spend(gamedata.Materials{gamedata.MaterialStone: 3, gamedata.MaterialWood: 2}),
	}
	_, err := x.Execute(st, c, events.NewLog(0))
	require.ErrorIs(t, err, process.ErrBusy)
	assert.Equal(t, 5, s.Resources.Materials[gamedata.MaterialStone])
	assert.Equal(t, 2, s.Resources.Materials[gamedata.MaterialWood])
	assert.Equal(t, gamedata.ScreenFarm, s.Location.Screen)
	assert.Equal(t, 0, s.BusyUntil)
	assert.Len(t, s.Processes.Forge.Queue, 3)
	assert.False(t, st.InTransaction())
}

func TestSellUsesMarketPrice(t *testing.T) {
	x, st, market := setup(t)
	s := st.State()
	s.Resources.Materials[gamedata.MaterialCoal] = 20
	want := market.Quote(s.Town.Supply, gamedata.MaterialCoal, 10)

	c := decision.Candidate{
		Kind: decision.ActionSellMaterial, Target: "coal", Screen: gamedata.ScreenTown, Minutes: 5,
		Material: gamedata.MaterialCoal, Quantity: 10,
		Costs: []state.Op{state.Material(gamedata.MaterialCoal, -10)},
	}
	rec, err := x.Execute(st, c, events.NewLog(0))
	require.NoError(t, err)
	assert.Equal(t, 75+want, s.Resources.Gold)
	assert.Equal(t, 10, s.Resources.Materials[gamedata.MaterialCoal])
	assert.Greater(t, s.Town.Supply[gamedata.MaterialCoal], 1.0)
	assert.Contains(t, rec.Detail, "sold 10 coal")
}

func TestNavigateMovesAndCostsTime(t *testing.T) {
	x, st, _ := setup(t)
	s := st.State()
	c := decision.Candidate{Kind: decision.ActionNavigate, Target: "town", Screen: gamedata.ScreenTown, Minutes: 5}

	rec, err := x.Execute(st, c, events.NewLog(0))
	require.NoError(t, err)
	assert.False(t, rec.Navigated)
	assert.Equal(t, gamedata.ScreenTown, s.Location.Screen)
	assert.Equal(t, []gamedata.ScreenID{gamedata.ScreenFarm}, s.Location.History)
	assert.Equal(t, 5, s.BusyUntil)

	_, err = x.Execute(st, c, events.NewLog(0))
	assert.ErrorIs(t, err, ErrStale)

	locked := decision.Candidate{Kind: decision.ActionNavigate, Screen: gamedata.ScreenMine, Minutes: 5}
	_, err = x.Execute(st, locked, events.NewLog(0))
	assert.ErrorIs(t, err, ErrScreenLocked)
}

func TestPlantAndHarvestThroughExecutor(t *testing.T) {
	x, st, _ := setup(t)
	s := st.State()
	plant := decision.Candidate{Kind: decision.ActionPlant, Target: "carrot", Screen: gamedata.ScreenFarm, Crop: gamedata.CropCarrot, Quantity: 2, Minutes: 6}

	rec, err := x.Execute(st, plant, events.NewLog(0))
	require.NoError(t, err)
	assert.Len(t, s.Processes.Crops, 2)
	assert.Equal(t, 0, s.Resources.TotalSeeds())
	assert.Equal(t, "planted 2 carrot", rec.Detail)

	s.Processes.Crops[0].Ready = true
	harvest := decision.Candidate{Kind: decision.ActionHarvest, Screen: gamedata.ScreenFarm, Quantity: 1, Minutes: 2}
	_, err = x.Execute(st, harvest, events.NewLog(0))
	require.NoError(t, err)
	assert.Equal(t, 5, s.Resources.Energy)
	assert.Len(t, s.Processes.Crops, 1)
}

func TestPumpFillsInRounds(t *testing.T) {
	x, st, _ := setup(t)
	s := st.State()
	s.Resources.Water = 3
	pump := decision.Candidate{Kind: decision.ActionPumpWater, Screen: gamedata.ScreenFarm, Quantity: 4, Minutes: 40}

	rec, err := x.Execute(st, pump, events.NewLog(0))
	require.NoError(t, err)
	assert.Equal(t, s.Derived.WaterMax, s.Resources.Water)
	assert.Equal(t, "pumped 17 water", rec.Detail)

	s.Resources.Water = 10
	pump.Quantity = 1
	_, err = x.Execute(st, pump, events.NewLog(0))
	require.NoError(t, err)
	assert.Equal(t, 10+x.params.Farm.PumpAmount, s.Resources.Water)

	s.Resources.Water = s.Derived.WaterMax
	_, err = x.Execute(st, pump, events.NewLog(0))
	assert.ErrorIs(t, err, ErrStale)
}
