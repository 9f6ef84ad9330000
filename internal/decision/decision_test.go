package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

func setup(t *testing.T) (*Engine, *state.Store) {
	t.Helper()
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	p := config.Defaults()
	s, err := state.New(p, cat)
	require.NoError(t, err)
	persona, _ := config.LookupPersona("balanced")
	return New(cat, p, persona, entropy.New(7)), state.NewStore(s, cat, p)
}

func find(cs []Candidate, label string) (Candidate, bool) {
	for _, c := range cs {
		if c.Label() == label {
			return c, true
		}
	}
	return Candidate{}, false
}

func TestStartingStateFocusesOnTower(t *testing.T) {
	e, st := setup(t)
	ev := e.Evaluate(st.State())

	assert.True(t, ev.Focus)
	assert.True(t, ev.Emergency)
	require.NotEmpty(t, ev.Top)
	assert.Equal(t, "buy_blueprint:tower", ev.Top[0].Label())
	assert.True(t, ev.Top[0].Emergency)
	for _, c := range ev.Candidates {
		assert.True(t, focusAllows(c), c.Label())
	}

	_, ok := find(ev.Candidates, "buy_item:shovel")
	assert.False(t, ok, "purchases other than the tower wait for the unlock")
	plant, ok := find(ev.Candidates, "plant:carrot")
	require.True(t, ok)
	assert.Equal(t, 2, plant.Quantity)
}

func TestLowEnergyRejectsAdventure(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Resources.Seeds[gamedata.CropCarrot] = 5
	s.Inventory.Weapons[gamedata.WeaponSword] = 1
	s.Resources.Energy = 2

	ev := e.Evaluate(s)
	assert.False(t, ev.Focus)
	_, ok := find(ev.Candidates, "adventure:meadow_short")
	assert.False(t, ok)
	rej, ok := find(ev.Rejected, "adventure:meadow_short")
	require.True(t, ok)
	assert.Contains(t, rej.Unmet(), "afford")

	s.Resources.Energy = 10
	ev = e.Evaluate(s)
	adv, ok := find(ev.Candidates, "adventure:meadow_short")
	require.True(t, ok)
	require.Len(t, adv.Loadout, 1)
	assert.Equal(t, gamedata.WeaponSword, adv.Loadout[0].Kind)
}

func TestEnergyEmergencyPutsHarvestFirst(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Resources.Seeds[gamedata.CropCarrot] = 5
	s.Resources.Energy = 1
	s.Processes.Crops = append(s.Processes.Crops, state.Crop{ID: 1, Plot: 0, Kind: gamedata.CropCarrot, Ready: true})

	ev := e.Evaluate(s)
	require.NotEmpty(t, ev.Top)
	assert.Equal(t, ActionHarvest, ev.Top[0].Kind)
	assert.True(t, ev.Top[0].Emergency)
	assert.Contains(t, ev.Top[0].Reasons, "emergency override")
}

func TestDetectBottlenecks(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Resources.Water = 3

	b := Detect(s, e.catalog)
	assert.True(t, b.Water)
	assert.True(t, b.Seeds)
	assert.False(t, b.Plots)
	assert.True(t, b.Tool)
	assert.Equal(t, "shovel", b.MissingTool)

	what, ok := b.Relieves(Candidate{Kind: ActionBuyItem, Target: "shovel"}, e.catalog)
	assert.True(t, ok)
	assert.Equal(t, "tool shovel", what)
	_, ok = b.Relieves(Candidate{Kind: ActionBuyItem, Target: "axe"}, e.catalog)
	assert.False(t, ok)
}

func TestPersonaWeights(t *testing.T) {
	dare, _ := config.LookupPersona("daredevil")
	casual, _ := config.LookupPersona("casual")

	assert.InDelta(t, 1.45, PersonaWeight(dare, CategoryAdventure), 1e-9)
	assert.InDelta(t, 0.8, PersonaWeight(casual, CategoryAdventure), 1e-9)
	assert.InDelta(t, 0.82, PersonaWeight(casual, CategoryPurchase), 1e-9)
	assert.Equal(t, 1.0, PersonaWeight(dare, CategoryNavigation))
}

func TestDiagnoseLeavesJitterStreamAlone(t *testing.T) {
	e1, st1 := setup(t)
	e2, st2 := setup(t)

	d := e1.Diagnose(st1.State())
	require.NotNil(t, d.Best)
	assert.Contains(t, d.Reasoning, "scored")
	assert.LessOrEqual(t, len(d.Alternatives), maxAlternatives)
	assert.Equal(t, d, e1.Diagnose(st1.State()))

	a := e1.Evaluate(st1.State())
	b := e2.Evaluate(st2.State())
	require.Equal(t, len(a.Top), len(b.Top))
	for i := range a.Top {
		assert.Equal(t, a.Top[i].Score, b.Top[i].Score)
	}
}

func TestParseActionRoundTrip(t *testing.T) {
	for k := range NumActions {
		kind := ActionKind(k)
		got, err := ParseAction(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}
	_, err := ParseAction("dance")
	assert.ErrorIs(t, err, gamedata.ErrUnknownID)
}

func towerBuilt(s *state.State) {
	s.Progression.BuiltStructures["tower"] = true
	s.Inventory.Blueprints["tower"] = state.BlueprintState{Purchased: true, Built: true}
	s.Resources.Seeds[gamedata.CropCarrot] = 5
}

func TestGoldHeldForFirstWeapon(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	towerBuilt(s)
	s.Resources.Gold = 50

	ev := e.Evaluate(s)
	require.False(t, ev.Focus)
	_, ok := find(ev.Candidates, "buy_item:shovel")
	assert.True(t, ok, "the shovel leaves enough for a sword")
	_, ok = find(ev.Candidates, "buy_item:sword")
	assert.True(t, ok)

	can, ok := find(ev.Rejected, "buy_item:watering_can")
	require.True(t, ok)
	assert.Equal(t, []string{"reserve:weapon"}, can.Unmet())
	_, ok = find(ev.Rejected, "train_hero")
	assert.True(t, ok)

	s.Inventory.Weapons[gamedata.WeaponSword] = 1
	ev = e.Evaluate(s)
	_, ok = find(ev.Candidates, "buy_item:watering_can")
	assert.True(t, ok, "no reserve once a weapon is owned")
}

func TestTowerStaysFocusedUntilBuilt(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Resources.Seeds[gamedata.CropCarrot] = 5
	assert.False(t, e.Focused(s))

	s.Inventory.Blueprints["tower"] = state.BlueprintState{Purchased: true}
	assert.True(t, e.Focused(s))

	towerBuilt(s)
	assert.False(t, e.Focused(s))
}

func TestSellsBelowKeepWhenBroke(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	towerBuilt(s)
	s.Resources.Materials[gamedata.MaterialStone] = 5

	s.Resources.Gold = 60
	ev := e.Evaluate(s)
	_, ok := find(append(ev.Candidates, ev.Rejected...), "sell_material:stone")
	assert.False(t, ok, "stone under the keep threshold is held")

	s.Resources.Gold = 10
	ev = e.Evaluate(s)
	sell, ok := find(ev.Candidates, "sell_material:stone")
	require.True(t, ok)
	assert.Equal(t, 5, sell.Quantity)
}

func TestPlantingBoundedByWaterSupply(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Progression.Plots = 12
	s.Resources.Seeds[gamedata.CropCarrot] = 12

	plant, ok := find(e.Evaluate(s).Candidates, "plant:carrot")
	require.True(t, ok)
	assert.Equal(t, 2*e.params.Farm.UncannedWater, plant.Quantity, "hand watering caps the crop count")

	s.Inventory.Tools["watering_can"] = state.ToolState{Family: "watering_can", Tier: 1}
	plant, ok = find(e.Evaluate(s).Candidates, "plant:carrot")
	require.True(t, ok)
	assert.Equal(t, 12, plant.Quantity)

	s.Derived.WaterMax = 4
	for i := range 4 {
		s.Processes.Crops = append(s.Processes.Crops, state.Crop{ID: i + 1, Plot: i, Kind: gamedata.CropCarrot})
	}
	ev := e.Evaluate(s)
	rej, ok := find(ev.Rejected, "plant:carrot")
	require.True(t, ok)
	assert.Contains(t, rej.Unmet(), "water:supply")
}

func TestPumpFillsThePool(t *testing.T) {
	e, st := setup(t)
	s := st.State()
	s.Resources.Water = 3
	room := s.Derived.WaterMax - 3

	ev := e.Evaluate(s)
	pump, ok := find(append(ev.Candidates, ev.Rejected...), "pump_water")
	require.True(t, ok)
	p := e.params.Farm.PumpAmount
	assert.Equal(t, (room+p-1)/p, pump.Quantity)
	assert.Equal(t, pump.Quantity*e.params.Times.Pump, pump.Minutes)
	assert.Equal(t, []state.Op{state.Water(room)}, pump.Rewards)
}
