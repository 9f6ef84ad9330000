package state

import (
	"slices"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/gamedata"
)

// stageBreakpoints are the plot counts at which each farm stage begins.
var stageBreakpoints = [...]int{0, 6, 12, 20, 35}

var phaseNames = [...]string{"seedling", "sprout", "growing", "flourishing", "harvest_moon"}

// phaseFloors lifts the phase label when a milestone structure exists,
// even if the plot count lags behind.
var phaseFloors = map[string]int{
	"tower":         2,
	"forge":         3,
	"mine_entrance": 4,
}

// Derived holds values that are pure functions of the primitive state.
type Derived struct {
	FarmStage   int                 `json:"farm_stage"`
	Phase       string              `json:"phase"`
	Screens     []gamedata.ScreenID `json:"screens"`
	StorageTier int                 `json:"storage_tier"`
	MaterialCap int                 `json:"material_cap"`
	EnergyMax   int                 `json:"energy_max"`
	WaterMax    int                 `json:"water_max"`
	Housing     int                 `json:"housing"`
	NetTier     int                 `json:"net_tier"`
}

// HasScreen reports whether a screen is unlocked.
func (d Derived) HasScreen(id gamedata.ScreenID) bool {
	return slices.Contains(d.Screens, id)
}

// FarmStage maps a plot count onto the stage breakpoint table.
func FarmStage(plots int) int {
	stage := 0
	for _, bp := range stageBreakpoints {
		if plots >= bp {
			stage++
		}
	}
	return stage
}

// Derive computes every derived field from primitives.
func Derive(s *State, cat *gamedata.Catalog, p config.Params) Derived {
	d := Derived{
		FarmStage:   FarmStage(s.Progression.Plots),
		StorageTier: 1,
		EnergyMax:   p.Farm.BaseEnergyMax,
		WaterMax:    p.Farm.BaseWaterMax,
		NetTier:     1,
	}

	phase := d.FarmStage
	screens := []gamedata.ScreenID{gamedata.ScreenFarm, gamedata.ScreenTown, gamedata.ScreenAdventure}
	for _, bp := range cat.Blueprints() {
		if !s.Progression.BuiltStructures[bp.ID] {
			continue
		}
		if bp.UnlocksScreen != nil && !slices.Contains(screens, *bp.UnlocksScreen) {
			screens = append(screens, *bp.UnlocksScreen)
		}
		d.StorageTier = max(d.StorageTier, bp.StorageTier)
		d.EnergyMax += bp.EnergyBonus
		d.WaterMax += bp.WaterBonus
		d.Housing += bp.Housing
		phase = max(phase, phaseFloors[bp.ID])
	}
	for _, id := range s.Progression.Upgrades {
		up, ok := cat.Upgrade(id)
		if !ok {
			continue
		}
		d.EnergyMax += up.EnergyBonus
		d.WaterMax += up.WaterBonus
		d.NetTier = max(d.NetTier, up.NetTier)
	}

	slices.Sort(screens)
	d.Screens = screens
	d.Phase = phaseNames[min(max(phase, 1), len(phaseNames))-1]
	caps := p.Storage.Caps
	d.MaterialCap = caps[min(d.StorageTier, len(caps))-1]
	return d
}
