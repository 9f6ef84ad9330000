package state

import (
	"fmt"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/gamedata"
)

// New builds the initial state of a run from compiled parameters. String
// identifiers in the start block are mapped onto enums here, once.
func New(p config.Params, cat *gamedata.Catalog) (*State, error) {
	s := &State{
		Clock: NewClock(p.Start.Day, p.Start.Hour, p.Start.Speed),
		Resources: Resources{
			Energy:    p.Start.Energy,
			Gold:      p.Start.Gold,
			Water:     p.Start.Water,
			Seeds:     make(map[gamedata.CropKind]int),
			Materials: make(map[gamedata.MaterialKind]int),
		},
		Progression: Progression{
			HeroLevel:       max(1, p.Start.HeroLevel),
			Plots:           p.Start.Plots,
			Cleanups:        make(map[string]bool),
			BuiltStructures: make(map[string]bool),
		},
		Inventory: Inventory{
			Tools:      make(map[string]ToolState),
			Weapons:    make(map[gamedata.WeaponKind]int),
			Armor:      make(map[string]int),
			Blueprints: make(map[string]BlueprintState),
		},
		Location:    Location{Screen: gamedata.ScreenFarm},
		Town:        Town{Supply: make(map[gamedata.MaterialKind]float64, gamedata.NumMaterials)},
		LastCheckIn: -1,
	}

	for name, n := range p.Start.Seeds {
		k, err := gamedata.ParseCrop(name)
		if err != nil {
			return nil, fmt.Errorf("start seeds: %w", err)
		}
		if n > 0 {
			s.Resources.Seeds[k] = n
		}
	}
	for name, n := range p.Start.Materials {
		k, err := gamedata.ParseMaterial(name)
		if err != nil {
			return nil, fmt.Errorf("start materials: %w", err)
		}
		if n > 0 {
			s.Resources.Materials[k] = n
		}
	}
	for _, id := range p.Start.Tools {
		def, ok := cat.Tool(id)
		if !ok {
			return nil, fmt.Errorf("start tools: %w: tool %q", gamedata.ErrUnknownID, id)
		}
		s.Inventory.Tools[id] = ToolState{Family: def.Family, Tier: def.Tier, Equipped: true}
	}
	for k := range gamedata.NumMaterials {
		s.Town.Supply[gamedata.MaterialKind(k)] = 1
	}

	s.Derived = Derive(s, cat, p)
	for k, v := range s.Resources.Materials {
		s.Resources.Materials[k] = min(v, s.Derived.MaterialCap)
	}
	s.Resources.Energy = min(s.Resources.Energy, s.Derived.EnergyMax)
	s.Resources.Water = min(s.Resources.Water, s.Derived.WaterMax)
	return s, nil
}
