package state

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of s sharing no mutable memory with it.
func (s *State) Clone() *State {
	c := *s

	c.Resources.Seeds = maps.Clone(s.Resources.Seeds)
	c.Resources.Materials = maps.Clone(s.Resources.Materials)

	c.Progression.Cleanups = maps.Clone(s.Progression.Cleanups)
	c.Progression.BuiltStructures = maps.Clone(s.Progression.BuiltStructures)
	c.Progression.Upgrades = slices.Clone(s.Progression.Upgrades)

	c.Inventory.Tools = maps.Clone(s.Inventory.Tools)
	c.Inventory.Weapons = maps.Clone(s.Inventory.Weapons)
	c.Inventory.Armor = maps.Clone(s.Inventory.Armor)
	if s.Inventory.Blueprints != nil {
		c.Inventory.Blueprints = make(map[string]BlueprintState, len(s.Inventory.Blueprints))
		for id, bp := range s.Inventory.Blueprints {
			bp.Cost.Materials = maps.Clone(bp.Cost.Materials)
			c.Inventory.Blueprints[id] = bp
		}
	}

	c.Processes.Crops = slices.Clone(s.Processes.Crops)
	c.Processes.Forge.Queue = slices.Clone(s.Processes.Forge.Queue)
	if m := s.Processes.Mining; m != nil {
		cp := *m
		cp.Found = maps.Clone(m.Found)
		c.Processes.Mining = &cp
	}
	if cs := s.Processes.Catching; cs != nil {
		cp := *cs
		c.Processes.Catching = &cp
	}
	if a := s.Processes.Adventure; a != nil {
		cp := *a
		cp.Loadout = slices.Clone(a.Loadout)
		c.Processes.Adventure = &cp
	}

	c.Gnomes = slices.Clone(s.Gnomes)
	c.Location.History = slices.Clone(s.Location.History)
	c.Town.Supply = maps.Clone(s.Town.Supply)
	c.Derived.Screens = slices.Clone(s.Derived.Screens)
	return &c
}
