package process

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

var (
	ErrNotReady     = errors.New("crop not ready")
	ErrPlotOccupied = errors.New("plot occupied")
	ErrLocked       = errors.New("locked")
)

// Harvested describes one harvested crop.
type Harvested struct {
	Plot     int               `json:"plot"`
	Kind     gamedata.CropKind `json:"kind"`
	Energy   int               `json:"energy"`
	Wasted   int               `json:"wasted,omitempty"`
	SeedBack bool              `json:"seed_back"`
}

func (m *Manager) startCrop(s *state.State, sp CropSpec) (int, error) {
	if sp.Plot < 0 || sp.Plot >= s.Progression.Plots {
		return 0, fmt.Errorf("plot %d outside farm of %d plots", sp.Plot, s.Progression.Plots)
	}
	for _, c := range s.Processes.Crops {
		if c.Plot == sp.Plot {
			return 0, fmt.Errorf("%w: plot %d", ErrPlotOccupied, sp.Plot)
		}
	}
	def := m.catalog.Crop(sp.Crop)
	if def.UnlockStage > s.Derived.FarmStage {
		return 0, fmt.Errorf("%w: %s needs farm stage %d", ErrLocked, sp.Crop, def.UnlockStage)
	}
	if s.Resources.Seeds[sp.Crop] <= 0 {
		return 0, fmt.Errorf("%w: no %s seed", state.ErrInsufficient, sp.Crop)
	}
	s.Resources.Seeds[sp.Crop]--
	id := s.Processes.NewID()
	s.Processes.Crops = append(s.Processes.Crops, state.Crop{
		ID:        id,
		Plot:      sp.Plot,
		Kind:      sp.Crop,
		PlantedAt: s.Clock.Total,
	})
	return id, nil
}

// growCrop advances one crop by delta minutes. It reports whether the crop
// became ready or withered during the call.
func (m *Manager) growCrop(c *state.Crop, delta int) (ready, withered bool) {
	if c.Ready || c.Withered {
		return false, false
	}
	def := m.catalog.Crop(c.Kind)
	perMinute := def.WaterPerHour / state.MinutesPerHour
	grace, wither := m.params.Farm.GraceMinutes, m.params.Farm.WitherMinutes
	for range delta {
		if c.Water > 0 {
			c.Water = max(0, c.Water-perMinute)
			c.DryMinutes = 0
			c.Grown++
		} else {
			c.DryMinutes++
			if c.DryMinutes <= grace {
				c.Grown++
			}
			if c.DryMinutes > wither {
				c.Withered = true
				return false, true
			}
		}
		if c.Grown >= float64(def.GrowthMinutes) {
			c.Ready = true
			return true, false
		}
	}
	return false, false
}

func (m *Manager) tickCrops(st *state.Store, delta int, log *events.Log) {
	s := st.State()
	for i := range s.Processes.Crops {
		c := &s.Processes.Crops[i]
		ready, withered := m.growCrop(c, delta)
		switch {
		case ready:
			log.Add(events.Info, events.CategoryFarm, "%s on plot %d is ready", c.Kind, c.Plot)
		case withered:
			s.Stats.Withered++
			log.Add(events.Medium, events.CategoryFarm, "%s on plot %d withered after %d dry minutes", c.Kind, c.Plot, c.DryMinutes)
		}
	}
}

// Harvest removes a ready crop, grants its energy and rolls for a seed back.
func (m *Manager) Harvest(st *state.Store, cropID int) (Harvested, error) {
	var out Harvested
	err := st.Update(func(s *state.State) error {
		idx := -1
		for i, c := range s.Processes.Crops {
			if c.ID == cropID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: crop %d", ErrUnknownProcess, cropID)
		}
		c := s.Processes.Crops[idx]
		if !c.Ready || c.Withered {
			return fmt.Errorf("%w: %s on plot %d", ErrNotReady, c.Kind, c.Plot)
		}
		def := m.catalog.Crop(c.Kind)
		res := st.Apply(state.Energy(def.EnergyYield))
		if res.Err != nil {
			return res.Err
		}
		out = Harvested{Plot: c.Plot, Kind: c.Kind, Energy: def.EnergyYield - res.Wasted, Wasted: res.Wasted}
		if m.cropRNG.Chance(m.params.Farm.SeedReturnChance) {
			st.Apply(state.Seed(c.Kind, 1))
			out.SeedBack = true
		}
		s.Processes.Crops = append(s.Processes.Crops[:idx], s.Processes.Crops[idx+1:]...)
		s.Stats.Harvests++
		return nil
	})
	return out, err
}

// HarvestReady harvests up to limit ready crops in plot order. A limit of
// zero or less harvests all of them.
func (m *Manager) HarvestReady(st *state.Store, limit int) []Harvested {
	var out []Harvested
	for _, id := range ReadyCrops(st.State()) {
		if limit > 0 && len(out) >= limit {
			break
		}
		h, err := m.Harvest(st, id)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

// WaterCrops fills up to limit thirsty crops from the water pool, most
// depleted first. A limit of zero or less waters every thirsty crop. It
// returns how many crops received water.
func (m *Manager) WaterCrops(st *state.Store, limit int) (int, error) {
	watered := 0
	err := st.Update(func(s *state.State) error {
		for _, idx := range thirsty(s, m.catalog) {
			if limit > 0 && watered >= limit {
				break
			}
			c := &s.Processes.Crops[idx]
			need := int(math.Ceil(float64(m.catalog.Crop(c.Kind).WaterCapacity) - c.Water))
			units := min(need, s.Resources.Water)
			if units <= 0 {
				break
			}
			if res := st.Apply(state.Water(-units)); res.Err != nil {
				return res.Err
			}
			c.Water += float64(units)
			watered++
		}
		if watered == 0 {
			return fmt.Errorf("%w: water", state.ErrInsufficient)
		}
		return nil
	})
	return watered, err
}

// ClearWithered removes every withered crop and returns how many were cleared.
func (m *Manager) ClearWithered(st *state.Store) int {
	n := 0
	_ = st.Update(func(s *state.State) error {
		kept := s.Processes.Crops[:0]
		for _, c := range s.Processes.Crops {
			if c.Withered {
				n++
				continue
			}
			kept = append(kept, c)
		}
		s.Processes.Crops = kept
		return nil
	})
	return n
}

// ReadyCrops returns the ids of harvestable crops in plot order.
func ReadyCrops(s *state.State) []int {
	var ids []int
	for _, c := range sortedCrops(s) {
		if c.Ready && !c.Withered {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// WitheredCrops counts withered crops still occupying plots.
func WitheredCrops(s *state.State) int {
	n := 0
	for _, c := range s.Processes.Crops {
		if c.Withered {
			n++
		}
	}
	return n
}

// Thirsty counts growing crops below half their water capacity.
func Thirsty(s *state.State, cat *gamedata.Catalog) int {
	return len(thirsty(s, cat))
}

// thirsty returns indices of growing crops below half capacity, driest first.
func thirsty(s *state.State, cat *gamedata.Catalog) []int {
	var idx []int
	for i, c := range s.Processes.Crops {
		if c.Ready || c.Withered {
			continue
		}
		if c.Water < float64(cat.Crop(c.Kind).WaterCapacity)/2 {
			idx = append(idx, i)
		}
	}
	crops := s.Processes.Crops
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(crops[a].Water, crops[b].Water) })
	return idx
}

func sortedCrops(s *state.State) []state.Crop {
	out := slices.Clone(s.Processes.Crops)
	slices.SortStableFunc(out, func(a, b state.Crop) int { return cmp.Compare(a.Plot, b.Plot) })
	return out
}

// BestSeed picks the unlocked crop with seeds in stock that yields the most
// energy. ok is false when no plantable seed is held.
func BestSeed(s *state.State, cat *gamedata.Catalog) (gamedata.CropKind, bool) {
	best, found := gamedata.CropKind(0), false
	for k := range gamedata.NumCrops {
		kind := gamedata.CropKind(k)
		def := cat.Crop(kind)
		if s.Resources.Seeds[kind] <= 0 || def.UnlockStage > s.Derived.FarmStage {
			continue
		}
		if !found || def.EnergyYield*cat.Crop(best).GrowthMinutes > cat.Crop(best).EnergyYield*def.GrowthMinutes {
			best, found = kind, true
		}
	}
	return best, found
}
