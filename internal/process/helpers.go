package process

import (
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/state"
)

// tickHelpers lets every assigned gnome spend the work it accrued this tick.
// Work that finds no job is held at one job's worth.
func (m *Manager) tickHelpers(st *state.Store, delta int, log *events.Log) {
	if !m.params.Automation.Gnomes {
		return
	}
	gp := m.params.Gnomes
	for i := range st.State().Gnomes {
		g := &st.State().Gnomes[i]
		if g.Role == state.RoleNone {
			continue
		}
		gnomes.Accrue(g, delta, gp.WorkPerMinute)

		var cost float64
		jobs := 0
		switch g.Role {
		case state.RoleWaterer:
			cost = gp.WaterCost
			jobs = m.helperWater(st, int(g.Work/cost))
			g.Task = "watering"
		case state.RoleHarvester:
			cost = gp.HarvestCost
			jobs = m.helperHarvest(st, int(g.Work/cost))
			g.Task = "harvesting"
		case state.RoleMiner:
			cost = gp.MineCost
			jobs = m.helperMine(st, int(g.Work/cost))
			g.Task = "mining"
		case state.RoleSmith:
			cost = 1
			jobs = m.helperSmith(st, int(g.Work))
			g.Task = "tending the forge"
		}
		// st.State() may point at fresh slices after an Update; re-take g.
		g = &st.State().Gnomes[i]
		if jobs == 0 {
			g.Task = "idle"
			g.Work = min(g.Work, cost)
			continue
		}
		gnomes.Consume(g, float64(jobs)*cost)
		if up := gnomes.AddXP(g, jobs*gp.XPPerWork); up > 0 {
			log.Add(events.Info, events.CategoryGnome, "%s reached level %d", g.Name, g.Level)
		}
	}
}

func (m *Manager) helperWater(st *state.Store, units int) int {
	if units <= 0 || Thirsty(st.State(), m.catalog) == 0 || st.State().Resources.Water == 0 {
		return 0
	}
	n, _ := m.WaterCrops(st, units)
	return n
}

func (m *Manager) helperHarvest(st *state.Store, units int) int {
	if units <= 0 {
		return 0
	}
	done := m.HarvestReady(st, units)
	if m.params.Automation.Replant {
		for _, h := range done {
			kind := h.Kind
			if st.State().Resources.Seeds[kind] <= 0 {
				var ok bool
				if kind, ok = BestSeed(st.State(), m.catalog); !ok {
					break
				}
			}
			_, _ = m.Start(st, CropSpec{Plot: h.Plot, Crop: kind})
		}
	}
	if len(done) < units {
		m.ClearWithered(st)
	}
	return len(done)
}

func (m *Manager) helperMine(st *state.Store, units int) int {
	s := st.State()
	if units <= 0 || !s.Progression.BuiltStructures["mine_entrance"] {
		return 0
	}
	depth := max(1, s.Progression.MineDepthReached)
	ops := make([]state.Op, 0, units)
	for range units {
		kind, _ := m.sample(depth)
		ops = append(ops, state.Material(kind, 1))
	}
	res := st.Apply(ops...)
	s.Stats.MaterialsMined += units - res.Wasted
	return units
}

func (m *Manager) helperSmith(st *state.Store, units int) int {
	s := st.State()
	if units <= 0 || len(s.Processes.Forge.Queue) == 0 {
		return 0
	}
	if m.AddHeat(s, float64(units)*m.params.Gnomes.SmithHeatBonus) == 0 {
		return 0
	}
	return units
}
