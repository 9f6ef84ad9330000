package process

import (
	"fmt"
	"math"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

// CatchSkill is the persona's seed-catching scalar. It improves with past
// sessions at the persona's learning rate.
func CatchSkill(persona config.Persona, sessions int) float64 {
	learned := min(0.25, float64(sessions)*persona.LearningRate*0.02)
	return 0.75 + 0.5*persona.Efficiency + learned
}

// ExpectedCatch is the mean seed yield of one session.
func ExpectedCatch(p config.TowerParams, persona config.Persona, wind float64, netTier, sessions int) float64 {
	mult := 1.0
	if n := len(p.NetMultipliers); n > 0 {
		mult = p.NetMultipliers[min(max(netTier, 1), n)-1]
	}
	return p.BaseYield * wind * mult * CatchSkill(persona, sessions)
}

// Wind returns the wind level at minute; calm when no field is configured.
func (m *Manager) Wind(minute int) float64 {
	if m.wind == nil {
		return 1
	}
	return m.wind.Level(minute)
}

func (m *Manager) startCatch(s *state.State) (int, error) {
	if !s.Progression.BuiltStructures["tower"] {
		return 0, fmt.Errorf("%w: tower not built", ErrLocked)
	}
	if s.Processes.Catching != nil {
		return 0, fmt.Errorf("%w: already catching", ErrBusy)
	}
	wind := m.Wind(s.Clock.Total)
	id := s.Processes.NewID()
	s.Processes.Catching = &state.CatchSession{
		ID:       id,
		Duration: m.params.Tower.SessionMinutes,
		Expected: ExpectedCatch(m.params.Tower, m.persona, wind, s.Derived.NetTier, s.Progression.CatchSessions),
		Wind:     wind,
	}
	return id, nil
}

func (m *Manager) tickCatch(st *state.Store, delta int, log *events.Log, rep *Report) {
	s := st.State()
	cs := s.Processes.Catching
	if cs == nil {
		return
	}
	cs.Elapsed += delta
	if cs.Elapsed < cs.Duration {
		return
	}

	spread := m.params.Tower.Spread
	n := max(1, int(math.Round(m.catchRNG.Range(cs.Expected*(1-spread), cs.Expected*(1+spread)))))
	caught := make(map[gamedata.CropKind]int)
	weights := catchWeights(s, m.catalog)
	for range n {
		k := m.catchRNG.Weighted(weights)
		caught[gamedata.CropKind(max(k, 0))]++
	}
	ops := make([]state.Op, 0, len(caught))
	for k := range gamedata.NumCrops {
		if q := caught[gamedata.CropKind(k)]; q > 0 {
			ops = append(ops, state.Seed(gamedata.CropKind(k), q))
		}
	}
	st.Apply(ops...)
	s.Stats.SeedsCaught += n
	s.Progression.CatchSessions++
	s.Processes.Catching = nil
	rep.Completed = append(rep.Completed, Completion{ID: cs.ID, Kind: KindCatch, Label: fmt.Sprintf("%d seeds", n)})
	log.Add(events.Info, events.CategoryTower, "caught %d seeds in wind %.2f (expected %.1f)", n, cs.Wind, cs.Expected)
}

// catchWeights favours lower crop tiers among those unlocked.
func catchWeights(s *state.State, cat *gamedata.Catalog) []float64 {
	w := make([]float64, gamedata.NumCrops)
	for k := range gamedata.NumCrops {
		def := cat.Crop(gamedata.CropKind(k))
		if def.UnlockStage <= max(s.Derived.FarmStage, 1) {
			w[k] = float64(gamedata.NumCrops - k)
		}
	}
	return w
}
