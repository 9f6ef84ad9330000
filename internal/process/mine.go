package process

import (
	"fmt"
	"math"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

// depthBand weights the materials found from a minimum depth downward.
type depthBand struct {
	from    int
	weights [gamedata.NumMaterials]float64
}

// Bands are ordered by depth; the deepest band whose from is reached applies.
var depthBands = []depthBand{
	{from: 1, weights: [gamedata.NumMaterials]float64{5, 0, 3, 2, 0, 0, 0}},
	{from: 4, weights: [gamedata.NumMaterials]float64{3, 0, 3, 3, 2, 0, 0}},
	{from: 8, weights: [gamedata.NumMaterials]float64{0, 0, 2, 2, 4, 2, 0}},
	{from: 13, weights: [gamedata.NumMaterials]float64{0, 0, 0, 0, 3, 3, 2}},
}

func bandAt(depth int) depthBand {
	band := depthBands[0]
	for _, b := range depthBands {
		if depth >= b.from {
			band = b
		}
	}
	return band
}

// MineDrain is the energy drained per minute at depth. It doubles every
// DepthTierSize levels.
func MineDrain(p config.MineParams, depth int) float64 {
	tier := max(p.DepthTierSize, 1)
	return p.BaseDrainPerMinute * math.Pow(2, float64((max(depth, 1)-1)/tier))
}

// PlannedDrain is the whole energy a session of minutes at depth costs.
func PlannedDrain(p config.MineParams, depth, minutes int) int {
	return int(math.Ceil(MineDrain(p, depth)*float64(minutes) - 1e-9))
}

// MaxDepth is the deepest level a new session may start at.
func MaxDepth(s *state.State, p config.MineParams) int {
	return min(p.MaxDepth, s.Progression.MineDepthReached+1)
}

func (m *Manager) startMining(s *state.State, sp MiningSpec) (int, error) {
	if !s.Progression.BuiltStructures["mine_entrance"] {
		return 0, fmt.Errorf("%w: mine not built", ErrLocked)
	}
	if s.Inventory.BestTool("pickaxe") < 1 {
		return 0, fmt.Errorf("%w: mining needs a pickaxe", ErrLocked)
	}
	if s.Processes.Mining != nil {
		return 0, fmt.Errorf("%w: already mining", ErrBusy)
	}
	if sp.Depth < 1 || sp.Depth > MaxDepth(s, m.params.Mine) {
		return 0, fmt.Errorf("depth %d outside 1..%d", sp.Depth, MaxDepth(s, m.params.Mine))
	}
	minutes := sp.Minutes
	if minutes <= 0 {
		minutes = m.params.Mine.SessionMinutes
	}
	id := s.Processes.NewID()
	s.Processes.Mining = &state.MiningSession{
		ID:      id,
		Depth:   sp.Depth,
		Planned: minutes,
		Found:   make(gamedata.Materials),
	}
	return id, nil
}

// RequestExit asks the running mining session to leave at the next tick.
func (m *Manager) RequestExit(st *state.Store) error {
	return st.Update(func(s *state.State) error {
		if s.Processes.Mining == nil {
			return fmt.Errorf("%w: no mining session", ErrUnknownProcess)
		}
		s.Processes.Mining.ExitAsked = true
		return nil
	})
}

// sample draws one find at depth.
func (m *Manager) sample(depth int) (gamedata.MaterialKind, int) {
	band := bandAt(depth)
	idx := m.mineRNG.Weighted(band.weights[:])
	return gamedata.MaterialKind(max(idx, 0)), 1 + depth/4
}

func (m *Manager) tickMining(st *state.Store, delta int, log *events.Log, rep *Report) {
	s := st.State()
	ms := s.Processes.Mining
	if ms == nil {
		return
	}
	drain := MineDrain(m.params.Mine, ms.Depth)
	every := max(m.params.Mine.SampleEveryMinutes, 1)
	reason := ""
	for range delta {
		if ms.ExitAsked {
			reason = "left on request"
			break
		}
		ms.DrainCarry += drain
		if whole := int(ms.DrainCarry); whole > 0 {
			if s.Resources.Energy < whole {
				reason = "ran out of energy"
				break
			}
			st.Apply(state.Energy(-whole))
			ms.DrainCarry -= float64(whole)
		}
		ms.Elapsed++
		ms.SinceSample++
		if ms.SinceSample >= every {
			ms.SinceSample = 0
			kind, n := m.sample(ms.Depth)
			ms.Found[kind] += n
		}
		if s.Resources.Energy == 0 {
			reason = "ran out of energy"
			break
		}
		if ms.Elapsed >= ms.Planned {
			reason = "session complete"
			break
		}
	}
	if reason == "" {
		return
	}

	found := 0
	for _, n := range ms.Found {
		found += n
	}
	res := st.Apply(state.Gain(ms.Found)...)
	kept := found - res.Wasted
	s.Stats.MaterialsMined += kept
	s.Progression.MineDepthReached = max(s.Progression.MineDepthReached, ms.Depth)
	s.Processes.Mining = nil
	rep.Completed = append(rep.Completed, Completion{ID: ms.ID, Kind: KindMining, Label: fmt.Sprintf("depth %d", ms.Depth)})
	sev := events.Info
	if res.HitLimit {
		sev = events.Low
	}
	log.Add(sev, events.CategoryMine, "mining at depth %d %s after %d minutes: %d materials kept, %d over cap",
		ms.Depth, reason, ms.Elapsed, kept, res.Wasted)
}
