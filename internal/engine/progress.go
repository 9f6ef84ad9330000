package engine

import (
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/state"
)

// Victory reports whether s meets either configured win threshold.
func Victory(p config.VictoryParams, s *state.State) bool {
	return s.Progression.Plots >= p.Plots || s.Progression.HeroLevel >= p.HeroLevel
}

// progressMark is the last measured point of progress.
type progressMark struct {
	Minute    int `json:"minute"`
	Plots     int `json:"plots"`
	HeroLevel int `json:"hero_level"`
	Gold      int `json:"gold"`
}

func markOf(s *state.State) progressMark {
	return progressMark{
		Minute:    s.Clock.Total,
		Plots:     s.Progression.Plots,
		HeroLevel: s.Progression.HeroLevel,
		Gold:      s.Resources.Gold,
	}
}

// stuckTracker flags a run that made no measurable progress for a number of
// in-game days. Gold moves count only beyond a noise band.
type stuckTracker struct {
	params config.StuckParams
	mark   progressMark
}

func newStuckTracker(p config.StuckParams, s *state.State) *stuckTracker {
	return &stuckTracker{params: p, mark: markOf(s)}
}

// observe records s and reports whether the run is stuck.
func (t *stuckTracker) observe(s *state.State) bool {
	cur := markOf(s)
	gold := cur.Gold - t.mark.Gold
	if gold < 0 {
		gold = -gold
	}
	if cur.Plots > t.mark.Plots || cur.HeroLevel > t.mark.HeroLevel || gold > t.params.GoldNoise {
		t.mark = cur
		return false
	}
	return cur.Minute-t.mark.Minute > t.params.Days*state.MinutesPerDay
}

// idleMinutes is how long the run has gone without progress.
func (t *stuckTracker) idleMinutes(now int) int { return now - t.mark.Minute }
