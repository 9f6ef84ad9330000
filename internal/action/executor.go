// Package action carries out decided actions against the state store. Every
// action re-checks its preconditions, runs inside one transaction, and
// leaves either all of its effects or none.
package action

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/economy"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
)

var (
	// ErrStale is returned when the world changed since the candidate was
	// proposed and its preconditions no longer hold.
	ErrStale = errors.New("action no longer applicable")
	// ErrScreenLocked is returned for actions on a screen not yet unlocked.
	ErrScreenLocked = errors.New("screen locked")
)

// Executed records one successfully applied action.
type Executed struct {
	Minute    int                 `json:"minute"`
	Kind      decision.ActionKind `json:"kind"`
	Target    string              `json:"target,omitempty"`
	Screen    gamedata.ScreenID   `json:"screen"`
	Minutes   int                 `json:"minutes"`
	Navigated bool                `json:"navigated,omitempty"`
	Score     float64             `json:"score"`
	Detail    string              `json:"detail"`
}

// Executor applies candidates. It holds rules and collaborators, never state.
type Executor struct {
	catalog *gamedata.Catalog
	params  config.Params
	procs   *process.Manager
	market  *economy.Market
	spawner *gnomes.Spawner
}

// New creates an executor.
func New(cat *gamedata.Catalog, p config.Params, procs *process.Manager, market *economy.Market, spawner *gnomes.Spawner) *Executor {
	return &Executor{catalog: cat, params: p, procs: procs, market: market, spawner: spawner}
}

// Execute applies c. Off-screen actions first move the player, which costs
// navigation time. On failure nothing changes except the failure counter,
// and a medium-severity event is added to log.
func (x *Executor) Execute(st *state.Store, c decision.Candidate, log *events.Log) (Executed, error) {
	s := st.State()
	now := s.Clock.Total
	rec := Executed{Minute: now, Kind: c.Kind, Target: c.Target, Screen: c.Screen, Score: c.Score}

	err := x.run(st, c, log, &rec)
	if err != nil {
		s.Stats.ActionsFailed++
		log.Add(events.Medium, events.CategoryAction, "%s failed: %v", c.Label(), err)
		slog.Debug("action failed", "action", c.Label(), "error", err)
		return Executed{}, err
	}
	slog.Debug("action executed", "action", c.Label(), "minutes", rec.Minutes, "detail", rec.Detail)
	return rec, nil
}

func (x *Executor) run(st *state.Store, c decision.Candidate, log *events.Log, rec *Executed) error {
	s := st.State()
	if !s.Derived.HasScreen(c.Screen) {
		return fmt.Errorf("%w: %s", ErrScreenLocked, c.Screen)
	}
	if !st.CanAfford(c.Costs...) {
		return fmt.Errorf("%w: cannot afford %s", state.ErrInsufficient, c.Label())
	}
	if err := st.Begin(); err != nil {
		return err
	}

	minutes := c.Minutes
	if c.Kind != decision.ActionNavigate && s.Location.Screen != c.Screen {
		s.Location.MoveTo(c.Screen, rec.Minute, "for "+c.Label())
		minutes += x.params.Times.Navigate
		rec.Navigated = true
	}

	detail, err := x.apply(st, c, log)
	if err != nil {
		if rbErr := st.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	s = st.State()
	s.BusyUntil = max(s.BusyUntil, rec.Minute) + max(minutes, 0)
	s.Stats.ActionsDone++
	rec.Minutes = minutes
	rec.Detail = detail
	return st.Commit()
}

// pay applies ops and turns an apply failure into an error.
func pay(st *state.Store, ops ...state.Op) (state.Result, error) {
	res := st.Apply(ops...)
	return res, res.Err
}

func (x *Executor) apply(st *state.Store, c decision.Candidate, log *events.Log) (string, error) {
	switch c.Kind {
	case decision.ActionHarvest, decision.ActionClearWithered, decision.ActionPlant,
		decision.ActionWater, decision.ActionPumpWater:
		return x.farm(st, c)
	case decision.ActionCleanup:
		return x.cleanup(st, c.Target, log)
	case decision.ActionBuyBlueprint:
		return x.buyBlueprint(st, c.Target)
	case decision.ActionBuild:
		return x.build(st, c.Target, log)
	case decision.ActionCatchSeeds:
		if _, err := x.procs.Start(st, process.CatchSpec{}); err != nil {
			return "", err
		}
		return "started catching seeds", nil
	case decision.ActionBuyItem:
		return x.buyItem(st, c)
	case decision.ActionBuyUpgrade:
		return x.buyUpgrade(st, c.Target)
	case decision.ActionSellMaterial:
		return x.sell(st, c.Material, c.Quantity)
	case decision.ActionTrainHero:
		return x.trainHero(st, log)
	case decision.ActionAdventure:
		return x.adventure(st, c)
	case decision.ActionCraft:
		return x.craft(st, c.Target)
	case decision.ActionStokeForge:
		return x.stoke(st, c.Material, c.Quantity)
	case decision.ActionStartMining:
		if _, err := x.procs.Start(st, process.MiningSpec{Depth: c.Depth}); err != nil {
			return "", err
		}
		return fmt.Sprintf("entered the mine at depth %d", c.Depth), nil
	case decision.ActionRescueGnome, decision.ActionAssignGnome, decision.ActionTrainGnome:
		return x.helper(st, c, log)
	case decision.ActionNavigate:
		s := st.State()
		if s.Location.Screen == c.Screen {
			return "", fmt.Errorf("%w: already on %s", ErrStale, c.Screen)
		}
		s.Location.MoveTo(c.Screen, s.Clock.Total, "navigate")
		return "moved to " + c.Screen.String(), nil
	}
	return "", fmt.Errorf("%w: action %s", gamedata.ErrUnknownID, c.Kind)
}
