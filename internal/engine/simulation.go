// Simulation ties the farm systems together and runs them each tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/talgya/farmsim/internal/action"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/economy"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
	"github.com/talgya/farmsim/internal/weather"
)

// TickResult is what one call to Tick reports.
type TickResult struct {
	State      *state.State      `json:"state"` // snapshot; never aliased to the live state
	Executed   []action.Executed `json:"executed_actions"`
	Events     []events.Event    `json:"events"`
	Delta      int               `json:"delta_time"`
	IsComplete bool              `json:"is_complete"`
	IsStuck    bool              `json:"is_stuck"`
	CheckedIn  bool              `json:"checked_in"`
}

// Simulation holds the store and the systems that act on it.
type Simulation struct {
	cfg     config.Config
	catalog *gamedata.Catalog
	store   *state.Store
	procs   *process.Manager
	decider *decision.Engine
	exec    *action.Executor
	market  *economy.Market
	stuck   *stuckTracker
	logger  *slog.Logger

	complete bool
	isStuck  bool

	// counts since the last daily report
	dayActions int
	dayEvents  map[string]int
}

// NewSimulation builds the initial state from cfg and wires every system
// with its own fork of the run seed. A nil logger means slog.Default().
func NewSimulation(cfg config.Config, cat *gamedata.Catalog, logger *slog.Logger) (*Simulation, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := state.New(cfg.Params, cat)
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	store := state.NewStore(s, cat, cfg.Params)

	rng := entropy.New(cfg.Seed)
	procs := process.NewManager(cat, cfg.Params, cfg.Persona, weather.NewWindField(int64(cfg.Seed)), rng.Fork("process"))
	decider := decision.New(cat, cfg.Params, cfg.Persona, rng)
	market := decider.Market()

	sim := &Simulation{
		cfg:       cfg,
		catalog:   cat,
		store:     store,
		procs:     procs,
		decider:   decider,
		exec:      action.New(cat, cfg.Params, procs, market, gnomes.NewSpawner(rng.Fork("gnomes"))),
		market:    market,
		stuck:     newStuckTracker(cfg.Params.Stuck, s),
		logger:    logger,
		dayEvents: make(map[string]int),
	}
	sim.complete = Victory(cfg.Params.Victory, s)
	return sim, nil
}

// Store exposes the state store for read access and test setup.
func (sim *Simulation) Store() *state.Store { return sim.store }

// Config returns the compiled configuration the run was built from.
func (sim *Simulation) Config() config.Config { return sim.cfg }

// Done reports whether the run reached a terminal condition.
func (sim *Simulation) Done() bool { return sim.complete || sim.isStuck }

// Diagnose returns the current best candidate with its reasoning. It draws
// no randomness and leaves the state untouched.
func (sim *Simulation) Diagnose() decision.Diagnosis {
	return sim.decider.Diagnose(sim.store.State())
}

// DiagnoseSnapshot is Diagnose over a snapshot taken from a TickResult. It
// reads only immutable rules, so it may run on another goroutine while the
// simulation ticks.
func (sim *Simulation) DiagnoseSnapshot(s *state.State) decision.Diagnosis {
	return sim.decider.Diagnose(s)
}

// Tick advances the run by one clock step. It never panics: an internal
// fault restores the state from before the tick, moves the clock on, and is
// reported as a high-severity fault event.
func (sim *Simulation) Tick() (res TickResult) {
	snap := sim.store.Snapshot()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sim.store.Restore(snap)
		s := sim.store.State()
		delta := s.Clock.Speed
		s.Clock.Advance(delta)
		sim.store.Refresh()

		ev := events.Event{
			Minute:      s.Clock.Total,
			Severity:    events.High,
			Category:    events.CategoryFault,
			Description: fmt.Sprintf("tick fault: %v", r),
		}
		sim.logger.Error("tick fault", "minute", s.Clock.Total, "panic", r, "stack", string(debug.Stack()))
		sim.dayEvents[ev.Category]++
		res = TickResult{
			State:      sim.store.Snapshot(),
			Events:     []events.Event{ev},
			Delta:      delta,
			IsComplete: sim.complete,
			IsStuck:    sim.isStuck,
		}
	}()
	return sim.tick()
}

func (sim *Simulation) tick() TickResult {
	s := sim.store.State()
	delta := s.Clock.Speed
	daysCrossed := s.Clock.Advance(delta)
	log := events.NewLog(s.Clock.Total)

	rep := sim.procs.Tick(sim.store, delta)
	log.Append(rep.Events...)

	res := TickResult{Delta: delta}
	s = sim.store.State()
	if ShouldCheckIn(sim.cfg.Params.CheckIn, CheckIn{
		Now:       s.Clock.Total,
		Last:      s.LastCheckIn,
		BusyUntil: s.BusyUntil,
		Hour:      s.Clock.Hour,
		Urgent:    sim.decider.Urgent(s),
		Emergency: sim.decider.Emergency(s),
	}) {
		res.CheckedIn = true
		res.Executed = sim.checkIn(log)
	}

	sim.store.Refresh()
	s = sim.store.State()

	if !sim.complete && Victory(sim.cfg.Params.Victory, s) {
		sim.complete = true
		log.Add(events.High, events.CategoryProgress, "victory: %d plots, hero level %d", s.Progression.Plots, s.Progression.HeroLevel)
	}
	if !sim.isStuck && !sim.complete && sim.stuck.observe(s) {
		sim.isStuck = true
		log.Add(events.High, events.CategoryProgress, "no progress for %d minutes", sim.stuck.idleMinutes(s.Clock.Total))
	}

	for _, ev := range log.Events() {
		sim.dayEvents[ev.Category]++
		if ev.Severity >= events.Medium {
			sim.logger.Log(context.Background(), ev.Severity.Level(), ev.Description,
				"category", ev.Category, "minute", ev.Minute)
		}
	}
	sim.dayActions += len(res.Executed)
	if daysCrossed > 0 {
		sim.endOfDay()
	}

	res.State = sim.store.Snapshot()
	res.Events = log.Events()
	res.IsComplete = sim.complete
	res.IsStuck = sim.isStuck
	return res
}

// checkIn evaluates the state and attempts the top candidates in order. A
// failed candidate is dropped; later ones still run. Each attempt sees the
// state left by the previous one.
func (sim *Simulation) checkIn(log *events.Log) []action.Executed {
	eval := sim.decider.Evaluate(sim.store.State())
	var done []action.Executed
	for _, c := range eval.Top {
		rec, err := sim.exec.Execute(sim.store, c, log)
		if err != nil {
			continue
		}
		done = append(done, rec)
	}
	if len(done) > 0 {
		_ = sim.store.Update(func(s *state.State) error {
			s.LastCheckIn = s.Clock.Total
			return nil
		})
	}
	return done
}

func (sim *Simulation) endOfDay() {
	_ = sim.store.Update(func(s *state.State) error {
		sim.market.Relax(s.Town.Supply)
		return nil
	})
	s := sim.store.State()
	sim.logger.Info("daily report",
		"day", s.Clock.Day,
		"time", s.Clock.String(),
		"phase", s.Derived.Phase,
		"plots", s.Progression.Plots,
		"hero_level", s.Progression.HeroLevel,
		"gold", s.Resources.Gold,
		"energy", s.Resources.Energy,
		"seeds", s.Resources.TotalSeeds(),
		"actions", sim.dayActions,
		"harvests", s.Stats.Harvests,
		"withered", s.Stats.Withered,
		"events_farm", sim.dayEvents[events.CategoryFarm],
		"events_action", sim.dayEvents[events.CategoryAction],
		"events_fault", sim.dayEvents[events.CategoryFault],
	)
	sim.dayActions = 0
	clear(sim.dayEvents)
}
