// Package engine provides the tick-based simulation loop.
package engine

import (
	"context"
	"fmt"

	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/state"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeVictory  Outcome = "victory"
	OutcomeStuck    Outcome = "stuck"
	OutcomeBudget   Outcome = "budget"
	OutcomeCanceled Outcome = "canceled"
)

// Summary describes a finished Run.
type Summary struct {
	Outcome  Outcome      `json:"outcome"`
	Ticks    int          `json:"ticks"`
	Actions  int          `json:"actions"`
	Faults   int          `json:"faults"`
	Final    *state.State `json:"final"`
	Duration int          `json:"duration"` // simulated minutes
}

// Runner drives a Simulation until it reaches a terminal condition, the
// tick budget runs out, or the context is canceled.
type Runner struct {
	Sim      *Simulation
	MaxTicks int // zero means no budget

	// Callbacks, both optional.
	OnTick func(res TickResult)          // after every tick
	OnDay  func(day int, res TickResult) // after a tick that crossed into a new day
}

// Run blocks until the run ends. It returns an error only when ctx is
// canceled; the summary is filled in either way.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	start := r.Sim.Store().State().Clock
	day := start.Day
	r.Sim.logger.Info("simulation started", "seed", r.Sim.cfg.Seed, "persona", r.Sim.cfg.Persona.Name, "time", start.String())

	for {
		if err := ctx.Err(); err != nil {
			sum.Outcome = OutcomeCanceled
			r.finish(&sum, start)
			return sum, fmt.Errorf("run canceled after %d ticks: %w", sum.Ticks, err)
		}
		if r.MaxTicks > 0 && sum.Ticks >= r.MaxTicks {
			sum.Outcome = OutcomeBudget
			break
		}

		res := r.Sim.Tick()
		sum.Ticks++
		sum.Actions += len(res.Executed)
		for _, ev := range res.Events {
			if ev.Category == events.CategoryFault {
				sum.Faults++
			}
		}
		if r.OnTick != nil {
			r.OnTick(res)
		}
		if res.State.Clock.Day != day {
			day = res.State.Clock.Day
			if r.OnDay != nil {
				r.OnDay(day, res)
			}
		}

		if res.IsComplete {
			sum.Outcome = OutcomeVictory
			break
		}
		if res.IsStuck {
			sum.Outcome = OutcomeStuck
			break
		}
	}
	r.finish(&sum, start)
	r.Sim.logger.Info("simulation stopped", "outcome", sum.Outcome, "ticks", sum.Ticks, "actions", sum.Actions)
	return sum, nil
}

func (r *Runner) finish(sum *Summary, start state.Clock) {
	sum.Final = r.Sim.Store().Snapshot()
	sum.Duration = sum.Final.Clock.Total - start.Total
}
