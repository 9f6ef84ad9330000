package gardener

import (
	"github.com/talgya/farmsim/internal/events"
)

// Health levels, worst first.
const (
	Critical = "CRITICAL"
	Warning  = "WARNING"
	Watch    = "WATCH"
	Healthy  = "HEALTHY"
	Finished = "FINISHED"
)

// failureWatch is the share of failed-action events among notable events
// that marks a run for watching.
const failureWatch = 0.5

// RunHealth holds derived diagnostic signals computed from a Snapshot and
// the previous cycles.
type RunHealth struct {
	Faults        int
	Failures      int // failed-action events
	IdleCycles    int // consecutive cycles without plot or level progress
	MinutesActive int // simulated minutes since the previous cycle
	Level         string
}

// Triage computes a RunHealth from the snapshot. prev is the memory of
// earlier cycles, newest last; it may be empty.
func Triage(snap *Snapshot, prev *CycleMemory) *RunHealth {
	h := &RunHealth{}
	for _, e := range snap.Events {
		switch e.Category {
		case events.CategoryFault:
			h.Faults++
		case events.CategoryAction:
			h.Failures++
		}
	}

	if last, ok := prev.Last(); ok {
		h.MinutesActive = snap.Status.Minute - last.Minute
		if snap.Status.Plots <= last.Plots && snap.Status.HeroLevel <= last.HeroLevel {
			h.IdleCycles = last.IdleCycles + 1
		}
	}

	failShare := 0.0
	if n := len(snap.Events); n > 0 {
		failShare = float64(h.Failures) / float64(n)
	}

	switch {
	case snap.Status.IsComplete:
		h.Level = Finished
	case snap.Status.IsStuck, h.Faults > 0:
		h.Level = Critical
	case h.IdleCycles >= 3 || (prev.Len() > 0 && h.MinutesActive == 0):
		h.Level = Warning
	case h.IdleCycles > 0 || failShare > failureWatch:
		h.Level = Watch
	default:
		h.Level = Healthy
	}
	return h
}
