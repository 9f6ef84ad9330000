package engine

import "github.com/talgya/farmsim/internal/config"

// CheckIn is everything the check-in predicate looks at.
type CheckIn struct {
	Now       int  // total minutes
	Last      int  // total minute of the last active tick, or -1
	BusyUntil int  // total minute the player is occupied until
	Hour      int  // hour of day
	Urgent    bool // a shortage shortens the interval
	Emergency bool // a critical shortage bypasses the night window
}

// ShouldCheckIn reports whether a tick performs decision-making. The first
// tick of a run always does. A busy player never does, emergencies included.
// The night window blocks everything but emergencies; otherwise the routine
// interval applies, or the urgent one under shortage.
func ShouldCheckIn(p config.CheckInParams, c CheckIn) bool {
	if c.Now < c.BusyUntil {
		return false
	}
	if c.Last < 0 {
		return true
	}
	if c.Emergency {
		return c.Now-c.Last >= min(p.UrgentInterval, p.MinInterval)
	}
	if Night(p, c.Hour) {
		return false
	}
	interval := p.MinInterval
	if c.Urgent {
		interval = min(interval, p.UrgentInterval)
	}
	return c.Now-c.Last >= interval
}

// Night reports whether hour falls in the configured low-activity window.
// The window may wrap midnight; equal start and end hours disable it.
func Night(p config.CheckInParams, hour int) bool {
	start, end := p.NightStartHour, p.NightEndHour
	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}
