// Package events defines the timestamped, severity-tagged occurrences a run
// reports to its caller.
package events

import (
	"fmt"
	"log/slog"
)

// Severity orders events from informational to high.
type Severity uint8

const (
	Info Severity = iota
	Low
	Medium
	High
)

var severityNames = [...]string{"info", "low", "medium", "high"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	for i, n := range severityNames {
		if n == string(b) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", b)
}

// Level maps a severity onto the slog level it is logged at.
func (s Severity) Level() slog.Level {
	switch s {
	case High:
		return slog.LevelError
	case Medium:
		return slog.LevelWarn
	case Low:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Event categories.
const (
	CategoryFarm      = "farm"
	CategoryTown      = "town"
	CategoryTower     = "tower"
	CategoryForge     = "forge"
	CategoryMine      = "mine"
	CategoryAdventure = "adventure"
	CategoryGnome     = "gnome"
	CategoryProgress  = "progress"
	CategoryAction    = "action"
	CategoryFault     = "fault"
)

// Event is a notable occurrence during a run.
type Event struct {
	Minute      int      `json:"minute"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
}

// Log collects events emitted during one tick.
type Log struct {
	now    int
	events []Event
}

// NewLog starts an empty log stamped at minute now.
func NewLog(now int) *Log { return &Log{now: now} }

// Add appends an event with a formatted description.
func (l *Log) Add(sev Severity, category, format string, args ...any) {
	l.events = append(l.events, Event{
		Minute:      l.now,
		Severity:    sev,
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	})
}

// Append adds already-built events.
func (l *Log) Append(evs ...Event) { l.events = append(l.events, evs...) }

// Events returns the collected events.
func (l *Log) Events() []Event { return l.events }

// Len returns the number of collected events.
func (l *Log) Len() int { return len(l.events) }
