package api

import (
	"sync"

	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/state"
)

// recentEvents bounds the in-memory event history.
const recentEvents = 500

// Monitor is the hand-off between the simulation goroutine and HTTP
// handlers. The simulation publishes tick results; handlers only ever see
// the snapshots inside them.
type Monitor struct {
	mu      sync.RWMutex
	latest  engine.TickResult
	ticks   int
	actions int
	events  []events.Event

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan events.Event
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{subs: make(map[int]chan events.Event)}
}

// Publish records a finished tick. It is meant to be used as a
// Runner.OnTick callback, or called from one.
func (m *Monitor) Publish(res engine.TickResult) {
	m.mu.Lock()
	m.latest = res
	m.ticks++
	m.actions += len(res.Executed)
	m.events = append(m.events, res.Events...)
	if n := len(m.events); n > recentEvents {
		m.events = append(m.events[:0], m.events[n-recentEvents:]...)
	}
	m.mu.Unlock()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		for _, e := range res.Events {
			select {
			case ch <- e:
			default: // slow subscriber, drop
			}
		}
	}
}

// Latest returns the most recent tick result and tick count.
func (m *Monitor) Latest() (engine.TickResult, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.ticks
}

// State returns the latest snapshot, or nil before the first tick.
func (m *Monitor) State() *state.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest.State
}

// Events returns up to limit of the newest events at or above minSeverity,
// oldest first.
func (m *Monitor) Events(minSeverity events.Severity, limit int) []events.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []events.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].Severity >= minSeverity {
			out = append(out, m.events[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Subscribe returns a channel receiving every event published from now on.
func (m *Monitor) Subscribe() (int, <-chan events.Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextID++
	ch := make(chan events.Event, 64)
	m.subs[m.nextID] = ch
	return m.nextID, ch
}

// Unsubscribe closes and removes a subscription.
func (m *Monitor) Unsubscribe(id int) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	if ch, ok := m.subs[id]; ok {
		close(ch)
		delete(m.subs, id)
	}
}
