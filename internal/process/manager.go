// Package process advances every long-running activity of a run: crop
// growth, the forge queue, mining, seed catching, adventures, and the work
// of assigned gnomes. Each kind owns its completion rule.
package process

import (
	"errors"
	"fmt"

	"github.com/talgya/farmsim/internal/combat"
	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
	"github.com/talgya/farmsim/internal/weather"
)

var (
	ErrUnknownProcess = errors.New("unknown process")
	ErrBusy           = errors.New("process slot busy")
)

// Kind names a process family.
type Kind uint8

const (
	KindCrop Kind = iota
	KindCraft
	KindMining
	KindCatch
	KindAdventure
)

var kindNames = [...]string{"crop", "craft", "mining", "catch", "adventure"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Spec describes a process to start. It is one of CropSpec, CraftSpec,
// MiningSpec, CatchSpec or AdventureSpec.
type Spec interface {
	Kind() Kind
}

type CropSpec struct {
	Plot int
	Crop gamedata.CropKind
}

type CraftSpec struct {
	Recipe string
}

// MiningSpec plans a trip. Minutes of zero uses the configured session length.
type MiningSpec struct {
	Depth   int
	Minutes int
}

type CatchSpec struct{}

type AdventureSpec struct {
	Route   string
	Loadout []combat.Weapon
}

func (CropSpec) Kind() Kind      { return KindCrop }
func (CraftSpec) Kind() Kind     { return KindCraft }
func (MiningSpec) Kind() Kind    { return KindMining }
func (CatchSpec) Kind() Kind     { return KindCatch }
func (AdventureSpec) Kind() Kind { return KindAdventure }

// Completion identifies a process that finished or failed this tick.
type Completion struct {
	ID    int    `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

// Report is the outcome of one Tick.
type Report struct {
	Completed []Completion
	Failed    []Completion
	Events    []events.Event
}

// Manager advances processes on a Store. It holds rules, never state.
type Manager struct {
	catalog *gamedata.Catalog
	params  config.Params
	persona config.Persona
	wind    *weather.WindField

	cropRNG  *entropy.Source
	craftRNG *entropy.Source
	mineRNG  *entropy.Source
	catchRNG *entropy.Source
	fightRNG *entropy.Source
}

// NewManager creates a Manager. Each process family draws from its own fork
// of rng so adding rolls to one never shifts another.
func NewManager(cat *gamedata.Catalog, p config.Params, persona config.Persona, wind *weather.WindField, rng *entropy.Source) *Manager {
	return &Manager{
		catalog:  cat,
		params:   p,
		persona:  persona,
		wind:     wind,
		cropRNG:  rng.Fork("crop"),
		craftRNG: rng.Fork("craft"),
		mineRNG:  rng.Fork("mine"),
		catchRNG: rng.Fork("catch"),
		fightRNG: rng.Fork("adventure"),
	}
}

// Start records a new process and returns its id. Costs are the caller's
// responsibility; Start only checks slot availability and targets.
func (m *Manager) Start(st *state.Store, spec Spec) (int, error) {
	var id int
	err := st.Update(func(s *state.State) error {
		var err error
		switch sp := spec.(type) {
		case CropSpec:
			id, err = m.startCrop(s, sp)
		case CraftSpec:
			id, err = m.startCraft(s, sp)
		case MiningSpec:
			id, err = m.startMining(s, sp)
		case CatchSpec:
			id, err = m.startCatch(s)
		case AdventureSpec:
			id, err = m.startAdventure(s, sp)
		default:
			err = fmt.Errorf("process spec %T", spec)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Cancel stops a process without completing it. A cancelled mining session
// forfeits what it found; a cancelled craft entry is not refunded.
func (m *Manager) Cancel(st *state.Store, id int) error {
	return st.Update(func(s *state.State) error {
		p := &s.Processes
		for i, c := range p.Crops {
			if c.ID == id {
				p.Crops = append(p.Crops[:i], p.Crops[i+1:]...)
				return nil
			}
		}
		for i, e := range p.Forge.Queue {
			if e.ID == id {
				p.Forge.Queue = append(p.Forge.Queue[:i], p.Forge.Queue[i+1:]...)
				return nil
			}
		}
		switch {
		case p.Mining != nil && p.Mining.ID == id:
			p.Mining = nil
		case p.Catching != nil && p.Catching.ID == id:
			p.Catching = nil
		case p.Adventure != nil && p.Adventure.ID == id:
			p.Adventure = nil
		default:
			return fmt.Errorf("%w: %d", ErrUnknownProcess, id)
		}
		return nil
	})
}

// Tick advances every process by delta minutes.
func (m *Manager) Tick(st *state.Store, delta int) Report {
	log := events.NewLog(st.State().Clock.Total)
	var rep Report
	if delta <= 0 {
		return rep
	}
	m.tickCrops(st, delta, log)
	m.tickForge(st, delta, log, &rep)
	m.tickMining(st, delta, log, &rep)
	m.tickCatch(st, delta, log, &rep)
	m.tickAdventure(st, log, &rep)
	m.tickHelpers(st, delta, log)
	st.Refresh()
	rep.Events = log.Events()
	return rep
}

// Active reports whether a singleton process kind is running.
func Active(s *state.State, k Kind) bool {
	switch k {
	case KindCraft:
		return len(s.Processes.Forge.Queue) > 0
	case KindMining:
		return s.Processes.Mining != nil
	case KindCatch:
		return s.Processes.Catching != nil
	case KindAdventure:
		return s.Processes.Adventure != nil
	default:
		return len(s.Processes.Crops) > 0
	}
}
