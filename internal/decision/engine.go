package decision

import (
	"cmp"
	"slices"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/economy"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

// Engine proposes the next actions for a state. It reads state and never
// mutates it; the only internal state is its jitter stream.
type Engine struct {
	catalog *gamedata.Catalog
	params  config.Params
	persona config.Persona
	market  *economy.Market
	rng     *entropy.Source
}

// New creates a decision engine drawing jitter from a fork of rng.
func New(cat *gamedata.Catalog, p config.Params, persona config.Persona, rng *entropy.Source) *Engine {
	return &Engine{
		catalog: cat,
		params:  p,
		persona: persona,
		market:  economy.NewMarket(cat, p.Town.SupplyPerUnit, p.Town.SupplyRelax),
		rng:     rng.Fork("decision"),
	}
}

// Evaluation is the full result of one decision pass.
type Evaluation struct {
	Top         []Candidate `json:"top"`
	Candidates  []Candidate `json:"candidates"` // every legal candidate, best first
	Rejected    []Candidate `json:"rejected"`   // candidates with unmet prerequisites
	Bottlenecks Bottlenecks `json:"bottlenecks"`
	Emergency   bool        `json:"emergency"`
	Focus       bool        `json:"focus"`
}

// Evaluate enumerates, filters and ranks candidates for s and returns the
// top K.
func (e *Engine) Evaluate(s *state.State) Evaluation {
	return e.evaluate(s, func() float64 { return e.rng.Range(-1, 1) })
}

// Urgent reports whether s is in a shortage that shortens check-in intervals:
// an emergency, or seeds at or under the plot count plus buffer.
func (e *Engine) Urgent(s *state.State) bool {
	seeds, energy := emergency(s)
	if seeds || energy {
		return true
	}
	total := s.Resources.TotalSeeds()
	return total <= s.Progression.Plots || total < e.params.CheckIn.SeedBuffer
}

// Emergency reports whether a critical shortage is in effect.
func (e *Engine) Emergency(s *state.State) bool {
	seeds, energy := emergency(s)
	return seeds || energy
}

// Focused reports whether focus mode restricts candidates: the tower is not
// yet built, and either seeds are short or its blueprint is already bought.
func (e *Engine) Focused(s *state.State) bool {
	if !e.params.Decision.FocusTower || s.Progression.BuiltStructures["tower"] {
		return false
	}
	return s.Resources.TotalSeeds() < s.Progression.Plots || s.Inventory.Blueprints["tower"].Purchased
}

func focusAllows(c Candidate) bool {
	switch {
	case CategoryOf(c.Kind) == CategoryFarm, c.Kind == ActionNavigate:
		return true
	case c.Kind == ActionBuyBlueprint || c.Kind == ActionBuild:
		return c.Target == "tower"
	}
	return false
}

func (e *Engine) evaluate(s *state.State, jitter func() float64) Evaluation {
	ev := Evaluation{Bottlenecks: Detect(s, e.catalog), Focus: e.Focused(s)}
	seedsShort, energyShort := emergency(s)

	sc := scorer{params: e.params, persona: e.persona, bn: ev.Bottlenecks, here: s.Location.Screen, jitter: jitter}
	for _, c := range e.enumerate(s) {
		if !c.Ready() {
			ev.Rejected = append(ev.Rejected, c)
			continue
		}
		if ev.Focus && !focusAllows(c) {
			c.Prereqs = append(c.Prereqs, Prereq{ID: "focus:tower", Met: false})
			ev.Rejected = append(ev.Rejected, c)
			continue
		}
		sc.score(&c, e)
		if relievesEmergency(c, seedsShort, energyShort) {
			c.Emergency = true
			c.Reasons = append(c.Reasons, "emergency override")
			ev.Emergency = true
		}
		ev.Candidates = append(ev.Candidates, c)
	}

	slices.SortStableFunc(ev.Candidates, func(a, b Candidate) int {
		if a.Emergency != b.Emergency {
			if a.Emergency {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.order, b.order)
	})
	k := min(e.params.Decision.TopK, len(ev.Candidates))
	ev.Top = slices.Clone(ev.Candidates[:k])
	return ev
}

// Diagnosis is a side-effect-free summary of what the engine would do.
type Diagnosis struct {
	Best         *Candidate  `json:"best,omitempty"`
	Reasoning    string      `json:"reasoning"`
	Alternatives []Candidate `json:"alternatives,omitempty"`
	Bottlenecks  Bottlenecks `json:"bottlenecks"`
	Focus        bool        `json:"focus"`
}

// maxAlternatives bounds the alternatives listed by Diagnose.
const maxAlternatives = 5

// Diagnose evaluates a clone of s without jitter. It draws nothing from the
// engine's random stream, so calling it never changes later decisions.
func (e *Engine) Diagnose(s *state.State) Diagnosis {
	ev := e.evaluate(s.Clone(), nil)
	d := Diagnosis{Bottlenecks: ev.Bottlenecks, Focus: ev.Focus}
	if len(ev.Candidates) == 0 {
		d.Reasoning = "no legal action"
		return d
	}
	best := ev.Candidates[0]
	d.Best = &best
	d.Reasoning = best.Reasoning()
	rest := ev.Candidates[1:]
	d.Alternatives = slices.Clone(rest[:min(len(rest), maxAlternatives)])
	return d
}

// Market exposes the pricing the engine plans sales with.
func (e *Engine) Market() *economy.Market { return e.market }
