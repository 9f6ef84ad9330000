package decision

import (
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
)

// plotUtilization is the planted share of plots at which more land is a
// bottleneck.
const plotUtilization = 0.9

// Bottlenecks are the shortages detected in a state.
type Bottlenecks struct {
	Water       bool   `json:"water"`
	Seeds       bool   `json:"seeds"`
	Plots       bool   `json:"plots"`
	Tool        bool   `json:"tool"`
	MissingTool string `json:"missing_tool,omitempty"` // tool family blocking the next cleanup
}

// Any reports whether some shortage was found.
func (b Bottlenecks) Any() bool { return b.Water || b.Seeds || b.Plots || b.Tool }

// Detect finds the current shortages.
func Detect(s *state.State, cat *gamedata.Catalog) Bottlenecks {
	plots := s.Progression.Plots
	b := Bottlenecks{
		Water: s.Resources.Water < 2*plots,
		Seeds: s.Resources.TotalSeeds() < plots,
	}
	if plots > 0 {
		b.Plots = float64(len(s.Processes.Crops))/float64(plots) >= plotUtilization
	}
	for _, cl := range cat.Cleanups() {
		if s.Progression.Cleanups[cl.ID] {
			continue
		}
		if cl.Requires != "" && !s.Progression.Cleanups[cl.Requires] {
			continue
		}
		if cl.Tool.Family != "" && s.Inventory.BestTool(cl.Tool.Family) < cl.Tool.Tier {
			b.Tool = true
			b.MissingTool = cl.Tool.Family
			break
		}
	}
	return b
}

// Relieves reports which shortage a candidate addresses, if any.
func (b Bottlenecks) Relieves(c Candidate, cat *gamedata.Catalog) (string, bool) {
	switch c.Kind {
	case ActionPumpWater:
		if b.Water {
			return "water", true
		}
	case ActionCatchSeeds:
		if b.Seeds {
			return "seeds", true
		}
	case ActionBuyBlueprint, ActionBuild:
		if b.Seeds && c.Target == "tower" {
			return "seeds", true
		}
		if b.Water && c.Target == "well" {
			return "water", true
		}
	case ActionBuyUpgrade:
		if up, ok := cat.Upgrade(c.Target); ok && b.Water && up.WaterBonus > 0 {
			return "water", true
		}
	case ActionCleanup:
		if b.Plots {
			return "plots", true
		}
	case ActionBuyItem, ActionCraft:
		if !b.Tool {
			break
		}
		ref := c.Target
		if c.Kind == ActionCraft {
			rc, ok := cat.Recipe(c.Target)
			if !ok || rc.Output != gamedata.OutputTool {
				break
			}
			ref = rc.Ref
		}
		if t, ok := cat.Tool(ref); ok && t.Family == b.MissingTool {
			return "tool " + b.MissingTool, true
		}
	}
	return "", false
}

// emergency reports whether the state is in a critical shortage and the
// kind of candidates that would relieve it.
func emergency(s *state.State) (seeds, energy bool) {
	seeds = s.Resources.TotalSeeds() < s.Progression.Plots
	energy = s.Resources.Energy <= 1 && len(process.ReadyCrops(s)) > 0
	return seeds, energy
}

func relievesEmergency(c Candidate, seeds, energy bool) bool {
	switch {
	case energy && c.Kind == ActionHarvest:
		return true
	case seeds && c.Kind == ActionCatchSeeds:
		return true
	case seeds && (c.Kind == ActionBuyBlueprint || c.Kind == ActionBuild) && c.Target == "tower":
		return true
	}
	return false
}
