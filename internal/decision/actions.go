// Package decision enumerates the actions open to the simulated player,
// filters them by prerequisites, and ranks them with persona-weighted scores.
package decision

import (
	"fmt"
	"strings"

	"github.com/talgya/farmsim/internal/combat"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

// ActionKind enumerates every action the player can take.
type ActionKind uint8

const (
	ActionHarvest ActionKind = iota
	ActionClearWithered
	ActionPlant
	ActionWater
	ActionPumpWater
	ActionCleanup
	ActionBuyBlueprint
	ActionBuild
	ActionCatchSeeds
	ActionBuyItem
	ActionBuyUpgrade
	ActionSellMaterial
	ActionTrainHero
	ActionAdventure
	ActionCraft
	ActionStokeForge
	ActionStartMining
	ActionRescueGnome
	ActionAssignGnome
	ActionTrainGnome
	ActionNavigate
)

// NumActions is the number of action kinds.
const NumActions = 21

var actionNames = [NumActions]string{
	"harvest", "clear_withered", "plant", "water", "pump_water", "cleanup",
	"buy_blueprint", "build", "catch_seeds", "buy_item", "buy_upgrade",
	"sell_material", "train_hero", "adventure", "craft", "stoke_forge",
	"start_mining", "rescue_gnome", "assign_gnome", "train_gnome", "navigate",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// ParseAction maps an action name to its kind.
func ParseAction(s string) (ActionKind, error) {
	for i, n := range actionNames {
		if n == s {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: action %q", gamedata.ErrUnknownID, s)
}

func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ActionKind) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Category groups action kinds for persona weighting.
type Category uint8

const (
	CategoryFarm Category = iota
	CategoryExpansion
	CategoryTower
	CategoryPurchase
	CategoryTrade
	CategoryTraining
	CategoryAdventure
	CategoryCraft
	CategoryMining
	CategoryHelpers
	CategoryNavigation
)

// CategoryOf returns the persona category of an action kind.
func CategoryOf(k ActionKind) Category {
	switch k {
	case ActionHarvest, ActionClearWithered, ActionPlant, ActionWater, ActionPumpWater:
		return CategoryFarm
	case ActionCleanup, ActionBuyBlueprint, ActionBuild:
		return CategoryExpansion
	case ActionCatchSeeds:
		return CategoryTower
	case ActionBuyItem, ActionBuyUpgrade:
		return CategoryPurchase
	case ActionSellMaterial:
		return CategoryTrade
	case ActionTrainHero, ActionTrainGnome:
		return CategoryTraining
	case ActionAdventure:
		return CategoryAdventure
	case ActionCraft, ActionStokeForge:
		return CategoryCraft
	case ActionStartMining:
		return CategoryMining
	case ActionRescueGnome, ActionAssignGnome:
		return CategoryHelpers
	default:
		return CategoryNavigation
	}
}

// Prereq is one named gate on a candidate.
type Prereq struct {
	ID  string `json:"id"`
	Met bool   `json:"met"`
}

// Candidate is one proposed action with everything needed to score and
// execute it.
type Candidate struct {
	Kind    ActionKind        `json:"kind"`
	Target  string            `json:"target,omitempty"`
	Screen  gamedata.ScreenID `json:"screen"`
	Minutes int               `json:"minutes"`
	Costs   []state.Op        `json:"costs,omitempty"`
	Rewards []state.Op        `json:"rewards,omitempty"`
	Prereqs []Prereq          `json:"prereqs,omitempty"`

	// Payload for the executor; which fields apply depends on Kind.
	Crop     gamedata.CropKind     `json:"crop,omitempty"`
	Material gamedata.MaterialKind `json:"material,omitempty"`
	Item     gamedata.OutputKind   `json:"item,omitempty"`
	Quantity int                   `json:"quantity,omitempty"`
	Depth    int                   `json:"depth,omitempty"`
	Loadout  []combat.Weapon       `json:"loadout,omitempty"`
	Gnome    int                   `json:"gnome,omitempty"`
	Role     state.Role            `json:"role,omitempty"`

	// Value is the additive bonus from expected rewards.
	Value     float64  `json:"value"`
	Score     float64  `json:"score"`
	Emergency bool     `json:"emergency,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
	order     int
}

// Label is a short human-readable name for the candidate.
func (c Candidate) Label() string {
	if c.Target == "" {
		return c.Kind.String()
	}
	return c.Kind.String() + ":" + c.Target
}

// Ready reports whether every prerequisite is met.
func (c Candidate) Ready() bool {
	for _, p := range c.Prereqs {
		if !p.Met {
			return false
		}
	}
	return true
}

// Unmet lists the ids of unmet prerequisites.
func (c Candidate) Unmet() []string {
	var out []string
	for _, p := range c.Prereqs {
		if !p.Met {
			out = append(out, p.ID)
		}
	}
	return out
}

// Reasoning joins the scoring trail into one line.
func (c Candidate) Reasoning() string {
	return fmt.Sprintf("%s scored %.1f: %s", c.Label(), c.Score, strings.Join(c.Reasons, ", "))
}

func (c *Candidate) need(id string, met bool) {
	c.Prereqs = append(c.Prereqs, Prereq{ID: id, Met: met})
}
