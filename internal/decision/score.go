package decision

import (
	"fmt"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/gamedata"
)

var baseScores = [NumActions]float64{
	ActionHarvest:       100,
	ActionClearWithered: 60,
	ActionPlant:         80,
	ActionWater:         70,
	ActionPumpWater:     40,
	ActionCleanup:       45,
	ActionBuyBlueprint:  50,
	ActionBuild:         55,
	ActionCatchSeeds:    65,
	ActionBuyItem:       35,
	ActionBuyUpgrade:    30,
	ActionSellMaterial:  20,
	ActionTrainHero:     25,
	ActionAdventure:     40,
	ActionCraft:         35,
	ActionStokeForge:    30,
	ActionStartMining:   35,
	ActionRescueGnome:   45,
	ActionAssignGnome:   50,
	ActionTrainGnome:    15,
	ActionNavigate:      5,
}

// BaseScore is the unweighted score of an action kind.
func BaseScore(k ActionKind) float64 {
	if int(k) < len(baseScores) {
		return baseScores[k]
	}
	return 0
}

// PersonaWeight scales a category by the persona trait that drives it.
func PersonaWeight(p config.Persona, c Category) float64 {
	switch c {
	case CategoryFarm, CategoryHelpers:
		return 0.8 + 0.4*p.Efficiency
	case CategoryExpansion, CategoryTrade:
		return 0.8 + 0.4*p.Optimization
	case CategoryPurchase, CategoryCraft:
		return 0.7 + 0.6*p.Optimization
	case CategoryAdventure, CategoryMining:
		return 0.5 + p.RiskTolerance
	case CategoryTower:
		return 0.8 + 0.4*p.LearningRate
	case CategoryTraining:
		return 0.7 + 0.6*p.LearningRate
	default:
		return 1
	}
}

// scorer carries what one evaluation needs to score candidates.
type scorer struct {
	params  config.Params
	persona config.Persona
	bn      Bottlenecks
	here    gamedata.ScreenID
	jitter  func() float64 // returns a draw in [-1, 1), or nil for none
}

func (sc scorer) score(c *Candidate, e *Engine) {
	score := BaseScore(c.Kind) + c.Value
	c.Reasons = append(c.Reasons, fmt.Sprintf("base %.0f", BaseScore(c.Kind)))
	if c.Value != 0 {
		c.Reasons = append(c.Reasons, fmt.Sprintf("value %+.1f", c.Value))
	}

	if what, ok := sc.bn.Relieves(*c, e.catalog); ok {
		score *= sc.params.Decision.BottleneckMultiplier
		c.Reasons = append(c.Reasons, fmt.Sprintf("relieves %s x%.1f", what, sc.params.Decision.BottleneckMultiplier))
	}

	w := PersonaWeight(sc.persona, CategoryOf(c.Kind))
	score *= w
	c.Reasons = append(c.Reasons, fmt.Sprintf("persona x%.2f", w))

	if c.Kind != ActionNavigate {
		if pr, ok := sc.params.Screens.Priority[c.Screen.String()]; ok && pr != 1 {
			score *= pr
			c.Reasons = append(c.Reasons, fmt.Sprintf("screen %s x%.2f", c.Screen, pr))
		}
		if c.Screen != sc.here {
			score *= sc.params.Decision.OffScreenPenalty
			c.Reasons = append(c.Reasons, fmt.Sprintf("off screen x%.2f", sc.params.Decision.OffScreenPenalty))
		}
	}

	if sc.jitter != nil && sc.params.Decision.Jitter > 0 {
		score *= 1 + sc.params.Decision.Jitter*sc.jitter()
	}
	c.Score = score
}
