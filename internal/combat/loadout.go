package combat

import (
	"sort"

	"github.com/talgya/farmsim/internal/gamedata"
)

// bossWeight is how much the boss counts in loadout selection relative to
// the heaviest regular enemy.
const bossWeight = 2.0

// ChooseLoadout picks the two owned weapons that maximise expected damage
// over the route's enemy distribution. owned maps weapon family to level.
func ChooseLoadout(cat *gamedata.Catalog, route gamedata.RouteDef, owned map[gamedata.WeaponKind]int, heroLevel int) []Weapon {
	kinds := make([]gamedata.WeaponKind, 0, len(owned))
	for k, lvl := range owned {
		if lvl > 0 {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	if len(kinds) == 0 {
		return nil
	}

	var kindWeights [gamedata.NumEnemyKinds]float64
	heaviest := 0.0
	for _, e := range route.Enemies {
		def, ok := cat.Enemy(e.ID)
		if !ok {
			continue
		}
		kindWeights[def.Kind] += e.Weight
		heaviest = max(heaviest, e.Weight)
	}
	if boss, ok := cat.Boss(route.Boss); ok {
		kindWeights[boss.Kind] += bossWeight * max(heaviest, 1)
	}

	score := func(ws []Weapon) float64 {
		total := 0.0
		for k, w := range kindWeights {
			if w == 0 {
				continue
			}
			_, dmg, _ := pick(ws, gamedata.EnemyKind(k), heroLevel)
			total += w * dmg
		}
		return total
	}

	best := []Weapon{{Kind: kinds[0], Level: owned[kinds[0]]}}
	bestScore := score(best)
	for i := range kinds {
		for j := i; j < len(kinds); j++ {
			ws := []Weapon{{Kind: kinds[i], Level: owned[kinds[i]]}}
			if j != i {
				ws = append(ws, Weapon{Kind: kinds[j], Level: owned[kinds[j]]})
			}
			if s := score(ws); s > bestScore {
				best, bestScore = ws, s
			}
		}
	}
	return best
}

// WinRate resolves a route against several fixed seeds and returns the
// fraction won. Used for planning; it never touches live state.
func WinRate(cat *gamedata.Catalog, route gamedata.RouteDef, lo Loadout, seeds []uint64, roundCap int) float64 {
	if len(seeds) == 0 {
		return 0
	}
	wins := 0
	for _, seed := range seeds {
		out, err := Resolve(cat, route, lo, seed, roundCap)
		if err == nil && out.Success {
			wins++
		}
	}
	return float64(wins) / float64(len(seeds))
}
