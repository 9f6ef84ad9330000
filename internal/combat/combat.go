// Package combat resolves adventure routes. Resolution is a pure function of
// its inputs: the same route, loadout, hero level and seed always produce the
// same outcome and log.
package combat

import (
	"fmt"
	"math"

	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/gamedata"
)

const (
	strongMultiplier = 1.5
	weakMultiplier   = 0.5
	maxDefense       = 80
)

// Weapon is an equipped weapon.
type Weapon struct {
	Kind  gamedata.WeaponKind `json:"kind"`
	Level int                 `json:"level"`
}

// Loadout is the hero's gear for one route.
type Loadout struct {
	Weapons   []Weapon `json:"weapons"` // at most two are used
	Defense   int      `json:"defense"`
	HeroLevel int      `json:"hero_level"`
}

// Outcome is the result of a resolved route.
type Outcome struct {
	Success      bool               `json:"success"`
	FinalHP      int                `json:"final_hp"`
	MaxHP        int                `json:"max_hp"`
	WavesCleared int                `json:"waves_cleared"`
	Gold         int                `json:"gold"`
	XP           int                `json:"xp"`
	Loot         gamedata.Materials `json:"loot,omitempty"`
	Log          []string           `json:"log"`
}

// Matchup returns the damage multiplier of a weapon against an enemy kind.
// Weapon i is strong against enemy kind i and weak against kind i+3 (mod 5).
func Matchup(w gamedata.WeaponKind, e gamedata.EnemyKind) float64 {
	switch int(e) {
	case int(w):
		return strongMultiplier
	case (int(w) + 3) % gamedata.NumEnemyKinds:
		return weakMultiplier
	default:
		return 1
	}
}

// WeaponDamage is the base hit of a weapon for a hero level.
func WeaponDamage(level, heroLevel int) int {
	return 10 + 6*(max(level, 1)-1) + 2*heroLevel
}

// UnarmedDamage is the base hit with no weapon.
func UnarmedDamage(heroLevel int) int {
	return 4 + 2*heroLevel
}

// HeroHP is the hero's starting hit points.
func HeroHP(heroLevel int) int {
	return 80 + 12*heroLevel
}

// Incoming applies defense to an enemy hit. Defense is capped at 80.
func Incoming(base, defense int) int {
	def := min(max(defense, 0), maxDefense)
	return max(1, int(math.Round(float64(base)*(1-float64(def)/100))))
}

// pick returns the equipped weapon to use against kind: advantaged if any,
// else neutral, else the resisted one. Damage only breaks ties within a
// matchup tier. ok is false when unarmed.
func pick(ws []Weapon, kind gamedata.EnemyKind, heroLevel int) (w Weapon, dmg float64, ok bool) {
	tier, best := -1.0, -1.0
	for _, cand := range ws {
		m := Matchup(cand.Kind, kind)
		d := float64(WeaponDamage(cand.Level, heroLevel)) * m
		if m > tier || (m == tier && d > best) {
			tier, best, w, ok = m, d, cand, true
		}
	}
	if !ok {
		return Weapon{}, float64(UnarmedDamage(heroLevel)), false
	}
	return w, best, true
}

type foe struct {
	name   string
	kind   gamedata.EnemyKind
	hp     int
	maxHP  int
	damage int
	gold   int
	xp     int
}

func scaled(e gamedata.EnemyDef, power float64) foe {
	hp := int(math.Round(float64(e.HP) * power))
	return foe{
		name:   e.ID,
		kind:   e.Kind,
		hp:     hp,
		maxHP:  hp,
		damage: int(math.Round(float64(e.Damage) * power)),
		gold:   e.Gold,
		xp:     e.XP,
	}
}

// Roster draws the regular enemies of a route, one slice per wave, followed
// by the boss as the final wave.
func Roster(cat *gamedata.Catalog, route gamedata.RouteDef, seed uint64) ([][]gamedata.EnemyDef, gamedata.BossDef, error) {
	boss, ok := cat.Boss(route.Boss)
	if !ok {
		return nil, gamedata.BossDef{}, fmt.Errorf("%w: boss %q", gamedata.ErrUnknownID, route.Boss)
	}
	rng := entropy.New(seed)
	weights := make([]float64, len(route.Enemies))
	for i, e := range route.Enemies {
		weights[i] = e.Weight
	}
	waves := make([][]gamedata.EnemyDef, 0, route.Waves-1)
	for i := range route.Waves - 1 {
		size := 1 + i/3
		wave := make([]gamedata.EnemyDef, 0, size)
		for range size {
			idx := rng.Weighted(weights)
			if idx < 0 {
				break
			}
			def, ok := cat.Enemy(route.Enemies[idx].ID)
			if !ok {
				return nil, gamedata.BossDef{}, fmt.Errorf("%w: enemy %q", gamedata.ErrUnknownID, route.Enemies[idx].ID)
			}
			wave = append(wave, def)
		}
		waves = append(waves, wave)
	}
	return waves, boss, nil
}

// Resolve fights a route to its end. roundCap bounds the rounds spent on any
// single enemy; reaching it is a loss.
func Resolve(cat *gamedata.Catalog, route gamedata.RouteDef, lo Loadout, seed uint64, roundCap int) (Outcome, error) {
	waves, boss, err := Roster(cat, route, seed)
	if err != nil {
		return Outcome{}, err
	}
	if roundCap <= 0 {
		roundCap = 40
	}
	ws := lo.Weapons
	if len(ws) > 2 {
		ws = ws[:2]
	}

	b := &battle{
		loadout:  lo,
		weapons:  ws,
		roundCap: roundCap,
		out:      Outcome{MaxHP: HeroHP(lo.HeroLevel)},
	}
	b.hp = b.out.MaxHP
	b.logf("route %s: %d waves, hero level %d, hp %d, defense %d",
		route.ID, route.Waves, lo.HeroLevel, b.hp, min(lo.Defense, maxDefense))

	for i, wave := range waves {
		for _, def := range wave {
			if !b.fight(scaled(def, route.Power)) {
				return b.finish(false), nil
			}
		}
		b.out.WavesCleared = i + 1
	}
	if !b.fightBoss(boss, route.Power) {
		return b.finish(false), nil
	}
	b.out.WavesCleared = route.Waves
	b.out.Gold += route.Gold
	b.out.XP += route.XP
	if len(route.Loot) > 0 {
		b.out.Loot = make(gamedata.Materials, len(route.Loot))
		for k, v := range route.Loot {
			b.out.Loot[k] = v
		}
	}
	return b.finish(true), nil
}

type battle struct {
	loadout  Loadout
	weapons  []Weapon
	roundCap int
	hp       int
	out      Outcome
}

func (b *battle) logf(format string, args ...any) {
	b.out.Log = append(b.out.Log, fmt.Sprintf(format, args...))
}

func (b *battle) finish(success bool) Outcome {
	b.out.Success = success
	b.out.FinalHP = max(b.hp, 0)
	if success {
		b.logf("victory with %d/%d hp", b.out.FinalHP, b.out.MaxHP)
	} else {
		b.logf("defeat after %d waves", b.out.WavesCleared)
	}
	return b.out
}

func (b *battle) weaponLabel(kind gamedata.EnemyKind) (string, float64) {
	w, dmg, ok := b.pick(kind)
	if !ok {
		return "fists", dmg
	}
	return fmt.Sprintf("%s+%d x%.1f", w.Kind, w.Level, Matchup(w.Kind, kind)), dmg
}

func (b *battle) pick(kind gamedata.EnemyKind) (Weapon, float64, bool) {
	return pick(b.weapons, kind, b.loadout.HeroLevel)
}

// fight is a duel with one regular enemy. It returns false if the hero falls
// or the round cap is reached.
func (b *battle) fight(f foe) bool {
	label, dmg := b.weaponLabel(f.kind)
	hit := max(1, int(math.Round(dmg)))
	in := Incoming(f.damage, b.loadout.Defense)
	rounds := 0
	for f.hp > 0 {
		if rounds >= b.roundCap {
			b.logf("%s outlasted the hero", f.name)
			return false
		}
		rounds++
		f.hp -= hit
		if f.hp <= 0 {
			break
		}
		b.hp -= in
		if b.hp <= 0 {
			b.logf("%s (%s) felled the hero in %d rounds", f.name, f.kind, rounds)
			return false
		}
	}
	b.out.Gold += f.gold
	b.out.XP += f.xp
	b.logf("defeated %s (%s, %d hp) with %s in %d rounds, hp %d", f.name, f.kind, f.maxHP, label, rounds, b.hp)
	return true
}

// fightBoss plays out the boss encounter with its quirk layered on the same
// damage rules.
func (b *battle) fightBoss(def gamedata.BossDef, power float64) bool {
	boss := scaled(def.EnemyDef, power)
	label, dmg := b.weaponLabel(boss.kind)
	baseHit := max(1, int(math.Round(dmg)))
	in := Incoming(boss.damage, b.loadout.Defense)

	var minions []foe
	thresholds := append([]float64(nil), def.Thresholds...)
	stacks := 0
	bossDefense := def.DefenseStart

	b.logf("boss %s (%s, %d hp, %s) engaged with %s", boss.name, boss.kind, boss.maxHP, quirkLabel(def.Quirk), label)
	for round := 0; boss.hp > 0; round++ {
		if round >= b.roundCap {
			b.logf("boss %s outlasted the hero", boss.name)
			return false
		}

		// Hero strikes the first minion if any, else the boss.
		if len(minions) > 0 {
			_, mdmg, _ := b.pick(minions[0].kind)
			minions[0].hp -= max(1, int(math.Round(mdmg)))
			if minions[0].hp <= 0 {
				b.logf("round %d: cleared a %s minion", round+1, boss.name)
				minions = minions[1:]
			}
		} else {
			hit := baseHit
			switch def.Quirk {
			case gamedata.QuirkInvulnerable:
				if round%def.Cycle >= def.Cycle-def.Window {
					hit = 0
				}
			case gamedata.QuirkEscalatingDefense:
				d := min(bossDefense, maxDefense)
				hit = max(1, int(math.Round(float64(baseHit)*(1-float64(d)/100))))
			}
			boss.hp -= hit
			if def.Quirk == gamedata.QuirkSummon {
				for len(thresholds) > 0 && boss.hp > 0 && float64(boss.hp) <= thresholds[0]*float64(boss.maxHP) {
					thresholds = thresholds[1:]
					minions = append(minions, foe{
						name:   boss.name + " minion",
						kind:   boss.kind,
						hp:     int(math.Round(float64(def.MinionHP) * power)),
						damage: int(math.Round(float64(def.MinionDamage) * power)),
					})
					b.logf("round %d: %s summoned a minion at %d hp", round+1, boss.name, boss.hp)
				}
			}
			if boss.hp <= 0 {
				break
			}
		}

		// Boss and minions strike back.
		taken := in
		for _, m := range minions {
			taken += Incoming(m.damage, b.loadout.Defense)
		}
		if def.Quirk == gamedata.QuirkDamageOverTime {
			stacks++
			taken += stacks * def.DotPerStack
		}
		b.hp -= taken
		if def.Quirk == gamedata.QuirkEscalatingDefense {
			bossDefense += def.DefenseStep
		}
		if b.hp <= 0 {
			b.logf("round %d: boss %s felled the hero", round+1, boss.name)
			return false
		}
	}
	b.out.Gold += boss.gold
	b.out.XP += boss.xp
	b.logf("boss %s defeated, hp %d", boss.name, b.hp)
	return true
}

func quirkLabel(q gamedata.QuirkKind) string {
	if q == gamedata.QuirkNone {
		return "no quirk"
	}
	return string(q)
}
