// Package gnomes provides helper levelling, housing rules and role work rates.
package gnomes

import (
	"github.com/talgya/farmsim/internal/state"
)

// Efficiency is the work multiplier of a gnome at level.
func Efficiency(level int) float64 {
	return 1 + 0.25*float64(max(level, 1)-1)
}

// XPForNext is the experience needed to leave level.
func XPForNext(level int) int {
	return 100 * max(level, 1)
}

// AddXP grants experience and applies any level-ups. It returns the number
// of levels gained.
func AddXP(g *state.Gnome, xp int) int {
	if xp <= 0 {
		return 0
	}
	g.XP += xp
	gained := 0
	for g.XP >= XPForNext(g.Level) {
		g.XP -= XPForNext(g.Level)
		g.Level++
		gained++
	}
	return gained
}

// CanAssign reports whether housing has room for one more assigned gnome.
func CanAssign(s *state.State) bool {
	return s.Derived.Housing > s.AssignedGnomes()
}

// RoleAvailable reports whether the farm has what a role needs.
func RoleAvailable(s *state.State, r state.Role) bool {
	switch r {
	case state.RoleWaterer, state.RoleHarvester:
		return true
	case state.RoleMiner:
		return s.Progression.BuiltStructures["mine_entrance"]
	case state.RoleSmith:
		return s.Progression.BuiltStructures["forge"]
	default:
		return false
	}
}

// NeededRole picks the role an idle gnome should take: the first available
// role in priority order that nobody holds yet, else waterer.
func NeededRole(s *state.State) state.Role {
	held := make(map[state.Role]int)
	for _, g := range s.Gnomes {
		held[g.Role]++
	}
	for _, r := range []state.Role{state.RoleHarvester, state.RoleWaterer, state.RoleSmith, state.RoleMiner} {
		if RoleAvailable(s, r) && held[r] == 0 {
			return r
		}
	}
	return state.RoleWaterer
}

// Accrue adds minutes of work at rate to a gnome and returns the whole units
// now available. The fractional remainder carries over.
func Accrue(g *state.Gnome, minutes int, rate float64) int {
	g.Work += float64(minutes) * rate * Efficiency(g.Level)
	units := int(g.Work)
	return units
}

// Consume removes spent work units, never below zero.
func Consume(g *state.Gnome, units float64) {
	g.Work = max(0, g.Work-units)
}

// Idle returns the indices of gnomes with no role.
func Idle(s *state.State) []int {
	var out []int
	for i, g := range s.Gnomes {
		if g.Role == state.RoleNone {
			out = append(out, i)
		}
	}
	return out
}
