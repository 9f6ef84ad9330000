package gnomes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/state"
)

func TestEfficiencyAndLevels(t *testing.T) {
	assert.Equal(t, 1.0, Efficiency(1))
	assert.Equal(t, 1.5, Efficiency(3))

	g := state.Gnome{Level: 1}
	assert.Equal(t, 0, AddXP(&g, 99))
	assert.Equal(t, 1, AddXP(&g, 1))
	assert.Equal(t, 2, g.Level)
	assert.Equal(t, 0, g.XP)

	// 200 for level 2, 300 for level 3.
	assert.Equal(t, 2, AddXP(&g, 510))
	assert.Equal(t, 4, g.Level)
	assert.Equal(t, 10, g.XP)
}

func TestHousingGatesAssignment(t *testing.T) {
	s := &state.State{Gnomes: []state.Gnome{{ID: 1, Role: state.RoleWaterer}, {ID: 2}}}
	s.Derived.Housing = 1
	assert.False(t, CanAssign(s))
	s.Derived.Housing = 2
	assert.True(t, CanAssign(s))
	assert.Equal(t, []int{1}, Idle(s))
}

func TestNeededRole(t *testing.T) {
	s := &state.State{Progression: state.Progression{BuiltStructures: map[string]bool{}}}
	assert.Equal(t, state.RoleHarvester, NeededRole(s))

	s.Gnomes = []state.Gnome{{Role: state.RoleHarvester}, {Role: state.RoleWaterer}}
	assert.Equal(t, state.RoleWaterer, NeededRole(s))

	s.Progression.BuiltStructures["forge"] = true
	assert.Equal(t, state.RoleSmith, NeededRole(s))
	assert.False(t, RoleAvailable(s, state.RoleMiner))
}

func TestAccrueCarriesFraction(t *testing.T) {
	g := state.Gnome{Level: 1}
	assert.Equal(t, 0, Accrue(&g, 10, 0.05))
	assert.Equal(t, 1, Accrue(&g, 10, 0.05))
	Consume(&g, 1)
	assert.InDelta(t, 0.0, g.Work, 1e-9)
}

func TestRescueIsDeterministic(t *testing.T) {
	a := NewSpawner(entropy.New(4)).Rescue(7)
	b := NewSpawner(entropy.New(4)).Rescue(7)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, a.Level)
	assert.Equal(t, state.RoleNone, a.Role)
}
