package process

import (
	"fmt"

	"github.com/talgya/farmsim/internal/combat"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

func (m *Manager) startAdventure(s *state.State, sp AdventureSpec) (int, error) {
	route, ok := m.catalog.Route(sp.Route)
	if !ok {
		return 0, fmt.Errorf("%w: route %q", gamedata.ErrUnknownID, sp.Route)
	}
	if s.Processes.Adventure != nil {
		return 0, fmt.Errorf("%w: already adventuring", ErrBusy)
	}
	if s.Progression.HeroLevel < route.RequiredLevel {
		return 0, fmt.Errorf("%w: %s needs hero level %d", ErrLocked, route.ID, route.RequiredLevel)
	}
	kinds := make([]gamedata.WeaponKind, 0, len(sp.Loadout))
	for _, w := range sp.Loadout {
		if s.Inventory.Weapons[w.Kind] <= 0 {
			return 0, fmt.Errorf("%w: %s not owned", state.ErrInsufficient, w.Kind)
		}
		kinds = append(kinds, w.Kind)
	}
	id := s.Processes.NewID()
	s.Processes.Adventure = &state.AdventureSession{
		ID:      id,
		Route:   route.ID,
		Seed:    m.fightRNG.Uint64(),
		Loadout: kinds,
		HP:      combat.HeroHP(s.Progression.HeroLevel),
	}
	return id, nil
}

// Loadout builds the combat loadout for the hero's current gear.
func Loadout(s *state.State, kinds []gamedata.WeaponKind) combat.Loadout {
	ws := make([]combat.Weapon, 0, len(kinds))
	for _, k := range kinds {
		if lvl := s.Inventory.Weapons[k]; lvl > 0 {
			ws = append(ws, combat.Weapon{Kind: k, Level: lvl})
		}
	}
	return combat.Loadout{Weapons: ws, Defense: s.Inventory.Defense(), HeroLevel: s.Progression.HeroLevel}
}

// tickAdventure resolves a started route in one step. Routes do not persist
// mid-fight; the stored seed fixes the roster and rolls.
func (m *Manager) tickAdventure(st *state.Store, log *events.Log, rep *Report) {
	s := st.State()
	adv := s.Processes.Adventure
	if adv == nil {
		return
	}
	s.Processes.Adventure = nil
	done := Completion{ID: adv.ID, Kind: KindAdventure, Label: adv.Route}

	route, ok := m.catalog.Route(adv.Route)
	if !ok {
		rep.Failed = append(rep.Failed, done)
		log.Add(events.High, events.CategoryAdventure, "route %q vanished from the catalog", adv.Route)
		return
	}
	out, err := combat.Resolve(m.catalog, route, Loadout(s, adv.Loadout), adv.Seed, m.params.Adventure.RoundCap)
	if err != nil {
		rep.Failed = append(rep.Failed, done)
		log.Add(events.High, events.CategoryAdventure, "route %s: %v", route.ID, err)
		return
	}

	ops := []state.Op{state.Gold(out.Gold)}
	ops = append(ops, state.Gain(out.Loot)...)
	res := st.Apply(ops...)
	levels := s.Progression.AddHeroXP(out.XP, m.params.Adventure.XPPerLevel)

	if !out.Success {
		s.Stats.AdventuresLost++
		rep.Failed = append(rep.Failed, done)
		log.Add(events.Low, events.CategoryAdventure, "%s lost after %d of %d waves (%d gold, %d xp)",
			route.ID, out.WavesCleared, route.Waves, out.Gold, out.XP)
	} else {
		s.Stats.AdventuresWon++
		if route.RescueLead {
			s.Progression.RescueLeads++
		}
		rep.Completed = append(rep.Completed, done)
		log.Add(events.Info, events.CategoryAdventure, "%s cleared with %d/%d hp: %d gold, %d xp, %d loot over cap",
			route.ID, out.FinalHP, out.MaxHP, out.Gold, out.XP, res.Wasted)
	}
	if levels > 0 {
		log.Add(events.Info, events.CategoryProgress, "hero reached level %d", s.Progression.HeroLevel)
	}
}
