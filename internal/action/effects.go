package action

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/talgya/farmsim/internal/decision"
	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
)

func (x *Executor) farm(st *state.Store, c decision.Candidate) (string, error) {
	switch c.Kind {
	case decision.ActionHarvest:
		done := x.procs.HarvestReady(st, c.Quantity)
		if len(done) == 0 {
			return "", fmt.Errorf("%w: nothing to harvest", ErrStale)
		}
		energy, wasted := 0, 0
		for _, h := range done {
			energy += h.Energy
			wasted += h.Wasted
		}
		if wasted > 0 {
			return fmt.Sprintf("harvested %d crops for %d energy (%d wasted)", len(done), energy, wasted), nil
		}
		return fmt.Sprintf("harvested %d crops for %d energy", len(done), energy), nil

	case decision.ActionClearWithered:
		n := x.procs.ClearWithered(st)
		if n == 0 {
			return "", fmt.Errorf("%w: no withered crops", ErrStale)
		}
		return fmt.Sprintf("cleared %d withered crops", n), nil

	case decision.ActionPlant:
		planted := 0
		for _, plot := range st.State().FreePlots() {
			if planted >= max(c.Quantity, 1) {
				break
			}
			kind := c.Crop
			if st.State().Resources.Seeds[kind] <= 0 {
				best, ok := process.BestSeed(st.State(), x.catalog)
				if !ok {
					break
				}
				kind = best
			}
			if _, err := x.procs.Start(st, process.CropSpec{Plot: plot, Crop: kind}); err != nil {
				return "", err
			}
			planted++
		}
		if planted == 0 {
			return "", fmt.Errorf("%w: no free plot or seed", ErrStale)
		}
		return fmt.Sprintf("planted %d %s", planted, c.Crop), nil

	case decision.ActionWater:
		n, err := x.procs.WaterCrops(st, c.Quantity)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("watered %d crops", n), nil

	default:
		s := st.State()
		if s.Resources.Water >= s.Derived.WaterMax {
			return "", fmt.Errorf("%w: water is full", ErrStale)
		}
		before := s.Resources.Water
		gain := min(max(c.Quantity, 1)*x.params.Farm.PumpAmount, s.Derived.WaterMax-before)
		if _, err := pay(st, state.Water(gain)); err != nil {
			return "", err
		}
		return fmt.Sprintf("pumped %d water", st.State().Resources.Water-before), nil
	}
}

func (x *Executor) cleanup(st *state.Store, id string, log *events.Log) (string, error) {
	cl, ok := x.catalog.Cleanup(id)
	if !ok {
		return "", fmt.Errorf("%w: cleanup %q", gamedata.ErrUnknownID, id)
	}
	s := st.State()
	switch {
	case s.Progression.Cleanups[id]:
		return "", fmt.Errorf("%w: %s already cleared", ErrStale, id)
	case cl.Requires != "" && !s.Progression.Cleanups[cl.Requires]:
		return "", fmt.Errorf("%w: %s needs %s first", process.ErrLocked, id, cl.Requires)
	case cl.Tool.Family != "" && s.Inventory.BestTool(cl.Tool.Family) < cl.Tool.Tier:
		return "", fmt.Errorf("%w: %s needs %s tier %d", process.ErrLocked, id, cl.Tool.Family, cl.Tool.Tier)
	}
	if _, err := pay(st, state.Energy(-cl.Energy)); err != nil {
		return "", err
	}
	res, err := pay(st, state.Gain(cl.Materials)...)
	if err != nil {
		return "", err
	}
	s.Progression.Cleanups[id] = true
	s.Progression.Plots += cl.Plots
	log.Add(events.Low, events.CategoryProgress, "cleared %s: %d plots now", id, s.Progression.Plots)
	if res.Wasted > 0 {
		return fmt.Sprintf("cleared %s for %d plots, %d materials wasted", id, cl.Plots, res.Wasted), nil
	}
	return fmt.Sprintf("cleared %s for %d plots", id, cl.Plots), nil
}

func (x *Executor) buyBlueprint(st *state.Store, id string) (string, error) {
	bp, ok := x.catalog.Blueprint(id)
	if !ok {
		return "", fmt.Errorf("%w: blueprint %q", gamedata.ErrUnknownID, id)
	}
	s := st.State()
	if s.Inventory.Blueprints[id].Purchased {
		return "", fmt.Errorf("%w: %s blueprint already owned", ErrStale, id)
	}
	if bp.Requires != "" && !s.Progression.BuiltStructures[bp.Requires] {
		return "", fmt.Errorf("%w: %s needs %s built", process.ErrLocked, id, bp.Requires)
	}
	if _, err := pay(st, state.Gold(-bp.Gold)); err != nil {
		return "", err
	}
	s.Inventory.Blueprints[id] = state.BlueprintState{
		Purchased:   true,
		PurchasedAt: s.Clock.Total,
		Cost:        state.BuildCost{Energy: bp.BuildEnergy, Materials: maps.Clone(bp.BuildMaterials)},
	}
	return fmt.Sprintf("bought the %s blueprint for %d gold", id, bp.Gold), nil
}

// build spends the cost captured at purchase, not the current table value.
func (x *Executor) build(st *state.Store, id string, log *events.Log) (string, error) {
	s := st.State()
	bs, ok := s.Inventory.Blueprints[id]
	switch {
	case !ok || !bs.Purchased:
		return "", fmt.Errorf("%w: no %s blueprint", process.ErrLocked, id)
	case bs.Built:
		return "", fmt.Errorf("%w: %s already built", ErrStale, id)
	}
	ops := append([]state.Op{state.Energy(-bs.Cost.Energy)}, state.Spend(bs.Cost.Materials)...)
	if _, err := pay(st, ops...); err != nil {
		return "", err
	}
	bs.Built = true
	bs.BuiltAt = s.Clock.Total
	s.Inventory.Blueprints[id] = bs
	s.Progression.BuiltStructures[id] = true

	if bp, ok := x.catalog.Blueprint(id); ok && bp.UnlocksScreen != nil {
		log.Add(events.Low, events.CategoryProgress, "built %s, %s unlocked", id, *bp.UnlocksScreen)
	} else {
		log.Add(events.Low, events.CategoryProgress, "built %s", id)
	}
	return "built " + id, nil
}

func (x *Executor) buyItem(st *state.Store, c decision.Candidate) (string, error) {
	s := st.State()
	inv := &s.Inventory
	switch c.Item {
	case gamedata.OutputTool:
		t, ok := x.catalog.Tool(c.Target)
		if !ok || t.Gold <= 0 {
			return "", fmt.Errorf("%w: tool %q for sale", gamedata.ErrUnknownID, c.Target)
		}
		if inv.BestTool(t.Family) >= t.Tier {
			return "", fmt.Errorf("%w: already own a %s", ErrStale, t.Family)
		}
		if _, err := pay(st, state.Gold(-t.Gold)); err != nil {
			return "", err
		}
		inv.Tools[t.ID] = state.ToolState{Family: t.Family, Tier: t.Tier, Equipped: true}
		return fmt.Sprintf("bought %s for %d gold", t.ID, t.Gold), nil

	case gamedata.OutputWeapon:
		for _, w := range x.catalog.Weapons() {
			if w.ID != c.Target {
				continue
			}
			if inv.Weapons[w.Kind] > 0 {
				return "", fmt.Errorf("%w: already own a %s", ErrStale, w.Kind)
			}
			if _, err := pay(st, state.Gold(-w.Gold)); err != nil {
				return "", err
			}
			inv.Weapons[w.Kind] = 1
			return fmt.Sprintf("bought %s for %d gold", w.ID, w.Gold), nil
		}
		return "", fmt.Errorf("%w: weapon %q", gamedata.ErrUnknownID, c.Target)

	case gamedata.OutputArmor:
		a, ok := x.catalog.ArmorPiece(c.Target)
		if !ok || a.Gold <= 0 {
			return "", fmt.Errorf("%w: armor %q for sale", gamedata.ErrUnknownID, c.Target)
		}
		if _, owned := inv.Armor[a.ID]; owned {
			return "", fmt.Errorf("%w: already own %s", ErrStale, a.ID)
		}
		if _, err := pay(st, state.Gold(-a.Gold)); err != nil {
			return "", err
		}
		inv.Armor[a.ID] = a.Defense
		return fmt.Sprintf("bought %s for %d gold", a.ID, a.Gold), nil
	}
	return "", fmt.Errorf("%w: item kind %q", gamedata.ErrUnknownID, c.Item)
}

func (x *Executor) buyUpgrade(st *state.Store, id string) (string, error) {
	up, ok := x.catalog.Upgrade(id)
	if !ok {
		return "", fmt.Errorf("%w: upgrade %q", gamedata.ErrUnknownID, id)
	}
	s := st.State()
	switch {
	case s.Progression.HasUpgrade(id):
		return "", fmt.Errorf("%w: %s already bought", ErrStale, id)
	case up.Requires != "" && !s.Progression.HasUpgrade(up.Requires):
		return "", fmt.Errorf("%w: %s needs %s", process.ErrLocked, id, up.Requires)
	case up.RequiresStructure != "" && !s.Progression.BuiltStructures[up.RequiresStructure]:
		return "", fmt.Errorf("%w: %s needs %s built", process.ErrLocked, id, up.RequiresStructure)
	}
	if _, err := pay(st, state.Gold(-up.Gold)); err != nil {
		return "", err
	}
	s.Progression.Upgrades = append(s.Progression.Upgrades, id)
	return fmt.Sprintf("bought %s for %d gold", id, up.Gold), nil
}

func (x *Executor) sell(st *state.Store, kind gamedata.MaterialKind, qty int) (string, error) {
	s := st.State()
	if qty <= 0 {
		return "", fmt.Errorf("%w: nothing to sell", ErrStale)
	}
	if _, err := pay(st, state.Material(kind, -qty)); err != nil {
		return "", err
	}
	if s.Town.Supply == nil {
		s.Town.Supply = make(map[gamedata.MaterialKind]float64)
	}
	gold := x.market.Sell(s.Town.Supply, kind, qty)
	if _, err := pay(st, state.Gold(gold)); err != nil {
		return "", err
	}
	return fmt.Sprintf("sold %d %s for %d gold", qty, kind, gold), nil
}

func (x *Executor) trainHero(st *state.Store, log *events.Log) (string, error) {
	s := st.State()
	cost := x.params.Town.HeroTrainingGold * s.Progression.HeroLevel
	if _, err := pay(st, state.Gold(-cost)); err != nil {
		return "", err
	}
	if n := s.Progression.AddHeroXP(x.params.Town.HeroTrainingXP, x.params.Adventure.XPPerLevel); n > 0 {
		log.Add(events.Low, events.CategoryProgress, "hero reached level %d", s.Progression.HeroLevel)
	}
	return fmt.Sprintf("trained the hero for %d gold", cost), nil
}

func (x *Executor) adventure(st *state.Store, c decision.Candidate) (string, error) {
	rt, ok := x.catalog.Route(c.Target)
	if !ok {
		return "", fmt.Errorf("%w: route %q", gamedata.ErrUnknownID, c.Target)
	}
	if _, err := pay(st, state.Energy(-rt.Energy)); err != nil {
		return "", err
	}
	if _, err := x.procs.Start(st, process.AdventureSpec{Route: rt.ID, Loadout: c.Loadout}); err != nil {
		return "", err
	}
	return fmt.Sprintf("set out on %s", rt.ID), nil
}

func (x *Executor) craft(st *state.Store, id string) (string, error) {
	rc, ok := x.catalog.Recipe(id)
	if !ok {
		return "", fmt.Errorf("%w: recipe %q", gamedata.ErrUnknownID, id)
	}
	if _, err := pay(st, append(state.Spend(rc.Materials), state.Gold(-rc.Gold))...); err != nil {
		return "", err
	}
	if _, err := x.procs.Start(st, process.CraftSpec{Recipe: rc.ID}); err != nil {
		return "", err
	}
	return "queued " + rc.ID, nil
}

func (x *Executor) stoke(st *state.Store, fuel gamedata.MaterialKind, qty int) (string, error) {
	s := st.State()
	if len(s.Processes.Forge.Queue) == 0 {
		return "", fmt.Errorf("%w: forge queue is empty", ErrStale)
	}
	if _, err := pay(st, state.Material(fuel, -qty)); err != nil {
		return "", err
	}
	added := x.procs.AddHeat(s, float64(x.params.Forge.HeatPerStoke))
	if added <= 0 {
		return "", fmt.Errorf("%w: forge is at max heat", ErrStale)
	}
	return fmt.Sprintf("burned %d %s for %.0f heat", qty, fuel, added), nil
}

func (x *Executor) helper(st *state.Store, c decision.Candidate, log *events.Log) (string, error) {
	s := st.State()
	gp := x.params.Gnomes
	switch c.Kind {
	case decision.ActionRescueGnome:
		if s.Progression.RescueLeads <= 0 {
			return "", fmt.Errorf("%w: no rescue lead", ErrStale)
		}
		if _, err := pay(st, state.Energy(-gp.RescueEnergy)); err != nil {
			return "", err
		}
		s.Progression.RescueLeads--
		g := x.spawner.Rescue(s.Processes.NewID())
		s.Gnomes = append(s.Gnomes, g)
		log.Add(events.Low, events.CategoryGnome, "rescued %s", g.Name)
		return "rescued " + g.Name, nil
	}

	idx := -1
	for i, g := range s.Gnomes {
		if g.ID == c.Gnome {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: gnome %d", gamedata.ErrUnknownID, c.Gnome)
	}

	if c.Kind == decision.ActionAssignGnome {
		switch {
		case s.Gnomes[idx].Role != state.RoleNone:
			return "", fmt.Errorf("%w: gnome %d already %s", ErrStale, c.Gnome, s.Gnomes[idx].Role)
		case !gnomes.CanAssign(s):
			return "", fmt.Errorf("%w: no housing for another helper", process.ErrLocked)
		case !gnomes.RoleAvailable(s, c.Role):
			return "", fmt.Errorf("%w: role %s", process.ErrLocked, c.Role)
		}
		g := &s.Gnomes[idx]
		g.Role = c.Role
		g.Task = c.Role.String()
		return fmt.Sprintf("assigned %s as %s", g.Name, c.Role), nil
	}

	if _, err := pay(st, state.Gold(-x.params.Town.GnomeTrainingGold)); err != nil {
		return "", err
	}
	g := &s.Gnomes[idx]
	if n := gnomes.AddXP(g, x.params.Town.GnomeTrainingXP); n > 0 {
		log.Add(events.Info, events.CategoryGnome, "%s reached level %d", g.Name, g.Level)
	}
	return "trained gnome " + strconv.Itoa(g.ID), nil
}
