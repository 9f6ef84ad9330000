package decision

import (
	"fmt"
	"strconv"

	"github.com/talgya/farmsim/internal/combat"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/gnomes"
	"github.com/talgya/farmsim/internal/process"
	"github.com/talgya/farmsim/internal/state"
)

// enumerate lists every candidate in priority order. Harvest and other
// emergency relief come first so ties favour them.
func (e *Engine) enumerate(s *state.State) []Candidate {
	var out []Candidate
	reserve := e.weaponReserve(s)
	add := func(c Candidate) {
		c.need("screen:"+c.Screen.String(), s.Derived.HasScreen(c.Screen))
		if len(c.Costs) > 0 {
			c.need("afford", state.CanAffordState(s, c.Costs...))
		}
		if g := goldCost(c); reserve > 0 && g > 0 && !keepsReserve(c) {
			c.need("reserve:weapon", s.Resources.Gold-g >= reserve)
		}
		c.order = len(out)
		out = append(out, c)
	}
	e.farm(s, add)
	e.tower(s, add)
	e.structures(s, add)
	e.cleanups(s, add)
	e.helpers(s, add)
	e.mine(s, add)
	e.forge(s, add)
	e.adventures(s, add)
	e.town(s, add)
	e.navigation(s, add)
	return out
}

// weaponReserve is the gold held back until the first weapon is bought:
// without one no route can be won and gold has no steady source. It is the
// cheapest weapon's price, or zero once any weapon is owned.
func (e *Engine) weaponReserve(s *state.State) int {
	for _, lvl := range s.Inventory.Weapons {
		if lvl > 0 {
			return 0
		}
	}
	cheapest := 0
	for _, w := range e.catalog.Weapons() {
		if w.Gold > 0 && (cheapest == 0 || w.Gold < cheapest) {
			cheapest = w.Gold
		}
	}
	return cheapest
}

// keepsReserve reports whether a purchase may dip into the weapon reserve:
// the weapon itself, and the tower that supplies seeds.
func keepsReserve(c Candidate) bool {
	switch c.Kind {
	case ActionBuyItem:
		return c.Item == gamedata.OutputWeapon
	case ActionBuyBlueprint:
		return c.Target == "tower"
	}
	return false
}

func goldCost(c Candidate) int {
	g := 0
	for _, op := range c.Costs {
		if op.Kind == state.ResourceGold && op.Delta < 0 {
			g -= op.Delta
		}
	}
	return g
}

// planningSeeds are the fixed seeds route planning resolves against at the
// current minute.
func (e *Engine) planningSeeds(s *state.State) []uint64 {
	seeds := make([]uint64, max(e.params.Adventure.PlanningRuns, 1))
	for i := range seeds {
		seeds[i] = uint64(s.Clock.Total)*31 + uint64(i)
	}
	return seeds
}

func (e *Engine) farm(s *state.State, add func(Candidate)) {
	t := e.params.Times
	f := gamedata.ScreenFarm

	if ready := process.ReadyCrops(s); len(ready) > 0 {
		energy := 0
		for _, c := range s.Processes.Crops {
			if c.Ready && !c.Withered {
				energy += e.catalog.Crop(c.Kind).EnergyYield
			}
		}
		add(Candidate{
			Kind: ActionHarvest, Screen: f, Quantity: len(ready),
			Minutes: len(ready) * t.HarvestCrop,
			Rewards: []state.Op{state.Energy(energy)},
			Value:   float64(energy) * 2,
		})
	}
	if n := process.WitheredCrops(s); n > 0 {
		add(Candidate{Kind: ActionClearWithered, Screen: f, Quantity: n, Minutes: n * t.ClearCrop, Value: float64(n) * 5})
	}

	free := len(s.FreePlots())
	if kind, ok := process.BestSeed(s, e.catalog); ok && free > 0 {
		q := min(free, plantableSeeds(s, e.catalog), e.waterRoom(s, kind))
		c := Candidate{Kind: ActionPlant, Target: kind.String(), Screen: f, Crop: kind, Quantity: q, Minutes: q * t.PlantCrop, Value: float64(q) * 4}
		c.need("plots:free", true)
		c.need("water:supply", q > 0)
		add(c)
	}

	if n := process.Thirsty(s, e.catalog); n > 0 {
		limit := n
		if s.Inventory.BestTool("watering_can") < 1 {
			limit = min(n, e.params.Farm.UncannedWater)
		}
		c := Candidate{
			Kind: ActionWater, Screen: f, Quantity: limit,
			Minutes: limit * t.WaterCrop,
			Costs:   []state.Op{state.Water(-1)},
			Value:   float64(limit) * 4,
		}
		add(c)
	}
	if room := s.Derived.WaterMax - s.Resources.Water; room > 0 {
		pump := max(e.params.Farm.PumpAmount, 1)
		rounds := (room + pump - 1) / pump
		add(Candidate{
			Kind: ActionPumpWater, Screen: f, Quantity: rounds,
			Minutes: rounds * t.Pump,
			Rewards: []state.Op{state.Water(room)},
			Value:   float64(room) / 2,
		})
	}
}

// waterRoom is how many more crops of kind the water supply can keep
// growing. Hourly demand of growing crops stays within one full pool, and
// without a watering can within two rounds of hand watering.
func (e *Engine) waterRoom(s *state.State, kind gamedata.CropKind) int {
	demand, growing := 0.0, 0
	for _, c := range s.Processes.Crops {
		if c.Ready || c.Withered {
			continue
		}
		demand += e.catalog.Crop(c.Kind).WaterPerHour
		growing++
	}
	per := e.catalog.Crop(kind).WaterPerHour
	if per <= 0 {
		return s.Progression.Plots
	}
	room := int((float64(s.Derived.WaterMax) - demand) / per)
	if s.Inventory.BestTool("watering_can") < 1 {
		room = min(room, 2*e.params.Farm.UncannedWater-growing)
	}
	return max(room, 0)
}

func plantableSeeds(s *state.State, cat *gamedata.Catalog) int {
	n := 0
	for k, q := range s.Resources.Seeds {
		if cat.Crop(k).UnlockStage <= s.Derived.FarmStage {
			n += q
		}
	}
	return n
}

func (e *Engine) tower(s *state.State, add func(Candidate)) {
	if !s.Progression.BuiltStructures["tower"] || process.Active(s, process.KindCatch) {
		return
	}
	expected := process.ExpectedCatch(e.params.Tower, e.persona, 1, s.Derived.NetTier, s.Progression.CatchSessions)
	add(Candidate{
		Kind: ActionCatchSeeds, Screen: gamedata.ScreenTower, Minutes: e.params.Times.StartCatch,
		Value: expected * 3,
	})
}

func (e *Engine) structures(s *state.State, add func(Candidate)) {
	for _, bp := range e.catalog.Blueprints() {
		owned := s.Inventory.Blueprints[bp.ID]
		switch {
		case owned.Built:
			continue
		case owned.Purchased:
			cost := owned.Cost
			c := Candidate{
				Kind: ActionBuild, Target: bp.ID, Screen: gamedata.ScreenFarm, Minutes: e.params.Times.Build,
				Costs: append([]state.Op{state.Energy(-cost.Energy)}, state.Spend(cost.Materials)...),
				Value: structureValue(bp),
			}
			c.need("blueprint:"+bp.ID, true)
			add(c)
		default:
			c := Candidate{
				Kind: ActionBuyBlueprint, Target: bp.ID, Screen: gamedata.ScreenTown, Minutes: e.params.Times.Purchase,
				Costs: []state.Op{state.Gold(-bp.Gold)},
				Value: structureValue(bp) / 2,
			}
			if bp.Requires != "" {
				c.need("structure:"+bp.Requires, s.Progression.BuiltStructures[bp.Requires])
			}
			add(c)
		}
	}
}

func structureValue(bp gamedata.BlueprintDef) float64 {
	v := 10.0
	if bp.UnlocksScreen != nil {
		v += 15
	}
	v += float64(bp.StorageTier)*5 + float64(bp.EnergyBonus+bp.WaterBonus)/2 + float64(bp.Housing)*5
	return v
}

func (e *Engine) cleanups(s *state.State, add func(Candidate)) {
	for _, cl := range e.catalog.Cleanups() {
		if s.Progression.Cleanups[cl.ID] {
			continue
		}
		c := Candidate{
			Kind: ActionCleanup, Target: cl.ID, Screen: gamedata.ScreenFarm, Minutes: e.params.Times.Cleanup,
			Costs:   []state.Op{state.Energy(-cl.Energy)},
			Rewards: state.Gain(cl.Materials),
			Value:   float64(cl.Plots) * 10,
		}
		if cl.Requires != "" {
			c.need("cleanup:"+cl.Requires, s.Progression.Cleanups[cl.Requires])
		}
		if cl.Tool.Family != "" {
			c.need(fmt.Sprintf("tool:%s:%d", cl.Tool.Family, cl.Tool.Tier), s.Inventory.BestTool(cl.Tool.Family) >= cl.Tool.Tier)
		}
		add(c)
	}
}

func (e *Engine) helpers(s *state.State, add func(Candidate)) {
	gp := e.params.Gnomes
	if s.Progression.RescueLeads > 0 {
		add(Candidate{
			Kind: ActionRescueGnome, Screen: gamedata.ScreenAdventure, Minutes: e.params.Times.Rescue,
			Costs: []state.Op{state.Energy(-gp.RescueEnergy)},
			Value: 20,
		})
	}
	if !e.params.Automation.Gnomes {
		return
	}
	if idle := gnomes.Idle(s); len(idle) > 0 {
		g := s.Gnomes[idle[0]]
		c := Candidate{
			Kind: ActionAssignGnome, Target: strconv.Itoa(g.ID), Screen: gamedata.ScreenFarm, Minutes: e.params.Times.Assign,
			Gnome: g.ID, Role: gnomes.NeededRole(s), Value: 15,
		}
		c.need("housing", gnomes.CanAssign(s))
		add(c)
	}
}

func (e *Engine) mine(s *state.State, add func(Candidate)) {
	if !s.Progression.BuiltStructures["mine_entrance"] || process.Active(s, process.KindMining) {
		return
	}
	mp := e.params.Mine
	budget := float64(s.Resources.Energy) * (0.3 + 0.5*e.persona.RiskTolerance)
	depth := 0
	for d := process.MaxDepth(s, mp); d >= 1; d-- {
		if float64(process.PlannedDrain(mp, d, mp.SessionMinutes)) <= budget {
			depth = d
			break
		}
	}
	c := Candidate{
		Kind: ActionStartMining, Target: "depth " + strconv.Itoa(depth), Screen: gamedata.ScreenMine,
		Minutes: e.params.Times.StartMining, Depth: depth,
		Value: float64(mp.SessionMinutes/max(mp.SampleEveryMinutes, 1)) * float64(1+depth/4),
	}
	c.need("tool:pickaxe:1", s.Inventory.BestTool("pickaxe") >= 1)
	c.need("energy_budget", depth > 0)
	add(c)
}

func (e *Engine) forge(s *state.State, add func(Candidate)) {
	if !s.Progression.BuiltStructures["forge"] {
		return
	}
	fp := e.params.Forge
	room := len(s.Processes.Forge.Queue) < fp.QueueCapacity
	for _, rc := range e.catalog.Recipes() {
		if !e.wantsOutput(s, rc) {
			continue
		}
		c := Candidate{
			Kind: ActionCraft, Target: rc.ID, Screen: gamedata.ScreenForge, Minutes: e.params.Times.QueueCraft,
			Costs: append(state.Spend(rc.Materials), state.Gold(-rc.Gold)),
			Value: float64(rc.Heat)/10 + 10*rc.SuccessChance,
		}
		c.need("forge:queue", room)
		if rc.Output == gamedata.OutputWeapon {
			kind, _ := gamedata.ParseWeapon(rc.Ref)
			c.need("weapon:"+rc.Ref, s.Inventory.Weapons[kind] == rc.Level-1)
		}
		add(c)
	}

	if len(s.Processes.Forge.Queue) > 0 && s.Processes.Forge.Heat+float64(fp.HeatPerStoke)/2 <= float64(fp.MaxHeat) {
		fuel, qty := gamedata.MaterialCoal, fp.StokeCoal
		if s.Resources.Materials[gamedata.MaterialCoal] < fp.StokeCoal {
			fuel, qty = gamedata.MaterialWood, fp.StokeWood
		}
		add(Candidate{
			Kind: ActionStokeForge, Target: fuel.String(), Screen: gamedata.ScreenForge, Minutes: e.params.Times.Stoke,
			Material: fuel, Quantity: qty,
			Costs: []state.Op{state.Material(fuel, -qty)},
			Value: float64(fp.HeatPerStoke) / 4,
		})
	}
}

// wantsOutput reports whether a recipe makes something not yet owned.
func (e *Engine) wantsOutput(s *state.State, rc gamedata.RecipeDef) bool {
	inv := s.Inventory
	switch rc.Output {
	case gamedata.OutputTool:
		t, ok := e.catalog.Tool(rc.Ref)
		return ok && inv.BestTool(t.Family) < t.Tier
	case gamedata.OutputWeapon:
		kind, err := gamedata.ParseWeapon(rc.Ref)
		return err == nil && inv.Weapons[kind] < rc.Level
	case gamedata.OutputArmor:
		_, owned := inv.Armor[rc.Ref]
		return !owned
	}
	return false
}

func (e *Engine) adventures(s *state.State, add func(Candidate)) {
	if process.Active(s, process.KindAdventure) {
		return
	}
	ap := e.params.Adventure
	need := min(1, max(0, ap.MinWinRate-0.3*(e.persona.RiskTolerance-0.5)))
	seeds := e.planningSeeds(s)
	for _, rt := range e.catalog.Routes() {
		if rt.RequiredLevel > s.Progression.HeroLevel {
			continue
		}
		ws := combat.ChooseLoadout(e.catalog, rt, s.Inventory.Weapons, s.Progression.HeroLevel)
		lo := combat.Loadout{Weapons: ws, Defense: s.Inventory.Defense(), HeroLevel: s.Progression.HeroLevel}
		rate := combat.WinRate(e.catalog, rt, lo, seeds, ap.RoundCap)
		c := Candidate{
			Kind: ActionAdventure, Target: rt.ID, Screen: gamedata.ScreenAdventure, Minutes: rt.Minutes,
			Costs:   []state.Op{state.Energy(-rt.Energy)},
			Rewards: append([]state.Op{state.Gold(rt.Gold)}, state.Gain(rt.Loot)...),
			Loadout: ws,
			Value:   rate * float64(rt.Gold+rt.XP) / 5,
		}
		if rt.RescueLead {
			c.Value += 10
		}
		c.need("win_rate", rate >= need)
		add(c)
	}
}

func (e *Engine) town(s *state.State, add func(Candidate)) {
	town := gamedata.ScreenTown
	t := e.params.Times
	inv := s.Inventory

	anyWeapon := false
	for _, lvl := range inv.Weapons {
		if lvl > 0 {
			anyWeapon = true
		}
	}
	for _, tool := range e.catalog.Tools() {
		if tool.Gold <= 0 || inv.BestTool(tool.Family) >= tool.Tier {
			continue
		}
		add(Candidate{
			Kind: ActionBuyItem, Target: tool.ID, Screen: town, Minutes: t.Purchase, Item: gamedata.OutputTool,
			Costs: []state.Op{state.Gold(-tool.Gold)}, Value: 8,
		})
	}
	// A first weapon is valued by how well it alone wins the easiest open route.
	var opener *gamedata.RouteDef
	if !anyWeapon {
		for _, rt := range e.catalog.Routes() {
			if rt.RequiredLevel <= s.Progression.HeroLevel {
				opener = &rt
				break
			}
		}
	}
	for _, w := range e.catalog.Weapons() {
		if inv.Weapons[w.Kind] > 0 {
			continue
		}
		v := 4.0
		if !anyWeapon {
			v = 10
			if opener != nil {
				lo := combat.Loadout{
					Weapons:   []combat.Weapon{{Kind: w.Kind, Level: 1}},
					Defense:   inv.Defense(),
					HeroLevel: s.Progression.HeroLevel,
				}
				v += 20 * combat.WinRate(e.catalog, *opener, lo, e.planningSeeds(s), e.params.Adventure.RoundCap)
			}
		}
		add(Candidate{
			Kind: ActionBuyItem, Target: w.ID, Screen: town, Minutes: t.Purchase, Item: gamedata.OutputWeapon,
			Costs: []state.Op{state.Gold(-w.Gold)}, Value: v,
		})
	}
	for _, a := range e.catalog.Armor() {
		if _, owned := inv.Armor[a.ID]; owned || a.Gold <= 0 {
			continue
		}
		add(Candidate{
			Kind: ActionBuyItem, Target: a.ID, Screen: town, Minutes: t.Purchase, Item: gamedata.OutputArmor,
			Costs: []state.Op{state.Gold(-a.Gold)}, Value: float64(a.Defense) / 2,
		})
	}

	for _, up := range e.catalog.Upgrades() {
		if s.Progression.HasUpgrade(up.ID) {
			continue
		}
		c := Candidate{
			Kind: ActionBuyUpgrade, Target: up.ID, Screen: town, Minutes: t.Purchase,
			Costs: []state.Op{state.Gold(-up.Gold)},
			Value: float64(up.WaterBonus+up.EnergyBonus)/2 + float64(up.NetTier)*5,
		}
		if up.Requires != "" {
			c.need("upgrade:"+up.Requires, s.Progression.HasUpgrade(up.Requires))
		}
		if up.RequiresStructure != "" {
			c.need("structure:"+up.RequiresStructure, s.Progression.BuiltStructures[up.RequiresStructure])
		}
		add(c)
	}

	// Stock is sold down to nothing while gold cannot reach a first weapon.
	keep := e.params.Town.KeepMaterials
	if s.Resources.Gold < e.weaponReserve(s) {
		keep = 0
	}
	for k := range gamedata.NumMaterials {
		kind := gamedata.MaterialKind(k)
		surplus := s.Resources.Materials[kind] - keep
		if surplus <= 0 {
			continue
		}
		gold := e.market.Quote(s.Town.Supply, kind, surplus)
		c := Candidate{
			Kind: ActionSellMaterial, Target: kind.String(), Screen: town, Minutes: t.Sell,
			Material: kind, Quantity: surplus,
			Costs:   []state.Op{state.Material(kind, -surplus)},
			Rewards: []state.Op{state.Gold(gold)},
			Value:   float64(gold) / 5,
		}
		if s.Resources.Materials[kind] >= s.Derived.MaterialCap {
			c.Value += 10
		}
		add(c)
	}

	level := s.Progression.HeroLevel
	add(Candidate{
		Kind: ActionTrainHero, Screen: town, Minutes: t.Train,
		Costs: []state.Op{state.Gold(-e.params.Town.HeroTrainingGold * level)},
		Value: 5,
	})
	if len(s.Gnomes) > 0 {
		g := lowestGnome(s.Gnomes)
		add(Candidate{
			Kind: ActionTrainGnome, Target: strconv.Itoa(g.ID), Screen: town, Minutes: t.Train, Gnome: g.ID,
			Costs: []state.Op{state.Gold(-e.params.Town.GnomeTrainingGold)},
			Value: 3,
		})
	}
}

func lowestGnome(gs []state.Gnome) state.Gnome {
	best := gs[0]
	for _, g := range gs[1:] {
		if g.Level < best.Level {
			best = g
		}
	}
	return best
}

func (e *Engine) navigation(s *state.State, add func(Candidate)) {
	for _, screen := range s.Derived.Screens {
		if screen == s.Location.Screen {
			continue
		}
		add(Candidate{Kind: ActionNavigate, Target: screen.String(), Screen: screen, Minutes: e.params.Times.Navigate})
	}
}
