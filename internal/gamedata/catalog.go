package gamedata

import (
	"fmt"
	"sort"
)

// Materials is a bill of materials keyed by kind.
type Materials map[MaterialKind]int

// Sorted returns the kinds of m in declaration order.
func (m Materials) Sorted() []MaterialKind {
	out := make([]MaterialKind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CropDef is one row of the crop table.
type CropDef struct {
	Kind          CropKind
	GrowthMinutes int
	WaterPerHour  float64
	WaterCapacity int
	EnergyYield   int
	UnlockStage   int
}

// MaterialDef carries the town base price of a material.
type MaterialDef struct {
	Kind     MaterialKind
	SellGold int
}

// ToolRequirement names a tool family and the minimum tier needed.
type ToolRequirement struct {
	Family string
	Tier   int
}

// CleanupDef is a one-time land cleanup that yields plots.
type CleanupDef struct {
	ID        string
	Energy    int
	Plots     int
	Tool      ToolRequirement
	Requires  string
	Materials Materials
}

// BlueprintDef describes a purchasable blueprint and the structure it builds.
type BlueprintDef struct {
	ID             string
	Gold           int
	BuildEnergy    int
	BuildMaterials Materials
	Requires       string
	UnlocksScreen  *ScreenID
	StorageTier    int
	EnergyBonus    int
	WaterBonus     int
	Housing        int
}

// ToolDef is an ownable tool. Gold is zero for tools that are only crafted.
type ToolDef struct {
	ID     string
	Family string
	Tier   int
	Gold   int
}

// WeaponDef is the town listing of a level-1 weapon.
type WeaponDef struct {
	ID   string
	Kind WeaponKind
	Gold int
}

// ArmorDef is an ownable armor piece. Gold is zero for crafted-only armor.
type ArmorDef struct {
	ID      string
	Defense int
	Gold    int
}

// OutputKind names what a recipe produces.
type OutputKind string

const (
	OutputTool   OutputKind = "tool"
	OutputWeapon OutputKind = "weapon"
	OutputArmor  OutputKind = "armor"
)

// RecipeDef is a forge recipe.
type RecipeDef struct {
	ID            string
	Output        OutputKind
	Ref           string
	Level         int
	Materials     Materials
	Gold          int
	Minutes       int
	Heat          int
	SuccessChance float64
}

// WeightedEnemy is one entry of a route's enemy distribution.
type WeightedEnemy struct {
	ID     string
	Weight float64
}

// RouteDef is an adventure route.
type RouteDef struct {
	ID            string
	Area          string
	Length        string
	Waves         int
	Energy        int
	Minutes       int
	RequiredLevel int
	Power         float64
	Boss          string
	Gold          int
	XP            int
	Loot          Materials
	Enemies       []WeightedEnemy
	RescueLead    bool
}

// EnemyDef holds base stats that routes scale by their power.
type EnemyDef struct {
	ID     string
	Kind   EnemyKind
	HP     int
	Damage int
	Gold   int
	XP     int
}

// QuirkKind names a scripted boss behaviour.
type QuirkKind string

const (
	QuirkNone              QuirkKind = ""
	QuirkInvulnerable      QuirkKind = "invulnerable"
	QuirkSummon            QuirkKind = "summon"
	QuirkDamageOverTime    QuirkKind = "damage_over_time"
	QuirkEscalatingDefense QuirkKind = "escalating_defense"
)

// BossDef is an enemy with a quirk.
type BossDef struct {
	EnemyDef
	Quirk        QuirkKind
	Cycle        int
	Window       int
	Thresholds   []float64
	MinionHP     int
	MinionDamage int
	DotPerStack  int
	DefenseStart int
	DefenseStep  int
}

// UpgradeDef is a one-time town upgrade.
type UpgradeDef struct {
	ID                string
	Gold              int
	Requires          string
	RequiresStructure string
	NetTier           int
	WaterBonus        int
	EnergyBonus       int
}

// Catalog is the typed, validated view of a Provider.
type Catalog struct {
	crops      [NumCrops]CropDef
	materials  [NumMaterials]MaterialDef
	cleanups   []CleanupDef
	blueprints []BlueprintDef
	tools      []ToolDef
	weapons    []WeaponDef
	armor      []ArmorDef
	recipes    []RecipeDef
	routes     []RouteDef
	enemies    map[string]EnemyDef
	bosses     map[string]BossDef
	upgrades   []UpgradeDef

	blueprintIdx map[string]int
	toolIdx      map[string]int
	armorIdx     map[string]int
	recipeIdx    map[string]int
	routeIdx     map[string]int
	upgradeIdx   map[string]int
	cleanupIdx   map[string]int
}

// Compile converts provider rows into a Catalog. A row with a missing or
// mistyped field fails the whole compile.
func Compile(p Provider) (*Catalog, error) {
	c := &Catalog{
		enemies:      make(map[string]EnemyDef),
		bosses:       make(map[string]BossDef),
		blueprintIdx: make(map[string]int),
		toolIdx:      make(map[string]int),
		armorIdx:     make(map[string]int),
		recipeIdx:    make(map[string]int),
		routeIdx:     make(map[string]int),
		upgradeIdx:   make(map[string]int),
		cleanupIdx:   make(map[string]int),
	}
	steps := []struct {
		category string
		fn       func(Row, *fieldReader) error
	}{
		{"crop", c.compileCrop},
		{"material", c.compileMaterial},
		{"cleanup", c.compileCleanup},
		{"blueprint", c.compileBlueprint},
		{"tool", c.compileTool},
		{"weapon", c.compileWeapon},
		{"armor", c.compileArmor},
		{"recipe", c.compileRecipe},
		{"enemy", c.compileEnemy},
		{"boss", c.compileBoss},
		{"route", c.compileRoute},
		{"upgrade", c.compileUpgrade},
	}
	seenCrops := make(map[CropKind]bool)
	for _, step := range steps {
		for _, row := range p.GetByCategory(step.category) {
			f := &fieldReader{row: row}
			if err := step.fn(row, f); err != nil {
				return nil, fmt.Errorf("%s %q: %w", step.category, row.ID, err)
			}
			if f.err != nil {
				return nil, fmt.Errorf("%s %q: %w", step.category, row.ID, f.err)
			}
			if step.category == "crop" {
				k, _ := ParseCrop(row.ID)
				seenCrops[k] = true
			}
		}
	}
	if len(seenCrops) != NumCrops {
		return nil, fmt.Errorf("crop table has %d of %d crops", len(seenCrops), NumCrops)
	}
	if err := c.checkReferences(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultCatalog compiles the embedded tables.
func DefaultCatalog() (*Catalog, error) {
	t, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return Compile(t)
}

func (c *Catalog) compileCrop(r Row, f *fieldReader) error {
	kind, err := ParseCrop(r.ID)
	if err != nil {
		return err
	}
	c.crops[kind] = CropDef{
		Kind:          kind,
		GrowthMinutes: f.int("growth_minutes", true),
		WaterPerHour:  f.float("water_per_hour", true),
		WaterCapacity: f.int("water_capacity", true),
		EnergyYield:   f.int("energy_yield", true),
		UnlockStage:   f.int("unlock_stage", true),
	}
	if c.crops[kind].GrowthMinutes <= 0 {
		return fmt.Errorf("growth_minutes must be positive")
	}
	return nil
}

func (c *Catalog) compileMaterial(r Row, f *fieldReader) error {
	kind, err := ParseMaterial(r.ID)
	if err != nil {
		return err
	}
	c.materials[kind] = MaterialDef{Kind: kind, SellGold: f.int("sell_gold", true)}
	return nil
}

func (c *Catalog) compileCleanup(r Row, f *fieldReader) error {
	def := CleanupDef{
		ID:        r.ID,
		Energy:    f.int("energy", true),
		Plots:     f.int("plots", true),
		Requires:  f.str("requires", false),
		Materials: f.materials("materials"),
	}
	if family := f.str("tool", false); family != "" {
		def.Tool = ToolRequirement{Family: family, Tier: max(1, f.int("tool_tier", false))}
	}
	c.cleanupIdx[r.ID] = len(c.cleanups)
	c.cleanups = append(c.cleanups, def)
	return nil
}

func (c *Catalog) compileBlueprint(r Row, f *fieldReader) error {
	def := BlueprintDef{
		ID:             r.ID,
		Gold:           f.int("gold", true),
		BuildEnergy:    f.int("build_energy", true),
		BuildMaterials: f.materials("build_materials"),
		Requires:       f.str("requires", false),
		StorageTier:    f.int("storage_tier", false),
		EnergyBonus:    f.int("energy_bonus", false),
		WaterBonus:     f.int("water_bonus", false),
		Housing:        f.int("housing", false),
	}
	if s := f.str("unlocks_screen", false); s != "" {
		screen, err := ParseScreen(s)
		if err != nil {
			return err
		}
		def.UnlocksScreen = &screen
	}
	c.blueprintIdx[r.ID] = len(c.blueprints)
	c.blueprints = append(c.blueprints, def)
	return nil
}

func (c *Catalog) compileTool(r Row, f *fieldReader) error {
	c.toolIdx[r.ID] = len(c.tools)
	c.tools = append(c.tools, ToolDef{
		ID:     r.ID,
		Family: f.str("family", true),
		Tier:   f.int("tier", true),
		Gold:   f.int("gold", false),
	})
	return nil
}

func (c *Catalog) compileWeapon(r Row, f *fieldReader) error {
	kind, err := ParseWeapon(f.str("kind", true))
	if err != nil {
		return err
	}
	c.weapons = append(c.weapons, WeaponDef{ID: r.ID, Kind: kind, Gold: f.int("gold", true)})
	return nil
}

func (c *Catalog) compileArmor(r Row, f *fieldReader) error {
	c.armorIdx[r.ID] = len(c.armor)
	c.armor = append(c.armor, ArmorDef{
		ID:      r.ID,
		Defense: f.int("defense", true),
		Gold:    f.int("gold", false),
	})
	return nil
}

func (c *Catalog) compileRecipe(r Row, f *fieldReader) error {
	def := RecipeDef{
		ID:            r.ID,
		Output:        OutputKind(f.str("output", true)),
		Ref:           f.str("ref", true),
		Level:         f.int("level", false),
		Materials:     f.materials("materials"),
		Gold:          f.int("gold", false),
		Minutes:       f.int("minutes", true),
		Heat:          f.int("heat", true),
		SuccessChance: f.float("success", true),
	}
	switch def.Output {
	case OutputTool, OutputArmor:
	case OutputWeapon:
		if _, err := ParseWeapon(def.Ref); err != nil {
			return err
		}
		if def.Level < 2 {
			return fmt.Errorf("weapon recipe level must be at least 2")
		}
	default:
		return fmt.Errorf("unknown output %q", def.Output)
	}
	if def.SuccessChance <= 0 || def.SuccessChance > 1 {
		return fmt.Errorf("success chance %v outside (0,1]", def.SuccessChance)
	}
	c.recipeIdx[r.ID] = len(c.recipes)
	c.recipes = append(c.recipes, def)
	return nil
}

func (c *Catalog) compileEnemy(r Row, f *fieldReader) error {
	def, err := readEnemy(r, f)
	if err != nil {
		return err
	}
	c.enemies[r.ID] = def
	return nil
}

func readEnemy(r Row, f *fieldReader) (EnemyDef, error) {
	kind, err := ParseEnemyKind(f.str("kind", true))
	if err != nil {
		return EnemyDef{}, err
	}
	return EnemyDef{
		ID:     r.ID,
		Kind:   kind,
		HP:     f.int("hp", true),
		Damage: f.int("damage", true),
		Gold:   f.int("gold", false),
		XP:     f.int("xp", false),
	}, nil
}

func (c *Catalog) compileBoss(r Row, f *fieldReader) error {
	base, err := readEnemy(r, f)
	if err != nil {
		return err
	}
	def := BossDef{
		EnemyDef:     base,
		Quirk:        QuirkKind(f.str("quirk", false)),
		Cycle:        f.int("cycle", false),
		Window:       f.int("window", false),
		Thresholds:   f.floats("thresholds"),
		MinionHP:     f.int("minion_hp", false),
		MinionDamage: f.int("minion_damage", false),
		DotPerStack:  f.int("dot_per_stack", false),
		DefenseStart: f.int("defense_start", false),
		DefenseStep:  f.int("defense_step", false),
	}
	switch def.Quirk {
	case QuirkNone, QuirkSummon, QuirkDamageOverTime, QuirkEscalatingDefense:
	case QuirkInvulnerable:
		if def.Cycle <= def.Window || def.Window <= 0 {
			return fmt.Errorf("invulnerable quirk needs cycle > window > 0")
		}
	default:
		return fmt.Errorf("unknown quirk %q", def.Quirk)
	}
	c.bosses[r.ID] = def
	return nil
}

func (c *Catalog) compileRoute(r Row, f *fieldReader) error {
	def := RouteDef{
		ID:            r.ID,
		Area:          f.str("area", true),
		Length:        f.str("length", true),
		Waves:         f.int("waves", true),
		Energy:        f.int("energy", true),
		Minutes:       f.int("minutes", true),
		RequiredLevel: f.int("level", true),
		Power:         f.float("power", true),
		Boss:          f.str("boss", true),
		Gold:          f.int("gold", true),
		XP:            f.int("xp", true),
		Loot:          f.materials("loot"),
		RescueLead:    f.boolean("rescue_lead"),
	}
	keys, weights := f.numberMap("enemies")
	for _, k := range keys {
		def.Enemies = append(def.Enemies, WeightedEnemy{ID: k, Weight: weights[k]})
	}
	if def.Waves < 1 {
		return fmt.Errorf("route needs at least one wave")
	}
	if len(def.Enemies) == 0 && def.Waves > 1 {
		return fmt.Errorf("route has no enemy distribution")
	}
	c.routeIdx[r.ID] = len(c.routes)
	c.routes = append(c.routes, def)
	return nil
}

func (c *Catalog) compileUpgrade(r Row, f *fieldReader) error {
	c.upgradeIdx[r.ID] = len(c.upgrades)
	c.upgrades = append(c.upgrades, UpgradeDef{
		ID:                r.ID,
		Gold:              f.int("gold", true),
		Requires:          f.str("requires", false),
		RequiresStructure: f.str("requires_structure", false),
		NetTier:           f.int("net_tier", false),
		WaterBonus:        f.int("water_bonus", false),
		EnergyBonus:       f.int("energy_bonus", false),
	})
	return nil
}

func (c *Catalog) checkReferences() error {
	for _, cl := range c.cleanups {
		if cl.Requires != "" {
			if _, ok := c.cleanupIdx[cl.Requires]; !ok {
				return fmt.Errorf("cleanup %q requires unknown cleanup %q", cl.ID, cl.Requires)
			}
		}
	}
	for _, bp := range c.blueprints {
		if bp.Requires != "" {
			if _, ok := c.blueprintIdx[bp.Requires]; !ok {
				return fmt.Errorf("blueprint %q requires unknown structure %q", bp.ID, bp.Requires)
			}
		}
	}
	for _, rc := range c.recipes {
		switch rc.Output {
		case OutputTool:
			if _, ok := c.toolIdx[rc.Ref]; !ok {
				return fmt.Errorf("recipe %q makes unknown tool %q", rc.ID, rc.Ref)
			}
		case OutputArmor:
			if _, ok := c.armorIdx[rc.Ref]; !ok {
				return fmt.Errorf("recipe %q makes unknown armor %q", rc.ID, rc.Ref)
			}
		}
	}
	for _, rt := range c.routes {
		if _, ok := c.bosses[rt.Boss]; !ok {
			return fmt.Errorf("route %q has unknown boss %q", rt.ID, rt.Boss)
		}
		for _, e := range rt.Enemies {
			if _, ok := c.enemies[e.ID]; !ok {
				return fmt.Errorf("route %q has unknown enemy %q", rt.ID, e.ID)
			}
		}
	}
	for _, up := range c.upgrades {
		if up.Requires != "" {
			if _, ok := c.upgradeIdx[up.Requires]; !ok {
				return fmt.Errorf("upgrade %q requires unknown upgrade %q", up.ID, up.Requires)
			}
		}
		if up.RequiresStructure != "" {
			if _, ok := c.blueprintIdx[up.RequiresStructure]; !ok {
				return fmt.Errorf("upgrade %q requires unknown structure %q", up.ID, up.RequiresStructure)
			}
		}
	}
	return nil
}

// Crop returns the definition of a crop kind.
func (c *Catalog) Crop(k CropKind) CropDef { return c.crops[k] }

// Material returns the definition of a material kind.
func (c *Catalog) Material(k MaterialKind) MaterialDef { return c.materials[k] }

// Cleanups returns every cleanup in table order.
func (c *Catalog) Cleanups() []CleanupDef { return c.cleanups }

// Cleanup looks up a cleanup by id.
func (c *Catalog) Cleanup(id string) (CleanupDef, bool) {
	i, ok := c.cleanupIdx[id]
	if !ok {
		return CleanupDef{}, false
	}
	return c.cleanups[i], true
}

// Blueprints returns every blueprint in table order.
func (c *Catalog) Blueprints() []BlueprintDef { return c.blueprints }

// Blueprint looks up a blueprint by id.
func (c *Catalog) Blueprint(id string) (BlueprintDef, bool) {
	i, ok := c.blueprintIdx[id]
	if !ok {
		return BlueprintDef{}, false
	}
	return c.blueprints[i], true
}

// Tools returns every tool in table order.
func (c *Catalog) Tools() []ToolDef { return c.tools }

// Tool looks up a tool by id.
func (c *Catalog) Tool(id string) (ToolDef, bool) {
	i, ok := c.toolIdx[id]
	if !ok {
		return ToolDef{}, false
	}
	return c.tools[i], true
}

// Weapons returns the town weapon listings.
func (c *Catalog) Weapons() []WeaponDef { return c.weapons }

// Armor returns every armor piece in table order.
func (c *Catalog) Armor() []ArmorDef { return c.armor }

// ArmorPiece looks up an armor piece by id.
func (c *Catalog) ArmorPiece(id string) (ArmorDef, bool) {
	i, ok := c.armorIdx[id]
	if !ok {
		return ArmorDef{}, false
	}
	return c.armor[i], true
}

// Recipes returns every forge recipe in table order.
func (c *Catalog) Recipes() []RecipeDef { return c.recipes }

// Recipe looks up a recipe by id.
func (c *Catalog) Recipe(id string) (RecipeDef, bool) {
	i, ok := c.recipeIdx[id]
	if !ok {
		return RecipeDef{}, false
	}
	return c.recipes[i], true
}

// Routes returns every adventure route in table order.
func (c *Catalog) Routes() []RouteDef { return c.routes }

// Route looks up a route by id.
func (c *Catalog) Route(id string) (RouteDef, bool) {
	i, ok := c.routeIdx[id]
	if !ok {
		return RouteDef{}, false
	}
	return c.routes[i], true
}

// Enemy looks up a regular enemy by id.
func (c *Catalog) Enemy(id string) (EnemyDef, bool) {
	e, ok := c.enemies[id]
	return e, ok
}

// Boss looks up a boss by id.
func (c *Catalog) Boss(id string) (BossDef, bool) {
	b, ok := c.bosses[id]
	return b, ok
}

// Upgrades returns every upgrade in table order.
func (c *Catalog) Upgrades() []UpgradeDef { return c.upgrades }

// Upgrade looks up an upgrade by id.
func (c *Catalog) Upgrade(id string) (UpgradeDef, bool) {
	i, ok := c.upgradeIdx[id]
	if !ok {
		return UpgradeDef{}, false
	}
	return c.upgrades[i], true
}
