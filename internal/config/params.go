package config

// Params is the full tunable parameter tree. Every field is addressable by a
// dotted override path built from its yaml tags, e.g. "checkin.min_interval".
type Params struct {
	Start      StartParams      `yaml:"start"`
	Victory    VictoryParams    `yaml:"victory"`
	Stuck      StuckParams      `yaml:"stuck"`
	CheckIn    CheckInParams    `yaml:"checkin"`
	Decision   DecisionParams   `yaml:"decision"`
	Screens    ScreenParams     `yaml:"screens"`
	Automation AutomationParams `yaml:"automation"`
	Times      TimeParams       `yaml:"times"`
	Farm       FarmParams       `yaml:"farm"`
	Storage    StorageParams    `yaml:"storage"`
	Town       TownParams       `yaml:"town"`
	Tower      TowerParams      `yaml:"tower"`
	Forge      ForgeParams      `yaml:"forge"`
	Mine       MineParams       `yaml:"mine"`
	Adventure  AdventureParams  `yaml:"adventure"`
	Gnomes     GnomeParams      `yaml:"gnomes"`
}

// StartParams is the initial state of a run.
type StartParams struct {
	Day       int            `yaml:"day"`
	Hour      int            `yaml:"hour"`
	Speed     int            `yaml:"speed"` // simulated minutes per tick
	Plots     int            `yaml:"plots"`
	Gold      int            `yaml:"gold"`
	Energy    int            `yaml:"energy"`
	Water     int            `yaml:"water"`
	Seeds     map[string]int `yaml:"seeds"`
	Materials map[string]int `yaml:"materials"`
	Tools     []string       `yaml:"tools"`
	HeroLevel int            `yaml:"hero_level"`
}

type VictoryParams struct {
	Plots     int `yaml:"plots"`
	HeroLevel int `yaml:"hero_level"`
}

type StuckParams struct {
	Days      int `yaml:"days"`
	GoldNoise int `yaml:"gold_noise"`
}

// CheckInParams controls how often the simulated player acts.
type CheckInParams struct {
	MinInterval    int `yaml:"min_interval"`    // minutes between routine check-ins
	UrgentInterval int `yaml:"urgent_interval"` // minutes between check-ins under shortage
	NightStartHour int `yaml:"night_start_hour"`
	NightEndHour   int `yaml:"night_end_hour"`
	SeedBuffer     int `yaml:"seed_buffer"`
}

type DecisionParams struct {
	TopK                 int     `yaml:"top_k"`
	Jitter               float64 `yaml:"jitter"`
	BottleneckMultiplier float64 `yaml:"bottleneck_multiplier"`
	OffScreenPenalty     float64 `yaml:"off_screen_penalty"`
	FocusTower           bool    `yaml:"focus_tower"`
}

type ScreenParams struct {
	Priority map[string]float64 `yaml:"priority"`
}

type AutomationParams struct {
	Gnomes  bool `yaml:"gnomes"`
	Replant bool `yaml:"replant"`
}

// TimeParams are the minutes each player action takes.
type TimeParams struct {
	Navigate    int `yaml:"navigate"`
	HarvestCrop int `yaml:"harvest_crop"`
	PlantCrop   int `yaml:"plant_crop"`
	WaterCrop   int `yaml:"water_crop"`
	ClearCrop   int `yaml:"clear_crop"`
	Pump        int `yaml:"pump"`
	Cleanup     int `yaml:"cleanup"`
	Build       int `yaml:"build"`
	Purchase    int `yaml:"purchase"`
	Sell        int `yaml:"sell"`
	Train       int `yaml:"train"`
	Stoke       int `yaml:"stoke"`
	QueueCraft  int `yaml:"queue_craft"`
	StartMining int `yaml:"start_mining"`
	StartCatch  int `yaml:"start_catch"`
	Rescue      int `yaml:"rescue"`
	Assign      int `yaml:"assign"`
}

type FarmParams struct {
	GraceMinutes     int     `yaml:"grace_minutes"`
	WitherMinutes    int     `yaml:"wither_minutes"`
	PumpAmount       int     `yaml:"pump_amount"`
	SeedReturnChance float64 `yaml:"seed_return_chance"`
	UncannedWater    int     `yaml:"uncanned_water"` // crops per water action without a can
	BaseEnergyMax    int     `yaml:"base_energy_max"`
	BaseWaterMax     int     `yaml:"base_water_max"`
}

type StorageParams struct {
	Caps []int `yaml:"caps"` // material cap per storage tier, tier 1 first
}

type TownParams struct {
	KeepMaterials     int     `yaml:"keep_materials"`
	HeroTrainingGold  int     `yaml:"hero_training_gold"`
	HeroTrainingXP    int     `yaml:"hero_training_xp"`
	GnomeTrainingGold int     `yaml:"gnome_training_gold"`
	GnomeTrainingXP   int     `yaml:"gnome_training_xp"`
	SupplyRelax       float64 `yaml:"supply_relax"` // fraction of excess supply removed per day
	SupplyPerUnit     float64 `yaml:"supply_per_unit"`
}

type TowerParams struct {
	BaseYield      float64   `yaml:"base_yield"`
	Spread         float64   `yaml:"spread"`
	SessionMinutes int       `yaml:"session_minutes"`
	NetMultipliers []float64 `yaml:"net_multipliers"`
}

type ForgeParams struct {
	HeatPerStoke      int     `yaml:"heat_per_stoke"`
	MaxHeat           int     `yaml:"max_heat"`
	QueueCapacity     int     `yaml:"queue_capacity"`
	HeatRatePerMinute float64 `yaml:"heat_rate_per_minute"`
	StokeCoal         int     `yaml:"stoke_coal"`
	StokeWood         int     `yaml:"stoke_wood"`
}

type MineParams struct {
	BaseDrainPerMinute float64 `yaml:"base_drain_per_minute"`
	DepthTierSize      int     `yaml:"depth_tier_size"`
	SampleEveryMinutes int     `yaml:"sample_every_minutes"`
	SessionMinutes     int     `yaml:"session_minutes"`
	MaxDepth           int     `yaml:"max_depth"`
}

type AdventureParams struct {
	RoundCap     int     `yaml:"round_cap"`
	XPPerLevel   int     `yaml:"xp_per_level"`
	MinWinRate   float64 `yaml:"min_win_rate"` // planned routes must win at least this often
	PlanningRuns int     `yaml:"planning_runs"`
}

type GnomeParams struct {
	RescueEnergy   int     `yaml:"rescue_energy"`
	WorkPerMinute  float64 `yaml:"work_per_minute"` // work units per gnome-minute at efficiency 1
	XPPerWork      int     `yaml:"xp_per_work"`
	WaterCost      float64 `yaml:"water_cost"`       // work per crop watered
	HarvestCost    float64 `yaml:"harvest_cost"`     // work per crop harvested
	MineCost       float64 `yaml:"mine_cost"`        // work per material mined
	SmithHeatBonus float64 `yaml:"smith_heat_bonus"` // forge heat per unit of work
}

// Defaults returns the built-in parameter tree.
func Defaults() Params {
	return Params{
		Start: StartParams{
			Day:       1,
			Hour:      6,
			Speed:     5,
			Plots:     3,
			Gold:      75,
			Energy:    3,
			Water:     10,
			Seeds:     map[string]int{"carrot": 1, "radish": 1},
			Materials: map[string]int{"stone": 5},
			HeroLevel: 1,
		},
		Victory: VictoryParams{Plots: 40, HeroLevel: 15},
		Stuck:   StuckParams{Days: 3, GoldNoise: 10},
		CheckIn: CheckInParams{
			MinInterval:    60,
			UrgentInterval: 15,
			NightStartHour: 23,
			NightEndHour:   7,
			SeedBuffer:     3,
		},
		Decision: DecisionParams{
			TopK:                 3,
			Jitter:               0.05,
			BottleneckMultiplier: 2,
			OffScreenPenalty:     0.9,
			FocusTower:           true,
		},
		Screens: ScreenParams{Priority: map[string]float64{
			"farm":      1.0,
			"town":      1.0,
			"tower":     1.0,
			"adventure": 1.0,
			"forge":     1.0,
			"mine":      1.0,
		}},
		Automation: AutomationParams{Gnomes: true, Replant: true},
		Times: TimeParams{
			Navigate:    5,
			HarvestCrop: 2,
			PlantCrop:   3,
			WaterCrop:   1,
			ClearCrop:   2,
			Pump:        10,
			Cleanup:     20,
			Build:       30,
			Purchase:    5,
			Sell:        5,
			Train:       30,
			Stoke:       5,
			QueueCraft:  5,
			StartMining: 5,
			StartCatch:  5,
			Rescue:      30,
			Assign:      5,
		},
		Farm: FarmParams{
			GraceMinutes:     30,
			WitherMinutes:    600,
			PumpAmount:       5,
			SeedReturnChance: 0.5,
			UncannedWater:    3,
			BaseEnergyMax:    20,
			BaseWaterMax:     20,
		},
		Storage: StorageParams{Caps: []int{30, 100, 300}},
		Town: TownParams{
			KeepMaterials:     10,
			HeroTrainingGold:  20,
			HeroTrainingXP:    25,
			GnomeTrainingGold: 30,
			GnomeTrainingXP:   50,
			SupplyRelax:       0.25,
			SupplyPerUnit:     0.05,
		},
		Tower: TowerParams{
			BaseYield:      4,
			Spread:         0.25,
			SessionMinutes: 30,
			NetMultipliers: []float64{1.0, 1.5, 2.25},
		},
		Forge: ForgeParams{
			HeatPerStoke:      40,
			MaxHeat:           200,
			QueueCapacity:     3,
			HeatRatePerMinute: 2,
			StokeCoal:         2,
			StokeWood:         4,
		},
		Mine: MineParams{
			BaseDrainPerMinute: 0.1,
			DepthTierSize:      3,
			SampleEveryMinutes: 15,
			SessionMinutes:     120,
			MaxDepth:           20,
		},
		Adventure: AdventureParams{
			RoundCap:     40,
			XPPerLevel:   60,
			MinWinRate:   0.6,
			PlanningRuns: 3,
		},
		Gnomes: GnomeParams{
			RescueEnergy:   10,
			WorkPerMinute:  0.05,
			XPPerWork:      5,
			WaterCost:      1,
			HarvestCost:    1,
			MineCost:       2,
			SmithHeatBonus: 2,
		},
	}
}
