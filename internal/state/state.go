// Package state holds the single mutable snapshot of a farm run and the
// transactional store every mutation goes through.
package state

import (
	"fmt"

	"github.com/talgya/farmsim/internal/gamedata"
)

// State is the complete aggregate of one run.
type State struct {
	Clock       Clock       `json:"clock"`
	Resources   Resources   `json:"resources"`
	Progression Progression `json:"progression"`
	Inventory   Inventory   `json:"inventory"`
	Processes   Processes   `json:"processes"`
	Gnomes      []Gnome     `json:"gnomes"`
	Location    Location    `json:"location"`
	Town        Town        `json:"town"`
	Stats       Stats       `json:"stats"`

	// BusyUntil is the total minute the player is occupied until.
	BusyUntil int `json:"busy_until"`
	// LastCheckIn is the total minute of the last active tick, or -1.
	LastCheckIn int `json:"last_check_in"`

	// Derived is a cache of values computed from the fields above. It is
	// rewritten by Store.Refresh and never edited directly.
	Derived Derived `json:"derived"`
}

// Resources is the spendable pool. No field is ever negative.
type Resources struct {
	Energy    int                           `json:"energy"`
	Gold      int                           `json:"gold"`
	Water     int                           `json:"water"`
	Seeds     map[gamedata.CropKind]int     `json:"seeds"`
	Materials map[gamedata.MaterialKind]int `json:"materials"`
}

// TotalSeeds sums seeds of every kind.
func (r Resources) TotalSeeds() int {
	n := 0
	for _, v := range r.Seeds {
		n += v
	}
	return n
}

// Progression is the player's long-term advancement.
type Progression struct {
	HeroLevel        int             `json:"hero_level"`
	HeroXP           int             `json:"hero_xp"`
	Plots            int             `json:"plots"`
	Cleanups         map[string]bool `json:"cleanups"`
	BuiltStructures  map[string]bool `json:"built_structures"`
	Upgrades         []string        `json:"upgrades"`
	RescueLeads      int             `json:"rescue_leads"`
	MineDepthReached int             `json:"mine_depth_reached"`
	CatchSessions    int             `json:"catch_sessions"`
}

// HasUpgrade reports whether an upgrade id has been bought.
func (p Progression) HasUpgrade(id string) bool {
	for _, u := range p.Upgrades {
		if u == id {
			return true
		}
	}
	return false
}

// AddHeroXP grants hero experience, levelling up every perLevel×level XP.
// It returns the number of levels gained.
func (p *Progression) AddHeroXP(xp, perLevel int) int {
	if xp <= 0 || perLevel <= 0 {
		return 0
	}
	p.HeroXP += xp
	gained := 0
	for p.HeroXP >= perLevel*p.HeroLevel {
		p.HeroXP -= perLevel * p.HeroLevel
		p.HeroLevel++
		gained++
	}
	return gained
}

// ToolState is an owned tool.
type ToolState struct {
	Family   string `json:"family"`
	Tier     int    `json:"tier"`
	Equipped bool   `json:"equipped"`
}

// BuildCost is the build price captured when a blueprint is bought.
type BuildCost struct {
	Energy    int                `json:"energy"`
	Materials gamedata.Materials `json:"materials,omitempty"`
}

// BlueprintState tracks one owned blueprint. Built implies Purchased.
type BlueprintState struct {
	Purchased   bool      `json:"purchased"`
	Built       bool      `json:"built"`
	PurchasedAt int       `json:"purchased_at"`
	BuiltAt     int       `json:"built_at,omitempty"`
	Cost        BuildCost `json:"cost"`
}

// Inventory is everything the player owns that is not a resource.
type Inventory struct {
	Tools      map[string]ToolState        `json:"tools"`
	Weapons    map[gamedata.WeaponKind]int `json:"weapons"` // family → level
	Armor      map[string]int              `json:"armor"`   // id → defense
	Blueprints map[string]BlueprintState   `json:"blueprints"`
}

// BestTool returns the highest tier owned in a tool family, or 0.
func (inv Inventory) BestTool(family string) int {
	best := 0
	for _, t := range inv.Tools {
		if t.Family == family && t.Tier > best {
			best = t.Tier
		}
	}
	return best
}

// Defense returns the summed defense of owned armor.
func (inv Inventory) Defense() int {
	d := 0
	for _, v := range inv.Armor {
		d += v
	}
	return d
}

// Crop is one planted plot.
type Crop struct {
	ID         int               `json:"id"`
	Plot       int               `json:"plot"`
	Kind       gamedata.CropKind `json:"kind"`
	PlantedAt  int               `json:"planted_at"`
	Water      float64           `json:"water"`
	Grown      float64           `json:"grown"` // minutes of growth accumulated
	DryMinutes int               `json:"dry_minutes"`
	Ready      bool              `json:"ready"`
	Withered   bool              `json:"withered"`
}

// CraftEntry is one queued forge job.
type CraftEntry struct {
	ID         int     `json:"id"`
	Recipe     string  `json:"recipe"`
	Remaining  int     `json:"remaining"`   // minutes of work left
	HeatNeeded float64 `json:"heat_needed"` // heat still to be drawn
}

// Forge holds accumulated heat and the FIFO craft queue.
type Forge struct {
	Heat  float64      `json:"heat"`
	Queue []CraftEntry `json:"queue"`
}

// MiningSession is an ongoing trip into the mine.
type MiningSession struct {
	ID          int                `json:"id"`
	Depth       int                `json:"depth"`
	Elapsed     int                `json:"elapsed"`
	Planned     int                `json:"planned"` // minutes before the session exits on its own
	DrainCarry  float64            `json:"drain_carry"`
	SinceSample int                `json:"since_sample"`
	Found       gamedata.Materials `json:"found"`
	ExitAsked   bool               `json:"exit_asked"`
}

// CatchSession is an ongoing seed-catching session at the tower.
type CatchSession struct {
	ID       int     `json:"id"`
	Duration int     `json:"duration"`
	Elapsed  int     `json:"elapsed"`
	Expected float64 `json:"expected"`
	Wind     float64 `json:"wind"`
}

// AdventureSession is a started route awaiting resolution.
type AdventureSession struct {
	ID      int                   `json:"id"`
	Route   string                `json:"route"`
	Seed    uint64                `json:"seed"`
	Loadout []gamedata.WeaponKind `json:"loadout"`
	Wave    int                   `json:"wave"`
	HP      int                   `json:"hp"`
}

// Processes holds every long-running activity. Crops are per plot; the others
// are singletons.
type Processes struct {
	Crops     []Crop            `json:"crops"`
	Forge     Forge             `json:"forge"`
	Mining    *MiningSession    `json:"mining,omitempty"`
	Catching  *CatchSession     `json:"catching,omitempty"`
	Adventure *AdventureSession `json:"adventure,omitempty"`
	NextID    int               `json:"next_id"`
}

// NewID hands out a process identifier unique within the run.
func (p *Processes) NewID() int {
	p.NextID++
	return p.NextID
}

// FreePlots returns the plot numbers with no crop on them.
func (s *State) FreePlots() []int {
	used := make(map[int]bool, len(s.Processes.Crops))
	for _, c := range s.Processes.Crops {
		used[c.Plot] = true
	}
	var free []int
	for i := range s.Progression.Plots {
		if !used[i] {
			free = append(free, i)
		}
	}
	return free
}

// Role is a helper's assigned job. RoleNone means unassigned.
type Role uint8

const (
	RoleNone Role = iota
	RoleWaterer
	RoleHarvester
	RoleMiner
	RoleSmith
)

var roleNames = [...]string{"none", "waterer", "harvester", "miner", "smith"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	for i, n := range roleNames {
		if n == string(b) {
			*r = Role(i)
			return nil
		}
	}
	return fmt.Errorf("%w: role %q", gamedata.ErrUnknownID, b)
}

// Gnome is a rescued helper.
type Gnome struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Role  Role    `json:"role"`
	Level int     `json:"level"`
	XP    int     `json:"xp"`
	Task  string  `json:"task"`
	Work  float64 `json:"work"` // fractional work carried between ticks
}

// AssignedGnomes counts helpers with a role.
func (s *State) AssignedGnomes() int {
	n := 0
	for _, g := range s.Gnomes {
		if g.Role != RoleNone {
			n++
		}
	}
	return n
}

// Location is where the player currently is. LastReason is diagnostic only.
type Location struct {
	Screen     gamedata.ScreenID   `json:"screen"`
	Since      int                 `json:"since"`
	History    []gamedata.ScreenID `json:"history"`
	LastReason string              `json:"last_reason"`
}

const maxHistory = 16

// MoveTo records a screen change at minute now.
func (l *Location) MoveTo(screen gamedata.ScreenID, now int, reason string) {
	if screen == l.Screen {
		return
	}
	l.History = append(l.History, l.Screen)
	if len(l.History) > maxHistory {
		l.History = l.History[len(l.History)-maxHistory:]
	}
	l.Screen = screen
	l.Since = now
	l.LastReason = reason
}

// Town holds the market supply pressure per material. Baseline is 1.
type Town struct {
	Supply map[gamedata.MaterialKind]float64 `json:"supply"`
}

// Stats are run counters for reporting. They never drive decisions.
type Stats struct {
	WastedMaterials int `json:"wasted_materials"`
	WastedEnergy    int `json:"wasted_energy"`
	WastedWater     int `json:"wasted_water"`
	Harvests        int `json:"harvests"`
	Withered        int `json:"withered"`
	SeedsCaught     int `json:"seeds_caught"`
	CraftsDone      int `json:"crafts_done"`
	CraftsFailed    int `json:"crafts_failed"`
	AdventuresWon   int `json:"adventures_won"`
	AdventuresLost  int `json:"adventures_lost"`
	MaterialsMined  int `json:"materials_mined"`
	GoldEarned      int `json:"gold_earned"`
	GoldSpent       int `json:"gold_spent"`
	ActionsDone     int `json:"actions_done"`
	ActionsFailed   int `json:"actions_failed"`
}
