package process

import (
	"fmt"

	"github.com/talgya/farmsim/internal/events"
	"github.com/talgya/farmsim/internal/gamedata"
	"github.com/talgya/farmsim/internal/state"
)

func (m *Manager) startCraft(s *state.State, sp CraftSpec) (int, error) {
	if !s.Progression.BuiltStructures["forge"] {
		return 0, fmt.Errorf("%w: forge not built", ErrLocked)
	}
	rc, ok := m.catalog.Recipe(sp.Recipe)
	if !ok {
		return 0, fmt.Errorf("%w: recipe %q", gamedata.ErrUnknownID, sp.Recipe)
	}
	if len(s.Processes.Forge.Queue) >= m.params.Forge.QueueCapacity {
		return 0, fmt.Errorf("%w: forge queue full", ErrBusy)
	}
	id := s.Processes.NewID()
	s.Processes.Forge.Queue = append(s.Processes.Forge.Queue, state.CraftEntry{
		ID:         id,
		Recipe:     rc.ID,
		Remaining:  rc.Minutes,
		HeatNeeded: float64(rc.Heat),
	})
	return id, nil
}

// AddHeat adds forge heat up to the configured maximum and returns the
// amount actually added.
func (m *Manager) AddHeat(s *state.State, heat float64) float64 {
	f := &s.Processes.Forge
	before := f.Heat
	f.Heat = min(float64(m.params.Forge.MaxHeat), f.Heat+heat)
	return f.Heat - before
}

// tickForge works the head of the queue minute by minute. Time always
// elapses; heat is drawn only while the forge has some.
func (m *Manager) tickForge(st *state.Store, delta int, log *events.Log, rep *Report) {
	s := st.State()
	f := &s.Processes.Forge
	rate := m.params.Forge.HeatRatePerMinute
	for range delta {
		if len(f.Queue) == 0 {
			return
		}
		head := &f.Queue[0]
		if head.Remaining > 0 {
			head.Remaining--
		}
		if head.HeatNeeded > 0 && f.Heat > 0 {
			draw := min(rate, f.Heat, head.HeatNeeded)
			f.Heat -= draw
			head.HeatNeeded -= draw
		}
		if head.Remaining > 0 || head.HeatNeeded > 1e-9 {
			continue
		}
		entry := *head
		f.Queue = f.Queue[1:]
		m.finishCraft(st, entry, log, rep)
	}
}

func (m *Manager) finishCraft(st *state.Store, entry state.CraftEntry, log *events.Log, rep *Report) {
	s := st.State()
	rc, ok := m.catalog.Recipe(entry.Recipe)
	done := Completion{ID: entry.ID, Kind: KindCraft, Label: entry.Recipe}
	if !ok {
		rep.Failed = append(rep.Failed, done)
		log.Add(events.High, events.CategoryForge, "queued recipe %q vanished from the catalog", entry.Recipe)
		return
	}
	if !m.craftRNG.Chance(rc.SuccessChance) {
		s.Stats.CraftsFailed++
		rep.Failed = append(rep.Failed, done)
		log.Add(events.Low, events.CategoryForge, "%s failed; materials lost", rc.ID)
		return
	}
	inv := &s.Inventory
	switch rc.Output {
	case gamedata.OutputTool:
		tool, _ := m.catalog.Tool(rc.Ref)
		if inv.Tools == nil {
			inv.Tools = make(map[string]state.ToolState)
		}
		inv.Tools[tool.ID] = state.ToolState{Family: tool.Family, Tier: tool.Tier, Equipped: true}
	case gamedata.OutputWeapon:
		kind, _ := gamedata.ParseWeapon(rc.Ref)
		if inv.Weapons == nil {
			inv.Weapons = make(map[gamedata.WeaponKind]int)
		}
		inv.Weapons[kind] = max(inv.Weapons[kind], rc.Level)
	case gamedata.OutputArmor:
		piece, _ := m.catalog.ArmorPiece(rc.Ref)
		if inv.Armor == nil {
			inv.Armor = make(map[string]int)
		}
		inv.Armor[piece.ID] = piece.Defense
	}
	s.Stats.CraftsDone++
	rep.Completed = append(rep.Completed, done)
	log.Add(events.Info, events.CategoryForge, "%s complete", rc.ID)
}
