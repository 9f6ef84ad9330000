package state

import (
	"errors"
	"fmt"

	"github.com/talgya/farmsim/internal/config"
	"github.com/talgya/farmsim/internal/gamedata"
)

var (
	ErrInsufficient      = errors.New("insufficient resources")
	ErrNoTransaction     = errors.New("no transaction in progress")
	ErrTransactionActive = errors.New("transaction already in progress")
)

// ResourceKind names a pool a resource op targets.
type ResourceKind uint8

const (
	ResourceEnergy ResourceKind = iota
	ResourceGold
	ResourceWater
	ResourceSeed
	ResourceMaterial
)

var resourceNames = [...]string{"energy", "gold", "water", "seed", "material"}

func (k ResourceKind) String() string {
	if int(k) < len(resourceNames) {
		return resourceNames[k]
	}
	return fmt.Sprintf("resource(%d)", uint8(k))
}

func (k ResourceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Op is a signed change to one resource. Crop or Material selects the slot
// for seed and material ops.
type Op struct {
	Kind     ResourceKind          `json:"kind"`
	Crop     gamedata.CropKind     `json:"crop,omitempty"`
	Material gamedata.MaterialKind `json:"material,omitempty"`
	Delta    int                   `json:"delta"`
}

func Energy(d int) Op { return Op{Kind: ResourceEnergy, Delta: d} }
func Gold(d int) Op { return Op{Kind: ResourceGold, Delta: d} }
func Water(d int) Op { return Op{Kind: ResourceWater, Delta: d} }
func Seed(k gamedata.CropKind, d int) Op { return Op{Kind: ResourceSeed, Crop: k, Delta: d} }
func Material(k gamedata.MaterialKind, d int) Op { return Op{Kind: ResourceMaterial, Material: k, Delta: d} }

// Spend converts a bill of materials into debit ops.
func Spend(m gamedata.Materials) []Op {
	ops := make([]Op, 0, len(m))
	for _, k := range m.Sorted() {
		ops = append(ops, Material(k, -m[k]))
	}
	return ops
}

// Gain converts a bill of materials into credit ops.
func Gain(m gamedata.Materials) []Op {
	ops := make([]Op, 0, len(m))
	for _, k := range m.Sorted() {
		ops = append(ops, Material(k, m[k]))
	}
	return ops
}

func (o Op) String() string {
	switch o.Kind {
	case ResourceSeed:
		return fmt.Sprintf("%+d %s seed", o.Delta, o.Crop)
	case ResourceMaterial:
		return fmt.Sprintf("%+d %s", o.Delta, o.Material)
	default:
		return fmt.Sprintf("%+d %s", o.Delta, o.Kind)
	}
}

// Result reports the outcome of Apply. HitLimit is set when an addition was
// clamped by a cap; Wasted is the discarded excess.
type Result struct {
	Applied  bool
	HitLimit bool
	Wasted   int
	Err      error
}

// Store owns the State and is the only writer of it.
type Store struct {
	s       *State
	catalog *gamedata.Catalog
	params  config.Params
	tx      *State
}

// NewStore wraps s and refreshes its derived fields.
func NewStore(s *State, cat *gamedata.Catalog, p config.Params) *Store {
	st := &Store{s: s, catalog: cat, params: p}
	st.Refresh()
	return st
}

// State returns the live state for reading. Callers must mutate it only
// inside Update or between Begin and Commit.
func (st *Store) State() *State { return st.s }

// Catalog returns the static data the store derives from.
func (st *Store) Catalog() *gamedata.Catalog { return st.catalog }

// Params returns the compiled parameters.
func (st *Store) Params() config.Params { return st.params }

// Snapshot returns a deep copy of the current state.
func (st *Store) Snapshot() *State { return st.s.Clone() }

// Refresh recomputes the derived cache and clamps pools to their maxima.
func (st *Store) Refresh() {
	st.s.Derived = Derive(st.s, st.catalog, st.params)
	st.s.Resources.Energy = min(st.s.Resources.Energy, st.s.Derived.EnergyMax)
	st.s.Resources.Water = min(st.s.Resources.Water, st.s.Derived.WaterMax)
}

// Restore replaces the live state with a previously taken snapshot.
func (st *Store) Restore(snap *State) {
	*st.s = *snap.Clone()
	st.tx = nil
}

// InTransaction reports whether Begin has been called without Commit or Rollback.
func (st *Store) InTransaction() bool { return st.tx != nil }

func (st *Store) Begin() error {
	if st.tx != nil {
		return ErrTransactionActive
	}
	st.tx = st.s.Clone()
	return nil
}

func (st *Store) Commit() error {
	if st.tx == nil {
		return ErrNoTransaction
	}
	st.tx = nil
	st.Refresh()
	return nil
}

// Rollback restores the state captured at Begin.
func (st *Store) Rollback() error {
	if st.tx == nil {
		return ErrNoTransaction
	}
	*st.s = *st.tx
	st.tx = nil
	return nil
}

// Update runs fn against the live state. If fn returns an error every change
// it made is undone, whether or not an outer transaction is open.
func (st *Store) Update(fn func(s *State) error) error {
	saved := st.s.Clone()
	if err := fn(st.s); err != nil {
		*st.s = *saved
		return err
	}
	st.Refresh()
	return nil
}

// Apply validates and applies ops as one unit. Debits are checked against
// the pool before anything changes; additions are clamped to caps.
func (st *Store) Apply(ops ...Op) Result {
	if err := st.check(ops); err != nil {
		return Result{Err: err}
	}
	res := Result{Applied: true}
	r := &st.s.Resources
	d := st.s.Derived
	// Debits first so a clamped credit in the same batch cannot strand a debit.
	ordered := make([]Op, 0, len(ops))
	for _, op := range ops {
		if op.Delta < 0 {
			ordered = append(ordered, op)
		}
	}
	for _, op := range ops {
		if op.Delta >= 0 {
			ordered = append(ordered, op)
		}
	}
	for _, op := range ordered {
		switch op.Kind {
		case ResourceEnergy:
			before := res.Wasted
			r.Energy, res = addCapped(r.Energy, op.Delta, d.EnergyMax, res)
			st.s.Stats.WastedEnergy += res.Wasted - before
		case ResourceWater:
			before := res.Wasted
			r.Water, res = addCapped(r.Water, op.Delta, d.WaterMax, res)
			st.s.Stats.WastedWater += res.Wasted - before
		case ResourceGold:
			r.Gold += op.Delta
			if op.Delta > 0 {
				st.s.Stats.GoldEarned += op.Delta
			} else {
				st.s.Stats.GoldSpent -= op.Delta
			}
		case ResourceSeed:
			if r.Seeds == nil {
				r.Seeds = make(map[gamedata.CropKind]int)
			}
			r.Seeds[op.Crop] += op.Delta
		case ResourceMaterial:
			if r.Materials == nil {
				r.Materials = make(map[gamedata.MaterialKind]int)
			}
			var v int
			before := res.Wasted
			v, res = addCapped(r.Materials[op.Material], op.Delta, d.MaterialCap, res)
			r.Materials[op.Material] = v
			st.s.Stats.WastedMaterials += res.Wasted - before
		}
	}
	return res
}

func addCapped(cur, delta, capacity int, res Result) (int, Result) {
	v := cur + delta
	if delta > 0 && v > capacity {
		res.HitLimit = true
		res.Wasted += v - max(cur, capacity)
		v = max(cur, capacity)
	}
	return v, res
}

// check aggregates debits per slot so two ops on one resource cannot each
// pass on their own and overdraw together.
func (st *Store) check(ops []Op) error {
	type slot struct {
		kind ResourceKind
		idx  int
	}
	net := make(map[slot]int, len(ops))
	for _, op := range ops {
		s := slot{kind: op.Kind}
		switch op.Kind {
		case ResourceSeed:
			s.idx = int(op.Crop)
		case ResourceMaterial:
			s.idx = int(op.Material)
		case ResourceEnergy, ResourceGold, ResourceWater:
		default:
			return fmt.Errorf("resource op: %v", op.Kind)
		}
		net[s] += op.Delta
	}
	r := st.s.Resources
	for s, delta := range net {
		if delta >= 0 {
			continue
		}
		var have int
		switch s.kind {
		case ResourceEnergy:
			have = r.Energy
		case ResourceGold:
			have = r.Gold
		case ResourceWater:
			have = r.Water
		case ResourceSeed:
			have = r.Seeds[gamedata.CropKind(s.idx)]
		case ResourceMaterial:
			have = r.Materials[gamedata.MaterialKind(s.idx)]
		}
		if have+delta < 0 {
			return fmt.Errorf("%w: need %d %s, have %d", ErrInsufficient, -delta, slotName(s.kind, s.idx), have)
		}
	}
	return nil
}

func slotName(k ResourceKind, idx int) string {
	switch k {
	case ResourceSeed:
		return gamedata.CropKind(idx).String() + " seed"
	case ResourceMaterial:
		return gamedata.MaterialKind(idx).String()
	default:
		return k.String()
	}
}

// CanAfford reports whether ops would pass Apply's debit check.
func (st *Store) CanAfford(ops ...Op) bool {
	return st.check(ops) == nil
}

// CanAffordState is CanAfford for a state not owned by a store.
func CanAffordState(s *State, ops ...Op) bool {
	tmp := &Store{s: s}
	return tmp.check(ops) == nil
}
