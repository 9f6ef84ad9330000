// Package economy provides the town market where surplus materials are sold.
// Prices respond to how much the player has recently sold.
package economy

import (
	"math"

	"github.com/talgya/farmsim/internal/gamedata"
)

const (
	// Price bounds as multiples of base price.
	priceFloor   = 0.25
	priceCeiling = 2.0

	// minSupply keeps the price finite when supply is drained.
	minSupply = 0.01
)

// MarketEntry is the supply/demand state for one material.
type MarketEntry struct {
	Material  gamedata.MaterialKind `json:"material"`
	Supply    float64               `json:"supply"`
	Demand    float64               `json:"demand"`
	BasePrice float64               `json:"base_price"`
}

// ResolvePrice calculates price from the supply/demand ratio, bounded to a
// band around the base price.
func (e MarketEntry) ResolvePrice() float64 {
	supply := max(e.Supply, minSupply)
	price := e.BasePrice * (e.Demand / supply)
	return min(max(price, e.BasePrice*priceFloor), e.BasePrice*priceCeiling)
}

// Market prices materials against a supply table owned by the caller's state.
type Market struct {
	catalog       *gamedata.Catalog
	supplyPerUnit float64
	relax         float64
}

// NewMarket creates a market. supplyPerUnit is the supply added per unit
// sold; relax is the fraction of excess supply removed per day.
func NewMarket(cat *gamedata.Catalog, supplyPerUnit, relax float64) *Market {
	return &Market{catalog: cat, supplyPerUnit: supplyPerUnit, relax: relax}
}

func (m *Market) entry(supply map[gamedata.MaterialKind]float64, k gamedata.MaterialKind) MarketEntry {
	s, ok := supply[k]
	if !ok {
		s = 1
	}
	return MarketEntry{
		Material:  k,
		Supply:    s,
		Demand:    1,
		BasePrice: float64(m.catalog.Material(k).SellGold),
	}
}

// UnitPrice is the current price of one unit, rounded to whole gold.
func (m *Market) UnitPrice(supply map[gamedata.MaterialKind]float64, k gamedata.MaterialKind) int {
	return int(math.Round(m.entry(supply, k).ResolvePrice()))
}

// Quote returns the gold a sale of qty units would fetch. Each unit sold
// raises supply, so later units in the same sale fetch less.
func (m *Market) Quote(supply map[gamedata.MaterialKind]float64, k gamedata.MaterialKind, qty int) int {
	e := m.entry(supply, k)
	total := 0.0
	for range qty {
		total += e.ResolvePrice()
		e.Supply += m.supplyPerUnit
	}
	return int(math.Round(total))
}

// Sell records a sale of qty units and returns the gold earned.
func (m *Market) Sell(supply map[gamedata.MaterialKind]float64, k gamedata.MaterialKind, qty int) int {
	gold := m.Quote(supply, k, qty)
	s, ok := supply[k]
	if !ok {
		s = 1
	}
	supply[k] = s + m.supplyPerUnit*float64(qty)
	return gold
}

// Relax moves every supply value a step back toward baseline. Called daily.
func (m *Market) Relax(supply map[gamedata.MaterialKind]float64) {
	for k, s := range supply {
		supply[k] = s - (s-1)*m.relax
	}
}
