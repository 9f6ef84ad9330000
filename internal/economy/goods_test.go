package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/farmsim/internal/gamedata"
)

func TestResolvePriceBounds(t *testing.T) {
	e := MarketEntry{Supply: 1, Demand: 1, BasePrice: 10}
	assert.Equal(t, 10.0, e.ResolvePrice())

	e.Supply = 100
	assert.Equal(t, 2.5, e.ResolvePrice())

	e.Supply = 0
	assert.Equal(t, 20.0, e.ResolvePrice())
}

func TestSellRaisesSupplyAndRelaxRestores(t *testing.T) {
	cat, err := gamedata.DefaultCatalog()
	require.NoError(t, err)
	m := NewMarket(cat, 0.1, 0.5)
	supply := map[gamedata.MaterialKind]float64{gamedata.MaterialIron: 1}

	first := m.Quote(supply, gamedata.MaterialIron, 1)
	assert.Equal(t, 5, first)

	gold := m.Sell(supply, gamedata.MaterialIron, 10)
	assert.Less(t, gold, 50)
	assert.InDelta(t, 2.0, supply[gamedata.MaterialIron], 1e-9)
	assert.Less(t, m.UnitPrice(supply, gamedata.MaterialIron), 5)

	m.Relax(supply)
	assert.InDelta(t, 1.5, supply[gamedata.MaterialIron], 1e-9)
	for range 40 {
		m.Relax(supply)
	}
	assert.Equal(t, 5, m.UnitPrice(supply, gamedata.MaterialIron))
}
