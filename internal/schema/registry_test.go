package schema

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddAndLookup(t *testing.T) {
	reg := NewRegistry()

	id, err := reg.AddInstrument("AAPL", decimal.RequireFromString("0.01"), decimal.NewFromInt(1), true)
	require.NoError(t, err)
	require.Equal(t, SymbolID(1), id)

	inst, ok := reg.Instrument(id)
	require.True(t, ok)
	assert.Equal(t, "AAPL", inst.Name)
	assert.True(t, inst.Tradable)
	assert.True(t, inst.TickSize.Equal(decimal.RequireFromString("0.01")))

	byName, ok := reg.IDByName("AAPL")
	require.True(t, ok)
	assert.Equal(t, id, byName)

	assert.Equal(t, "AAPL", reg.Name(id))
	assert.Equal(t, "#9", reg.Name(SymbolID(9)))
}

func TestRegistryRejectsInvalidInstruments(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.AddInstrument("", decimal.NewFromInt(1), decimal.NewFromInt(1), true)
	assert.Error(t, err)

	_, err = reg.AddInstrument("X", decimal.Zero, decimal.NewFromInt(1), true)
	assert.Error(t, err)

	_, err = reg.AddInstrument("X", decimal.NewFromInt(1), decimal.Zero, true)
	assert.Error(t, err)

	_, err = reg.AddInstrument("X", decimal.NewFromInt(1), decimal.NewFromInt(1), true)
	require.NoError(t, err)
	_, err = reg.AddInstrument("X", decimal.NewFromInt(1), decimal.NewFromInt(1), true)
	assert.Error(t, err)
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.False(t, OrderStatusSubmitted.Terminal())
	assert.False(t, OrderStatusPartFilled.Terminal())
	assert.True(t, OrderStatusFilled.Terminal())
	assert.True(t, OrderStatusCanceled.Terminal())
	assert.True(t, OrderStatusRejected.Terminal())
}

func TestQuoteValid(t *testing.T) {
	valid := Quote{Bid: decimal.NewFromInt(100), Ask: decimal.RequireFromString("100.10")}
	assert.True(t, valid.Valid())
	assert.True(t, valid.Spread().Equal(decimal.RequireFromString("0.10")))

	assert.False(t, Quote{}.Valid())
	assert.False(t, Quote{Bid: decimal.NewFromInt(101), Ask: decimal.NewFromInt(100)}.Valid())
}
