package broker

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/internal/state"
)

func TestSimPlaceAndFill(t *testing.T) {
	book := state.NewBook()
	sim := NewSim(SimConfig{}, book)

	var events []Event
	sim.SetEventHook(func(ev Event) { events = append(events, ev) })

	ticket, err := sim.PlaceLimit(1, decimal.NewFromInt(40), decimal.RequireFromString("99.99"))
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatusSubmitted, ticket.Status())
	assert.Equal(t, schema.OrderTypeLimit, ticket.Type())

	require.NoError(t, sim.Fill(ticket.ID(), decimal.NewFromInt(15)))
	assert.Equal(t, schema.OrderStatusPartFilled, ticket.Status())
	assert.True(t, ticket.Filled().Equal(decimal.NewFromInt(15)))
	assert.True(t, book.Quantity(1).Equal(decimal.NewFromInt(15)))

	require.NoError(t, sim.Fill(ticket.ID(), decimal.NewFromInt(25)))
	assert.Equal(t, schema.OrderStatusFilled, ticket.Status())
	assert.True(t, book.Quantity(1).Equal(decimal.NewFromInt(40)))

	require.Len(t, events, 3)
	assert.Equal(t, EventSubmitted, events[0].Kind)
	assert.Equal(t, EventFilled, events[1].Kind)
	assert.Equal(t, EventFilled, events[2].Kind)
}

func TestSimSellFillsAreSigned(t *testing.T) {
	book := state.NewBook()
	sim := NewSim(SimConfig{}, book)

	ticket, err := sim.PlaceLimit(1, decimal.NewFromInt(-30), decimal.RequireFromString("100.11"))
	require.NoError(t, err)

	require.NoError(t, sim.Fill(ticket.ID(), decimal.NewFromInt(30)))
	assert.Equal(t, schema.OrderStatusFilled, ticket.Status())
	assert.True(t, ticket.Filled().Equal(decimal.NewFromInt(-30)))
	assert.True(t, book.Quantity(1).Equal(decimal.NewFromInt(-30)))
}

func TestSimTerminalGuards(t *testing.T) {
	sim := NewSim(SimConfig{}, nil)

	ticket, err := sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, ticket.Cancel())

	err = ticket.Cancel()
	assert.True(t, errors.Is(err, ErrOrderTerminal))

	qty := decimal.NewFromInt(20)
	err = ticket.Update(UpdateFields{Quantity: &qty})
	assert.True(t, errors.Is(err, ErrOrderTerminal))

	err = sim.Fill(ticket.ID(), decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, ErrOrderTerminal))
}

func TestSimUpdate(t *testing.T) {
	sim := NewSim(SimConfig{}, nil)

	ticket, err := sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)

	qty := decimal.NewFromInt(30)
	price := decimal.RequireFromString("99.95")
	require.NoError(t, ticket.Update(UpdateFields{Quantity: &qty, LimitPrice: &price}))
	assert.True(t, ticket.Quantity().Equal(qty))
	assert.True(t, ticket.LimitPrice().Equal(price))
}

func TestSimMarkFillsCrossedLimits(t *testing.T) {
	sim := NewSim(SimConfig{}, nil)

	buy, err := sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	sell, err := sim.PlaceLimit(2, decimal.NewFromInt(-10), decimal.RequireFromString("100.50"))
	require.NoError(t, err)

	// Ask above the buy limit: nothing happens.
	sim.Mark(1, schema.Quote{Bid: decimal.RequireFromString("100.05"), Ask: decimal.RequireFromString("100.15")})
	assert.Equal(t, schema.OrderStatusSubmitted, buy.Status())

	// Ask trades through the buy limit.
	sim.Mark(1, schema.Quote{Bid: decimal.RequireFromString("99.90"), Ask: decimal.RequireFromString("100.00")})
	assert.Equal(t, schema.OrderStatusFilled, buy.Status())

	// Bid trades through the sell limit.
	sim.Mark(2, schema.Quote{Bid: decimal.RequireFromString("100.50"), Ask: decimal.RequireFromString("100.60")})
	assert.Equal(t, schema.OrderStatusFilled, sell.Status())
}

func TestSimCloseAuction(t *testing.T) {
	book := state.NewBook()
	sim := NewSim(SimConfig{}, book)

	moc, err := sim.PlaceMarketOnClose(1, decimal.NewFromInt(-25))
	require.NoError(t, err)
	limit, err := sim.PlaceLimit(2, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)

	sim.CloseAuction()

	assert.Equal(t, schema.OrderStatusFilled, moc.Status())
	assert.True(t, book.Quantity(1).Equal(decimal.NewFromInt(-25)))
	// Limit orders are untouched by the closing auction.
	assert.Equal(t, schema.OrderStatusSubmitted, limit.Status())
}

func TestSimRejectsInvalidOrders(t *testing.T) {
	sim := NewSim(SimConfig{}, nil)

	_, err := sim.PlaceLimit(1, decimal.Zero, decimal.NewFromInt(100))
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, err = sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, err = sim.PlaceMarketOnClose(1, decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidOrder))
}

func TestSimFailNextPlace(t *testing.T) {
	sim := NewSim(SimConfig{}, nil)
	reject := errors.New("insufficient buying power")
	sim.FailNextPlace(reject)

	_, err := sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.NewFromInt(100))
	assert.True(t, errors.Is(err, reject))

	_, err = sim.PlaceLimit(1, decimal.NewFromInt(10), decimal.NewFromInt(100))
	assert.NoError(t, err)
}
