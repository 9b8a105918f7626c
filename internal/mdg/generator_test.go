package mdg

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestGeneratorPublishesValidQuotes(t *testing.T) {
	reg := schema.NewRegistry()
	id, err := reg.AddInstrument("AAPL", decimal.RequireFromString("0.01"), decimal.NewFromInt(1), true)
	require.NoError(t, err)

	gen, err := NewGenerator(reg, decimal.NewFromInt(100), 5)
	require.NoError(t, err)
	feed := NewFeed()

	for i := 0; i < 50; i++ {
		gen.Publish(feed)
		quote, ok := feed.Quote(id)
		require.True(t, ok)
		assert.True(t, quote.Valid(), "cycle %d: %s/%s", i, quote.Bid, quote.Ask)
		assert.True(t, quote.Spread().Equal(decimal.RequireFromString("0.10")), "cycle %d", i)

		last, ok := feed.LastTrade(id)
		require.True(t, ok)
		assert.True(t, last.GreaterThan(quote.Bid) && last.LessThan(quote.Ask))
	}
}

func TestGeneratorQuotesMove(t *testing.T) {
	reg := schema.NewRegistry()
	id, err := reg.AddInstrument("AAPL", decimal.RequireFromString("0.01"), decimal.NewFromInt(1), true)
	require.NoError(t, err)

	gen, err := NewGenerator(reg, decimal.NewFromInt(100), 1)
	require.NoError(t, err)
	feed := NewFeed()

	gen.Publish(feed)
	first, _ := feed.Quote(id)
	gen.Publish(feed)
	second, _ := feed.Quote(id)
	assert.False(t, first.Bid.Equal(second.Bid), "quotes should drift between cycles")
}

func TestGeneratorRejectsEmptyRegistry(t *testing.T) {
	_, err := NewGenerator(schema.NewRegistry(), decimal.NewFromInt(100), 1)
	assert.Error(t, err)

	reg := schema.NewRegistry()
	_, rerr := reg.AddInstrument("AAPL", decimal.RequireFromString("0.01"), decimal.NewFromInt(1), true)
	require.NoError(t, rerr)
	_, err = NewGenerator(reg, decimal.Zero, 1)
	assert.Error(t, err)
}

func TestFeedDropQuote(t *testing.T) {
	feed := NewFeed()
	feed.SetQuote(1, schema.Quote{Bid: decimal.NewFromInt(99), Ask: decimal.NewFromInt(100)})

	_, ok := feed.Quote(1)
	require.True(t, ok)

	feed.DropQuote(1)
	_, ok = feed.Quote(1)
	assert.False(t, ok)
}
