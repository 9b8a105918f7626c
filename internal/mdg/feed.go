package mdg

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Feed is an in-memory quote/trade store. The generator (or a test)
// writes into it; the price selector reads from it.
type Feed struct {
	quotes map[schema.SymbolID]schema.Quote
	trades map[schema.SymbolID]decimal.Decimal
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		quotes: make(map[schema.SymbolID]schema.Quote),
		trades: make(map[schema.SymbolID]decimal.Decimal),
	}
}

// SetQuote stores the current quote for an instrument.
func (f *Feed) SetQuote(symbol schema.SymbolID, quote schema.Quote) {
	f.quotes[symbol] = quote
}

// DropQuote removes the quote, simulating a cycle without market data.
func (f *Feed) DropQuote(symbol schema.SymbolID) {
	delete(f.quotes, symbol)
}

// Quote returns the current quote for an instrument.
func (f *Feed) Quote(symbol schema.SymbolID) (schema.Quote, bool) {
	quote, ok := f.quotes[symbol]
	return quote, ok
}

// SetTrade stores the last trade price for an instrument.
func (f *Feed) SetTrade(symbol schema.SymbolID, price decimal.Decimal) {
	f.trades[symbol] = price
}

// LastTrade returns the last trade price for an instrument.
func (f *Feed) LastTrade(symbol schema.SymbolID) (decimal.Decimal, bool) {
	price, ok := f.trades[symbol]
	return price, ok
}
