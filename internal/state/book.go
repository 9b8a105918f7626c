package state

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Book tracks signed held quantities per instrument, updated from fills.
type Book struct {
	positions map[schema.SymbolID]decimal.Decimal
}

// NewBook creates an empty position book.
func NewBook() *Book {
	return &Book{positions: make(map[schema.SymbolID]decimal.Decimal)}
}

// Apply adds a signed fill quantity and returns the new position.
func (b *Book) Apply(symbol schema.SymbolID, qty decimal.Decimal) decimal.Decimal {
	next := b.positions[symbol].Add(qty)
	b.positions[symbol] = next
	return next
}

// Set replaces the position for an instrument.
func (b *Book) Set(symbol schema.SymbolID, qty decimal.Decimal) {
	b.positions[symbol] = qty
}

// Quantity returns the current signed position for an instrument.
func (b *Book) Quantity(symbol schema.SymbolID) decimal.Decimal {
	return b.positions[symbol]
}

// Count returns the number of instruments with a recorded position.
func (b *Book) Count() int {
	return len(b.positions)
}
