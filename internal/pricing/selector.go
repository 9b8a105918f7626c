package pricing

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Side is the direction of the remaining delta being priced.
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = -1
)

// SideOf derives the side from a signed delta.
func SideOf(delta decimal.Decimal) Side {
	if delta.Sign() < 0 {
		return SideSell
	}
	return SideBuy
}

// QuoteSource supplies the current two-sided quote for an instrument. A
// quote may be absent on any given cycle.
type QuoteSource interface {
	Quote(symbol schema.SymbolID) (schema.Quote, bool)
}

// TradeSource supplies the last trade price. Used only as a fallback in
// non-live contexts; leave nil for live deployments.
type TradeSource interface {
	LastTrade(symbol schema.SymbolID) (decimal.Decimal, bool)
}

// Selector computes a bounded limit price from the current market. The
// greed coefficient controls how far the price reaches into the spread:
// 1.0 rests at the near touch, above 1.0 crosses partway into the book.
type Selector struct {
	quotes QuoteSource
	trades TradeSource
	meta   *schema.Registry
	greed  decimal.Decimal
}

// DefaultGreed is used when no coefficient is configured.
var DefaultGreed = decimal.RequireFromString("1.1")

// NewSelector creates a selector. trades may be nil.
func NewSelector(quotes QuoteSource, trades TradeSource, meta *schema.Registry, greed decimal.Decimal) *Selector {
	if !greed.IsPositive() {
		greed = DefaultGreed
	}
	return &Selector{
		quotes: quotes,
		trades: trades,
		meta:   meta,
		greed:  greed,
	}
}

// Price returns the limit price for the given side, rounded to the
// instrument tick. The second return is false when no price can be
// computed this cycle; zero is a valid price and must not be used as the
// missing-quote sentinel.
func (s *Selector) Price(symbol schema.SymbolID, side Side) (decimal.Decimal, bool) {
	inst, ok := s.meta.Instrument(symbol)
	if !ok {
		return decimal.Zero, false
	}
	raw, ok := s.rawPrice(symbol, side)
	if !ok {
		return decimal.Zero, false
	}
	return roundToTick(raw, inst.TickSize), true
}

func (s *Selector) rawPrice(symbol schema.SymbolID, side Side) (decimal.Decimal, bool) {
	if quote, ok := s.quotes.Quote(symbol); ok && quote.Valid() {
		reach := s.greed.Mul(quote.Spread())
		if side == SideSell {
			return quote.Bid.Add(reach), true
		}
		return quote.Ask.Sub(reach), true
	}
	if s.trades != nil {
		if last, ok := s.trades.LastTrade(symbol); ok && last.IsPositive() {
			return last, true
		}
	}
	return decimal.Zero, false
}

func roundToTick(raw, tick decimal.Decimal) decimal.Decimal {
	return raw.Div(tick).Round(0).Mul(tick)
}
