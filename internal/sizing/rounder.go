package sizing

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// MarginSource reports the externally computed remaining margin. A negative
// value means the account must deleverage.
type MarginSource interface {
	MarginRemaining() decimal.Decimal
}

// Rounder truncates a raw position delta to a tradable lot multiple. It
// always rounds toward zero, so an order can never exceed the raw delta in
// magnitude.
type Rounder struct {
	meta     *schema.Registry
	lot      decimal.Decimal
	panicLot decimal.Decimal
	margin   MarginSource
}

// NewRounder creates a rounder. panicLot is the larger lot used while
// margin is negative; zero disables the behavior. margin may be nil.
func NewRounder(meta *schema.Registry, lot, panicLot decimal.Decimal, margin MarginSource) *Rounder {
	return &Rounder{
		meta:     meta,
		lot:      lot,
		panicLot: panicLot,
		margin:   margin,
	}
}

// Round truncates raw to the effective lot for the instrument.
func (r *Rounder) Round(symbol schema.SymbolID, raw decimal.Decimal) decimal.Decimal {
	lot := r.lotFor(symbol)
	if !lot.IsPositive() {
		return raw
	}
	return raw.Div(lot).Truncate(0).Mul(lot)
}

func (r *Rounder) lotFor(symbol schema.SymbolID) decimal.Decimal {
	lot := r.lot
	if inst, ok := r.meta.Instrument(symbol); ok {
		lot = decimal.Max(lot, inst.LotSize)
	}
	if r.panicLot.IsPositive() && r.margin != nil && r.margin.MarginRemaining().IsNegative() {
		lot = decimal.Max(r.panicLot, lot)
	}
	return lot
}
