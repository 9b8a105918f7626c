package schema

import "github.com/shopspring/decimal"

// SymbolID is the numeric identifier for an instrument.
type SymbolID uint32

// OrderType defines how an order executes at the broker.
type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarketOnClose
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeMarketOnClose:
		return "market_on_close"
	default:
		return "unknown"
	}
}

// OrderStatus tracks the lifecycle of a broker order.
type OrderStatus uint8

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusSubmitted
	OrderStatusPartFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusSubmitted:
		return "submitted"
	case OrderStatusPartFilled:
		return "part_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCanceled:
		return "canceled"
	case OrderStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// PortfolioTarget is the desired signed position size for an instrument,
// supplied by an external portfolio-construction component each cycle.
type PortfolioTarget struct {
	Symbol   SymbolID
	Quantity decimal.Decimal
}

// Quote is a two-sided market snapshot for one instrument.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// Valid reports whether both sides are present and coherent.
func (q Quote) Valid() bool {
	return q.Bid.IsPositive() && q.Ask.IsPositive() && !q.Ask.LessThan(q.Bid)
}

// Spread returns ask minus bid.
func (q Quote) Spread() decimal.Decimal {
	return q.Ask.Sub(q.Bid)
}
