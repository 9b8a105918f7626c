package broker

import (
	"errors"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

var (
	ErrOrderTerminal = errors.New("broker: order already terminal")
	ErrOrderUnknown  = errors.New("broker: order not found")
	ErrInvalidOrder  = errors.New("broker: invalid order request")
)

// Ticket is the engine's handle on one broker order. It exposes exactly
// the fields the convergence logic needs and nothing else, so the broker
// stays substitutable in tests.
type Ticket interface {
	ID() uint64
	Symbol() schema.SymbolID
	Type() schema.OrderType
	Status() schema.OrderStatus
	// Quantity is the signed requested quantity.
	Quantity() decimal.Decimal
	// Filled is the signed quantity executed so far.
	Filled() decimal.Decimal
	// LimitPrice is the current limit price; zero for market-on-close.
	LimitPrice() decimal.Decimal
	Update(fields UpdateFields) error
	Cancel() error
}

// UpdateFields carries an order amendment; nil fields are left unchanged.
type UpdateFields struct {
	Quantity   *decimal.Decimal
	LimitPrice *decimal.Decimal
}

// Gateway places orders at the broker. Calls are fire-and-forget: the
// engine never blocks on an acknowledgement and re-evaluates from the
// ticket snapshot on the next cycle.
type Gateway interface {
	PlaceLimit(symbol schema.SymbolID, qty, price decimal.Decimal) (Ticket, error)
	PlaceMarketOnClose(symbol schema.SymbolID, qty decimal.Decimal) (Ticket, error)
}

// EventKind categorizes order lifecycle events emitted by the simulator.
type EventKind uint8

const (
	EventSubmitted EventKind = iota + 1
	EventUpdated
	EventCanceled
	EventFilled
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitted:
		return "submitted"
	case EventUpdated:
		return "updated"
	case EventCanceled:
		return "canceled"
	case EventFilled:
		return "filled"
	default:
		return "unknown"
	}
}

// Event is a snapshot of one order after a lifecycle transition.
type Event struct {
	Kind       EventKind
	OrderID    uint64
	Symbol     schema.SymbolID
	Type       schema.OrderType
	Status     schema.OrderStatus
	Quantity   decimal.Decimal
	Filled     decimal.Decimal
	LimitPrice decimal.Decimal
}
