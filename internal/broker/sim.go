package broker

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
	"main/internal/state"
)

// SimConfig controls the simulator gateway.
type SimConfig struct {
	Session string
}

// Sim is an in-memory broker. Orders transition through the same states a
// live gateway reports, with terminal states guarded against further
// mutation, so the engine's staleness handling is exercised exactly as in
// production. Fills are driven explicitly: scripted via Fill, by marking
// quotes via Mark, or by CloseAuction for market-on-close orders.
type Sim struct {
	cfg       SimConfig
	nextID    uint64
	orders    map[uint64]*simOrder
	book      *state.Book
	onEvent   func(Event)
	failPlace error
}

// NewSim creates a simulator writing fills into the given position book.
func NewSim(cfg SimConfig, book *state.Book) *Sim {
	if cfg.Session == "" {
		cfg.Session = "SIM"
	}
	if book == nil {
		book = state.NewBook()
	}
	return &Sim{
		cfg:    cfg,
		orders: make(map[uint64]*simOrder),
		book:   book,
	}
}

// Book returns the position book updated by fills.
func (s *Sim) Book() *state.Book {
	return s.book
}

// SetEventHook registers a callback invoked after every order transition.
func (s *Sim) SetEventHook(fn func(Event)) {
	s.onEvent = fn
}

// FailNextPlace makes the next placement return err, simulating a broker
// reject.
func (s *Sim) FailNextPlace(err error) {
	s.failPlace = err
}

// PlaceLimit submits a limit order for a signed quantity.
func (s *Sim) PlaceLimit(symbol schema.SymbolID, qty, price decimal.Decimal) (Ticket, error) {
	if qty.IsZero() || !price.IsPositive() {
		return nil, ErrInvalidOrder
	}
	return s.place(symbol, schema.OrderTypeLimit, qty, price)
}

// PlaceMarketOnClose submits a market-on-close order for a signed quantity.
func (s *Sim) PlaceMarketOnClose(symbol schema.SymbolID, qty decimal.Decimal) (Ticket, error) {
	if qty.IsZero() {
		return nil, ErrInvalidOrder
	}
	return s.place(symbol, schema.OrderTypeMarketOnClose, qty, decimal.Zero)
}

func (s *Sim) place(symbol schema.SymbolID, typ schema.OrderType, qty, price decimal.Decimal) (Ticket, error) {
	if s.failPlace != nil {
		err := s.failPlace
		s.failPlace = nil
		return nil, err
	}
	s.nextID++
	o := &simOrder{
		gw:     s,
		id:     s.nextID,
		symbol: symbol,
		typ:    typ,
		status: schema.OrderStatusSubmitted,
		qty:    qty,
		limit:  price,
	}
	s.orders[o.id] = o
	s.emit(EventSubmitted, o)
	return o, nil
}

// Order returns the ticket for an order ID.
func (s *Sim) Order(id uint64) (Ticket, bool) {
	o, ok := s.orders[id]
	return o, ok
}

// AliveCount returns the number of non-terminal orders for an instrument.
func (s *Sim) AliveCount(symbol schema.SymbolID) int {
	n := 0
	for _, o := range s.orders {
		if o.symbol == symbol && !o.status.Terminal() {
			n++
		}
	}
	return n
}

// Fill executes up to magnitude units of an order in its own direction.
func (s *Sim) Fill(id uint64, magnitude decimal.Decimal) error {
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderUnknown
	}
	if o.status.Terminal() {
		return ErrOrderTerminal
	}
	if !magnitude.IsPositive() {
		return ErrInvalidOrder
	}
	s.fill(o, magnitude)
	return nil
}

// Mark fills alive limit orders that the given quote crosses: buys when
// the ask trades through the limit, sells when the bid does.
func (s *Sim) Mark(symbol schema.SymbolID, quote schema.Quote) {
	for _, o := range s.orders {
		if o.symbol != symbol || o.typ != schema.OrderTypeLimit || o.status.Terminal() {
			continue
		}
		remaining := o.qty.Sub(o.filled)
		if remaining.IsZero() {
			continue
		}
		buying := remaining.Sign() > 0
		if buying && quote.Ask.LessThanOrEqual(o.limit) {
			s.fill(o, remaining.Abs())
		}
		if !buying && quote.Bid.GreaterThanOrEqual(o.limit) {
			s.fill(o, remaining.Abs())
		}
	}
}

// CloseAuction fully executes every alive market-on-close order.
func (s *Sim) CloseAuction() {
	for _, o := range s.orders {
		if o.typ != schema.OrderTypeMarketOnClose || o.status.Terminal() {
			continue
		}
		remaining := o.qty.Sub(o.filled)
		if remaining.IsZero() {
			o.status = schema.OrderStatusFilled
			s.emit(EventFilled, o)
			continue
		}
		s.fill(o, remaining.Abs())
	}
}

func (s *Sim) fill(o *simOrder, magnitude decimal.Decimal) {
	remaining := o.qty.Sub(o.filled)
	if remaining.IsZero() {
		return
	}
	step := decimal.Min(magnitude, remaining.Abs())
	if remaining.Sign() < 0 {
		step = step.Neg()
	}
	o.filled = o.filled.Add(step)
	if o.filled.Equal(o.qty) {
		o.status = schema.OrderStatusFilled
	} else {
		o.status = schema.OrderStatusPartFilled
	}
	s.book.Apply(o.symbol, step)
	s.emit(EventFilled, o)
}

func (s *Sim) emit(kind EventKind, o *simOrder) {
	if s.onEvent == nil {
		return
	}
	s.onEvent(Event{
		Kind:       kind,
		OrderID:    o.id,
		Symbol:     o.symbol,
		Type:       o.typ,
		Status:     o.status,
		Quantity:   o.qty,
		Filled:     o.filled,
		LimitPrice: o.limit,
	})
}

type simOrder struct {
	gw     *Sim
	id     uint64
	symbol schema.SymbolID
	typ    schema.OrderType
	status schema.OrderStatus
	qty    decimal.Decimal
	filled decimal.Decimal
	limit  decimal.Decimal
}

func (o *simOrder) ID() uint64                  { return o.id }
func (o *simOrder) Symbol() schema.SymbolID     { return o.symbol }
func (o *simOrder) Type() schema.OrderType      { return o.typ }
func (o *simOrder) Status() schema.OrderStatus  { return o.status }
func (o *simOrder) Quantity() decimal.Decimal   { return o.qty }
func (o *simOrder) Filled() decimal.Decimal     { return o.filled }
func (o *simOrder) LimitPrice() decimal.Decimal { return o.limit }

var _ Ticket = (*simOrder)(nil)

// Update amends quantity and/or limit price. Amending a terminal order is
// refused so the engine can treat the race as a stale no-op.
func (o *simOrder) Update(fields UpdateFields) error {
	if o.status.Terminal() {
		return ErrOrderTerminal
	}
	if fields.Quantity != nil {
		if fields.Quantity.IsZero() {
			return ErrInvalidOrder
		}
		o.qty = *fields.Quantity
	}
	if fields.LimitPrice != nil && o.typ == schema.OrderTypeLimit {
		if !fields.LimitPrice.IsPositive() {
			return ErrInvalidOrder
		}
		o.limit = *fields.LimitPrice
	}
	o.gw.emit(EventUpdated, o)
	return nil
}

// Cancel terminates the order unless it already reached a terminal state.
func (o *simOrder) Cancel() error {
	if o.status.Terminal() {
		return ErrOrderTerminal
	}
	o.status = schema.OrderStatusCanceled
	o.gw.emit(EventCanceled, o)
	return nil
}
