package exec

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/pricing"
	"main/internal/schema"
)

// converge drives one instrument toward its desired quantity: cancel when
// the target is met within lot tolerance, fall back to market-on-close
// when this is the last cycle of the session, otherwise place or amend a
// limit order at the selected price.
func (s *Scheduler) converge(now time.Time, symbol schema.SymbolID, desired decimal.Decimal) {
	held := s.positions.Quantity(symbol)
	delta := s.rounder.Round(symbol, desired.Sub(held))

	if delta.IsZero() {
		s.cancelTracked(symbol, "target reached")
		return
	}

	if !s.hours.IsOpen(symbol, s.clock.NextTick(now), s.extended) {
		s.closeOut(symbol, delta)
		return
	}

	price, ok := s.prices.Price(symbol, pricing.SideOf(delta))
	if !ok {
		logs.Warnf("no price for %s, deferring until next cycle", s.meta.Name(symbol))
		s.metrics.IncDeferred()
		return
	}

	ticket, tracked := s.orders[symbol]
	if !tracked {
		s.place(symbol, delta, price)
		return
	}

	outstanding := ticket.Quantity().Sub(ticket.Filled())
	if outstanding.Equal(delta) {
		return
	}

	quantity := delta.Add(ticket.Filled())
	fields := broker.UpdateFields{Quantity: &quantity}
	if ticket.Type() == schema.OrderTypeLimit {
		fields.LimitPrice = &price
	}
	if err := ticket.Update(fields); err != nil {
		s.handleMutationError(symbol, "update", err)
		return
	}
	s.metrics.IncUpdated()
}

// maintain handles instruments with an order left open from a previous
// cycle whose target did not change: it still honors the session-close
// fallback and keeps the limit price in line with the market.
func (s *Scheduler) maintain(now time.Time, symbol schema.SymbolID, ticket broker.Ticket) {
	remaining := ticket.Quantity().Sub(ticket.Filled())
	if remaining.IsZero() {
		s.cancelTracked(symbol, "nothing outstanding")
		return
	}

	if !s.hours.IsOpen(symbol, s.clock.NextTick(now), s.extended) {
		s.closeOut(symbol, remaining)
		return
	}

	if ticket.Type() != schema.OrderTypeLimit {
		return
	}
	price, ok := s.prices.Price(symbol, pricing.SideOf(remaining))
	if !ok {
		return
	}
	if price.Equal(ticket.LimitPrice()) {
		return
	}
	if err := ticket.Update(broker.UpdateFields{LimitPrice: &price}); err != nil {
		s.handleMutationError(symbol, "reprice", err)
		return
	}
	s.metrics.IncRepriced()
}

// closeOut is the end-of-session path: the market will be closed at the
// next tick, so any passive order is replaced by a market-on-close order
// for the remaining delta.
func (s *Scheduler) closeOut(symbol schema.SymbolID, delta decimal.Decimal) {
	s.cancelTracked(symbol, "session ending")
	ticket, err := s.gateway.PlaceMarketOnClose(symbol, delta)
	if err != nil {
		logs.Errorf("market-on-close submit failed for %s, err: %+v", s.meta.Name(symbol), err)
		s.metrics.IncRejected()
		return
	}
	s.orders[symbol] = ticket
	s.metrics.IncCloseOut()
}

func (s *Scheduler) place(symbol schema.SymbolID, delta, price decimal.Decimal) {
	ticket, err := s.gateway.PlaceLimit(symbol, delta, price)
	if err != nil {
		logs.Errorf("limit submit failed for %s, err: %+v", s.meta.Name(symbol), err)
		s.metrics.IncRejected()
		return
	}
	s.orders[symbol] = ticket
	s.metrics.IncPlaced()
}

// cancelTracked cancels and forgets the tracked order, if any. A cancel
// racing a fill is expected: the terminal refusal is a no-op here and the
// next cycle re-evaluates from fresh position and order state.
func (s *Scheduler) cancelTracked(symbol schema.SymbolID, reason string) {
	ticket, ok := s.orders[symbol]
	if !ok {
		return
	}
	delete(s.orders, symbol)
	if ticket.Status().Terminal() {
		return
	}
	if err := ticket.Cancel(); err != nil {
		if errors.Is(err, broker.ErrOrderTerminal) {
			s.metrics.IncStale()
			return
		}
		logs.Errorf("cancel failed for %s (%s), err: %+v", s.meta.Name(symbol), reason, err)
		return
	}
	s.metrics.IncCanceled()
}

func (s *Scheduler) handleMutationError(symbol schema.SymbolID, op string, err error) {
	if errors.Is(err, broker.ErrOrderTerminal) {
		// The order finished before the mutation landed. Drop the stale
		// handle; the next cycle sees the fresh position.
		delete(s.orders, symbol)
		s.metrics.IncStale()
		return
	}
	logs.Errorf("%s failed for %s, err: %+v", op, s.meta.Name(symbol), err)
}
