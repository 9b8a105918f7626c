// Package exec implements the target-to-order convergence engine: it keeps
// at most one live broker order per instrument and walks held positions
// toward externally supplied portfolio targets, repricing passive orders as
// the market moves and falling back to market-on-close before each session
// ends.
package exec

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/obs"
	"main/internal/pricing"
	"main/internal/schema"
	"main/internal/session"
	"main/internal/sizing"
)

// PositionSource reports the current signed held quantity per instrument,
// from external portfolio state.
type PositionSource interface {
	Quantity(symbol schema.SymbolID) decimal.Decimal
}

// Options wires the scheduler's collaborators. All fields except Metrics
// are required.
type Options struct {
	Meta      *schema.Registry
	Clock     *session.Clock
	Hours     session.Hours
	Prices    *pricing.Selector
	Rounder   *sizing.Rounder
	Gateway   broker.Gateway
	Positions PositionSource
	Metrics   *obs.Metrics

	// ExtendedHours widens every session query to the extended window.
	ExtendedHours bool
}

// Scheduler drives portfolio targets to broker orders, one cycle at a
// time. It owns its order and pending maps exclusively; Execute is invoked
// from a single scheduling goroutine and is never reentered, so the maps
// need no locking.
type Scheduler struct {
	meta      *schema.Registry
	clock     *session.Clock
	hours     session.Hours
	prices    *pricing.Selector
	rounder   *sizing.Rounder
	gateway   broker.Gateway
	positions PositionSource
	metrics   *obs.Metrics
	extended  bool

	orders  map[schema.SymbolID]broker.Ticket
	pending map[schema.SymbolID]decimal.Decimal
}

// NewScheduler validates the wiring and creates a scheduler.
func NewScheduler(opt Options) (*Scheduler, error) {
	switch {
	case opt.Meta == nil:
		return nil, errors.New("exec: nil instrument registry")
	case opt.Clock == nil:
		return nil, errors.New("exec: nil clock")
	case opt.Hours == nil:
		return nil, errors.New("exec: nil market hours")
	case opt.Prices == nil:
		return nil, errors.New("exec: nil price selector")
	case opt.Rounder == nil:
		return nil, errors.New("exec: nil quantity rounder")
	case opt.Gateway == nil:
		return nil, errors.New("exec: nil broker gateway")
	case opt.Positions == nil:
		return nil, errors.New("exec: nil position source")
	}
	metrics := opt.Metrics
	if metrics == nil {
		metrics = obs.NewMetrics()
	}
	return &Scheduler{
		meta:      opt.Meta,
		clock:     opt.Clock,
		hours:     opt.Hours,
		prices:    opt.Prices,
		rounder:   opt.Rounder,
		gateway:   opt.Gateway,
		positions: opt.Positions,
		metrics:   metrics,
		extended:  opt.ExtendedHours,
		orders:    make(map[schema.SymbolID]broker.Ticket),
		pending:   make(map[schema.SymbolID]decimal.Decimal),
	}, nil
}

// Metrics returns the scheduler's counters.
func (s *Scheduler) Metrics() *obs.Metrics {
	return s.metrics
}

// PendingCount returns the number of buffered closed-market targets.
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// TrackedCount returns the number of instruments with a tracked order.
func (s *Scheduler) TrackedCount() int {
	return len(s.orders)
}

// Execute runs one convergence cycle. Failures on one instrument never
// stop the rest of the work-set; outcomes surface only through broker side
// effects and logs.
func (s *Scheduler) Execute(targets []schema.PortfolioTarget) {
	started := time.Now()
	now := s.clock.Now()

	s.sweepTerminal()
	work := s.promotePending(now)
	s.mergeTargets(work, targets, now)

	for symbol, desired := range work {
		s.converge(now, symbol, desired)
	}
	for symbol, ticket := range s.orders {
		if _, inWork := work[symbol]; inWork {
			continue
		}
		if ticket.Status().Terminal() {
			continue
		}
		s.maintain(now, symbol, ticket)
	}

	s.metrics.IncCycle()
	s.metrics.ObserveCycle(time.Since(started))
}

// sweepTerminal drops tickets that went terminal between cycles, so every
// decision this cycle sees the latest known order status.
func (s *Scheduler) sweepTerminal() {
	for symbol, ticket := range s.orders {
		if ticket.Status().Terminal() {
			delete(s.orders, symbol)
		}
	}
}

// promotePending moves targets whose instrument became tradable into this
// cycle's work-set.
func (s *Scheduler) promotePending(now time.Time) map[schema.SymbolID]decimal.Decimal {
	work := make(map[schema.SymbolID]decimal.Decimal, len(s.pending))
	for symbol, desired := range s.pending {
		if !s.actionable(symbol, now) {
			continue
		}
		work[symbol] = desired
		delete(s.pending, symbol)
	}
	return work
}

// mergeTargets folds this cycle's incoming targets into the work-set,
// buffering targets whose market is closed.
func (s *Scheduler) mergeTargets(work map[schema.SymbolID]decimal.Decimal, targets []schema.PortfolioTarget, now time.Time) {
	for _, target := range targets {
		if _, ok := s.meta.Instrument(target.Symbol); !ok {
			logs.Warnf("skip target for unknown instrument %d", target.Symbol)
			continue
		}
		if s.actionable(target.Symbol, now) {
			delete(s.pending, target.Symbol)
			work[target.Symbol] = target.Quantity
			continue
		}
		s.pending[target.Symbol] = target.Quantity
	}
}

// actionable reports whether an instrument can be traded this cycle.
func (s *Scheduler) actionable(symbol schema.SymbolID, now time.Time) bool {
	inst, ok := s.meta.Instrument(symbol)
	if !ok || !inst.Tradable {
		return false
	}
	return s.hours.IsOpen(symbol, now, s.extended)
}
