package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"main/internal/schema"
)

var ErrUnsupportedResolution = errors.New("session: unsupported scheduling resolution")

// Resolution is the granularity at which the scheduler is driven.
type Resolution uint8

const (
	ResolutionUnknown Resolution = iota
	ResolutionSecond
	ResolutionMinute
	ResolutionHour
	ResolutionDaily
)

// ParseResolution maps a config string to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "second":
		return ResolutionSecond, nil
	case "minute":
		return ResolutionMinute, nil
	case "hour":
		return ResolutionHour, nil
	case "daily":
		return ResolutionDaily, nil
	default:
		return ResolutionUnknown, fmt.Errorf("%w: %q", ErrUnsupportedResolution, s)
	}
}

// Period returns the scheduling period of the resolution.
func (r Resolution) Period() time.Duration {
	switch r {
	case ResolutionSecond:
		return time.Second
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (r Resolution) String() string {
	switch r {
	case ResolutionSecond:
		return "second"
	case ResolutionMinute:
		return "minute"
	case ResolutionHour:
		return "hour"
	case ResolutionDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Hours answers session open/closed queries per instrument. It is an
// external collaborator; the engine only ever asks "open at this time".
type Hours interface {
	IsOpen(symbol schema.SymbolID, at time.Time, extendedHours bool) bool
}

// Clock derives "now" and "next scheduled tick" for the engine. The period
// is fixed for the life of the clock.
type Clock struct {
	period time.Duration
	now    func() time.Time
}

// NewClock creates a clock for a resolution. An unsupported resolution is a
// configuration error and fails here, never at runtime.
func NewClock(r Resolution, now func() time.Time) (*Clock, error) {
	period := r.Period()
	if period <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedResolution, r)
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{period: period, now: now}, nil
}

// Now returns the current cycle time.
func (c *Clock) Now() time.Time {
	return c.now()
}

// NextTick returns the time of the next scheduled cycle after t.
func (c *Clock) NextTick(t time.Time) time.Time {
	return t.Add(c.period)
}

// Period returns the fixed scheduling period.
func (c *Clock) Period() time.Duration {
	return c.period
}
