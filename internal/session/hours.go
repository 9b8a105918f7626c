package session

import (
	"fmt"
	"time"

	"main/internal/schema"
)

// WallHours is a simple session calendar: one regular session per weekday,
// the same for every instrument. It serves the simulator and tests; live
// deployments plug their own Hours implementation.
type WallHours struct {
	open     time.Duration
	close    time.Duration
	extOpen  time.Duration
	extClose time.Duration
	loc      *time.Location
	weekends bool
}

// WallHoursConfig describes one regular session window.
type WallHoursConfig struct {
	Open         string // "09:30"
	Close        string // "16:00"
	ExtendedOpen string // optional, before Open
	ExtendedEnd  string // optional, after Close
	Timezone     string // IANA name, default UTC
	Weekends     bool   // true keeps Saturday/Sunday open
}

// NewWallHours validates the window and builds the calendar.
func NewWallHours(cfg WallHoursConfig) (*WallHours, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("parse session open: %w", err)
	}
	close, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("parse session close: %w", err)
	}
	if close <= open {
		return nil, fmt.Errorf("session close %q must be after open %q", cfg.Close, cfg.Open)
	}
	h := &WallHours{
		open:     open,
		close:    close,
		extOpen:  open,
		extClose: close,
		loc:      loc,
		weekends: cfg.Weekends,
	}
	if cfg.ExtendedOpen != "" {
		ext, err := parseClock(cfg.ExtendedOpen)
		if err != nil {
			return nil, fmt.Errorf("parse extended open: %w", err)
		}
		if ext > open {
			return nil, fmt.Errorf("extended open %q must not be after open %q", cfg.ExtendedOpen, cfg.Open)
		}
		h.extOpen = ext
	}
	if cfg.ExtendedEnd != "" {
		ext, err := parseClock(cfg.ExtendedEnd)
		if err != nil {
			return nil, fmt.Errorf("parse extended close: %w", err)
		}
		if ext < close {
			return nil, fmt.Errorf("extended close %q must not be before close %q", cfg.ExtendedEnd, cfg.Close)
		}
		h.extClose = ext
	}
	return h, nil
}

// IsOpen reports whether the session is open at the given time.
func (h *WallHours) IsOpen(_ schema.SymbolID, at time.Time, extendedHours bool) bool {
	local := at.In(h.loc)
	if !h.weekends {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.loc)
	offset := local.Sub(midnight)
	open, close := h.open, h.close
	if extendedHours {
		open, close = h.extOpen, h.extClose
	}
	return offset >= open && offset < close
}

// NextOpen returns the start of the first session at or after t.
func (h *WallHours) NextOpen(t time.Time) time.Time {
	local := t.In(h.loc)
	for i := 0; i < 8; i++ {
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.loc).AddDate(0, 0, i)
		if !h.weekends {
			switch day.Weekday() {
			case time.Saturday, time.Sunday:
				continue
			}
		}
		open := day.Add(h.open)
		if !open.Before(local) {
			return open
		}
	}
	return local
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
