// Package models defines the shared data types that flow between the
// scheduler's components: bars, indicator frames, candidates, signals, and
// scan epochs. Types here do no I/O and, apart from EpochStats (whose
// counters are guarded by a mutex), hold no locks, so other packages can
// pass them around as plain values.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Interval is a bar interval such as "1D" or "15m".
type Interval string

const (
	// IntervalDaily is the end-of-day bar interval.
	IntervalDaily Interval = "1D"
	// Interval15Min is a 15-minute intraday bar interval.
	Interval15Min Interval = "15m"
	// Interval5Min is a 5-minute intraday bar interval.
	Interval5Min Interval = "5m"
)

// IsIntraday reports whether the interval is shorter than one trading day.
func (i Interval) IsIntraday() bool {
	return i != IntervalDaily
}

// Bar is a single OHLCV observation for one instrument at one point in time.
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// Validate checks non-negative prices and volume and a sane high/low
// ordering.
func (b Bar) Validate() error {
	if b.Open.IsNegative() || b.High.IsNegative() || b.Low.IsNegative() || b.Close.IsNegative() {
		return fmt.Errorf("bar %s: negative price", b.Timestamp)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume", b.Timestamp)
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar %s: high %s < low %s", b.Timestamp, b.High, b.Low)
	}
	return nil
}

// BarSeries is an ordered, finite sequence of Bars of one interval for one
// instrument, covering a half-open window [From, To).
type BarSeries struct {
	Instrument string
	Interval   Interval
	From       time.Time
	To         time.Time
	Bars       []Bar
}

// LastClose returns the close of the last bar. Callers must check Len() > 0.
func (s BarSeries) LastClose() decimal.Decimal {
	return s.Bars[len(s.Bars)-1].Close
}

// Len returns the number of bars in the series.
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// Validate checks the series ordering invariants: strictly increasing
// timestamps, no duplicates, and the last bar not in the future relative
// to now.
func (s BarSeries) Validate(now time.Time) error {
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !s.Bars[i].Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("%s %s: bar %d timestamp %s not after previous %s",
				s.Instrument, s.Interval, i, s.Bars[i].Timestamp, s.Bars[i-1].Timestamp)
		}
	}
	if s.Len() > 0 && s.Bars[s.Len()-1].Timestamp.After(now) {
		return fmt.Errorf("%s %s: last bar %s is after now %s", s.Instrument, s.Interval, s.Bars[s.Len()-1].Timestamp, now)
	}
	return nil
}
