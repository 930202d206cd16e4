package models

import "time"

// SymbolKey identifies one cache entry: an instrument at one bar interval.
type SymbolKey struct {
	Instrument string
	Interval   Interval
}

// SymbolData is a cache entry: a fetched bar series plus its
// derived indicators, with a freshness window. Exclusively owned by the
// cache; everything downstream holds an immutable snapshot (copy of the
// pointer, never mutated in place).
type SymbolData struct {
	Instrument string
	Interval   Interval
	Series     BarSeries
	Indicators *IndicatorFrame
	FetchedAt  time.Time
	ValidUntil time.Time
}

// Fresh reports whether the entry is still valid at the given time.
func (d *SymbolData) Fresh(now time.Time) bool {
	return d != nil && now.Before(d.ValidUntil)
}

// Key returns the cache key for this entry.
func (d *SymbolData) Key() SymbolKey {
	return SymbolKey{Instrument: d.Instrument, Interval: d.Interval}
}
