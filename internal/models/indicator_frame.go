package models

import "math"

// Undefined marks an indicator value at an index where insufficient history
// exists to compute it. Strategies must check for it before
// using a value.
var Undefined = math.NaN()

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// IndicatorFrame maps an indicator name to a value sequence aligned 1:1 with
// the BarSeries it was computed from. Immutable once constructed.
type IndicatorFrame struct {
	Series map[string][]float64
}

// NewIndicatorFrame creates an empty frame.
func NewIndicatorFrame() *IndicatorFrame {
	return &IndicatorFrame{Series: make(map[string][]float64)}
}

// Set stores a named indicator series. Not safe to call after the frame has
// been published to readers.
func (f *IndicatorFrame) Set(name string, values []float64) {
	f.Series[name] = values
}

// At returns the value of indicator name at index i, or Undefined if the
// indicator is missing or the index is out of range or itself undefined.
func (f *IndicatorFrame) At(name string, i int) float64 {
	vals, ok := f.Series[name]
	if !ok || i < 0 || i >= len(vals) {
		return Undefined
	}
	return vals[i]
}

// Last returns the most recent value of indicator name, or Undefined if the
// series is absent or empty.
func (f *IndicatorFrame) Last(name string) float64 {
	vals, ok := f.Series[name]
	if !ok || len(vals) == 0 {
		return Undefined
	}
	return vals[len(vals)-1]
}
