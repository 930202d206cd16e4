// Package strategy implements the pure candidate-generating functions
// that run over shared bar/indicator data. Strategies are total and
// side-effect-free: no broker, no storage, no logger. A Strategy only
// ever reads a BarSeries and an IndicatorFrame and returns Candidates.
package strategy

import "github.com/kstrading/scand/internal/models"

// Strategy is one named, pure candidate generator. Implementations MUST be
// total: Evaluate never panics, and returns an empty slice rather than an
// error when MinHistory is unmet or the Params fail to validate.
type Strategy interface {
	// Name uniquely identifies the strategy within its Category.
	Name() string
	// Category is the strategy family this strategy runs under.
	Category() models.StrategyCategory
	// MinHistory is the minimum number of bars Evaluate needs to produce a
	// meaningful result. Callers should skip invoking Evaluate below this,
	// though Evaluate itself must also degrade gracefully.
	MinHistory() int
	// Evaluate inspects series/indicators and returns zero or more
	// candidates. Must not mutate series or indicators.
	Evaluate(series models.BarSeries, indicators *models.IndicatorFrame) []models.Candidate
}

// StrategyFunc adapts a plain function to the Strategy interface for
// strategies with no extra per-instance state.
type StrategyFunc struct {
	name       string
	category   models.StrategyCategory
	minHistory int
	fn         func(models.BarSeries, *models.IndicatorFrame) []models.Candidate
}

// NewStrategyFunc builds a Strategy from a plain evaluation function.
func NewStrategyFunc(name string, category models.StrategyCategory, minHistory int, fn func(models.BarSeries, *models.IndicatorFrame) []models.Candidate) StrategyFunc {
	return StrategyFunc{name: name, category: category, minHistory: minHistory, fn: fn}
}

// Name returns the strategy's registered name.
func (s StrategyFunc) Name() string { return s.name }

// Category returns the strategy's family.
func (s StrategyFunc) Category() models.StrategyCategory { return s.category }

// MinHistory returns the minimum bar count this strategy needs.
func (s StrategyFunc) MinHistory() int { return s.minHistory }

// Evaluate runs the wrapped function, short-circuiting to an empty
// result when the series has fewer bars than MinHistory.
func (s StrategyFunc) Evaluate(series models.BarSeries, indicators *models.IndicatorFrame) []models.Candidate {
	if series.Len() < s.minHistory {
		return nil
	}
	defer func() {
		// Strategies must be total; a defensive recover keeps one bad
		// strategy from taking down the whole scan epoch.
		_ = recover()
	}()
	return s.fn(series, indicators)
}
