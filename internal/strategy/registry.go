package strategy

import (
	"sort"

	"github.com/kstrading/scand/internal/models"
)

// Registry holds strategies keyed by category, preserving registration
// order within each category. Registration order is load-bearing: it is
// the tie-break for same-confidence candidates in Dedup.
type Registry struct {
	byCategory map[models.StrategyCategory][]Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byCategory: make(map[models.StrategyCategory][]Strategy)}
}

// Register adds s under its own Category, in call order.
func (r *Registry) Register(s Strategy) {
	r.byCategory[s.Category()] = append(r.byCategory[s.Category()], s)
}

// For returns the strategies registered for category, in registration order.
func (r *Registry) For(category models.StrategyCategory) []Strategy {
	return r.byCategory[category]
}

// Categories lists the categories with at least one registered strategy.
func (r *Registry) Categories() []models.StrategyCategory {
	out := make([]models.StrategyCategory, 0, len(r.byCategory))
	for c := range r.byCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RunCategory runs every strategy registered for category, in
// registration order, concatenating their candidates.
func (r *Registry) RunCategory(category models.StrategyCategory, series models.BarSeries, indicators *models.IndicatorFrame) []models.Candidate {
	var out []models.Candidate
	for _, s := range r.For(category) {
		out = append(out, s.Evaluate(series, indicators)...)
	}
	return out
}

// Dedup keeps, within each (instrument, category, side) group, only the
// highest-confidence candidate, breaking ties by earliest registration
// order. Registration
// order is captured by the order strategies produced their candidates in,
// which RunCategory preserves.
func Dedup(candidates []models.Candidate) []models.Candidate {
	type key struct {
		instrument string
		category   models.StrategyCategory
		side       models.Side
	}
	best := make(map[key]int) // index into candidates of the current winner
	order := make([]key, 0, len(candidates))

	for i, c := range candidates {
		k := key{c.Instrument, c.Category, c.Side}
		winnerIdx, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}
		if c.Confidence > candidates[winnerIdx].Confidence {
			best[k] = i
		}
	}

	out := make([]models.Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, candidates[best[k]])
	}
	return out
}
