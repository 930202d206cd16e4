package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade proposal.
type Side string

const (
	// Buy proposes a long entry.
	Buy Side = "BUY"
	// Sell proposes a short entry.
	Sell Side = "SELL"
)

// Candidate is a strategy-emitted trade proposal, before persistence.
// Strategies are pure functions; Candidate is their only output.
type Candidate struct {
	Instrument   string
	Side         Side
	Entry        decimal.Decimal
	Stop         decimal.Decimal
	Target       decimal.Decimal
	Confidence   float64
	StrategyName string
	Category     StrategyCategory
	ProducedAt   time.Time
}

// Validate checks the side ordering invariant: a BUY's stop below its
// entry below its target; a SELL's target below its entry below its stop.
func (c Candidate) Validate() error {
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("candidate %s/%s: confidence %f out of [0,1]", c.Instrument, c.StrategyName, c.Confidence)
	}
	switch c.Side {
	case Buy:
		if !(c.Stop.LessThan(c.Entry) && c.Entry.LessThan(c.Target)) {
			return fmt.Errorf("candidate %s/%s: BUY requires stop < entry < target, got stop=%s entry=%s target=%s",
				c.Instrument, c.StrategyName, c.Stop, c.Entry, c.Target)
		}
	case Sell:
		if !(c.Target.LessThan(c.Entry) && c.Entry.LessThan(c.Stop)) {
			return fmt.Errorf("candidate %s/%s: SELL requires target < entry < stop, got target=%s entry=%s stop=%s",
				c.Instrument, c.StrategyName, c.Target, c.Entry, c.Stop)
		}
	default:
		return fmt.Errorf("candidate %s/%s: invalid side %q", c.Instrument, c.StrategyName, c.Side)
	}
	return nil
}
