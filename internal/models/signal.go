package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Signal is the persisted form of an accepted Candidate. Mutated only
// through the SignalStore; never destroyed (soft lifecycle via terminal
// status).
type Signal struct {
	ID           string
	Instrument   string
	Side         Side
	Entry        decimal.Decimal
	Stop         decimal.Decimal
	Target       decimal.Decimal
	Confidence   float64
	StrategyName string
	Category     StrategyCategory
	Status       SignalStatus
	Quantity     int
	CreatedAt    time.Time
	ExpiresAt    time.Time
	RiskNotes    string
}

// NewSignal builds a Signal from an accepted Candidate, in the PENDING
// state, with the given quantity/risk notes from the risk collaborator and
// expiry computed from signalTimeout.
func NewSignal(c Candidate, quantity int, riskNotes string, now time.Time, signalTimeout time.Duration) Signal {
	return Signal{
		ID:           uuid.NewString(),
		Instrument:   c.Instrument,
		Side:         c.Side,
		Entry:        c.Entry,
		Stop:         c.Stop,
		Target:       c.Target,
		Confidence:   c.Confidence,
		StrategyName: c.StrategyName,
		Category:     c.Category,
		Status:       StatusPending,
		Quantity:     quantity,
		CreatedAt:    now,
		ExpiresAt:    now.Add(signalTimeout),
		RiskNotes:    riskNotes,
	}
}

// IsActive reports whether the signal still counts for dedup purposes:
// PENDING or APPROVED.
func (s Signal) IsActive() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

// IsOverdue reports whether a PENDING signal should be swept to EXPIRED.
func (s Signal) IsOverdue(now time.Time) bool {
	return s.Status == StatusPending && !now.Before(s.ExpiresAt)
}
