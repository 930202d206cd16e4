// Package risk defines the risk-policy collaborator and a conservative
// default implementation: max position count plus a per-trade risk
// fraction of account value, behind an explicit, injectable interface
// rather than a single hard-coded risk object.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/kstrading/scand/internal/models"
)

// Decision is the outcome of a RiskPolicy.Evaluate call.
type Decision struct {
	Accept   bool
	Quantity int
	Notes    string
	Reason   string // populated when Accept is false
}

// PortfolioSnapshot is the read-only view of account state a RiskPolicy
// evaluates a Candidate against. The scheduler never mutates it; the risk
// collaborator's owner is responsible for producing an up-to-date snapshot
// per epoch.
type PortfolioSnapshot struct {
	AccountValue   decimal.Decimal
	OpenPositions  int
	MaxPositions   int
	UsedRiskBudget decimal.Decimal // already committed, same unit as AccountValue
}

// Policy decides whether a candidate becomes a signal and at what size.
type Policy interface {
	Evaluate(candidate models.Candidate, portfolio PortfolioSnapshot) Decision
}

// ConservativePolicy sizes positions as a fixed fraction of account value
// divided by the candidate's per-share risk (entry-stop distance), capping
// the position count and refusing any candidate that would trip the
// account's configured risk budget.
type ConservativePolicy struct {
	// RiskPerTrade is the fraction of AccountValue risked on one trade.
	RiskPerTrade decimal.Decimal
	// MaxPositions caps concurrently open positions regardless of budget.
	MaxPositions int
	// MinConfidence rejects any candidate below this confidence outright.
	MinConfidence float64
}

var _ Policy = ConservativePolicy{}

// DefaultConservativePolicy risks 1% of account value per trade, caps at 20
// open positions, and requires at least 0.5 confidence.
func DefaultConservativePolicy() ConservativePolicy {
	return ConservativePolicy{
		RiskPerTrade:  decimal.NewFromFloat(0.01),
		MaxPositions:  20,
		MinConfidence: 0.5,
	}
}

// Evaluate implements Policy.
func (p ConservativePolicy) Evaluate(c models.Candidate, portfolio PortfolioSnapshot) Decision {
	if c.Confidence < p.MinConfidence {
		return Decision{Reason: "confidence below minimum"}
	}

	maxPositions := p.MaxPositions
	if portfolio.MaxPositions > 0 && portfolio.MaxPositions < maxPositions {
		maxPositions = portfolio.MaxPositions
	}
	if portfolio.OpenPositions >= maxPositions {
		return Decision{Reason: "max open positions reached"}
	}

	perShareRisk := riskPerShare(c)
	if perShareRisk.IsZero() || perShareRisk.IsNegative() {
		return Decision{Reason: "non-positive per-share risk"}
	}

	budget := portfolio.AccountValue.Mul(p.RiskPerTrade)
	remaining := budget.Sub(portfolio.UsedRiskBudget)
	if remaining.IsNegative() || remaining.IsZero() {
		return Decision{Reason: "risk budget exhausted"}
	}

	qty := remaining.Div(perShareRisk).IntPart()
	if qty <= 0 {
		return Decision{Reason: "computed quantity is zero"}
	}

	return Decision{
		Accept:   true,
		Quantity: int(qty),
		Notes:    "sized at " + p.RiskPerTrade.String() + " of account value per trade",
	}
}

// riskPerShare returns the absolute entry-to-stop distance.
func riskPerShare(c models.Candidate) decimal.Decimal {
	switch c.Side {
	case models.Buy:
		return c.Entry.Sub(c.Stop)
	case models.Sell:
		return c.Stop.Sub(c.Entry)
	default:
		return decimal.Zero
	}
}
