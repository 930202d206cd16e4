package models

import "fmt"

// SignalStatus is a Signal's lifecycle state.
type SignalStatus string

const (
	// StatusPending is the initial state after persistence.
	StatusPending SignalStatus = "PENDING"
	// StatusApproved means a human (or auto-trade) approved the signal.
	StatusApproved SignalStatus = "APPROVED"
	// StatusRejected means a human rejected the signal. Terminal.
	StatusRejected SignalStatus = "REJECTED"
	// StatusExpired means the signal timed out without a decision. Terminal.
	StatusExpired SignalStatus = "EXPIRED"
	// StatusExecuted means the approved signal's order filled. Terminal.
	StatusExecuted SignalStatus = "EXECUTED"
	// StatusFailed means the approved signal's order failed. Terminal.
	StatusFailed SignalStatus = "FAILED"
)

// signalTransition is one edge of the lifecycle graph: an explicit,
// reviewable list of valid (from, to) pairs rather than a scattered set of
// ad hoc checks.
type signalTransition struct {
	From SignalStatus
	To   SignalStatus
}

// validSignalTransitions is the complete transition graph:
// PENDING → (APPROVED|REJECTED|EXPIRED) → (EXECUTED|FAILED); REJECTED and
// EXPIRED are terminal.
var validSignalTransitions = []signalTransition{
	{StatusPending, StatusApproved},
	{StatusPending, StatusRejected},
	{StatusPending, StatusExpired},
	{StatusApproved, StatusExecuted},
	{StatusApproved, StatusFailed},
}

var signalTransitionLookup map[SignalStatus]map[SignalStatus]bool

func init() {
	signalTransitionLookup = make(map[SignalStatus]map[SignalStatus]bool)
	for _, t := range validSignalTransitions {
		if signalTransitionLookup[t.From] == nil {
			signalTransitionLookup[t.From] = make(map[SignalStatus]bool)
		}
		signalTransitionLookup[t.From][t.To] = true
	}
}

// IsTerminal reports whether status accepts no further transitions.
func (s SignalStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusExecuted, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to to is a defined edge in the
// signal state machine.
func (s SignalStatus) CanTransition(to SignalStatus) bool {
	return signalTransitionLookup[s][to]
}

// Transition validates and returns the resulting status, or an error
// describing the illegal edge. No caller may move a signal along an
// undefined edge.
func (s SignalStatus) Transition(to SignalStatus) (SignalStatus, error) {
	if s.IsTerminal() {
		return s, fmt.Errorf("signal: %s is terminal, cannot transition to %s", s, to)
	}
	if !s.CanTransition(to) {
		return s, fmt.Errorf("signal: invalid transition from %s to %s", s, to)
	}
	return to, nil
}
