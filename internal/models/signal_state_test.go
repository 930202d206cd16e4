package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalStatus_ValidTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from SignalStatus
		to   SignalStatus
	}{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusPending, StatusExpired},
		{StatusApproved, StatusExecuted},
		{StatusApproved, StatusFailed},
	}

	for _, c := range cases {
		got, err := c.from.Transition(c.to)
		require.NoError(t, err)
		assert.Equal(t, c.to, got)
	}
}

func TestSignalStatus_InvalidTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from SignalStatus
		to   SignalStatus
	}{
		{"pending to executed skips approval", StatusPending, StatusExecuted},
		{"approved to rejected", StatusApproved, StatusRejected},
		{"rejected is terminal", StatusRejected, StatusApproved},
		{"expired is terminal", StatusExpired, StatusPending},
		{"executed is terminal", StatusExecuted, StatusFailed},
		{"failed is terminal", StatusFailed, StatusExecuted},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.from.Transition(c.to)
			assert.Error(t, err)
		})
	}
}

func TestSignalStatus_IsTerminal(t *testing.T) {
	t.Parallel()
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusExecuted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
