package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSession(t *testing.T) Session {
	t.Helper()
	s, err := NewSession("Asia/Kolkata", "09:15", "15:30")
	require.NoError(t, err)
	return s
}

func TestSession_InSession(t *testing.T) {
	t.Parallel()
	s := mustSession(t)

	tests := []struct {
		name     string
		timeStr  string
		expected bool
	}{
		{"during session", "2024-01-08T10:00:00+05:30", true}, // Monday
		{"before open", "2024-01-08T09:00:00+05:30", false},
		{"at close boundary", "2024-01-08T15:30:00+05:30", false},
		{"just before close", "2024-01-08T15:29:59+05:30", true},
		{"after close", "2024-01-08T16:00:00+05:30", false},
		{"saturday", "2024-01-06T10:00:00+05:30", false},
		{"sunday", "2024-01-07T10:00:00+05:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.Parse(time.RFC3339, tt.timeStr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.InSession(ts))
		})
	}
}

func TestSession_NextSessionOpen_SkipsWeekend(t *testing.T) {
	t.Parallel()
	s := mustSession(t)

	friday, err := time.Parse(time.RFC3339, "2024-01-05T16:00:00+05:30")
	require.NoError(t, err)

	open := s.NextSessionOpen(friday)
	assert.Equal(t, time.Monday, open.Weekday())
	assert.Equal(t, 9, open.Hour())
	assert.Equal(t, 15, open.Minute())
}

func TestSession_SessionBounds(t *testing.T) {
	t.Parallel()
	s := mustSession(t)

	day, err := time.Parse(time.RFC3339, "2024-01-08T00:00:00+05:30")
	require.NoError(t, err)

	open, close := s.SessionBounds(day)
	assert.Equal(t, "09:15", open.Format("15:04"))
	assert.Equal(t, "15:30", close.Format("15:04"))
	assert.True(t, open.Before(close))
}
