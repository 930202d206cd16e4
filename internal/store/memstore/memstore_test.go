package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstrading/scand/internal/models"
)

func testSignal(now time.Time) models.Signal {
	c := models.Candidate{
		Instrument: "RELIANCE", Side: models.Buy,
		Entry: decimal.NewFromFloat(100), Stop: decimal.NewFromFloat(98), Target: decimal.NewFromFloat(104),
		Confidence: 0.9, StrategyName: "ema_crossover", Category: models.DayTrading, ProducedAt: now,
	}
	return models.NewSignal(c, 100, "sized", now, time.Hour)
}

func TestCreateAndGet(t *testing.T) {
	s := New()
	now := time.Now()
	sig := testSignal(now)

	id, err := s.Create(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, sig.ID, id)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestFindActive_FiltersByKeyAndWindow(t *testing.T) {
	s := New()
	now := time.Now()
	sig := testSignal(now)
	_, err := s.Create(context.Background(), sig)
	require.NoError(t, err)

	found, err := s.FindActive(context.Background(), "RELIANCE", models.Buy, "ema_crossover", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	noneBefore, err := s.FindActive(context.Background(), "RELIANCE", models.Buy, "ema_crossover", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, noneBefore)

	wrongStrategy, err := s.FindActive(context.Background(), "RELIANCE", models.Buy, "breakout", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, wrongStrategy)
}

func TestSetStatus_CompareAndSet(t *testing.T) {
	s := New()
	now := time.Now()
	sig := testSignal(now)
	id, _ := s.Create(context.Background(), sig)

	ok, err := s.SetStatus(context.Background(), id, models.StatusPending, models.StatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale CAS against the now-wrong "from" fails without error.
	ok, err = s.SetStatus(context.Background(), id, models.StatusPending, models.StatusApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _ := s.Get(context.Background(), id)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestSetStatus_RejectsIllegalTransition(t *testing.T) {
	s := New()
	now := time.Now()
	sig := testSignal(now)
	id, _ := s.Create(context.Background(), sig)

	_, err := s.SetStatus(context.Background(), id, models.StatusPending, models.StatusExecuted)
	require.Error(t, err)
}

func TestExpireOverdue_SweepsPastDeadline(t *testing.T) {
	s := New()
	now := time.Now()
	sig := testSignal(now.Add(-2 * time.Hour)) // expires_at = -1h, already overdue
	id, _ := s.Create(context.Background(), sig)

	count, err := s.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, _ := s.Get(context.Background(), id)
	assert.Equal(t, models.StatusExpired, got.Status)
}
