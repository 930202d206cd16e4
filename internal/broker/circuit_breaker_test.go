package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	err    error
	series models.BarSeries
	calls  int
}

func (s *stubClient) FetchHistorical(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error) {
	s.calls++
	return s.series, s.err
}

func TestCircuitBreakerClient_PassesThroughSuccess(t *testing.T) {
	t.Parallel()
	stub := &stubClient{series: models.BarSeries{Instrument: "NSE:X"}}
	cb := NewCircuitBreakerClient(stub)

	got, err := cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "NSE:X", got.Instrument)
	assert.Equal(t, 1, stub.calls)
}

func TestCircuitBreakerClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	t.Parallel()
	stub := &stubClient{err: scanerr.New(scanerr.KindNotFound, "unknown instrument")}
	cb := NewCircuitBreakerClientWithSettings(stub, CircuitBreakerSettings{
		MaxRequests: 1, Interval: time.Second, Timeout: time.Second, MinRequests: 1, FailureRatio: 0.5,
	})

	for i := 0; i < 5; i++ {
		_, err := cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
		assert.True(t, scanerr.Is(err, scanerr.KindNotFound))
	}
	assert.Equal(t, gobreakerStateClosed(t), cb.State())
}

func TestCircuitBreakerClient_UnauthorizedTripsBreaker(t *testing.T) {
	t.Parallel()
	stub := &stubClient{err: scanerr.New(scanerr.KindUnauthorized, "bad token")}
	cb := NewCircuitBreakerClientWithSettings(stub, CircuitBreakerSettings{
		MaxRequests: 1, Interval: time.Second, Timeout: time.Minute, MinRequests: 1, FailureRatio: 0.5,
	})

	for i := 0; i < 3; i++ {
		_, _ = cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	}

	_, err := cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	assert.True(t, scanerr.Is(err, scanerr.KindUnauthorized))
}

func TestCircuitBreakerClient_TransientTripReportsTransientWhenOpen(t *testing.T) {
	t.Parallel()
	stub := &stubClient{err: scanerr.New(scanerr.KindTransient, "upstream 503")}
	cb := NewCircuitBreakerClientWithSettings(stub, CircuitBreakerSettings{
		MaxRequests: 1, Interval: time.Second, Timeout: time.Minute, MinRequests: 1, FailureRatio: 0.5,
	})

	for i := 0; i < 3; i++ {
		_, _ = cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	}

	// The breaker is open now; the rejection must carry the kind that
	// tripped it, not Unauthorized.
	_, err := cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	require.Error(t, err)
	assert.True(t, scanerr.Is(err, scanerr.KindTransient))
	assert.False(t, scanerr.Is(err, scanerr.KindUnauthorized))
}

func TestCircuitBreakerClient_TransientErrorPropagates(t *testing.T) {
	t.Parallel()
	cause := errors.New("dial tcp: connection refused")
	stub := &stubClient{err: scanerr.Wrap(scanerr.KindTransient, "fetch failed", cause)}
	cb := NewCircuitBreakerClient(stub)

	_, err := cb.FetchHistorical(context.Background(), "NSE:X", models.IntervalDaily, time.Time{}, time.Time{})
	assert.True(t, scanerr.Is(err, scanerr.KindTransient))
}

// gobreakerStateClosed is a tiny helper so the test doesn't need to import
// gobreaker just to name its closed-state constant twice.
func gobreakerStateClosed(t *testing.T) interface{ String() string } {
	t.Helper()
	stub := &stubClient{}
	return NewCircuitBreakerClient(stub).State()
}
