package broker

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
)

// CircuitBreakerSettings configures the CircuitBreakerClient's underlying
// gobreaker.CircuitBreaker.
type CircuitBreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultCircuitBreakerSettings pauses fetches for 5 minutes once the
// breaker trips.
var DefaultCircuitBreakerSettings = CircuitBreakerSettings{
	MaxRequests:  1,
	Interval:     time.Minute,
	Timeout:      5 * time.Minute,
	MinRequests:  1,
	FailureRatio: 0.5,
}

// CircuitBreakerClient wraps a Client with a gobreaker circuit breaker
// that trips open on Unauthorized and Transient errors, so the
// bad-credentials cooldown is a breaker-open state instead of a
// hand-rolled timer. The kind of the failure that last counted toward the
// trip is remembered, and open-state rejections are reported under that
// kind: a transient outage must not masquerade as bad credentials.
type CircuitBreakerClient struct {
	broker  Client
	breaker *gobreaker.CircuitBreaker

	mu           sync.Mutex
	lastTripKind scanerr.Kind
}

var _ Client = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps broker with DefaultCircuitBreakerSettings.
func NewCircuitBreakerClient(broker Client) *CircuitBreakerClient {
	return NewCircuitBreakerClientWithSettings(broker, DefaultCircuitBreakerSettings)
}

// NewCircuitBreakerClientWithSettings wraps broker with explicit settings.
func NewCircuitBreakerClientWithSettings(broker Client, settings CircuitBreakerSettings) *CircuitBreakerClient {
	st := gobreaker.Settings{
		Name:        "broker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
	}
	return &CircuitBreakerClient{
		broker:  broker,
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// FetchHistorical implements Client, routing the call through the breaker.
// Only Unauthorized and Transient errors count as failures toward tripping
// the breaker; the taxonomy's other kinds (NotFound, Validation) are
// data-shape problems, not broker-health problems, and must not pause
// fetches for every instrument because one symbol was delisted.
func (c *CircuitBreakerClient) FetchHistorical(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		series, err := c.broker.FetchHistorical(ctx, instrument, interval, from, to)
		if err != nil && tripsBreaker(err) {
			c.mu.Lock()
			c.lastTripKind = scanerr.KindOf(err)
			c.mu.Unlock()
			return models.BarSeries{}, err
		}
		if err != nil {
			// Swallow into a breaker-success, non-breaking error still
			// returned to the caller via the closure's captured variable.
			return bypassResult{series: series, err: err}, nil
		}
		return series, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return models.BarSeries{}, scanerr.Wrap(c.tripKind(), "circuit breaker open", err)
		}
		return models.BarSeries{}, err
	}
	if bypassed, ok := result.(bypassResult); ok {
		return bypassed.series, bypassed.err
	}
	return result.(models.BarSeries), nil
}

type bypassResult struct {
	series models.BarSeries
	err    error
}

// tripKind returns the kind of the failure that last counted toward the
// breaker, defaulting to Transient when the breaker opened before any
// classified failure was recorded.
func (c *CircuitBreakerClient) tripKind() scanerr.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastTripKind == "" {
		return scanerr.KindTransient
	}
	return c.lastTripKind
}

func tripsBreaker(err error) bool {
	kind := scanerr.KindOf(err)
	return kind == scanerr.KindUnauthorized || kind == scanerr.KindTransient
}

// State reports the breaker's current gobreaker.State, for observability.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
