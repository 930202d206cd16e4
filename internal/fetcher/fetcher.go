// Package fetcher is a thin retrying wrapper around broker.Client: it
// enforces a per-call timeout, retries scanerr.Retryable failures with
// full-jitter exponential backoff, and honors a server-provided
// Retry-After hint when one comes back on the error. Which errors retry
// is decided by the scanerr taxonomy, not by matching error text.
package fetcher

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kstrading/scand/internal/broker"
	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
)

// Config controls the retry/backoff policy. The per-call timeout depends
// on the requested interval: intraday windows are small and should fail
// fast, while daily history requests cover hundreds of sessions and get a
// larger cap.
type Config struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	TimeoutIntraday time.Duration
	TimeoutHistory  time.Duration
}

// DefaultConfig: full-jitter exponential backoff, base 500ms, cap 8s, at
// most 3 attempts total; 30s per intraday call, 60s per history call.
var DefaultConfig = Config{
	MaxAttempts:     3,
	InitialBackoff:  500 * time.Millisecond,
	MaxBackoff:      8 * time.Second,
	TimeoutIntraday: 30 * time.Second,
	TimeoutHistory:  60 * time.Second,
}

// sanitize replaces non-positive fields with DefaultConfig's.
func (c Config) sanitize() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultConfig.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultConfig.MaxBackoff
	}
	if c.TimeoutIntraday <= 0 {
		c.TimeoutIntraday = DefaultConfig.TimeoutIntraday
	}
	if c.TimeoutHistory <= 0 {
		c.TimeoutHistory = DefaultConfig.TimeoutHistory
	}
	return c
}

// Fetcher wraps a broker.Client with per-call timeout enforcement and a
// bounded retry loop over scanerr.Retryable errors.
type Fetcher struct {
	broker broker.Client
	config Config
	logger *logrus.Entry
}

// New builds a Fetcher. A nil logger gets a standalone logrus.Logger.
func New(client broker.Client, cfg Config, logger *logrus.Entry) *Fetcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Fetcher{broker: client, config: cfg.sanitize(), logger: logger}
}

// Fetch retrieves bars for (instrument, interval, from, to), retrying
// scanerr.Retryable failures with full-jitter exponential backoff honoring
// any RetryHint the broker attached, and respecting ctx's deadline across
// the whole retry loop. Transient and RateLimited errors retry;
// Unauthorized and NotFound return immediately.
func (f *Fetcher) Fetch(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error) {
	var lastErr error
	backoff := f.config.InitialBackoff

	timeout := f.callTimeout(interval)
	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		series, err := f.broker.FetchHistorical(callCtx, instrument, interval, from, to)
		cancel()

		if err == nil {
			return series, nil
		}
		lastErr = err

		f.logger.WithFields(logrus.Fields{
			"instrument": instrument,
			"interval":   interval,
			"attempt":    attempt,
			"max":        f.config.MaxAttempts,
			"kind":       scanerr.KindOf(err),
		}).Warn("fetch attempt failed")

		if !scanerr.Retryable(err) || attempt == f.config.MaxAttempts {
			return models.BarSeries{}, err
		}

		wait := f.nextBackoff(backoff, err)
		backoff = f.nextBase(backoff)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return models.BarSeries{}, scanerr.Wrap(scanerr.KindTimeout, "fetch: deadline exceeded during backoff", ctx.Err())
		case <-timer.C:
		}
	}
	return models.BarSeries{}, lastErr
}

// callTimeout selects the per-call cap by interval: intraday requests get
// the short cap, daily/long-history requests the larger one.
func (f *Fetcher) callTimeout(interval models.Interval) time.Duration {
	if interval.IsIntraday() {
		return f.config.TimeoutIntraday
	}
	return f.config.TimeoutHistory
}

// nextBase doubles the backoff base, capped at MaxBackoff.
func (f *Fetcher) nextBase(base time.Duration) time.Duration {
	next := base * 2
	if next > f.config.MaxBackoff {
		next = f.config.MaxBackoff
	}
	return next
}

// nextBackoff applies full jitter to base: a uniform draw in [0, base). A
// server-provided Retry-After (via scanerr.RetryHint) always takes
// precedence over the computed backoff.
func (f *Fetcher) nextBackoff(base time.Duration, err error) time.Duration {
	if hinted, ok := retryHint(err); ok {
		d := time.Duration(hinted * float64(time.Second))
		if d > f.config.MaxBackoff {
			d = f.config.MaxBackoff
		}
		return d
	}
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(base))) // #nosec G404 -- jitter only, not security-sensitive
}

func retryHint(err error) (float64, bool) {
	se, ok := err.(*scanerr.Error)
	if !ok || se.Retry == nil {
		return 0, false
	}
	return se.Retry.AfterSeconds, true
}
