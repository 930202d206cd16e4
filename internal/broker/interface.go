// Package broker defines the broker client interface — the scheduler's
// only external market-data dependency — plus a generic HTTP
// implementation and a circuit-breaker wrapper that pauses fetching when
// the broker is degraded or credentials go bad.
package broker

import (
	"context"
	"time"

	"github.com/kstrading/scand/internal/models"
)

// Client is the broker collaborator the Fetcher depends on. Errors
// returned must already be classified into the *scanerr.Error taxonomy.
type Client interface {
	FetchHistorical(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error)
}
