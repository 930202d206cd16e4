// Package store defines the signal persistence collaborator: a narrow,
// explicit interface the scheduler depends on, with every implementation
// detail (schema, durability, concurrency control) left to the concrete
// adapter.
package store

import (
	"context"
	"time"

	"github.com/kstrading/scand/internal/models"
)

// SignalStore is the persistence collaborator. All calls accept a
// cancellation token.
type SignalStore interface {
	// Create persists signal in PENDING and returns its ID.
	Create(ctx context.Context, signal models.Signal) (string, error)
	// FindActive returns PENDING/APPROVED signals for (instrument, side,
	// strategy) created at or after since, for the pipeline's dedup check.
	FindActive(ctx context.Context, instrument string, side models.Side, strategy string, since time.Time) ([]models.Signal, error)
	// ExpireOverdue transitions every PENDING signal whose ExpiresAt has
	// elapsed to EXPIRED, returning the count swept.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
	// SetStatus performs a compare-and-set transition: it succeeds only if
	// the signal's current status equals from.
	SetStatus(ctx context.Context, id string, from, to models.SignalStatus) (bool, error)
	// Get returns the signal with id, or an error if absent.
	Get(ctx context.Context, id string) (models.Signal, error)
}
