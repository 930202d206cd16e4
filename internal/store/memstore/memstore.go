// Package memstore is an in-memory SignalStore implementation: one mutex
// guarding the whole map, copy-out on read, no durability. It backs tests
// and cmd/scand, which uses it in both daemon and -once modes.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
	"github.com/kstrading/scand/internal/store"
)

// Store is a goroutine-safe, process-local SignalStore.
type Store struct {
	mu      sync.Mutex
	signals map[string]models.Signal
}

var _ store.SignalStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{signals: make(map[string]models.Signal)}
}

// Create implements store.SignalStore.
func (s *Store) Create(ctx context.Context, signal models.Signal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", scanerr.Wrap(scanerr.KindTimeout, "memstore: create cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[signal.ID] = signal
	return signal.ID, nil
}

// FindActive implements store.SignalStore.
func (s *Store) FindActive(ctx context.Context, instrument string, side models.Side, strategy string, since time.Time) ([]models.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, scanerr.Wrap(scanerr.KindTimeout, "memstore: find cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Signal
	for _, sig := range s.signals {
		if sig.Instrument != instrument || sig.Side != side || sig.StrategyName != strategy {
			continue
		}
		if !sig.IsActive() {
			continue
		}
		if sig.CreatedAt.Before(since) {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

// ExpireOverdue implements store.SignalStore.
func (s *Store) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, scanerr.Wrap(scanerr.KindTimeout, "memstore: expire cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, sig := range s.signals {
		if sig.IsOverdue(now) {
			sig.Status = models.StatusExpired
			s.signals[id] = sig
			count++
		}
	}
	return count, nil
}

// SetStatus implements store.SignalStore's compare-and-set contract.
func (s *Store) SetStatus(ctx context.Context, id string, from, to models.SignalStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, scanerr.Wrap(scanerr.KindTimeout, "memstore: set status cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return false, scanerr.New(scanerr.KindNotFound, "memstore: unknown signal "+id)
	}
	if sig.Status != from {
		return false, nil
	}
	next, err := sig.Status.Transition(to)
	if err != nil {
		return false, scanerr.Wrap(scanerr.KindValidation, "memstore: invalid transition", err)
	}
	sig.Status = next
	s.signals[id] = sig
	return true, nil
}

// Get implements store.SignalStore.
func (s *Store) Get(ctx context.Context, id string) (models.Signal, error) {
	if err := ctx.Err(); err != nil {
		return models.Signal{}, scanerr.Wrap(scanerr.KindTimeout, "memstore: get cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signals[id]
	if !ok {
		return models.Signal{}, scanerr.New(scanerr.KindNotFound, "memstore: unknown signal "+id)
	}
	return sig, nil
}

// Len returns the number of signals currently held, for tests/observability.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}
