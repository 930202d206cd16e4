package models

import (
	"sync"
	"time"
)

// EpochStats tracks the running counters for one ScanEpoch, updated
// incrementally under a mutex while the epoch's symbol tasks run and read
// as a snapshot once the epoch finishes.
type EpochStats struct {
	mu sync.Mutex

	Fetched       int
	CacheHits     int
	Candidates    int
	Persisted     int
	Notified      int
	Failed        int
	TimedOut      int
	RiskRejected  int
	DedupSuppress int
	PersistFailed int
	NotifyFailed  int
	Invalid       int
	Cancelled     int
	Duration      time.Duration
}

// EpochStatsSnapshot is a plain, lock-free copy of the counters at one
// instant.
type EpochStatsSnapshot struct {
	Fetched       int
	CacheHits     int
	Candidates    int
	Persisted     int
	Notified      int
	Failed        int
	TimedOut      int
	RiskRejected  int
	DedupSuppress int
	PersistFailed int
	NotifyFailed  int
	Invalid       int
	Cancelled     int
	Duration      time.Duration
}

// Snapshot returns a copy of the current counters, safe to read without
// racing further increments.
func (s *EpochStats) Snapshot() EpochStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EpochStatsSnapshot{
		Fetched:       s.Fetched,
		CacheHits:     s.CacheHits,
		Candidates:    s.Candidates,
		Persisted:     s.Persisted,
		Notified:      s.Notified,
		Failed:        s.Failed,
		TimedOut:      s.TimedOut,
		RiskRejected:  s.RiskRejected,
		DedupSuppress: s.DedupSuppress,
		PersistFailed: s.PersistFailed,
		NotifyFailed:  s.NotifyFailed,
		Invalid:       s.Invalid,
		Cancelled:     s.Cancelled,
		Duration:      s.Duration,
	}
}

func (s *EpochStats) incr(field *int) {
	s.mu.Lock()
	*field++
	s.mu.Unlock()
}

// IncFetched increments the fetched counter.
func (s *EpochStats) IncFetched() { s.incr(&s.Fetched) }

// IncCacheHit increments the cache-hit counter.
func (s *EpochStats) IncCacheHit() { s.incr(&s.CacheHits) }

// IncCandidates adds n to the candidates counter.
func (s *EpochStats) IncCandidates(n int) {
	s.mu.Lock()
	s.Candidates += n
	s.mu.Unlock()
}

// IncPersisted increments the persisted counter.
func (s *EpochStats) IncPersisted() { s.incr(&s.Persisted) }

// IncNotified increments the notified counter.
func (s *EpochStats) IncNotified() { s.incr(&s.Notified) }

// IncFailed increments the generic-failure counter.
func (s *EpochStats) IncFailed() { s.incr(&s.Failed) }

// IncTimedOut increments the timed-out counter.
func (s *EpochStats) IncTimedOut() { s.incr(&s.TimedOut) }

// IncRiskRejected increments the risk-rejected counter.
func (s *EpochStats) IncRiskRejected() { s.incr(&s.RiskRejected) }

// IncDedupSuppressed increments the dedup-suppressed counter.
func (s *EpochStats) IncDedupSuppressed() { s.incr(&s.DedupSuppress) }

// IncPersistFailed increments the persist-failed counter.
func (s *EpochStats) IncPersistFailed() { s.incr(&s.PersistFailed) }

// IncNotifyFailed increments the notify-failed counter.
func (s *EpochStats) IncNotifyFailed() { s.incr(&s.NotifyFailed) }

// IncInvalid increments the invalid-candidate counter.
func (s *EpochStats) IncInvalid() { s.incr(&s.Invalid) }

// IncCancelled increments the cancelled-task counter.
func (s *EpochStats) IncCancelled() { s.incr(&s.Cancelled) }

// SetDuration records the epoch's wall-clock duration.
func (s *EpochStats) SetDuration(d time.Duration) {
	s.mu.Lock()
	s.Duration = d
	s.mu.Unlock()
}

// ScanEpoch is one scheduled invocation of the unified scan.
type ScanEpoch struct {
	EpochID     string
	Trigger     string
	TriggeredAt time.Time
	Categories  []StrategyCategory
	Deadline    time.Time
	Stats       *EpochStats
}

// NewScanEpoch constructs an epoch with a fresh stats block.
func NewScanEpoch(id, trigger string, triggeredAt time.Time, categories []StrategyCategory, deadline time.Time) *ScanEpoch {
	return &ScanEpoch{
		EpochID:     id,
		Trigger:     trigger,
		TriggeredAt: triggeredAt,
		Categories:  categories,
		Deadline:    deadline,
		Stats:       &EpochStats{},
	}
}
