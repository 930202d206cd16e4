// Package scheduler implements the scheduler loop that owns the scan
// triggers: it computes each trigger's next fire time in exchange-local
// time, launches scan epochs with a hard deadline, skips fires that would
// overlap a still-running epoch for the same trigger, sweeps expired
// signals, and pauses fetching after the broker reports bad credentials.
// It also exposes the only control surface the surrounding layers may
// call: Start, Stop, TriggerNow, Stats, NextRuns.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kstrading/scand/internal/calendar"
	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/pipeline"
	"github.com/kstrading/scand/internal/risk"
	"github.com/kstrading/scand/internal/scanner"
	"github.com/kstrading/scand/internal/store"
)

// Config controls the loop's deadlines and cadences.
type Config struct {
	EpochTimeout         time.Duration
	ShutdownGrace        time.Duration
	SweepInterval        time.Duration
	UnauthorizedCooldown time.Duration
	// PollInterval is how often the loop wakes to check trigger fire times
	// and run the expiry sweep. Purely an implementation cadence; fire
	// times themselves come from the trigger specs.
	PollInterval time.Duration
}

func (c Config) sanitize() Config {
	if c.EpochTimeout <= 0 {
		c.EpochTimeout = 300 * time.Second
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.UnauthorizedCooldown <= 0 {
		c.UnauthorizedCooldown = 5 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	return c
}

// Trigger pairs a named schedule spec with the strategy categories its
// epochs scan.
type Trigger struct {
	Spec       calendar.TriggerSpec
	Categories []models.StrategyCategory
}

// PortfolioFunc produces the account snapshot the risk policy evaluates
// candidates against, refreshed once per epoch.
type PortfolioFunc func(ctx context.Context) risk.PortfolioSnapshot

// Deps are the collaborators the loop drives. All are required except
// Portfolio and Logger, which get usable defaults.
type Deps struct {
	Scanner   *scanner.Scanner
	Pipeline  *pipeline.Pipeline
	Store     store.SignalStore
	Calendar  *calendar.Calendar
	Portfolio PortfolioFunc
	Logger    *logrus.Entry
}

// NextRun is one entry of the NextRuns control-surface response.
type NextRun struct {
	Trigger string    `json:"trigger"`
	At      time.Time `json:"at"`
}

// EpochSummary is a plain copy of one epoch's final counters.
type EpochSummary struct {
	EpochID         string        `json:"epoch_id"`
	Trigger         string        `json:"trigger"`
	Fetched         int           `json:"fetched"`
	CacheHits       int           `json:"cache_hits"`
	Candidates      int           `json:"candidates"`
	Persisted       int           `json:"persisted"`
	Notified        int           `json:"notified"`
	Failed          int           `json:"failed"`
	TimedOut        int           `json:"timed_out"`
	RiskRejected    int           `json:"risk_rejected"`
	DedupSuppressed int           `json:"dedup_suppressed"`
	PersistFailed   int           `json:"persist_failed"`
	NotifyFailed    int           `json:"notify_failed"`
	Invalid         int           `json:"invalid_candidates"`
	Cancelled       int           `json:"cancelled"`
	Duration        time.Duration `json:"duration"`
}

func summarize(epoch *models.ScanEpoch) EpochSummary {
	s := epoch.Stats.Snapshot()
	return EpochSummary{
		EpochID:         epoch.EpochID,
		Trigger:         epoch.Trigger,
		Fetched:         s.Fetched,
		CacheHits:       s.CacheHits,
		Candidates:      s.Candidates,
		Persisted:       s.Persisted,
		Notified:        s.Notified,
		Failed:          s.Failed,
		TimedOut:        s.TimedOut,
		RiskRejected:    s.RiskRejected,
		DedupSuppressed: s.DedupSuppress,
		PersistFailed:   s.PersistFailed,
		NotifyFailed:    s.NotifyFailed,
		Invalid:         s.Invalid,
		Cancelled:       s.Cancelled,
		Duration:        s.Duration,
	}
}

// TriggerStats are the per-trigger counters the control surface reports.
type TriggerStats struct {
	Trigger        string       `json:"trigger"`
	EpochsRun      int          `json:"epochs_run"`
	SkippedOverlap int          `json:"skipped_overlap"`
	LastEpochID    string       `json:"last_epoch_id,omitempty"`
	LastFiredAt    time.Time    `json:"last_fired_at,omitempty"`
	NextFireAt     time.Time    `json:"next_fire_at"`
	LastEpoch      EpochSummary `json:"last_epoch"`
}

// Stats is the full control-surface snapshot.
type Stats struct {
	StartedAt     time.Time      `json:"started_at"`
	EpochsTotal   int            `json:"epochs_total"`
	SweptExpired  int            `json:"swept_expired"`
	CooldownSkips int            `json:"cooldown_skips"`
	CooldownUntil time.Time      `json:"cooldown_until,omitempty"`
	Triggers      []TriggerStats `json:"triggers"`
}

// triggerState is the mutable per-trigger bookkeeping, guarded by Loop.mu.
type triggerState struct {
	spec       calendar.TriggerSpec
	categories []models.StrategyCategory

	nextFire    time.Time
	running     bool
	epochsRun   int
	skipped     int
	lastEpochID string
	lastFiredAt time.Time
	lastEpoch   EpochSummary
}

// Loop is the scheduler loop.
type Loop struct {
	deps   Deps
	config Config
	logger *logrus.Entry

	mu            sync.Mutex
	triggers      map[string]*triggerState
	order         []string
	startedAt     time.Time
	epochsTotal   int
	sweptExpired  int
	cooldownSkips int
	cooldownUntil time.Time
	nextSweep     time.Time
	running       bool
	ctx           context.Context
	cancel        context.CancelFunc

	wg sync.WaitGroup
}

// New builds a Loop. Trigger specs are validated here; a bad spec or an
// unknown category is a startup failure, not something to discover at the
// first fire.
func New(deps Deps, triggers []Trigger, cfg Config) (*Loop, error) {
	if deps.Scanner == nil || deps.Pipeline == nil || deps.Store == nil || deps.Calendar == nil {
		return nil, fmt.Errorf("scheduler: scanner, pipeline, store, and calendar are required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.NewEntry(logrus.New())
	}
	if deps.Portfolio == nil {
		deps.Portfolio = func(context.Context) risk.PortfolioSnapshot { return risk.PortfolioSnapshot{} }
	}
	if len(triggers) == 0 {
		return nil, fmt.Errorf("scheduler: at least one trigger is required")
	}

	l := &Loop{
		deps:     deps,
		config:   cfg.sanitize(),
		logger:   deps.Logger,
		triggers: make(map[string]*triggerState, len(triggers)),
	}
	for _, t := range triggers {
		if err := t.Spec.Validate(); err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		if len(t.Categories) == 0 {
			return nil, fmt.Errorf("scheduler: trigger %q has no categories", t.Spec.Name)
		}
		for _, c := range t.Categories {
			if !c.Valid() {
				return nil, fmt.Errorf("scheduler: trigger %q: unknown category %q", t.Spec.Name, c)
			}
		}
		if _, dup := l.triggers[t.Spec.Name]; dup {
			return nil, fmt.Errorf("scheduler: duplicate trigger %q", t.Spec.Name)
		}
		l.triggers[t.Spec.Name] = &triggerState{spec: t.Spec, categories: t.Categories}
		l.order = append(l.order, t.Spec.Name)
	}
	return l, nil
}

// Start computes initial fire times, logs them, and launches the loop
// goroutine. Calling Start on a running loop is an error.
func (l *Loop) Start() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("scheduler: already running")
	}
	now := l.deps.Calendar.Now()
	for _, name := range l.order {
		ts := l.triggers[name]
		next, err := l.deps.Calendar.NextFire(ts.spec, now)
		if err != nil {
			l.mu.Unlock()
			return fmt.Errorf("scheduler: trigger %q: %w", name, err)
		}
		ts.nextFire = next
	}
	l.startedAt = now
	l.nextSweep = now.Add(l.config.SweepInterval)
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true
	runs := l.nextRunsLocked()
	l.mu.Unlock()

	for _, r := range runs {
		l.logger.WithFields(logrus.Fields{"trigger": r.Trigger, "at": r.At}).Info("next fire")
	}

	l.wg.Add(1)
	go l.run(l.ctx)
	return nil
}

// Stop cancels in-flight epochs and waits up to grace for them to drain.
// Returns an error if the grace period elapsed before everything stopped.
func (l *Loop) Stop(grace time.Duration) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	if grace <= 0 {
		grace = l.config.ShutdownGrace
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		l.logger.Info("scheduler stopped")
		return nil
	case <-time.After(grace):
		return fmt.Errorf("scheduler: shutdown grace %s elapsed with work still in flight", grace)
	}
}

// run wakes every PollInterval to fire due triggers and sweep expired
// signals. Trigger cadence comes from the specs, not from this tick rate.
func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick fires every due trigger and runs the periodic expiry sweep.
func (l *Loop) tick(ctx context.Context) {
	now := l.deps.Calendar.Now()

	l.mu.Lock()
	if !now.Before(l.nextSweep) {
		l.nextSweep = now.Add(l.config.SweepInterval)
		l.mu.Unlock()
		l.sweep(ctx, now)
		l.mu.Lock()
	}

	inCooldown := now.Before(l.cooldownUntil)
	type launch struct {
		name string
		ts   *triggerState
	}
	var launches []launch
	for _, name := range l.order {
		ts := l.triggers[name]
		if ts.nextFire.IsZero() || now.Before(ts.nextFire) {
			continue
		}
		next, err := l.deps.Calendar.NextFire(ts.spec, now)
		if err == nil {
			ts.nextFire = next
		}
		switch {
		case inCooldown:
			l.cooldownSkips++
		case ts.running:
			ts.skipped++
			l.logger.WithField("trigger", name).Warn("previous epoch still running, skipping fire")
		default:
			ts.running = true
			launches = append(launches, launch{name: name, ts: ts})
		}
	}
	l.mu.Unlock()

	for _, la := range launches {
		l.wg.Add(1)
		go l.runEpoch(ctx, la.name, la.ts)
	}
}

// sweep transitions overdue PENDING signals to EXPIRED.
func (l *Loop) sweep(ctx context.Context, now time.Time) {
	count, err := l.deps.Store.ExpireOverdue(ctx, now)
	if err != nil {
		l.logger.WithError(err).Warn("expiry sweep failed")
		return
	}
	if count > 0 {
		l.logger.WithField("count", count).Info("expired overdue signals")
		l.mu.Lock()
		l.sweptExpired += count
		l.mu.Unlock()
	}
}

// runEpoch executes one scan epoch for a trigger: scanner fan-out, then the
// signal pipeline, then stats bookkeeping. Epoch failures are contained
// here; nothing propagates to the loop.
func (l *Loop) runEpoch(ctx context.Context, name string, ts *triggerState) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		ts.running = false
		l.mu.Unlock()
	}()

	now := l.deps.Calendar.Now()
	epoch := models.NewScanEpoch(uuid.NewString(), name, now, ts.categories, now.Add(l.config.EpochTimeout))
	logger := l.logger.WithFields(logrus.Fields{"epoch_id": epoch.EpochID, "trigger": name})
	logger.Info("epoch started")

	result, err := l.deps.Scanner.Run(ctx, epoch)
	if err != nil {
		logger.WithError(err).Error("epoch scan failed")
	}

	if result.SawUnauthorized {
		l.noteUnauthorized(logger)
	}

	l.deps.Pipeline.Process(ctx, epoch, result.CandidatesByCategory, l.deps.Portfolio(ctx))

	summary := summarize(epoch)
	l.mu.Lock()
	l.epochsTotal++
	ts.epochsRun++
	ts.lastEpochID = epoch.EpochID
	ts.lastFiredAt = now
	ts.lastEpoch = summary
	l.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"fetched":    summary.Fetched,
		"cache_hits": summary.CacheHits,
		"candidates": summary.Candidates,
		"persisted":  summary.Persisted,
		"timed_out":  summary.TimedOut,
		"duration":   summary.Duration,
	}).Info("epoch finished")
}

// noteUnauthorized starts (or extends nothing during) the fetch cooldown,
// emitting a single log event per cooldown window.
func (l *Loop) noteUnauthorized(logger *logrus.Entry) {
	now := l.deps.Calendar.Now()
	l.mu.Lock()
	alreadyCooling := now.Before(l.cooldownUntil)
	if !alreadyCooling {
		l.cooldownUntil = now.Add(l.config.UnauthorizedCooldown)
	}
	until := l.cooldownUntil
	l.mu.Unlock()

	if !alreadyCooling {
		logger.WithField("until", until).Error("broker unauthorized, pausing fetches")
	}
}

// TriggerNow fires trigger name immediately, outside its schedule, and
// returns the new epoch's ID. The overlap rule still applies: a trigger
// with an epoch in flight refuses a manual fire.
func (l *Loop) TriggerNow(name string) (string, error) {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return "", fmt.Errorf("scheduler: not running")
	}
	ts, ok := l.triggers[name]
	if !ok {
		l.mu.Unlock()
		return "", fmt.Errorf("scheduler: unknown trigger %q", name)
	}
	if ts.running {
		l.mu.Unlock()
		return "", fmt.Errorf("scheduler: trigger %q already has an epoch in flight", name)
	}
	ts.running = true
	ctx := l.ctx
	l.mu.Unlock()

	epochID := uuid.NewString()
	l.wg.Add(1)
	go l.runManualEpoch(ctx, name, ts, epochID)
	return epochID, nil
}

// runManualEpoch is runEpoch with a caller-chosen epoch ID, so TriggerNow
// can return the ID before the epoch completes.
func (l *Loop) runManualEpoch(ctx context.Context, name string, ts *triggerState, epochID string) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		ts.running = false
		l.mu.Unlock()
	}()

	now := l.deps.Calendar.Now()
	epoch := models.NewScanEpoch(epochID, name, now, ts.categories, now.Add(l.config.EpochTimeout))
	logger := l.logger.WithFields(logrus.Fields{"epoch_id": epochID, "trigger": name, "manual": true})
	logger.Info("epoch started")

	result, err := l.deps.Scanner.Run(ctx, epoch)
	if err != nil {
		logger.WithError(err).Error("epoch scan failed")
	}
	if result.SawUnauthorized {
		l.noteUnauthorized(logger)
	}
	l.deps.Pipeline.Process(ctx, epoch, result.CandidatesByCategory, l.deps.Portfolio(ctx))

	summary := summarize(epoch)
	l.mu.Lock()
	l.epochsTotal++
	ts.epochsRun++
	ts.lastEpochID = epochID
	ts.lastFiredAt = now
	ts.lastEpoch = summary
	l.mu.Unlock()
	logger.WithField("candidates", summary.Candidates).Info("epoch finished")
}

// Stats returns a snapshot of the loop's counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := Stats{
		StartedAt:     l.startedAt,
		EpochsTotal:   l.epochsTotal,
		SweptExpired:  l.sweptExpired,
		CooldownSkips: l.cooldownSkips,
		CooldownUntil: l.cooldownUntil,
	}
	for _, name := range l.order {
		ts := l.triggers[name]
		out.Triggers = append(out.Triggers, TriggerStats{
			Trigger:        name,
			EpochsRun:      ts.epochsRun,
			SkippedOverlap: ts.skipped,
			LastEpochID:    ts.lastEpochID,
			LastFiredAt:    ts.lastFiredAt,
			NextFireAt:     ts.nextFire,
			LastEpoch:      ts.lastEpoch,
		})
	}
	return out
}

// NextRuns returns the upcoming fire time per trigger, soonest first.
func (l *Loop) NextRuns() []NextRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextRunsLocked()
}

func (l *Loop) nextRunsLocked() []NextRun {
	out := make([]NextRun, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, NextRun{Trigger: name, At: l.triggers[name].nextFire})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
