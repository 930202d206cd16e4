// Package pipeline turns scan candidates into persisted signals: dedup,
// risk evaluation, persistence, auto-trade promotion, and notification.
// Store and notifier failures here are logged and counted, never retried;
// no lock is held across a collaborator call.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kstrading/scand/internal/calendar"
	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/notify"
	"github.com/kstrading/scand/internal/risk"
	"github.com/kstrading/scand/internal/store"
)

// Config controls dedup/auto-trade policy.
type Config struct {
	DedupQuietWindow time.Duration
	SignalTimeout    time.Duration
	AutoTrade        bool
	AutoThreshold    float64
}

func (c Config) sanitize() Config {
	if c.DedupQuietWindow <= 0 {
		c.DedupQuietWindow = 24 * time.Hour
	}
	if c.SignalTimeout <= 0 {
		c.SignalTimeout = time.Hour
	}
	if c.AutoThreshold <= 0 {
		c.AutoThreshold = 0.8
	}
	return c
}

// Pipeline is the concrete SignalPipeline.
type Pipeline struct {
	store    store.SignalStore
	risk     risk.Policy
	notifier notify.Notifier
	clock    calendar.Clock
	config   Config
	logger   *logrus.Entry
}

// New builds a Pipeline.
func New(s store.SignalStore, r risk.Policy, n notify.Notifier, clock calendar.Clock, cfg Config, logger *logrus.Entry) *Pipeline {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Pipeline{store: s, risk: r, notifier: n, clock: clock, config: cfg.sanitize(), logger: logger}
}

// Process runs every candidate in byCategory through dedup, risk,
// persistence, auto-trade, and notification, mutating epoch.Stats as it
// goes.
func (p *Pipeline) Process(ctx context.Context, epoch *models.ScanEpoch, byCategory map[models.StrategyCategory][]models.Candidate, portfolio risk.PortfolioSnapshot) {
	categories := make([]models.StrategyCategory, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	for _, category := range categories {
		var persisted []models.Signal
		for _, candidate := range byCategory[category] {
			sig, ok := p.processOne(ctx, epoch, candidate, portfolio)
			if ok {
				persisted = append(persisted, sig)
			}
		}
		if len(persisted) == 0 {
			continue
		}
		if err := p.notifier.Notify(ctx, notify.Batch{EpochID: epoch.EpochID, Category: category, Signals: persisted}); err != nil {
			epoch.Stats.IncNotifyFailed()
			p.logger.WithError(err).WithField("category", category).Warn("notify failed")
			continue
		}
		epoch.Stats.IncNotified()
	}
}

// processOne runs dedup, risk, persistence, and auto-trade for one
// candidate, returning the persisted signal and whether persistence
// succeeded.
func (p *Pipeline) processOne(ctx context.Context, epoch *models.ScanEpoch, candidate models.Candidate, portfolio risk.PortfolioSnapshot) (models.Signal, bool) {
	now := p.clock.Now()
	since := now.Add(-p.config.DedupQuietWindow)

	active, err := p.store.FindActive(ctx, candidate.Instrument, candidate.Side, candidate.StrategyName, since)
	if err != nil {
		p.logger.WithError(err).Warn("dedup lookup failed")
	} else if len(active) > 0 {
		epoch.Stats.IncDedupSuppressed()
		return models.Signal{}, false
	}

	decision := p.risk.Evaluate(candidate, portfolio)
	if !decision.Accept {
		epoch.Stats.IncRiskRejected()
		return models.Signal{}, false
	}

	sig := models.NewSignal(candidate, decision.Quantity, decision.Notes, now, p.config.SignalTimeout)
	if _, err := p.store.Create(ctx, sig); err != nil {
		epoch.Stats.IncPersistFailed()
		p.logger.WithError(err).Warn("persist failed")
		return models.Signal{}, false
	}
	epoch.Stats.IncPersisted()

	if p.config.AutoTrade && candidate.Confidence >= p.config.AutoThreshold {
		ok, err := p.store.SetStatus(ctx, sig.ID, models.StatusPending, models.StatusApproved)
		if err != nil {
			p.logger.WithError(err).Warn("auto-trade approval failed")
		} else if ok {
			sig.Status = models.StatusApproved
		}
	}

	return sig, true
}
