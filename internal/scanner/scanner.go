// Package scanner runs one scan epoch: it unions the watchlists of the
// epoch's categories, plans one task per (instrument, interval), and fans
// the tasks out with bounded parallelism via errgroup + a weighted
// semaphore. Per-symbol failures are contained in their task; the epoch
// always finalizes with whatever completed.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kstrading/scand/internal/cache"
	"github.com/kstrading/scand/internal/calendar"
	"github.com/kstrading/scand/internal/fetcher"
	"github.com/kstrading/scand/internal/indicators"
	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
	"github.com/kstrading/scand/internal/strategy"
)

// Lookback windows for broker fetch requests. Sized generously rather
// than computed from exact bar counts, so every registered strategy's
// minimum history fits with room to spare.
const (
	intradayLookback = 5 * 24 * time.Hour
	dailyLookback    = 400 * 24 * time.Hour
)

// Config controls the scanner's fan-out and freshness policy.
type Config struct {
	Parallelism      int
	SymbolTimeout    time.Duration
	CacheTTLIntraday time.Duration
	CacheTTLDaily    time.Duration
	Watchlist        func(category models.StrategyCategory) []string
}

func (c Config) sanitize() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = 5
	}
	if c.SymbolTimeout <= 0 {
		c.SymbolTimeout = 60 * time.Second
	}
	if c.CacheTTLIntraday <= 0 {
		c.CacheTTLIntraday = 30 * time.Minute
	}
	if c.CacheTTLDaily <= 0 {
		c.CacheTTLDaily = 24 * time.Hour
	}
	if c.Watchlist == nil {
		c.Watchlist = func(models.StrategyCategory) []string { return nil }
	}
	return c
}

// Scanner is the concrete UnifiedScanner.
type Scanner struct {
	cache    cache.Interface
	fetcher  *fetcher.Fetcher
	registry *strategy.Registry
	clock    calendar.Clock
	config   Config
	logger   *logrus.Entry
}

// New builds a Scanner.
func New(c cache.Interface, f *fetcher.Fetcher, registry *strategy.Registry, clock calendar.Clock, cfg Config, logger *logrus.Entry) *Scanner {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Scanner{cache: c, fetcher: f, registry: registry, clock: clock, config: cfg.sanitize(), logger: logger}
}

// Result is what Run hands back to the caller (the pipeline/scheduler).
type Result struct {
	// CandidatesByCategory groups every validated candidate produced this
	// epoch by the category whose strategies produced it.
	CandidatesByCategory map[models.StrategyCategory][]models.Candidate
	// SawUnauthorized is true if any symbol task observed a
	// scanerr.KindUnauthorized error. The loop reacts by pausing further
	// fetches for a cooldown.
	SawUnauthorized bool
}

// symbolTask is one (instrument, interval) unit of work. Two categories
// that map to the same interval for the same instrument share one task, so
// they also share one cache entry and one broker call.
type symbolTask struct {
	key        models.SymbolKey
	categories []models.StrategyCategory
}

// Run executes one scan epoch: union watchlists, plan symbol tasks, fan
// out with bounded parallelism, and assemble results.
func (s *Scanner) Run(ctx context.Context, epoch *models.ScanEpoch) (Result, error) {
	start := s.clock.Now()
	epochCtx, cancel := context.WithDeadline(ctx, epoch.Deadline)
	defer cancel()

	tasks := s.planTasks(epoch.Categories)

	var (
		mu              sync.Mutex
		byCategory      = make(map[models.StrategyCategory][]models.Candidate)
		sawUnauthorized bool
	)

	sem := semaphore.NewWeighted(int64(s.config.Parallelism))
	group, groupCtx := errgroup.WithContext(epochCtx)

	for _, task := range tasks {
		task := task
		if err := sem.Acquire(epochCtx, 1); err != nil {
			// Epoch deadline hit before this task even started; count it
			// as timed out rather than silently dropping it.
			epoch.Stats.IncTimedOut()
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			candidates, unauthorized := s.runTask(groupCtx, epoch, task)
			if unauthorized {
				mu.Lock()
				sawUnauthorized = true
				mu.Unlock()
			}
			if len(candidates) == 0 {
				return nil
			}
			mu.Lock()
			for _, c := range candidates {
				byCategory[c.Category] = append(byCategory[c.Category], c)
			}
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait() // task errors are contained locally; never abort the epoch

	epoch.Stats.SetDuration(s.clock.Now().Sub(start))
	return Result{CandidatesByCategory: byCategory, SawUnauthorized: sawUnauthorized}, nil
}

// planTasks unions the watchlists for categories and groups them by
// (instrument, interval).
func (s *Scanner) planTasks(categories []models.StrategyCategory) []symbolTask {
	byKey := make(map[models.SymbolKey][]models.StrategyCategory)
	order := make([]models.SymbolKey, 0)

	for _, category := range categories {
		interval := category.Interval()
		for _, instrument := range s.config.Watchlist(category) {
			key := models.SymbolKey{Instrument: instrument, Interval: interval}
			if _, seen := byKey[key]; !seen {
				order = append(order, key)
			}
			byKey[key] = append(byKey[key], category)
		}
	}

	tasks := make([]symbolTask, 0, len(order))
	for _, key := range order {
		tasks = append(tasks, symbolTask{key: key, categories: byKey[key]})
	}
	return tasks
}

// runTask executes one symbol task end to end: fetch-or-cache, compute
// indicators, run every strategy for the task's categories, dedup, and
// validate. Returns the validated candidates and whether an Unauthorized
// error was observed.
func (s *Scanner) runTask(ctx context.Context, epoch *models.ScanEpoch, task symbolTask) ([]models.Candidate, bool) {
	taskCtx, cancel := context.WithTimeout(ctx, s.config.SymbolTimeout)
	defer cancel()

	fetched := false
	fetchFn := func(fnCtx context.Context, key models.SymbolKey) (models.SymbolData, error) {
		from, to := s.fetchWindow(key.Interval)
		series, err := s.fetcher.Fetch(fnCtx, key.Instrument, key.Interval, from, to)
		if err != nil {
			return models.SymbolData{}, err
		}
		fetched = true

		params := strategy.MergeParams(requiredParamsForInterval(key.Interval))
		frame := indicators.Compute(series, params)

		now := s.clock.Now()
		return models.SymbolData{
			Instrument: key.Instrument,
			Interval:   key.Interval,
			Series:     series,
			Indicators: frame,
			FetchedAt:  now,
			ValidUntil: now.Add(s.ttlFor(key.Interval)),
		}, nil
	}

	data, err := s.cache.GetOrFetch(taskCtx, task.key, fetchFn)
	if err != nil {
		s.recordTaskError(epoch, err, taskCtx)
		return nil, scanerr.KindOf(err) == scanerr.KindUnauthorized
	}

	if fetched {
		epoch.Stats.IncFetched()
	} else {
		epoch.Stats.IncCacheHit()
	}

	var raw []models.Candidate
	for _, category := range task.categories {
		raw = append(raw, s.registry.RunCategory(category, data.Series, data.Indicators)...)
	}
	deduped := strategy.Dedup(raw)

	out := make([]models.Candidate, 0, len(deduped))
	for _, c := range deduped {
		if err := c.Validate(); err != nil {
			epoch.Stats.IncInvalid()
			continue
		}
		out = append(out, c)
	}
	epoch.Stats.IncCandidates(len(out))
	return out, false
}

// recordTaskError classifies a symbol task failure into epoch stats.
// A KindTimeout error can mean either a deadline elapsed or the task's own
// context was cooperatively cancelled (e.g. Stop()); taskCtx.Err()
// disambiguates the two, since the taxonomy itself only has one Timeout
// kind for both.
func (s *Scanner) recordTaskError(epoch *models.ScanEpoch, err error, taskCtx context.Context) {
	switch scanerr.KindOf(err) {
	case scanerr.KindTimeout:
		if taskCtx.Err() == context.Canceled {
			epoch.Stats.IncCancelled()
			return
		}
		epoch.Stats.IncTimedOut()
	case scanerr.KindUnauthorized:
		epoch.Stats.IncFailed()
		s.logger.WithError(err).Warn("broker unauthorized")
	default:
		epoch.Stats.IncFailed()
	}
}

// fetchWindow returns the [from, to) window to request from the broker for
// interval, anchored at the current time.
func (s *Scanner) fetchWindow(interval models.Interval) (time.Time, time.Time) {
	now := s.clock.Now()
	if interval.IsIntraday() {
		return now.Add(-intradayLookback), now
	}
	return now.Add(-dailyLookback), now
}

// ttlFor returns the configured cache freshness window for interval.
func (s *Scanner) ttlFor(interval models.Interval) time.Duration {
	if interval.IsIntraday() {
		return s.config.CacheTTLIntraday
	}
	return s.config.CacheTTLDaily
}

// requiredParamsForInterval unions the indicator params of every category
// that maps to interval, regardless of which categories the current epoch
// actually requested. This keeps one cached SymbolData usable by any future
// epoch touching the same (instrument, interval), even one requesting a
// different category subset.
func requiredParamsForInterval(interval models.Interval) []indicators.Params {
	var out []indicators.Params
	for _, category := range models.AllCategories {
		if category.Interval() == interval {
			out = append(out, strategy.RequiredIndicatorParams(category))
		}
	}
	return out
}
