// Package main is the entry point for scand, the market-scan scheduler
// daemon. It wires the configured collaborators together, starts the
// scheduler loop and the optional HTTP control surface, and shuts both down
// on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/kstrading/scand/internal/broker"
	"github.com/kstrading/scand/internal/cache"
	"github.com/kstrading/scand/internal/calendar"
	"github.com/kstrading/scand/internal/config"
	"github.com/kstrading/scand/internal/fetcher"
	"github.com/kstrading/scand/internal/httpapi"
	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/notify"
	"github.com/kstrading/scand/internal/pipeline"
	"github.com/kstrading/scand/internal/risk"
	"github.com/kstrading/scand/internal/scanner"
	"github.com/kstrading/scand/internal/scheduler"
	"github.com/kstrading/scand/internal/store/memstore"
	"github.com/kstrading/scand/internal/strategy"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var once bool
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.BoolVar(&once, "once", false, "Run a single scan epoch across all trigger categories and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	scan := cfg.Scan

	logger := logrus.New()
	level, err := logrus.ParseLevel(scan.Environment.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	log := logger.WithField("component", "scand")

	log.WithField("mode", scan.Environment.Mode).Info("starting market-scan scheduler")

	session, err := scan.Session()
	if err != nil {
		log.WithError(err).Error("invalid session config")
		return 1
	}
	clock := calendar.SystemClock{}

	var client broker.Client = broker.NewHTTPClient(scan.Broker.BaseURL, scan.Broker.APIKey, nil)
	client = broker.NewCircuitBreakerClientWithSettings(client, broker.CircuitBreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      scan.Broker.CooldownTimeout,
		MinRequests:  1,
		FailureRatio: scan.Broker.FailureRatio,
	})
	f := fetcher.New(client, fetcher.Config{
		MaxAttempts:     3,
		InitialBackoff:  500 * time.Millisecond,
		MaxBackoff:      8 * time.Second,
		TimeoutIntraday: scan.FetchTimeoutIntraday,
		TimeoutHistory:  scan.FetchTimeoutHistory,
	}, log.WithField("component", "fetcher"))

	c, err := cache.New(scan.CacheCapacity, clock.Now)
	if err != nil {
		log.WithError(err).Error("cache init failed")
		return 1
	}

	sc := scanner.New(c, f, strategy.DefaultRegistry(), clock, scanner.Config{
		Parallelism:      scan.Parallelism,
		SymbolTimeout:    scan.SymbolTimeout,
		CacheTTLIntraday: scan.CacheTTLIntraday,
		CacheTTLDaily:    scan.CacheTTLDaily,
		Watchlist:        scan.Watchlist,
	}, log.WithField("component", "scanner"))

	st := memstore.New()

	var notifier notify.Notifier
	if scan.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(scan.Notify.WebhookURL, nil)
	} else {
		notifier = notify.NewLogNotifier(log.WithField("component", "notify"))
	}

	policy := risk.ConservativePolicy{
		RiskPerTrade:  decimal.NewFromFloat(scan.Risk.RiskPerTrade),
		MaxPositions:  scan.Risk.MaxPositions,
		MinConfidence: scan.Risk.MinConfidence,
	}
	portfolio := func(context.Context) risk.PortfolioSnapshot {
		return risk.PortfolioSnapshot{
			AccountValue: decimal.NewFromFloat(scan.Risk.AccountValue),
			MaxPositions: scan.Risk.MaxPositions,
		}
	}

	pl := pipeline.New(st, policy, notifier, clock, pipeline.Config{
		DedupQuietWindow: scan.DedupQuietWindow,
		SignalTimeout:    scan.SignalTimeout,
		AutoTrade:        scan.AutoTrade,
		AutoThreshold:    scan.AutoThreshold,
	}, log.WithField("component", "pipeline"))

	if once {
		return runOnce(scan, sc, pl, portfolio, clock, log)
	}

	var triggers []scheduler.Trigger
	for name := range scan.Triggers {
		spec, err := scan.TriggerSpec(name)
		if err != nil {
			log.WithError(err).Error("invalid trigger")
			return 1
		}
		triggers = append(triggers, scheduler.Trigger{Spec: spec, Categories: scan.TriggerCategories(name)})
	}

	loop, err := scheduler.New(scheduler.Deps{
		Scanner:   sc,
		Pipeline:  pl,
		Store:     st,
		Calendar:  calendar.New(clock, session),
		Portfolio: portfolio,
		Logger:    log.WithField("component", "scheduler"),
	}, triggers, scheduler.Config{
		EpochTimeout:         scan.EpochTimeout,
		ShutdownGrace:        scan.ShutdownGrace,
		SweepInterval:        scan.SweepInterval,
		UnauthorizedCooldown: scan.UnauthorizedCooldown,
	})
	if err != nil {
		log.WithError(err).Error("scheduler init failed")
		return 1
	}
	if err := loop.Start(); err != nil {
		log.WithError(err).Error("scheduler start failed")
		return 1
	}

	var apiServer *httpapi.Server
	if scan.HTTP.Enabled {
		apiServer = httpapi.NewServer(httpapi.Config{Port: scan.HTTP.Port, AuthToken: scan.HTTP.AuthToken}, loop, logger)
		go func() {
			if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("control surface server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("shutdown signal received")

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("control surface shutdown failed")
		}
		cancel()
	}
	if err := loop.Stop(scan.ShutdownGrace); err != nil {
		log.WithError(err).Error("forced exit")
		return 1
	}
	log.Info("scheduler stopped")
	return 0
}

// runOnce runs one epoch over the union of every trigger's categories, for
// smoke tests and cron-external invocation.
func runOnce(scan config.ScanConfig, sc *scanner.Scanner, pl *pipeline.Pipeline, portfolio scheduler.PortfolioFunc, clock calendar.Clock, log *logrus.Entry) int {
	seen := make(map[models.StrategyCategory]bool)
	var categories []models.StrategyCategory
	for name := range scan.Triggers {
		for _, cat := range scan.TriggerCategories(name) {
			if !seen[cat] {
				seen[cat] = true
				categories = append(categories, cat)
			}
		}
	}

	now := clock.Now()
	epoch := models.NewScanEpoch(uuid.NewString(), "once", now, categories, now.Add(scan.EpochTimeout))
	log.WithField("epoch_id", epoch.EpochID).Info("running single epoch")

	ctx, cancel := context.WithDeadline(context.Background(), epoch.Deadline)
	defer cancel()

	result, err := sc.Run(ctx, epoch)
	if err != nil {
		log.WithError(err).Error("scan failed")
		return 1
	}
	pl.Process(ctx, epoch, result.CandidatesByCategory, portfolio(ctx))

	stats := epoch.Stats.Snapshot()
	log.WithFields(logrus.Fields{
		"fetched":    stats.Fetched,
		"cache_hits": stats.CacheHits,
		"candidates": stats.Candidates,
		"persisted":  stats.Persisted,
		"notified":   stats.Notified,
		"timed_out":  stats.TimedOut,
		"duration":   stats.Duration,
	}).Info("epoch finished")
	return 0
}
