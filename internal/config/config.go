// Package config loads and validates the scheduler's YAML configuration:
// os.ExpandEnv for env-var interpolation, a strict yaml.v3 decode that
// rejects unknown keys, then Normalize to fill defaults and Validate to
// enforce startup invariants.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/kstrading/scand/internal/calendar"
	"github.com/kstrading/scand/internal/models"
)

// Default values for every recognized option.
const (
	DefaultParallelism          = 5
	DefaultEpochTimeout         = 300 * time.Second
	DefaultSymbolTimeout        = 60 * time.Second
	DefaultFetchTimeoutIntraday = 30 * time.Second
	DefaultFetchTimeoutHistory  = 60 * time.Second
	DefaultCacheTTLIntraday     = 30 * time.Minute
	DefaultCacheTTLDaily        = 24 * time.Hour
	DefaultCacheCapacity        = 2048
	DefaultSignalTimeout        = time.Hour
	DefaultAutoThreshold        = 0.8
	DefaultDedupQuietWindow     = 24 * time.Hour
	DefaultUnauthorizedCooldown = 5 * time.Minute
	DefaultShutdownGrace        = 30 * time.Second
	DefaultSweepInterval        = time.Minute
)

// Config is the top-level decoded document. Everything the scheduler reads
// lives under the `scan:` key.
type Config struct {
	Scan ScanConfig `yaml:"scan"`
}

// ScanConfig holds every option the scheduler recognizes.
type ScanConfig struct {
	Parallelism          int                      `yaml:"parallelism"`
	EpochTimeout         time.Duration            `yaml:"epoch_timeout"`
	SymbolTimeout        time.Duration            `yaml:"symbol_timeout"`
	FetchTimeoutIntraday time.Duration            `yaml:"fetch_timeout_intraday"`
	FetchTimeoutHistory  time.Duration            `yaml:"fetch_timeout_history"`
	CacheTTLIntraday     time.Duration            `yaml:"cache_ttl_intraday"`
	CacheTTLDaily        time.Duration            `yaml:"cache_ttl_daily"`
	CacheCapacity        int                      `yaml:"cache_capacity"`
	SignalTimeout        time.Duration            `yaml:"signal_timeout"`
	AutoTrade            bool                     `yaml:"auto_trade"`
	AutoThreshold        float64                  `yaml:"auto_threshold"`
	DedupQuietWindow     time.Duration            `yaml:"dedup_quiet_window"`
	UnauthorizedCooldown time.Duration            `yaml:"unauthorized_cooldown"`
	ShutdownGrace        time.Duration            `yaml:"shutdown_grace"`
	SweepInterval        time.Duration            `yaml:"sweep_interval"`
	Timezone             string                   `yaml:"timezone"`
	SessionOpen          string                   `yaml:"session_open"`
	SessionClose         string                   `yaml:"session_close"`
	Triggers             map[string]TriggerConfig `yaml:"triggers"`
	WatchlistByCategory  map[string][]string      `yaml:"watchlist_by_category"`
	Risk                 RiskConfig               `yaml:"risk"`
	Broker               BrokerConfig             `yaml:"broker"`
	Notify               NotifyConfig             `yaml:"notify"`
	Store                StoreConfig              `yaml:"store"`
	HTTP                 HTTPConfig               `yaml:"http"`
	Environment          EnvironmentConfig        `yaml:"environment"`
}

// TriggerConfig decodes one named cron-like trigger.
type TriggerConfig struct {
	Kind       string        `yaml:"kind"` // interval | at | after_close
	Every      time.Duration `yaml:"every"`
	At         []string      `yaml:"at"`
	Offset     time.Duration `yaml:"offset"`
	Categories []string      `yaml:"categories"`
}

// RiskConfig sizes positions for the default conservative risk policy.
type RiskConfig struct {
	AccountValue  float64 `yaml:"account_value"`
	RiskPerTrade  float64 `yaml:"risk_per_trade"`
	MaxPositions  int     `yaml:"max_positions"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// BrokerConfig configures the HTTP broker client + circuit breaker.
type BrokerConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	CooldownTimeout time.Duration `yaml:"cooldown_timeout"`
	FailureRatio    float64       `yaml:"failure_ratio"`
}

// NotifyConfig configures the Notifier collaborator.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// StoreConfig configures the SignalStore collaborator.
type StoreConfig struct {
	Path string `yaml:"path"` // reserved for a future persistent store; memstore ignores it
}

// HTTPConfig configures the optional read-only control-surface adapter.
type HTTPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// EnvironmentConfig selects the runtime mode and log verbosity.
type EnvironmentConfig struct {
	Mode     string `yaml:"mode"`      // paper | live
	LogLevel string `yaml:"log_level"` // debug | info | warn | error
}

// Load reads, expands, decodes, normalizes, and validates configPath.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is an operator-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", configPath, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", configPath, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Normalize fills in defaults for every unset option.
func (c *Config) Normalize() {
	s := &c.Scan
	if s.Parallelism <= 0 {
		s.Parallelism = DefaultParallelism
	}
	if s.EpochTimeout <= 0 {
		s.EpochTimeout = DefaultEpochTimeout
	}
	if s.SymbolTimeout <= 0 {
		s.SymbolTimeout = DefaultSymbolTimeout
	}
	if s.FetchTimeoutIntraday <= 0 {
		s.FetchTimeoutIntraday = DefaultFetchTimeoutIntraday
	}
	if s.FetchTimeoutHistory <= 0 {
		s.FetchTimeoutHistory = DefaultFetchTimeoutHistory
	}
	if s.CacheTTLIntraday <= 0 {
		s.CacheTTLIntraday = DefaultCacheTTLIntraday
	}
	if s.CacheTTLDaily <= 0 {
		s.CacheTTLDaily = DefaultCacheTTLDaily
	}
	if s.CacheCapacity <= 0 {
		s.CacheCapacity = DefaultCacheCapacity
	}
	if s.SignalTimeout <= 0 {
		s.SignalTimeout = DefaultSignalTimeout
	}
	if s.AutoThreshold <= 0 {
		s.AutoThreshold = DefaultAutoThreshold
	}
	if s.DedupQuietWindow <= 0 {
		s.DedupQuietWindow = DefaultDedupQuietWindow
	}
	if s.UnauthorizedCooldown <= 0 {
		s.UnauthorizedCooldown = DefaultUnauthorizedCooldown
	}
	if s.ShutdownGrace <= 0 {
		s.ShutdownGrace = DefaultShutdownGrace
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = DefaultSweepInterval
	}
	if strings.TrimSpace(s.Timezone) == "" {
		s.Timezone = "Asia/Kolkata"
	}
	if strings.TrimSpace(s.SessionOpen) == "" {
		s.SessionOpen = "09:15"
	}
	if strings.TrimSpace(s.SessionClose) == "" {
		s.SessionClose = "15:30"
	}
	if strings.TrimSpace(s.Environment.Mode) == "" {
		s.Environment.Mode = "paper"
	}
	if strings.TrimSpace(s.Environment.LogLevel) == "" {
		s.Environment.LogLevel = "info"
	}
	if s.Risk.AccountValue <= 0 {
		s.Risk.AccountValue = 1_000_000
	}
	if s.Risk.RiskPerTrade <= 0 {
		s.Risk.RiskPerTrade = 0.01
	}
	if s.Risk.MaxPositions <= 0 {
		s.Risk.MaxPositions = 20
	}
	if s.Risk.MinConfidence <= 0 {
		s.Risk.MinConfidence = 0.5
	}
	if s.Broker.FailureRatio <= 0 {
		s.Broker.FailureRatio = 0.5
	}
	if s.Broker.CooldownTimeout <= 0 {
		s.Broker.CooldownTimeout = DefaultUnauthorizedCooldown
	}
}

// Validate checks every cross-field and startup invariant. A failure here
// aborts startup; a bad trigger or unknown category must never be
// discovered at the first fire.
func (c *Config) Validate() error {
	s := c.Scan

	switch s.Environment.Mode {
	case "paper", "live":
	default:
		return fmt.Errorf("scan.environment.mode must be 'paper' or 'live'")
	}
	switch strings.ToLower(s.Environment.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("scan.environment.log_level must be one of: debug, info, warn, error")
	}
	if s.AutoThreshold < 0 || s.AutoThreshold > 1 {
		return fmt.Errorf("scan.auto_threshold must be in [0,1]")
	}
	if s.Risk.RiskPerTrade > 1 {
		return fmt.Errorf("scan.risk.risk_per_trade must be a fraction in (0,1]")
	}
	if len(s.Triggers) == 0 {
		return fmt.Errorf("scan.triggers must declare at least one trigger")
	}
	for name, t := range s.Triggers {
		if len(t.Categories) == 0 {
			return fmt.Errorf("scan.triggers.%s: categories must be non-empty", name)
		}
		for _, cat := range t.Categories {
			if !models.StrategyCategory(cat).Valid() {
				return fmt.Errorf("scan.triggers.%s: unknown category %q", name, cat)
			}
		}
		if _, err := t.toSpec(name); err != nil {
			return fmt.Errorf("scan.triggers.%s: %w", name, err)
		}
	}
	for cat := range s.WatchlistByCategory {
		if !models.StrategyCategory(cat).Valid() {
			return fmt.Errorf("scan.watchlist_by_category: unknown category %q", cat)
		}
	}
	if s.HTTP.Enabled {
		if s.HTTP.Port <= 0 || s.HTTP.Port > 65535 {
			return fmt.Errorf("scan.http.port must be between 1 and 65535")
		}
	}
	if _, err := calendar.NewSession(s.Timezone, s.SessionOpen, s.SessionClose); err != nil {
		return fmt.Errorf("scan session: %w", err)
	}
	return nil
}

// toSpec converts a decoded TriggerConfig into a calendar.TriggerSpec.
func (t TriggerConfig) toSpec(name string) (calendar.TriggerSpec, error) {
	spec := calendar.TriggerSpec{
		Name:   name,
		Kind:   calendar.TriggerKind(t.Kind),
		Every:  t.Every,
		At:     t.At,
		Offset: t.Offset,
	}
	if err := spec.Validate(); err != nil {
		return calendar.TriggerSpec{}, err
	}
	return spec, nil
}

// TriggerSpec returns the calendar.TriggerSpec for trigger name.
func (s ScanConfig) TriggerSpec(name string) (calendar.TriggerSpec, error) {
	t, ok := s.Triggers[name]
	if !ok {
		return calendar.TriggerSpec{}, fmt.Errorf("config: unknown trigger %q", name)
	}
	return t.toSpec(name)
}

// TriggerCategories returns the StrategyCategory set for trigger name.
func (s ScanConfig) TriggerCategories(name string) []models.StrategyCategory {
	t := s.Triggers[name]
	out := make([]models.StrategyCategory, 0, len(t.Categories))
	for _, c := range t.Categories {
		out = append(out, models.StrategyCategory(c))
	}
	return out
}

// Watchlist returns the configured instrument list for category.
func (s ScanConfig) Watchlist(category models.StrategyCategory) []string {
	return s.WatchlistByCategory[string(category)]
}

// Session builds the calendar.Session described by Timezone/SessionOpen/SessionClose.
func (s ScanConfig) Session() (calendar.Session, error) {
	return calendar.NewSession(s.Timezone, s.SessionOpen, s.SessionClose)
}

// DefaultTriggers returns the recommended trigger table, for operators who
// don't want to hand-author one.
func DefaultTriggers() map[string]TriggerConfig {
	return map[string]TriggerConfig{
		"frequent": {
			Kind:       "interval",
			Every:      5 * time.Minute,
			Categories: []string{string(models.DayTrading), string(models.ShortSelling)},
		},
		"regular": {
			Kind:       "interval",
			Every:      2 * time.Hour,
			Categories: []string{string(models.ShortTerm)},
		},
		"comprehensive": {
			Kind:       "at",
			At:         []string{"10:00", "14:00"},
			Categories: []string{string(models.DayTrading), string(models.ShortSelling), string(models.ShortTerm), string(models.LongTerm)},
		},
		"daily": {
			Kind:       "after_close",
			Offset:     30 * time.Minute,
			Categories: []string{string(models.LongTerm)},
		},
	}
}
