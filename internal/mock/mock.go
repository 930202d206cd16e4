// Package mock provides hand-written test doubles for the scheduler's
// collaborator interfaces: broker, notifier, and risk policy. The in-memory
// SignalStore lives in internal/store/memstore and doubles as the test
// store, so no store mock is duplicated here.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/notify"
	"github.com/kstrading/scand/internal/risk"
	"github.com/kstrading/scand/internal/scanerr"
)

// Broker is a scripted broker.Client. Per-instrument behavior is configured
// up front; calls are counted so tests can assert fetch dedup.
//
// Broker is goroutine-safe: scanner fan-out hits it from multiple
// goroutines at once.
type Broker struct {
	mu sync.Mutex

	calls map[string]int
	fail  map[string][]error // consumed front-to-back, then success
	sleep map[string]time.Duration
	bars  int
	block map[string]chan struct{} // if set, the call parks until closed
}

// NewBroker returns a Broker producing 60 synthetic bars per fetch.
func NewBroker() *Broker {
	return &Broker{
		calls: make(map[string]int),
		fail:  make(map[string][]error),
		sleep: make(map[string]time.Duration),
		block: make(map[string]chan struct{}),
		bars:  60,
	}
}

// FailWith scripts errs for instrument: each call consumes one error until
// the list is exhausted, after which calls succeed.
func (b *Broker) FailWith(instrument string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[instrument] = append(b.fail[instrument], errs...)
}

// SleepFor makes every call for instrument sleep d before responding,
// honoring ctx cancellation.
func (b *Broker) SleepFor(instrument string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sleep[instrument] = d
}

// BlockUntilReleased parks every call for instrument until the returned
// release function is called (or ctx is cancelled).
func (b *Broker) BlockUntilReleased(instrument string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.block[instrument] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Calls returns how many times FetchHistorical was invoked for instrument.
func (b *Broker) Calls(instrument string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[instrument]
}

// FetchHistorical implements broker.Client.
func (b *Broker) FetchHistorical(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error) {
	b.mu.Lock()
	b.calls[instrument]++
	var scripted error
	if errs := b.fail[instrument]; len(errs) > 0 {
		scripted = errs[0]
		b.fail[instrument] = errs[1:]
	}
	sleep := b.sleep[instrument]
	blocked := b.block[instrument]
	bars := b.bars
	b.mu.Unlock()

	if blocked != nil {
		select {
		case <-blocked:
		case <-ctx.Done():
			return models.BarSeries{}, scanerr.Wrap(scanerr.KindTimeout, "mock broker: cancelled", ctx.Err())
		}
	}
	if sleep > 0 {
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return models.BarSeries{}, scanerr.Wrap(scanerr.KindTimeout, "mock broker: cancelled", ctx.Err())
		}
	}
	if scripted != nil {
		return models.BarSeries{}, scripted
	}
	return Bars(instrument, interval, to, bars), nil
}

// Bars builds a synthetic, gently up-trending BarSeries ending at `end`,
// valid under models.BarSeries.Validate.
func Bars(instrument string, interval models.Interval, end time.Time, count int) models.BarSeries {
	step := 15 * time.Minute
	if !interval.IsIntraday() {
		step = 24 * time.Hour
	}
	start := end.Add(-time.Duration(count) * step)

	bars := make([]models.Bar, count)
	price := decimal.NewFromFloat(100)
	tick := decimal.NewFromFloat(0.1)
	one := decimal.NewFromFloat(1)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      price,
			High:      price.Add(one),
			Low:       price.Sub(one),
			Close:     price,
			Volume:    1000,
		}
		price = price.Add(tick)
	}
	return models.BarSeries{Instrument: instrument, Interval: interval, From: start, To: end, Bars: bars}
}

// Notifier records every batch it is handed and can be scripted to fail.
type Notifier struct {
	mu      sync.Mutex
	batches []notify.Batch
	err     error
}

// NewNotifier returns an empty recording Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// FailWith makes every subsequent Notify call return err.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Notify implements notify.Notifier.
func (n *Notifier) Notify(ctx context.Context, batch notify.Batch) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.batches = append(n.batches, batch)
	return nil
}

// Batches returns a copy of every recorded batch.
func (n *Notifier) Batches() []notify.Batch {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Batch(nil), n.batches...)
}

// RiskPolicy accepts everything with a fixed quantity unless scripted to
// reject.
type RiskPolicy struct {
	mu       sync.Mutex
	quantity int
	rejectBy func(models.Candidate) string // non-empty reason means reject
}

// NewRiskPolicy returns a policy accepting every candidate with quantity 10.
func NewRiskPolicy() *RiskPolicy {
	return &RiskPolicy{quantity: 10}
}

// RejectWhen installs a predicate; a non-empty returned reason rejects the
// candidate.
func (p *RiskPolicy) RejectWhen(fn func(models.Candidate) string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectBy = fn
}

// Evaluate implements risk.Policy.
func (p *RiskPolicy) Evaluate(c models.Candidate, _ risk.PortfolioSnapshot) risk.Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rejectBy != nil {
		if reason := p.rejectBy(c); reason != "" {
			return risk.Decision{Reason: reason}
		}
	}
	return risk.Decision{Accept: true, Quantity: p.quantity, Notes: "mock sized"}
}
