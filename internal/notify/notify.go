// Package notify defines the Notifier collaborator and two
// implementations: a logrus-backed one for local/paper operation and a
// webhook one that POSTs a compact JSON payload with a bounded
// http.Client timeout.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
)

// Batch is the compact notification payload for one category within one
// epoch. The pipeline emits at most one batch per category per epoch.
type Batch struct {
	EpochID  string
	Category models.StrategyCategory
	Signals  []models.Signal
}

// Notifier is the collaborator the pipeline hands finalized batches to.
// Best-effort: errors are logged by the caller, never retried.
type Notifier interface {
	Notify(ctx context.Context, batch Batch) error
}

// LogNotifier writes a structured log line per batch. Default for paper
// mode and tests.
type LogNotifier struct {
	logger *logrus.Entry
}

var _ Notifier = LogNotifier{}

// NewLogNotifier builds a LogNotifier. A nil logger gets a standalone one.
func NewLogNotifier(logger *logrus.Entry) LogNotifier {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, batch Batch) error {
	if err := ctx.Err(); err != nil {
		return scanerr.Wrap(scanerr.KindTimeout, "notify: context cancelled", err)
	}
	n.logger.WithFields(logrus.Fields{
		"epoch_id": batch.EpochID,
		"category": batch.Category,
		"count":    len(batch.Signals),
	}).Info("new signals")
	return nil
}

// WebhookNotifier posts batches as JSON to a configured webhook URL.
type WebhookNotifier struct {
	client *http.Client
	url    string
}

var _ Notifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier builds a WebhookNotifier against url. A nil httpClient
// gets a default one with a 10s timeout.
func NewWebhookNotifier(url string, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{client: httpClient, url: url}
}

type webhookPayload struct {
	EpochID  string          `json:"epoch_id"`
	Category string          `json:"category"`
	Signals  []webhookSignal `json:"signals"`
}

type webhookSignal struct {
	ID           string  `json:"id"`
	Instrument   string  `json:"instrument"`
	Side         string  `json:"side"`
	StrategyName string  `json:"strategy_name"`
	Confidence   float64 `json:"confidence"`
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, batch Batch) error {
	payload := webhookPayload{
		EpochID:  batch.EpochID,
		Category: string(batch.Category),
	}
	for _, sig := range batch.Signals {
		payload.Signals = append(payload.Signals, webhookSignal{
			ID:           sig.ID,
			Instrument:   sig.Instrument,
			Side:         string(sig.Side),
			StrategyName: sig.StrategyName,
			Confidence:   sig.Confidence,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return scanerr.Wrap(scanerr.KindValidation, "notify: marshal payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return scanerr.Wrap(scanerr.KindFatal, "notify: build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return scanerr.Wrap(scanerr.KindTimeout, "notify: deadline exceeded", ctx.Err())
		}
		return scanerr.Wrap(scanerr.KindTransient, "notify: webhook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return scanerr.New(scanerr.KindTransient, fmt.Sprintf("notify: webhook returned status %d", resp.StatusCode))
	}
	return nil
}
