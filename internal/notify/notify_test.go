package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstrading/scand/internal/models"
)

func TestLogNotifier_NeverErrorsOnValidContext(t *testing.T) {
	n := NewLogNotifier(nil)
	err := n.Notify(context.Background(), Batch{
		EpochID:  "epoch-1",
		Category: models.DayTrading,
		Signals:  []models.Signal{{ID: "sig-1", Instrument: "RELIANCE"}},
	})
	require.NoError(t, err)
}

func TestLogNotifier_PropagatesCancellation(t *testing.T) {
	n := NewLogNotifier(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.Notify(ctx, Batch{EpochID: "epoch-1", Category: models.DayTrading})
	require.Error(t, err)
}

func TestWebhookNotifier_PostsJSONPayload(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, server.Client())
	err := n.Notify(context.Background(), Batch{
		EpochID:  "epoch-2",
		Category: models.ShortSelling,
		Signals:  []models.Signal{{ID: "sig-2", Instrument: "TCS", Side: models.Sell, StrategyName: "overbought_rejection", Confidence: 0.8}},
	})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "TCS")
	assert.Contains(t, gotBody, "epoch-2")
}

func TestWebhookNotifier_NonSuccessStatusIsTransientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, server.Client())
	err := n.Notify(context.Background(), Batch{EpochID: "epoch-3", Category: models.LongTerm})
	require.Error(t, err)
}
