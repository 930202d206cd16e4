package indicators

import (
	"testing"
	"time"

	"github.com/kstrading/scand/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries(t *testing.T, n int) models.BarSeries {
	t.Helper()
	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := decimal.NewFromFloat(100 + float64(i))
		bars[i] = models.Bar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price,
			Volume:    int64(1000 + i),
		}
	}
	series := models.BarSeries{
		Instrument: "NSE:TEST",
		Interval:   models.Interval15Min,
		From:       bars[0].Timestamp,
		To:         bars[n-1].Timestamp.Add(time.Minute),
		Bars:       bars,
	}
	require.NoError(t, series.Validate(series.To.Add(time.Hour)))
	return series
}

func TestCompute_OnlyRequestedSeriesPresent(t *testing.T) {
	t.Parallel()
	series := sampleSeries(t, 30)

	frame := Compute(series, Params{SMAPeriod: 5, RSIPeriod: 14})

	_, ok := frame.Series["sma"]
	assert.True(t, ok)
	_, ok = frame.Series["rsi"]
	assert.True(t, ok)
	_, ok = frame.Series["macd"]
	assert.False(t, ok)
	_, ok = frame.Series["atr"]
	assert.False(t, ok)
}

func TestCompute_FullParams(t *testing.T) {
	t.Parallel()
	series := sampleSeries(t, 60)

	frame := Compute(series, Params{
		SMAPeriod:       10,
		EMAPeriods:      []int{9, 21},
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerK:      2,
		ATRPeriod:       14,
		VolumePeriod:    10,
	})

	for _, key := range []string{"sma", "ema_9", "ema_21", "rsi", "macd", "macd_signal", "macd_histogram", "bb_upper", "bb_middle", "bb_lower", "atr", "volume_avg"} {
		vals, ok := frame.Series[key]
		assert.True(t, ok, "expected series %q", key)
		assert.Len(t, vals, 60)
	}
}
