package indicators

import (
	"testing"

	"github.com/kstrading/scand/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSMA_LeadingUndefined(t *testing.T) {
	t.Parallel()
	closes := []float64{1, 2, 3, 4, 5}
	out := SMA(closes, 3)

	assert.True(t, models.IsUndefined(out[0]))
	assert.True(t, models.IsUndefined(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9) // (1+2+3)/3
	assert.InDelta(t, 3.0, out[3], 1e-9) // (2+3+4)/3
	assert.InDelta(t, 4.0, out[4], 1e-9) // (3+4+5)/3
	assert.Len(t, out, len(closes))
}

func TestEMA_SeedsWithSMA(t *testing.T) {
	t.Parallel()
	closes := []float64{10, 11, 12, 13, 14, 15}
	out := EMA(closes, 3)

	assert.True(t, models.IsUndefined(out[0]))
	assert.True(t, models.IsUndefined(out[1]))
	assert.InDelta(t, 11.0, out[2], 1e-9) // SMA(10,11,12)
	assert.NotEqual(t, out[2], out[3])
}

func TestEMA_InsufficientHistory(t *testing.T) {
	t.Parallel()
	out := EMA([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, models.IsUndefined(v))
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	t.Parallel()
	closes := []float64{10, 11, 12, 13, 14, 15}
	out := RSI(closes, 4)
	assert.InDelta(t, 100.0, out[len(out)-1], 1e-9)
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	t.Parallel()
	closes := []float64{15, 14, 13, 12, 11, 10}
	out := RSI(closes, 4)
	assert.InDelta(t, 0.0, out[len(out)-1], 1e-9)
}

func TestMACD_HistogramIsDifference(t *testing.T) {
	t.Parallel()
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	res := MACD(closes, 12, 26, 9)
	last := len(closes) - 1
	assert.False(t, models.IsUndefined(res.Histogram[last]))
	assert.InDelta(t, res.MACD[last]-res.Signal[last], res.Histogram[last], 1e-9)
}

func TestBollinger_MiddleIsSMA(t *testing.T) {
	t.Parallel()
	closes := []float64{1, 2, 3, 4, 5, 6, 7}
	bb := Bollinger(closes, 3, 2)
	sma := SMA(closes, 3)
	for i := range closes {
		if models.IsUndefined(sma[i]) {
			assert.True(t, models.IsUndefined(bb.Middle[i]))
			continue
		}
		assert.InDelta(t, sma[i], bb.Middle[i], 1e-9)
		assert.True(t, bb.Upper[i] >= bb.Middle[i])
		assert.True(t, bb.Lower[i] <= bb.Middle[i])
	}
}

func TestATR_LeadingUndefined(t *testing.T) {
	t.Parallel()
	highs := []float64{10, 11, 12, 11, 13}
	lows := []float64{9, 9, 10, 9, 11}
	closes := []float64{9.5, 10.5, 11, 10, 12}

	out := ATR(highs, lows, closes, 3)
	assert.True(t, models.IsUndefined(out[0]))
	assert.True(t, models.IsUndefined(out[1]))
	assert.True(t, models.IsUndefined(out[2]))
	assert.False(t, models.IsUndefined(out[3]))
}

func TestGap_NoPriorClose(t *testing.T) {
	t.Parallel()
	assert.True(t, models.IsUndefined(Gap(0, 100)))
}

func TestGap_PercentageMove(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.05, Gap(100, 105), 1e-9)
	assert.InDelta(t, -0.1, Gap(100, 90), 1e-9)
}

func TestVolumeAverage(t *testing.T) {
	t.Parallel()
	vols := []int64{100, 200, 300, 400}
	out := VolumeAverage(vols, 2)
	assert.True(t, models.IsUndefined(out[0]))
	assert.InDelta(t, 150.0, out[1], 1e-9)
	assert.InDelta(t, 250.0, out[2], 1e-9)
	assert.InDelta(t, 350.0, out[3], 1e-9)
}

func TestIndicators_Deterministic(t *testing.T) {
	t.Parallel()
	closes := []float64{100, 101, 99, 102, 105, 103, 107, 110, 108, 112}

	a := RSI(closes, 5)
	b := RSI(closes, 5)
	assert.InDeltaSlice(t, a, b, 0)

	c := EMA(closes, 5)
	d := EMA(closes, 5)
	assert.InDeltaSlice(t, c, d, 0)
}
