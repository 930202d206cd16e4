package strategy

import (
	"testing"

	"github.com/kstrading/scand/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakout_FiresAboveRange(t *testing.T) {
	t.Parallel()
	n := 6
	closes := []float64{100, 100, 100, 100, 100, 110}
	highs := []float64{100, 100, 100, 100, 100, 111}
	lows := []float64{99, 99, 99, 99, 99, 105}
	vols := []int64{1000, 1000, 1000, 1000, 1000, 1600}
	series := barSeries(n, closes, highs, lows, vols)

	ind := frameWith(map[string][]float64{
		"rsi":        {0, 0, 0, 0, 0, 60},
		"volume_avg": {0, 0, 0, 0, 0, 1000},
	})

	s := Breakout()
	candidates := s.Evaluate(series, ind)
	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, models.Buy, c.Side)
	assert.NoError(t, c.Validate())
}

func TestBreakout_NoBreakStaysQuiet(t *testing.T) {
	t.Parallel()
	n := 6
	closes := []float64{100, 100, 100, 100, 100, 99}
	highs := []float64{100, 100, 100, 100, 100, 100}
	lows := []float64{99, 99, 99, 99, 99, 98}
	vols := []int64{1000, 1000, 1000, 1000, 1000, 1600}
	series := barSeries(n, closes, highs, lows, vols)

	ind := frameWith(map[string][]float64{
		"rsi":        {0, 0, 0, 0, 0, 60},
		"volume_avg": {0, 0, 0, 0, 0, 1000},
	})

	s := Breakout()
	assert.Empty(t, s.Evaluate(series, ind))
}

func TestBreakout_RSIOutOfBandSuppressesSignal(t *testing.T) {
	t.Parallel()
	n := 6
	closes := []float64{100, 100, 100, 100, 100, 110}
	highs := []float64{100, 100, 100, 100, 100, 111}
	lows := []float64{99, 99, 99, 99, 99, 105}
	vols := []int64{1000, 1000, 1000, 1000, 1000, 1600}
	series := barSeries(n, closes, highs, lows, vols)

	ind := frameWith(map[string][]float64{
		"rsi":        {0, 0, 0, 0, 0, 90}, // overbought, out of [55,75]
		"volume_avg": {0, 0, 0, 0, 0, 1000},
	})

	s := Breakout()
	assert.Empty(t, s.Evaluate(series, ind))
}
