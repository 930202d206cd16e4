package strategy

import (
	"testing"

	"github.com/kstrading/scand/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverboughtRejection_FiresOnRejection(t *testing.T) {
	t.Parallel()
	n := 11
	closes := repeatWithTail(n, 100, 102)
	highs := repeatWithTail(n, 110, 110)
	lows := repeatWithTail(n, 95, 95)
	vols := repeatIntWithTail(n, 1000, 1600)
	series := barSeries(n, closes, highs, lows, vols)

	ind := frameWith(map[string][]float64{
		"rsi":        repeatWithTail(n, 0, 80),
		"bb_upper":   repeatWithTail(n, 0, 105),
		"volume_avg": repeatWithTail(n, 0, 1000),
	})

	s := OverboughtRejection()
	candidates := s.Evaluate(series, ind)
	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, models.Sell, c.Side)
	assert.NoError(t, c.Validate())
}

func TestOverboughtRejection_NotOverboughtStaysQuiet(t *testing.T) {
	t.Parallel()
	n := 11
	closes := repeatWithTail(n, 100, 102)
	highs := repeatWithTail(n, 110, 110)
	lows := repeatWithTail(n, 95, 95)
	vols := repeatIntWithTail(n, 1000, 1600)
	series := barSeries(n, closes, highs, lows, vols)

	ind := frameWith(map[string][]float64{
		"rsi":        repeatWithTail(n, 0, 60),
		"bb_upper":   repeatWithTail(n, 0, 105),
		"volume_avg": repeatWithTail(n, 0, 1000),
	})

	s := OverboughtRejection()
	assert.Empty(t, s.Evaluate(series, ind))
}
