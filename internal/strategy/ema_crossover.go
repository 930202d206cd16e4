package strategy

import (
	"github.com/kstrading/scand/internal/models"
	"github.com/shopspring/decimal"
)

// EMACrossoverIndicators are the indicator series EMACrossover requires:
// EMA(9), EMA(21), ATR(14), VolumeAverage(20).
var EMACrossoverIndicators = []string{"ema_9", "ema_21", "atr", "volume_avg"}

// EMACrossover is a built-in DAY_TRADING strategy: buy when the
// fast EMA crosses above the slow EMA on the last closed bar, confirmed by
// volume of at least 0.8x its average.
func EMACrossover() Strategy {
	return NewStrategyFunc("ema_crossover", models.DayTrading, 22, evaluateEMACrossover)
}

func evaluateEMACrossover(series models.BarSeries, ind *models.IndicatorFrame) []models.Candidate {
	n := series.Len()
	if n < 2 {
		return nil
	}
	last := n - 1

	fastNow, fastPrev := ind.At("ema_9", last), ind.At("ema_9", last-1)
	slowNow, slowPrev := ind.At("ema_21", last), ind.At("ema_21", last-1)
	if models.IsUndefined(fastNow) || models.IsUndefined(fastPrev) || models.IsUndefined(slowNow) || models.IsUndefined(slowPrev) {
		return nil
	}

	crossedUp := fastPrev <= slowPrev && fastNow > slowNow
	if !crossedUp {
		return nil
	}

	volAvg := ind.At("volume_avg", last)
	if models.IsUndefined(volAvg) || volAvg <= 0 {
		return nil
	}
	volume := float64(series.Bars[last].Volume)
	if volume < 0.8*volAvg {
		return nil
	}

	atr := ind.At("atr", last)
	if models.IsUndefined(atr) {
		return nil
	}

	entry := series.Bars[last].Close
	lastLow := series.Bars[last].Low
	stop := lastLow.Sub(decimal.NewFromFloat(0.5 * atr))
	risk := entry.Sub(stop)
	if risk.Sign() <= 0 {
		return nil
	}
	target := entry.Add(risk.Mul(decimal.NewFromInt(2)))

	return []models.Candidate{{
		Instrument:   series.Instrument,
		Side:         models.Buy,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		Confidence:   crossoverConfidence(volume, volAvg),
		StrategyName: "ema_crossover",
		Category:     models.DayTrading,
		ProducedAt:   series.Bars[last].Timestamp,
	}}
}

// crossoverConfidence scales confidence with how far volume exceeds 0.8x its
// average, capped at 0.95 so a single strategy never claims full certainty.
func crossoverConfidence(volume, volAvg float64) float64 {
	ratio := volume / volAvg
	conf := 0.5 + 0.15*(ratio-0.8)
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}
