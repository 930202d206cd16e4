package strategy

import (
	"github.com/kstrading/scand/internal/models"
	"github.com/shopspring/decimal"
)

// BreakoutIndicators are the indicator series Breakout requires: RSI(14),
// VolumeAverage(20).
var BreakoutIndicators = []string{"rsi", "volume_avg"}

const breakoutLookback = 5

// Breakout is a built-in DAY_TRADING strategy: buy when the last
// close breaks above the high of the prior lookback window, confirmed by
// RSI momentum and volume.
func Breakout() Strategy {
	return NewStrategyFunc("breakout", models.DayTrading, breakoutLookback+1, evaluateBreakout)
}

func evaluateBreakout(series models.BarSeries, ind *models.IndicatorFrame) []models.Candidate {
	n := series.Len()
	if n < breakoutLookback+1 {
		return nil
	}
	last := n - 1
	lastClose := series.Bars[last].Close

	priorHigh := series.Bars[last-breakoutLookback].High
	for i := last - breakoutLookback; i < last; i++ {
		if series.Bars[i].High.GreaterThan(priorHigh) {
			priorHigh = series.Bars[i].High
		}
	}
	if !lastClose.GreaterThan(priorHigh) {
		return nil
	}

	rsi := ind.At("rsi", last)
	if models.IsUndefined(rsi) || rsi < 55 || rsi > 75 {
		return nil
	}

	volAvg := ind.At("volume_avg", last)
	if models.IsUndefined(volAvg) || volAvg <= 0 {
		return nil
	}
	volume := float64(series.Bars[last].Volume)
	if volume < 1.5*volAvg {
		return nil
	}

	entry := lastClose
	stop := priorHigh
	if !stop.LessThan(entry) {
		// Breakout level sits at or above entry; no room for a stop below.
		return nil
	}
	risk := entry.Sub(stop)
	target := entry.Add(risk.Mul(decimal.NewFromInt(2)))

	return []models.Candidate{{
		Instrument:   series.Instrument,
		Side:         models.Buy,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		Confidence:   breakoutConfidence(rsi, volume, volAvg),
		StrategyName: "breakout",
		Category:     models.DayTrading,
		ProducedAt:   series.Bars[last].Timestamp,
	}}
}

func breakoutConfidence(rsi, volume, volAvg float64) float64 {
	rsiScore := (rsi - 55) / 20 // 0 at rsi=55, 1 at rsi=75
	volScore := (volume/volAvg - 1.5) / 1.5
	conf := 0.55 + 0.2*rsiScore + 0.2*volScore
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}
