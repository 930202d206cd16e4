package strategy

import (
	"github.com/kstrading/scand/internal/models"
	"github.com/shopspring/decimal"
)

// TrendFollowIndicators are the indicator series this strategy requires:
// SMA(50).
var TrendFollowIndicators = []string{"sma"}

const trendFollowReturnLookback = 30

// trendFollowEpsilon nudges the stop a hair below SMA(50) so the stop is
// never exactly at entry on a flat tape.
var trendFollowEpsilon = decimal.NewFromFloat(0.01)

// TrendFollow is the built-in LONG_TERM strategy: buy daily-bar
// names trading above their 50-bar average with at least a 10% trailing
// 30-bar return.
func TrendFollow() Strategy {
	return NewStrategyFunc("trend_follow", models.LongTerm, trendFollowReturnLookback+1, evaluateTrendFollow)
}

func evaluateTrendFollow(series models.BarSeries, ind *models.IndicatorFrame) []models.Candidate {
	n := series.Len()
	if n < trendFollowReturnLookback+1 {
		return nil
	}
	last := n - 1
	lastClose := series.Bars[last].Close

	sma := ind.At("sma", last)
	if models.IsUndefined(sma) {
		return nil
	}
	smaDec := decimal.NewFromFloat(sma)
	if !lastClose.GreaterThan(smaDec) {
		return nil
	}

	priorClose := series.Bars[last-trendFollowReturnLookback].Close
	if priorClose.Sign() <= 0 {
		return nil
	}
	ret, _ := lastClose.Sub(priorClose).Div(priorClose).Float64()
	if ret < 0.10 {
		return nil
	}

	entry := lastClose
	stop := smaDec.Sub(trendFollowEpsilon)
	if !stop.LessThan(entry) {
		return nil
	}
	target := entry.Mul(decimal.NewFromFloat(1.20))

	return []models.Candidate{{
		Instrument:   series.Instrument,
		Side:         models.Buy,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		Confidence:   trendFollowConfidence(ret),
		StrategyName: "trend_follow",
		Category:     models.LongTerm,
		ProducedAt:   series.Bars[last].Timestamp,
	}}
}

func trendFollowConfidence(ret float64) float64 {
	conf := 0.5 + (ret-0.10)*1.5
	if conf > 0.9 {
		conf = 0.9
	}
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}
