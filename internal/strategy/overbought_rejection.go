package strategy

import (
	"github.com/kstrading/scand/internal/models"
	"github.com/shopspring/decimal"
)

// OverboughtRejectionIndicators are the indicator series this strategy
// requires: RSI(14), Bollinger(20,2), VolumeAverage(20).
var OverboughtRejectionIndicators = []string{"rsi", "bb_upper", "volume_avg"}

const overboughtSwingLookback = 10

// OverboughtRejection is the built-in SHORT_SELLING strategy: sell
// when RSI signals overbought but price has failed to hold above the
// Bollinger upper band, confirmed by volume.
func OverboughtRejection() Strategy {
	return NewStrategyFunc("overbought_rejection", models.ShortSelling, overboughtSwingLookback+1, evaluateOverboughtRejection)
}

func evaluateOverboughtRejection(series models.BarSeries, ind *models.IndicatorFrame) []models.Candidate {
	n := series.Len()
	if n < overboughtSwingLookback+1 {
		return nil
	}
	last := n - 1

	rsi := ind.At("rsi", last)
	if models.IsUndefined(rsi) || rsi <= 75 {
		return nil
	}

	bbUpper := ind.At("bb_upper", last)
	lastClose := series.Bars[last].Close
	if models.IsUndefined(bbUpper) {
		return nil
	}
	upper := decimal.NewFromFloat(bbUpper)
	if !lastClose.LessThan(upper) {
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

	swingHigh := series.Bars[last-overboughtSwingLookback].High
	for i := last - overboughtSwingLookback; i <= last; i++ {
		if series.Bars[i].High.GreaterThan(swingHigh) {
			swingHigh = series.Bars[i].High
		}
	}

	entry := lastClose
	stop := swingHigh
	if !stop.GreaterThan(entry) {
		return nil
	}
	risk := stop.Sub(entry)
	target := entry.Sub(risk.Mul(decimal.NewFromInt(2)))
	if target.Sign() < 0 {
		return nil
	}

	return []models.Candidate{{
		Instrument:   series.Instrument,
		Side:         models.Sell,
		Entry:        entry,
		Stop:         stop,
		Target:       target,
		Confidence:   overboughtConfidence(rsi, volume, volAvg),
		StrategyName: "overbought_rejection",
		Category:     models.ShortSelling,
		ProducedAt:   series.Bars[last].Timestamp,
	}}
}

func overboughtConfidence(rsi, volume, volAvg float64) float64 {
	rsiScore := (rsi - 75) / 25
	if rsiScore > 1 {
		rsiScore = 1
	}
	volScore := (volume/volAvg - 1.5) / 1.5
	conf := 0.55 + 0.2*rsiScore + 0.15*volScore
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.5 {
		conf = 0.5
	}
	return conf
}
