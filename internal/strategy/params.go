package strategy

import (
	"github.com/kstrading/scand/internal/indicators"
	"github.com/kstrading/scand/internal/models"
)

// RequiredIndicatorParams returns the indicator windows the registered
// strategies in category need. The scanner computes one
// IndicatorFrame per (instrument, interval) task and must ask for the union
// of every category sharing that task's interval, so this stays a lookup
// table rather than a field on Strategy: several categories can share one
// interval (DAY_TRADING and SHORT_TERM both run on Interval15Min) without
// forcing every strategy implementation to expose its own Params.
func RequiredIndicatorParams(category models.StrategyCategory) indicators.Params {
	switch category {
	case models.DayTrading:
		return indicators.Params{
			EMAPeriods:   []int{9, 21},
			RSIPeriod:    14,
			ATRPeriod:    14,
			VolumePeriod: 20,
		}
	case models.ShortSelling:
		return indicators.Params{
			RSIPeriod:       14,
			BollingerPeriod: 20,
			BollingerK:      2,
			VolumePeriod:    20,
		}
	case models.ShortTerm:
		return indicators.Params{
			EMAPeriods: []int{9, 21},
			RSIPeriod:  14,
		}
	case models.LongTerm:
		return indicators.Params{
			SMAPeriod:  50,
			MACDFast:   12,
			MACDSlow:   26,
			MACDSignal: 9,
		}
	default:
		return indicators.Params{}
	}
}

// MergeParams unions several Params into one, so a single (instrument,
// interval) task spanning multiple categories computes every indicator
// series any of its strategies need in one Compute call. Numeric periods
// take the max of any non-zero values seen; EMAPeriods is deduplicated.
func MergeParams(all []indicators.Params) indicators.Params {
	var out indicators.Params
	emaSeen := make(map[int]bool)

	for _, p := range all {
		out.SMAPeriod = maxPositive(out.SMAPeriod, p.SMAPeriod)
		out.RSIPeriod = maxPositive(out.RSIPeriod, p.RSIPeriod)
		out.MACDFast = maxPositive(out.MACDFast, p.MACDFast)
		out.MACDSlow = maxPositive(out.MACDSlow, p.MACDSlow)
		out.MACDSignal = maxPositive(out.MACDSignal, p.MACDSignal)
		out.BollingerPeriod = maxPositive(out.BollingerPeriod, p.BollingerPeriod)
		if p.BollingerK > out.BollingerK {
			out.BollingerK = p.BollingerK
		}
		out.ATRPeriod = maxPositive(out.ATRPeriod, p.ATRPeriod)
		out.VolumePeriod = maxPositive(out.VolumePeriod, p.VolumePeriod)
		for _, period := range p.EMAPeriods {
			if period > 0 && !emaSeen[period] {
				emaSeen[period] = true
				out.EMAPeriods = append(out.EMAPeriods, period)
			}
		}
	}
	return out
}

func maxPositive(a, b int) int {
	if b > a {
		return b
	}
	return a
}
