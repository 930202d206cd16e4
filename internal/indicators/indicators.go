// Package indicators computes technical indicators over a BarSeries.
// Every function here is pure: same input always produces the same
// output, no I/O, no wall-clock or randomness. Outputs are full series
// the same length as the input, so every bar gets a value; leading bars
// before there is enough history are marked models.Undefined.
package indicators

import (
	"math"

	"github.com/kstrading/scand/internal/models"
)

// SMA returns the simple moving average of closes over period, one value
// per input bar. The first period-1 values are Undefined.
func SMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 {
		fillUndefined(out)
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i < period-1 {
			out[i] = models.Undefined
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA returns the exponential moving average of closes over period. The
// series is seeded with the SMA of the first `period` closes, then
// updated with the standard recurrence
// ema[i] = close[i]*k + ema[i-1]*(1-k). The first period-1 values are
// Undefined.
func EMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period {
		fillUndefined(out)
		return out
	}
	k := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += closes[i]
		out[i] = models.Undefined
	}
	prev := sum / float64(period)
	out[period-1] = prev

	for i := period; i < len(closes); i++ {
		prev = closes[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// RSI returns the Relative Strength Index over period using Wilder's
// smoothing of average gain/loss, one value per bar. The first period
// values are Undefined (a change needs two closes, so the indicator needs
// period changes to seed its first average).
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		fillUndefined(out)
		return out
	}
	for i := 0; i <= period; i++ {
		out[i] = models.Undefined
	}

	gain, loss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gain += change
		} else {
			loss += -change
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if change > 0 {
			g = change
		} else {
			l = -change
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDResult holds the three MACD series, each the same length as the input.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the MACD line (fastEMA-slowEMA), its signal line (EMA of the
// MACD line over signalPeriod), and the histogram (MACD-signal).
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	n := len(closes)
	res := MACDResult{MACD: make([]float64, n), Signal: make([]float64, n), Histogram: make([]float64, n)}

	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)

	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		if models.IsUndefined(fast[i]) || models.IsUndefined(slow[i]) {
			macdLine[i] = models.Undefined
		} else {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	signal := ema(macdLine, signalPeriod)

	for i := 0; i < n; i++ {
		res.MACD[i] = macdLine[i]
		res.Signal[i] = signal[i]
		if models.IsUndefined(macdLine[i]) || models.IsUndefined(signal[i]) {
			res.Histogram[i] = models.Undefined
		} else {
			res.Histogram[i] = macdLine[i] - signal[i]
		}
	}
	return res
}

// ema is EMA's internal twin, tolerant of a leading run of Undefined values
// in the input series (used to seed MACD's signal line off the MACD line,
// which itself starts Undefined until the slow EMA is defined).
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	fillUndefined(out)
	if period <= 0 {
		return out
	}

	start := -1
	for i, v := range values {
		if !models.IsUndefined(v) {
			start = i
			break
		}
	}
	if start == -1 || len(values)-start < period {
		return out
	}

	k := 2.0 / float64(period+1)
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	prev := sum / float64(period)
	out[start+period-1] = prev

	for i := start + period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// BollingerResult holds the three Bollinger Band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes the middle band (SMA), and upper/lower bands offset by
// k standard deviations of closes over the same window.
func Bollinger(closes []float64, period int, k float64) BollingerResult {
	n := len(closes)
	res := BollingerResult{Upper: make([]float64, n), Middle: make([]float64, n), Lower: make([]float64, n)}
	middle := SMA(closes, period)
	copy(res.Middle, middle)

	for i := 0; i < n; i++ {
		if models.IsUndefined(middle[i]) {
			res.Upper[i] = models.Undefined
			res.Lower[i] = models.Undefined
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - middle[i]
			variance += diff * diff
		}
		stddev := math.Sqrt(variance / float64(period))
		res.Upper[i] = middle[i] + k*stddev
		res.Lower[i] = middle[i] - k*stddev
	}
	return res
}

// ATR computes the Average True Range over period using Wilder's smoothing.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if period <= 0 || n < period+1 {
		fillUndefined(out)
		return out
	}
	for i := 0; i <= period; i++ {
		out[i] = models.Undefined
	}

	tr := func(i int) float64 {
		if i == 0 {
			return highs[0] - lows[0]
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		return math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr(i)
	}
	prev := sum / float64(period)
	out[period] = prev

	for i := period + 1; i < n; i++ {
		prev = (prev*float64(period-1) + tr(i)) / float64(period)
		out[i] = prev
	}
	return out
}

// VolumeAverage returns the simple moving average of volume over period.
func VolumeAverage(volumes []int64, period int) []float64 {
	closes := make([]float64, len(volumes))
	for i, v := range volumes {
		closes[i] = float64(v)
	}
	return SMA(closes, period)
}

// Gap returns the percentage gap between a session's open and the prior
// session's close: (open-prevClose)/prevClose. Returns Undefined when
// prevClose is zero (no prior session to gap from).
func Gap(prevClose, open float64) float64 {
	if prevClose == 0 {
		return models.Undefined
	}
	return (open - prevClose) / prevClose
}

func fillUndefined(out []float64) {
	for i := range out {
		out[i] = models.Undefined
	}
}
