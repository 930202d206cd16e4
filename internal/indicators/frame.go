package indicators

import (
	"strconv"

	"github.com/kstrading/scand/internal/models"
)

// Params configures which indicator windows a Compute call produces.
// Zero values for a period mean "skip that indicator" so strategies only
// pay for what they declared as required.
type Params struct {
	SMAPeriod       int
	EMAPeriods      []int
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerK      float64
	ATRPeriod       int
	VolumePeriod    int
}

// Compute builds an IndicatorFrame for series according to p. Series whose
// period is zero (or, for EMA, absent from EMAPeriods) are omitted from the
// frame entirely rather than computed and discarded.
func Compute(series models.BarSeries, p Params) *models.IndicatorFrame {
	frame := models.NewIndicatorFrame()

	closes := closesOf(series)

	if p.SMAPeriod > 0 {
		frame.Set("sma", SMA(closes, p.SMAPeriod))
	}
	for _, period := range p.EMAPeriods {
		if period > 0 {
			frame.Set(emaKey(period), EMA(closes, period))
		}
	}
	if p.RSIPeriod > 0 {
		frame.Set("rsi", RSI(closes, p.RSIPeriod))
	}
	if p.MACDFast > 0 && p.MACDSlow > 0 && p.MACDSignal > 0 {
		m := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
		frame.Set("macd", m.MACD)
		frame.Set("macd_signal", m.Signal)
		frame.Set("macd_histogram", m.Histogram)
	}
	if p.BollingerPeriod > 0 {
		b := Bollinger(closes, p.BollingerPeriod, p.BollingerK)
		frame.Set("bb_upper", b.Upper)
		frame.Set("bb_middle", b.Middle)
		frame.Set("bb_lower", b.Lower)
	}
	if p.ATRPeriod > 0 {
		highs, lows := highsLowsOf(series)
		frame.Set("atr", ATR(highs, lows, closes, p.ATRPeriod))
	}
	if p.VolumePeriod > 0 {
		frame.Set("volume_avg", VolumeAverage(volumesOf(series), p.VolumePeriod))
	}

	return frame
}

// emaKey names an EMA series by its period, e.g. "ema_20".
func emaKey(period int) string {
	return "ema_" + strconv.Itoa(period)
}

func closesOf(series models.BarSeries) []float64 {
	out := make([]float64, len(series.Bars))
	for i, b := range series.Bars {
		out[i], _ = b.Close.Float64()
	}
	return out
}

func highsLowsOf(series models.BarSeries) (highs, lows []float64) {
	highs = make([]float64, len(series.Bars))
	lows = make([]float64, len(series.Bars))
	for i, b := range series.Bars {
		highs[i], _ = b.High.Float64()
		lows[i], _ = b.Low.Float64()
	}
	return highs, lows
}

func volumesOf(series models.BarSeries) []int64 {
	out := make([]int64, len(series.Bars))
	for i, b := range series.Bars {
		out[i] = b.Volume
	}
	return out
}
