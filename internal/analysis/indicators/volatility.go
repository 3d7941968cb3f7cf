package indicators

import "math"

// Default volatility indicator parameters.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
	DefaultATRPeriod       = 14

	// squeezeThreshold flags a volatility contraction when band width
	// relative to the middle band falls below it.
	squeezeThreshold = 0.04
)

// BollingerResult holds the bands and the squeeze flag.
type BollingerResult struct {
	Upper   float64
	Middle  float64
	Lower   float64
	Squeeze bool
}

// BollingerBands returns SMA ± k standard deviations over the trailing
// window. Input shorter than the period degrades to the available window.
// The squeeze flag marks bandwidth/mean below a fixed threshold.
func BollingerBands(closes []float64, period int, k float64) BollingerResult {
	if len(closes) == 0 || period <= 0 {
		return BollingerResult{}
	}

	window := closes
	if len(closes) > period {
		window = closes[len(closes)-period:]
	}

	middle := mean(window)
	dev := stdDev(window)
	result := BollingerResult{
		Upper:  middle + k*dev,
		Middle: middle,
		Lower:  middle - k*dev,
	}
	if middle != 0 {
		bandwidth := (result.Upper - result.Lower) / middle
		result.Squeeze = bandwidth < squeezeThreshold
	}
	return result
}

// ATR returns the latest Wilder-smoothed average true range. Insufficient
// data yields 0; downstream sizing treats a zero ATR as no volatility
// information.
func ATR(highs, lows, closes []float64, period int) float64 {
	series := ATRSeries(highs, lows, closes, period)
	if series == nil {
		return 0
	}
	return series[len(series)-1]
}

// ATRSeries returns the ATR at every index from period onward, or nil
// when the input has fewer than period+1 candles.
func ATRSeries(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return nil
	}

	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		highLow := highs[i] - lows[i]
		highClose := math.Abs(highs[i] - closes[i-1])
		lowClose := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	result := make([]float64, n)
	result[period] = mean(tr[1 : period+1])
	for i := period + 1; i < n; i++ {
		result[i] = (result[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	for i := 0; i < period; i++ {
		result[i] = result[period]
	}
	return result
}

// RelativeATR returns the latest ATR divided by its own mean over the
// trailing lookback window. Values above 1 indicate elevated volatility.
// Returns 1 (neutral) under insufficient data.
func RelativeATR(highs, lows, closes []float64, period, lookback int) float64 {
	series := ATRSeries(highs, lows, closes, period)
	if series == nil || lookback <= 0 {
		return 1
	}
	n := len(series)
	start := n - lookback
	if start < period {
		start = period
	}
	avg := mean(series[start:])
	if avg == 0 {
		return 1
	}
	return series[n-1] / avg
}
