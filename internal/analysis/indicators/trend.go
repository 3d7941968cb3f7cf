package indicators

// Default trend indicator periods.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// SMA returns the simple moving average of the trailing period. When the
// input is shorter than the period it averages the available window
// instead of failing (documented lossy fallback).
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 || period <= 0 {
		return 0
	}
	if len(prices) < period {
		return mean(prices)
	}
	return mean(prices[len(prices)-period:])
}

// SMASeries returns the SMA at every index. Values before a full window
// average the available prefix.
func SMASeries(prices []float64, period int) []float64 {
	result := make([]float64, len(prices))
	for i := range prices {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		result[i] = mean(prices[start : i+1])
	}
	return result
}

// EMA returns the exponential moving average of the series. When the
// input is shorter than the period it degrades to an SMA over the
// available window.
func EMA(prices []float64, period int) float64 {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// EMASeries returns the EMA at every index, seeded with an SMA over the
// first full window. Indexes before the seed carry the prefix SMA
// (the same lossy fallback as EMA).
func EMASeries(prices []float64, period int) []float64 {
	n := len(prices)
	result := make([]float64, n)
	if n == 0 || period <= 0 {
		return result
	}
	if n < period {
		return SMASeries(prices, period)
	}

	for i := 0; i < period-1; i++ {
		result[i] = mean(prices[:i+1])
	}
	result[period-1] = mean(prices[:period])

	multiplier := 2.0 / float64(period+1)
	for i := period; i < n; i++ {
		result[i] = (prices[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// MACDResult holds the MACD line, signal line and histogram at one index.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACD returns the latest MACD values: fast EMA minus slow EMA, with the
// signal line computed as the EMA of the MACD series itself.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	line, signalLine, histogram := MACDSeries(closes, fast, slow, signal)
	n := len(closes)
	if n == 0 {
		return MACDResult{}
	}
	return MACDResult{
		Line:      line[n-1],
		Signal:    signalLine[n-1],
		Histogram: histogram[n-1],
	}
}

// MACDSeries returns the full MACD line, signal line and histogram
// series. The signal line is the EMA of the MACD line series, never a
// copy of the MACD value.
func MACDSeries(closes []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	n := len(closes)
	line = make([]float64, n)
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	for i := 0; i < n; i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine = EMASeries(line, signal)

	histogram = make([]float64, n)
	for i := 0; i < n; i++ {
		histogram[i] = line[i] - signalLine[i]
	}
	return line, signalLine, histogram
}
