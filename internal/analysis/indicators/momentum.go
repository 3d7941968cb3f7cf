package indicators

// Default momentum indicator periods.
const (
	DefaultRSIPeriod    = 14
	DefaultStochKPeriod = 14
	DefaultStochDPeriod = 3

	// NeutralRSI is the advisory sentinel returned when the series is too
	// short for a full RSI window.
	NeutralRSI = 50.0
)

// RSI returns the latest Relative Strength Index using Wilder's
// smoothing. Requires at least period+1 closes; shorter input yields the
// neutral sentinel 50. When the average loss over the window is exactly
// zero the RSI is 100, not a division fault.
func RSI(closes []float64, period int) float64 {
	series := RSISeries(closes, period)
	if series == nil {
		return NeutralRSI
	}
	return series[len(series)-1]
}

// RSISeries returns the RSI at every index from period onward, or nil
// when the input is shorter than period+1. Indexes before the first full
// window carry the neutral sentinel.
func RSISeries(closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || n < period+1 {
		return nil
	}

	result := make([]float64, n)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := 0; i < period; i++ {
		result[i] = NeutralRSI
	}

	avgGain := mean(gains[1 : period+1])
	avgLoss := mean(losses[1 : period+1])
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}
	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// StochasticResult holds the %K and %D values of the oscillator.
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic returns the latest %K from the high/low range of the
// trailing kPeriod and %D as the SMA of %K over dPeriod. Insufficient
// data yields the neutral 50/50 sentinel.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) StochasticResult {
	kSeries := stochasticK(highs, lows, closes, kPeriod)
	if kSeries == nil {
		return StochasticResult{K: 50, D: 50}
	}

	n := len(kSeries)
	k := kSeries[n-1]
	dStart := n - dPeriod
	if dStart < kPeriod-1 {
		dStart = kPeriod - 1
	}
	d := mean(kSeries[dStart:])
	return StochasticResult{K: k, D: d}
}

// stochasticK returns the raw %K series, or nil when the input is shorter
// than kPeriod. Indexes before the first full window carry 50.
func stochasticK(highs, lows, closes []float64, kPeriod int) []float64 {
	n := len(closes)
	if kPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return nil
	}

	result := make([]float64, n)
	for i := 0; i < kPeriod-1; i++ {
		result[i] = 50
	}
	for i := kPeriod - 1; i < n; i++ {
		hh := highest(highs[i-kPeriod+1 : i+1])
		ll := lowest(lows[i-kPeriod+1 : i+1])
		if hh == ll {
			result[i] = 50
		} else {
			result[i] = clamp(100*(closes[i]-ll)/(hh-ll), 0, 100)
		}
	}
	return result
}
