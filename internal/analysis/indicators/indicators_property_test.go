package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// closesGen generates a slice of positive close prices.
func closesGen(minLen, maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, gen.Float64Range(1.0, 1000.0)).Map(func(closes []float64) []float64 {
		if len(closes) < minLen {
			for len(closes) < minLen {
				closes = append(closes, 100.0)
			}
		}
		return closes
	})
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			values := RSISeries(closes, DefaultRSIPeriod)
			for _, v := range values {
				if v < 0 || v > 100 || math.IsNaN(v) {
					return false
				}
			}
			last := RSI(closes, DefaultRSIPeriod)
			return last >= 0 && last <= 100 && !math.IsNaN(last)
		},
		closesGen(2, 120),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIHundredOnPureGains(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("RSI is 100 when average loss is zero", prop.ForAll(
		func(start, step float64) bool {
			closes := make([]float64, DefaultRSIPeriod+10)
			for i := range closes {
				closes[i] = start + float64(i)*step
			}
			return RSI(closes, DefaultRSIPeriod) == 100
		},
		gen.Float64Range(1.0, 500.0),
		gen.Float64Range(0.1, 5.0),
	))

	properties.TestingRun(t)
}

func TestProperty_MACDSignalLineIsEMAOfMACD(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	// The signal line must be the EMA of the MACD line, never a scaled
	// copy of the MACD value itself.
	properties.Property("MACD signal line equals EMA(signal) of the MACD line", prop.ForAll(
		func(closes []float64) bool {
			line, signalLine, histogram := MACDSeries(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
			if line == nil {
				return true
			}
			expected := EMASeries(line, DefaultMACDSignal)
			if len(expected) != len(signalLine) {
				return false
			}
			for i := range signalLine {
				if math.Abs(signalLine[i]-expected[i]) > 1e-9 {
					return false
				}
				if math.Abs(histogram[i]-(line[i]-signalLine[i])) > 1e-9 {
					return false
				}
			}
			return true
		},
		closesGen(DefaultMACDSlow+DefaultMACDSignal, 150),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerBandOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Bollinger upper >= middle >= lower", prop.ForAll(
		func(closes []float64) bool {
			b := BollingerBands(closes, DefaultBollingerPeriod, DefaultBollingerK)
			return b.Upper >= b.Middle && b.Middle >= b.Lower
		},
		closesGen(2, 120),
	))

	properties.TestingRun(t)
}

func TestProperty_StochasticWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Stochastic %K and %D are within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			highs := make([]float64, len(closes))
			lows := make([]float64, len(closes))
			for i, c := range closes {
				highs[i] = c * 1.02
				lows[i] = c * 0.98
			}
			s := Stochastic(highs, lows, closes, DefaultStochKPeriod, DefaultStochDPeriod)
			return s.K >= 0 && s.K <= 100 && s.D >= 0 && s.D <= 100
		},
		closesGen(2, 120),
	))

	properties.TestingRun(t)
}
