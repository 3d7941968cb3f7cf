package indicators

import "crypto-trader/internal/models"

// Snapshot holds the per-candle indicator values derived from a price
// series. Recomputed on demand, never persisted as source of truth.
type Snapshot struct {
	RSI        float64
	MACD       MACDResult
	Bollinger  BollingerResult
	Stochastic StochasticResult
	ATR        float64
	// RelativeATR is the ATR against its own trailing average; the
	// ensemble lowers confidence as it rises above 1.
	RelativeATR float64
	Close       float64
}

// ComputeSnapshot derives the latest indicator snapshot from a series
// using default parameters. Insufficient data degrades individual fields
// to their sentinels; the snapshot itself is always produced.
func ComputeSnapshot(series *models.PriceSeries) Snapshot {
	n := len(series.Candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range series.Candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	snap := Snapshot{
		RSI:         RSI(closes, DefaultRSIPeriod),
		MACD:        MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal),
		Bollinger:   BollingerBands(closes, DefaultBollingerPeriod, DefaultBollingerK),
		Stochastic:  Stochastic(highs, lows, closes, DefaultStochKPeriod, DefaultStochDPeriod),
		ATR:         ATR(highs, lows, closes, DefaultATRPeriod),
		RelativeATR: RelativeATR(highs, lows, closes, DefaultATRPeriod, 3*DefaultATRPeriod),
	}
	if n > 0 {
		snap.Close = closes[n-1]
	}
	return snap
}
