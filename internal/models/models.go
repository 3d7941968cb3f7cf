// Package models provides domain models for the trading engine.
package models

import (
	"time"
)

// Interval represents a candle interval.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// PeriodsPerYear returns the number of intervals in a trading year,
// used to annualize per-step return statistics. Crypto trades 24/7.
func (i Interval) PeriodsPerYear() float64 {
	switch i {
	case Interval1m:
		return 365 * 24 * 60
	case Interval5m:
		return 365 * 24 * 12
	case Interval15m:
		return 365 * 24 * 4
	case Interval1h:
		return 365 * 24
	case Interval4h:
		return 365 * 6
	default:
		return 365
	}
}

// Duration returns the wall-clock length of one interval.
func (i Interval) Duration() time.Duration {
	switch i {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Candle represents OHLCV data for one interval. Immutable once produced
// by the market-data provider.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// PriceSeries is an ordered sequence of candles for one symbol, ascending
// by timestamp. Irregular spacing is tolerated, gaps are not enforced.
type PriceSeries struct {
	Symbol   string
	Interval Interval
	Candles  []Candle
}

// Last returns the most recent candle and true, or a zero candle and false
// when the series is empty.
func (s *PriceSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Append adds a candle to the series. Live paper trading appends as new
// candles arrive; backtests operate on a fixed series.
func (s *PriceSeries) Append(c Candle) {
	s.Candles = append(s.Candles, c)
}

// Closes extracts the close prices of the series.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}
