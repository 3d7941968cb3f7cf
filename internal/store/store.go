// Package store provides data persistence implementations.
package store

import (
	"crypto-trader/internal/models"
)

// DataStore persists the plain records the trading core emits: signals,
// closed trades, equity points and cached candles. The core never holds
// a database handle; everything crosses this boundary as values.
type DataStore interface {
	SaveSignal(signal *models.Signal) error
	Signals(symbol string, limit int) ([]models.Signal, error)

	SaveTrade(trade models.Trade) error
	Trades(limit int) ([]models.Trade, error)

	SaveEquityPoint(point models.EquityPoint) error
	EquityCurve(limit int) ([]models.EquityPoint, error)

	// SaveCandles upserts a series into the candle cache.
	SaveCandles(series *models.PriceSeries) error
	// Candles returns up to limit cached candles, oldest first.
	Candles(symbol string, interval models.Interval, limit int) (*models.PriceSeries, error)

	Close() error
}
