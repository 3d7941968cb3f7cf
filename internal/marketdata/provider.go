// Package marketdata fetches real OHLCV series from the exchange. The
// rest of the system never fabricates prices; everything flows through
// a Provider.
package marketdata

import (
	"context"

	"crypto-trader/internal/models"
)

// Provider is the narrow market data contract the engine consumes.
type Provider interface {
	// FetchSeries returns up to lookback closed candles for the symbol,
	// oldest first.
	FetchSeries(ctx context.Context, symbol string, interval models.Interval, lookback int) (*models.PriceSeries, error)
	// CurrentPrice returns the latest traded price.
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}
