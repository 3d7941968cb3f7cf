package marketdata

import (
	"context"

	"github.com/rs/zerolog"

	"crypto-trader/internal/models"
	"crypto-trader/internal/store"
)

// CachedProvider wraps a Provider with the candle cache. Fresh fetches
// are written through to the store; when the exchange is unreachable it
// serves the cached history so backtests keep working offline.
type CachedProvider struct {
	upstream Provider
	cache    store.DataStore
	log      zerolog.Logger
}

// NewCachedProvider wraps upstream with the cache.
func NewCachedProvider(upstream Provider, cache store.DataStore, logger zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		cache:    cache,
		log:      logger.With().Str("component", "marketdata").Logger(),
	}
}

// FetchSeries implements Provider.
func (p *CachedProvider) FetchSeries(ctx context.Context, symbol string, interval models.Interval, lookback int) (*models.PriceSeries, error) {
	series, err := p.upstream.FetchSeries(ctx, symbol, interval, lookback)
	if err != nil {
		cached, cacheErr := p.cache.Candles(symbol, interval, lookback)
		if cacheErr != nil || len(cached.Candles) == 0 {
			return nil, err
		}
		p.log.Warn().Err(err).Str("symbol", symbol).
			Int("candles", len(cached.Candles)).
			Msg("exchange unavailable, serving cached candles")
		return cached, nil
	}

	if err := p.cache.SaveCandles(series); err != nil {
		p.log.Error().Err(err).Str("symbol", symbol).Msg("caching candles")
	}
	return series, nil
}

// CurrentPrice implements Provider. Prices are not cached; a stale
// price is worse than an explicit gap.
func (p *CachedProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return p.upstream.CurrentPrice(ctx, symbol)
}
