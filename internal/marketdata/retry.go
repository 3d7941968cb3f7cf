package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/models"
)

// Retry and breaker parameters for exchange calls. After
// breakerThreshold consecutive failures the provider stops calling the
// exchange for breakerCooldown, failing fast instead.
const (
	retryAttempts    = 3
	retryBaseDelay   = 500 * time.Millisecond
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// ResilientProvider wraps a Provider with retry and a circuit breaker.
// Transient exchange errors are retried with exponential backoff; a
// run of failures opens the breaker so the step loop degrades to data
// gaps instead of hammering a dead endpoint.
type ResilientProvider struct {
	upstream Provider
	log      zerolog.Logger

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// NewResilientProvider wraps upstream.
func NewResilientProvider(upstream Provider, logger zerolog.Logger) *ResilientProvider {
	return &ResilientProvider{
		upstream: upstream,
		log:      logger.With().Str("component", "marketdata").Logger(),
	}
}

// FetchSeries implements Provider.
func (p *ResilientProvider) FetchSeries(ctx context.Context, symbol string, interval models.Interval, lookback int) (*models.PriceSeries, error) {
	var series *models.PriceSeries
	err := p.execute(ctx, func() error {
		var fetchErr error
		series, fetchErr = p.upstream.FetchSeries(ctx, symbol, interval, lookback)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// CurrentPrice implements Provider.
func (p *ResilientProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := p.execute(ctx, func() error {
		var fetchErr error
		price, fetchErr = p.upstream.CurrentPrice(ctx, symbol)
		return fetchErr
	})
	if err != nil {
		return 0, err
	}
	return price, nil
}

func (p *ResilientProvider) execute(ctx context.Context, fn func() error) error {
	if err := p.allow(); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = fn(); err == nil {
			p.recordSuccess()
			return nil
		}
	}
	p.recordFailure()
	return err
}

func (p *ResilientProvider) allow() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Now().Before(p.openUntil) {
		return apperrors.Wrap(apperrors.ErrMarketData, "circuit open, exchange calls suspended")
	}
	return nil
}

func (p *ResilientProvider) recordSuccess() {
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()
}

func (p *ResilientProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	if p.failures >= breakerThreshold {
		p.openUntil = time.Now().Add(breakerCooldown)
		p.failures = 0
		p.log.Warn().Dur("cooldown", breakerCooldown).Msg("exchange circuit opened")
	}
}
