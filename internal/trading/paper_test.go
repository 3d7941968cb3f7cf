package trading

import (
	"context"
	"errors"
	"testing"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

// countingProvider records how many exchange calls the loop makes.
type countingProvider struct {
	fetches int
}

func (p *countingProvider) FetchSeries(context.Context, string, models.Interval, int) (*models.PriceSeries, error) {
	p.fetches++
	return nil, apperrors.Wrap(apperrors.ErrMarketData, "unavailable")
}

func (p *countingProvider) CurrentPrice(context.Context, string) (float64, error) {
	p.fetches++
	return 0, apperrors.Wrap(apperrors.ErrMarketData, "unavailable")
}

func TestPaperRunStopsBeforeFirstStepWhenCancelled(t *testing.T) {
	cfg := config.Default()
	logger := logging.NewLogger()
	provider := &countingProvider{}
	analyzer := ensemble.NewAnalyzer(ensemble.New(cfg), nil, logger)
	trader := NewPaperTrader(cfg, provider, analyzer, risk.NewManager(cfg, logger), nil, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := trader.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if provider.fetches != 0 {
		t.Errorf("cancelled run made %d exchange calls, want 0", provider.fetches)
	}
	if len(trader.Engine().Portfolio().Equity()) != 0 {
		t.Error("cancelled run recorded an equity point")
	}
}
