package marketdata

import (
	"context"
	"testing"
	"time"

	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
)

type scriptedProvider struct {
	series *models.PriceSeries
	err    error
	calls  int
}

func (p *scriptedProvider) FetchSeries(context.Context, string, models.Interval, int) (*models.PriceSeries, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.series, nil
}

func (p *scriptedProvider) CurrentPrice(context.Context, string) (float64, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	return p.series.Candles[len(p.series.Candles)-1].Close, nil
}

// memoryStore keeps candles in memory and stubs the rest of DataStore.
type memoryStore struct {
	candles map[string]*models.PriceSeries
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{candles: make(map[string]*models.PriceSeries)}
}

func (m *memoryStore) SaveCandles(series *models.PriceSeries) error {
	m.saves++
	m.candles[series.Symbol+string(series.Interval)] = series
	return nil
}

func (m *memoryStore) Candles(symbol string, interval models.Interval, _ int) (*models.PriceSeries, error) {
	if s, ok := m.candles[symbol+string(interval)]; ok {
		return s, nil
	}
	return &models.PriceSeries{Symbol: symbol, Interval: interval}, nil
}

func (m *memoryStore) SaveSignal(*models.Signal) error               { return nil }
func (m *memoryStore) Signals(string, int) ([]models.Signal, error)  { return nil, nil }
func (m *memoryStore) SaveTrade(models.Trade) error                  { return nil }
func (m *memoryStore) Trades(int) ([]models.Trade, error)            { return nil, nil }
func (m *memoryStore) SaveEquityPoint(models.EquityPoint) error      { return nil }
func (m *memoryStore) EquityCurve(int) ([]models.EquityPoint, error) { return nil, nil }
func (m *memoryStore) Close() error                                  { return nil }

func sampleSeries(symbol string) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol, Interval: models.Interval1h}
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		series.Append(models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      100, High: 101, Low: 99, Close: 100.5, Volume: 10,
		})
	}
	return series
}

func TestCachedProviderWritesThrough(t *testing.T) {
	upstream := &scriptedProvider{series: sampleSeries("BTCUSDT")}
	cache := newMemoryStore()
	p := NewCachedProvider(upstream, cache, logging.NewLogger())

	got, err := p.FetchSeries(context.Background(), "BTCUSDT", models.Interval1h, 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got.Candles) != 3 {
		t.Errorf("got %d candles, want 3", len(got.Candles))
	}
	if cache.saves != 1 {
		t.Errorf("cache saves = %d, want 1", cache.saves)
	}
}

func TestCachedProviderServesCacheOnExchangeFailure(t *testing.T) {
	cache := newMemoryStore()
	if err := cache.SaveCandles(sampleSeries("BTCUSDT")); err != nil {
		t.Fatal(err)
	}
	upstream := &scriptedProvider{err: apperrors.Wrap(apperrors.ErrMarketData, "exchange down")}
	p := NewCachedProvider(upstream, cache, logging.NewLogger())

	got, err := p.FetchSeries(context.Background(), "BTCUSDT", models.Interval1h, 10)
	if err != nil {
		t.Fatalf("fetch should fall back to cache, got %v", err)
	}
	if len(got.Candles) != 3 {
		t.Errorf("got %d cached candles, want 3", len(got.Candles))
	}
}

func TestCachedProviderPropagatesErrorOnEmptyCache(t *testing.T) {
	upstream := &scriptedProvider{err: apperrors.Wrap(apperrors.ErrMarketData, "exchange down")}
	p := NewCachedProvider(upstream, newMemoryStore(), logging.NewLogger())

	_, err := p.FetchSeries(context.Background(), "ETHUSDT", models.Interval1h, 10)
	if !apperrors.Is(err, apperrors.ErrMarketData) {
		t.Errorf("err = %v, want ErrMarketData", err)
	}
}

func TestResilientProviderFailsFastWhenCircuitOpen(t *testing.T) {
	upstream := &scriptedProvider{series: sampleSeries("BTCUSDT")}
	p := NewResilientProvider(upstream, logging.NewLogger())
	p.openUntil = time.Now().Add(time.Minute)

	_, err := p.FetchSeries(context.Background(), "BTCUSDT", models.Interval1h, 10)
	if !apperrors.Is(err, apperrors.ErrMarketData) {
		t.Fatalf("err = %v, want ErrMarketData", err)
	}
	if upstream.calls != 0 {
		t.Errorf("upstream called %d times behind an open circuit", upstream.calls)
	}
}

func TestResilientProviderBreakerOpensAfterThreshold(t *testing.T) {
	p := NewResilientProvider(&scriptedProvider{}, logging.NewLogger())

	for i := 0; i < breakerThreshold-1; i++ {
		p.recordFailure()
	}
	if !p.openUntil.IsZero() {
		t.Fatal("circuit opened before the threshold")
	}
	p.recordFailure()
	if p.openUntil.IsZero() {
		t.Fatal("circuit did not open at the threshold")
	}
	if p.failures != 0 {
		t.Errorf("failure count = %d after opening, want reset", p.failures)
	}
}

func TestResilientProviderSuccessResetsFailures(t *testing.T) {
	upstream := &scriptedProvider{series: sampleSeries("BTCUSDT")}
	p := NewResilientProvider(upstream, logging.NewLogger())
	p.failures = breakerThreshold - 1

	if _, err := p.FetchSeries(context.Background(), "BTCUSDT", models.Interval1h, 10); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if p.failures != 0 {
		t.Errorf("failure count = %d after success, want 0", p.failures)
	}
	if upstream.calls != 1 {
		t.Errorf("upstream called %d times, want 1", upstream.calls)
	}
}
