package trading

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

// syntheticSeries builds a deterministic trending path with enough swing
// to trigger signals on both sides.
func syntheticSeries(symbol string, n int) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol, Interval: models.Interval1h}
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100 + 0.2*float64(i) + 8*math.Sin(float64(i)/7)
		series.Append(models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price - 0.3,
			High:      price + 1.2,
			Low:       price - 1.2,
			Close:     price,
			Volume:    1000 + float64(i%10)*50,
		})
	}
	return series
}

func runBacktest(t *testing.T, cfg *config.Config, series map[string]*models.PriceSeries) *Report {
	t.Helper()
	logger := logging.NewLogger()
	engine := ensemble.New(cfg)
	analyzer := ensemble.NewAnalyzer(engine, nil, logger)
	riskMgr := risk.NewManager(cfg, logger)

	report, err := NewBacktester(cfg, analyzer, riskMgr, nil, logger).Run(context.Background(), series)
	if err != nil {
		t.Fatalf("backtest failed: %v", err)
	}
	return report
}

func backtestConfig() *config.Config {
	cfg := config.Default()
	// Loosen the gates so the synthetic path produces trades.
	cfg.Risk.MinSignalConfidence = 20
	cfg.Ensemble.SignalThreshold = 10
	return cfg
}

func TestBacktestRejectsShortSeries(t *testing.T) {
	cfg := config.Default()
	logger := logging.NewLogger()
	analyzer := ensemble.NewAnalyzer(ensemble.New(cfg), nil, logger)
	riskMgr := risk.NewManager(cfg, logger)
	b := NewBacktester(cfg, analyzer, riskMgr, nil, logger)

	_, err := b.Run(context.Background(), map[string]*models.PriceSeries{
		"BTCUSDT": syntheticSeries("BTCUSDT", warmupCandles),
	})
	if !apperrors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}

	if _, err := b.Run(context.Background(), nil); !apperrors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("err on empty input = %v, want ErrInsufficientData", err)
	}
}

func TestBacktestDeterminism(t *testing.T) {
	series := func() map[string]*models.PriceSeries {
		return map[string]*models.PriceSeries{
			"BTCUSDT": syntheticSeries("BTCUSDT", 200),
			"ETHUSDT": syntheticSeries("ETHUSDT", 200),
		}
	}

	first := runBacktest(t, backtestConfig(), series())
	second := runBacktest(t, backtestConfig(), series())

	if !reflect.DeepEqual(first.Trades, second.Trades) {
		t.Error("identical runs produced different trade ledgers")
	}
	if !reflect.DeepEqual(first.Equity, second.Equity) {
		t.Error("identical runs produced different equity curves")
	}
	if first.FinalValue != second.FinalValue {
		t.Errorf("final values differ: %v vs %v", first.FinalValue, second.FinalValue)
	}
}

func TestBacktestClosesAllPositions(t *testing.T) {
	report := runBacktest(t, backtestConfig(), map[string]*models.PriceSeries{
		"BTCUSDT": syntheticSeries("BTCUSDT", 200),
	})

	for _, trade := range report.Trades {
		if trade.ExitTime.IsZero() {
			t.Errorf("trade %s has no exit time", trade.ID)
		}
	}
	if report.FinalValue <= 0 {
		t.Errorf("final value = %v", report.FinalValue)
	}
	if report.Interval != models.Interval1h {
		t.Errorf("report interval = %v, want the series interval 1h", report.Interval)
	}
	if len(report.Equity) == 0 {
		t.Fatal("no equity curve recorded")
	}
	last := report.Equity[len(report.Equity)-1]
	if !almostEqual(last.Value, report.FinalValue) {
		t.Errorf("last equity point %v != final value %v", last.Value, report.FinalValue)
	}
}

func TestBacktestSequentialTradeIDs(t *testing.T) {
	report := runBacktest(t, backtestConfig(), map[string]*models.PriceSeries{
		"BTCUSDT": syntheticSeries("BTCUSDT", 200),
	})
	if len(report.Trades) == 0 {
		t.Skip("synthetic path produced no trades under current gates")
	}
	if got, want := report.Trades[0].PositionID, "sim-000001"; got != want {
		t.Errorf("first position id = %q, want %q", got, want)
	}
}
