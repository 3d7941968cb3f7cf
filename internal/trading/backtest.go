package trading

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	apperrors "crypto-trader/internal/errors"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

// warmupCandles is how many candles the analyzer sees before the first
// evaluation, enough for the slowest indicator to leave its sentinel
// range.
const warmupCandles = 35

// Report is the outcome of a completed simulation run.
type Report struct {
	Symbols        []string
	Interval       models.Interval
	Start          time.Time
	End            time.Time
	InitialCapital float64
	FinalValue     float64
	Metrics        Metrics
	Trades         []models.Trade
	Equity         []models.EquityPoint
}

// Backtester replays historical series through the step loop. The run
// is a synchronous fold: no clocks, no randomness, identical input and
// configuration reproduce the ledger and equity curve exactly.
type Backtester struct {
	cfg      *config.Config
	analyzer *ensemble.Analyzer
	risk     *risk.Manager
	events   EventSink
	log      zerolog.Logger
}

// NewBacktester creates a backtester. events may be nil.
func NewBacktester(cfg *config.Config, analyzer *ensemble.Analyzer, riskMgr *risk.Manager, events EventSink, logger zerolog.Logger) *Backtester {
	return &Backtester{
		cfg:      cfg,
		analyzer: analyzer,
		risk:     riskMgr,
		events:   events,
		log:      logger.With().Str("component", "backtest").Logger(),
	}
}

// Run folds the step loop over the given series, one step per candle
// index. Series must share a time axis; a symbol whose series ends
// early simply stops producing candles, which the engine treats as a
// data gap. Remaining positions are closed at the final close.
func (b *Backtester) Run(ctx context.Context, series map[string]*models.PriceSeries) (*Report, error) {
	if len(series) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInsufficientData, "no series to backtest")
	}

	symbols := make([]string, 0, len(series))
	steps := 0
	for symbol, s := range series {
		symbols = append(symbols, symbol)
		if len(s.Candles) > steps {
			steps = len(s.Candles)
		}
	}
	sort.Strings(symbols)
	if steps <= warmupCandles {
		return nil, apperrors.Wrapf(apperrors.ErrInsufficientData,
			"need more than %d candles, have %d", warmupCandles, steps)
	}

	engine := NewEngine(b.cfg, b.risk, b.events, b.log)
	engine.Portfolio().UseSequentialIDs()

	var lastTime time.Time
	for i := warmupCandles; i < steps; i++ {
		step := Step{
			Candles: make(map[string]models.Candle),
			Signals: make(map[string]SignalInput),
		}
		for _, symbol := range symbols {
			s := series[symbol]
			if i >= len(s.Candles) {
				continue
			}
			candle := s.Candles[i]
			step.Candles[symbol] = candle
			if candle.Timestamp.After(step.Time) {
				step.Time = candle.Timestamp
			}

			window := &models.PriceSeries{
				Symbol:   symbol,
				Interval: s.Interval,
				Candles:  s.Candles[:i+1],
			}
			eval := b.analyzer.Analyze(ctx, window)
			step.Signals[symbol] = SignalInput{
				Signal:     eval.Signal,
				Volatility: eval.Volatility,
				Returns:    eval.Returns,
			}
		}
		engine.ProcessStep(step)
		lastTime = step.Time
	}

	// Close whatever is still open at the end so the ledger reflects
	// the whole run.
	for _, symbol := range engine.Portfolio().OpenSymbols() {
		pos, _ := engine.Portfolio().Position(symbol)
		engine.closePosition(symbol, pos.LastPrice, models.ExitManual, lastTime)
	}
	engine.Portfolio().RecordEquity(lastTime)

	return b.report(engine.Portfolio(), symbols, series, lastTime), nil
}

func (b *Backtester) report(p *Portfolio, symbols []string, series map[string]*models.PriceSeries, end time.Time) *Report {
	// symbols is sorted, so the reported interval (and with it the
	// annualization) does not depend on map iteration order.
	interval := models.Interval(b.cfg.Trading.Interval)
	for _, symbol := range symbols {
		if s := series[symbol]; s != nil && len(s.Candles) > 0 {
			interval = s.Interval
			break
		}
	}

	var start time.Time
	for _, s := range series {
		if len(s.Candles) > 0 {
			t := s.Candles[0].Timestamp
			if start.IsZero() || t.Before(start) {
				start = t
			}
		}
	}

	return &Report{
		Symbols:        symbols,
		Interval:       interval,
		Start:          start,
		End:            end,
		InitialCapital: p.InitialCapital(),
		FinalValue:     p.TotalValue(),
		Metrics:        ComputeMetrics(p.InitialCapital(), p.Equity(), p.Trades(), interval.PeriodsPerYear()),
		Trades:         p.Trades(),
		Equity:         p.Equity(),
	}
}
