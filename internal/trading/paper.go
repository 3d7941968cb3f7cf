package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crypto-trader/internal/analysis/ensemble"
	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/marketdata"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

// lookbackCandles is the history fetched per step, enough for the
// pattern window on top of indicator warmup.
const lookbackCandles = 200

// Recorder persists the records a live run produces. Implementations
// store plain values; the engine holds no database handle itself.
type Recorder interface {
	SaveSignal(signal *models.Signal) error
	SaveTrade(trade models.Trade) error
	SaveEquityPoint(point models.EquityPoint) error
}

// PaperTrader runs the same step loop as the backtester against live
// candles, simulating fills without touching the exchange account.
// Cancellation lands between steps, never inside one.
type PaperTrader struct {
	cfg      *config.Config
	provider marketdata.Provider
	analyzer *ensemble.Analyzer
	engine   *Engine
	recorder Recorder
	log      zerolog.Logger

	persistedTrades int
}

// NewPaperTrader creates a paper trading loop. recorder and events may
// be nil.
func NewPaperTrader(cfg *config.Config, provider marketdata.Provider, analyzer *ensemble.Analyzer, riskMgr *risk.Manager, recorder Recorder, events EventSink, logger zerolog.Logger) *PaperTrader {
	log := logger.With().Str("component", "paper").Logger()
	return &PaperTrader{
		cfg:      cfg,
		provider: provider,
		analyzer: analyzer,
		engine:   NewEngine(cfg, riskMgr, events, log),
		recorder: recorder,
		log:      log,
	}
}

// Engine exposes the underlying engine for reporting.
func (t *PaperTrader) Engine() *Engine { return t.engine }

// Run processes one step per interval until the context is cancelled.
// A step is atomic; the cancellation check sits between steps.
func (t *PaperTrader) Run(ctx context.Context) error {
	interval := models.Interval(t.cfg.Trading.Interval)
	t.log.Info().
		Strs("symbols", t.cfg.Trading.Symbols).
		Str("interval", string(interval)).
		Float64("capital", t.cfg.Trading.InitialCapital).
		Msg("paper trading started")

	for {
		// Cancellation lands before a step begins, never inside one.
		if err := ctx.Err(); err != nil {
			t.log.Info().Msg("paper trading stopped")
			return err
		}
		t.runStep(ctx)
		select {
		case <-ctx.Done():
			t.log.Info().Msg("paper trading stopped")
			return ctx.Err()
		case <-time.After(interval.Duration()):
		}
	}
}

// runStep fetches fresh candles for every symbol, evaluates signals and
// advances the portfolio one step. A symbol whose fetch fails is a data
// gap: its entry logic is skipped, open positions stay marked at the
// last known price.
func (t *PaperTrader) runStep(ctx context.Context) {
	interval := models.Interval(t.cfg.Trading.Interval)
	step := Step{
		Time:    time.Now().UTC(),
		Candles: make(map[string]models.Candle),
		Signals: make(map[string]SignalInput),
	}

	for _, symbol := range t.cfg.Trading.Symbols {
		series, err := t.provider.FetchSeries(ctx, symbol, interval, lookbackCandles)
		if err != nil {
			logging.LogDataGap(t.log, symbol, err)
			continue
		}
		last, ok := series.Last()
		if !ok {
			logging.LogDataGap(t.log, symbol, nil)
			continue
		}
		step.Candles[symbol] = last

		eval := t.analyzer.Analyze(ctx, series)
		step.Signals[symbol] = SignalInput{
			Signal:     eval.Signal,
			Volatility: eval.Volatility,
			Returns:    eval.Returns,
		}
		t.saveSignal(eval.Signal)
	}

	point := t.engine.ProcessStep(step)
	t.saveStepRecords(point)
}

func (t *PaperTrader) saveSignal(signal *models.Signal) {
	if t.recorder == nil || signal == nil || signal.Action == models.ActionHold {
		return
	}
	if err := t.recorder.SaveSignal(signal); err != nil {
		t.log.Error().Err(err).Str("symbol", signal.Symbol).Msg("persisting signal")
	}
}

// saveStepRecords persists the equity point and any trades closed this
// step.
func (t *PaperTrader) saveStepRecords(point models.EquityPoint) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.SaveEquityPoint(point); err != nil {
		t.log.Error().Err(err).Msg("persisting equity point")
	}
	trades := t.engine.Portfolio().Trades()
	for ; t.persistedTrades < len(trades); t.persistedTrades++ {
		if err := t.recorder.SaveTrade(trades[t.persistedTrades]); err != nil {
			t.log.Error().Err(err).Msg("persisting trade")
		}
	}
}
