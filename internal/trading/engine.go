package trading

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
	"crypto-trader/internal/risk"
)

// EventSink receives trade events for external delivery. Implementations
// must not block the step loop.
type EventSink interface {
	Publish(event models.TradeEvent)
}

// SignalInput is an evaluated signal plus the market context the risk
// checks need for the same step.
type SignalInput struct {
	Signal *models.Signal
	// Volatility is the asset's per-candle relative volatility.
	Volatility float64
	// Returns is the recent per-candle return series.
	Returns []float64
}

// Step is one time slice of market data: the finished candle per symbol
// and the signals evaluated on it. A symbol missing from Candles is a
// data gap for that step.
type Step struct {
	Time    time.Time
	Candles map[string]models.Candle
	Signals map[string]SignalInput
}

// Engine advances a portfolio one step at a time. It is the single
// owner of its portfolio: a step (mark-to-market, exits, entries,
// equity) is atomic and never interleaves with another.
type Engine struct {
	cfg       *config.Config
	portfolio *Portfolio
	risk      *risk.Manager
	events    EventSink
	log       zerolog.Logger
}

// NewEngine creates an engine around a fresh portfolio. events may be
// nil when no delivery is wired.
func NewEngine(cfg *config.Config, riskMgr *risk.Manager, events EventSink, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		portfolio: NewPortfolio(cfg.Trading.InitialCapital, cfg.Trading.CommissionRate),
		risk:      riskMgr,
		events:    events,
		log:       logger.With().Str("component", "engine").Logger(),
	}
}

// Portfolio returns the engine's portfolio for reporting.
func (e *Engine) Portfolio() *Portfolio { return e.portfolio }

// ProcessStep runs one atomic step: mark all open positions, check
// exits before entries, open admissible positions, record equity.
// Collaborator failures for a symbol (no candle this step) skip that
// symbol's entry logic; its open position stays marked at the last
// known price.
func (e *Engine) ProcessStep(step Step) models.EquityPoint {
	e.markPositions(step)
	e.checkExits(step)
	e.handleSignals(step)
	return e.portfolio.RecordEquity(step.Time)
}

func (e *Engine) markPositions(step Step) {
	for _, symbol := range e.portfolio.OpenSymbols() {
		candle, ok := step.Candles[symbol]
		if !ok {
			// Data gap: position stays marked at the last known price.
			logging.LogDataGap(e.log, symbol, nil)
			continue
		}
		e.portfolio.MarkToMarket(symbol, candle.Close)
	}
}

// checkExits closes positions whose exit conditions trigger this step.
// Intrabar stop and take-profit exits execute at the triggered level,
// not the candle close. Surviving trailing stops ratchet toward price
// on favorable moves only.
func (e *Engine) checkExits(step Step) {
	for _, symbol := range e.portfolio.OpenSymbols() {
		pos, ok := e.portfolio.Position(symbol)
		if !ok {
			continue
		}
		candle, hasCandle := step.Candles[symbol]
		if !hasCandle {
			continue
		}
		pos.StepsHeld++

		if price, reason, hit := exitTrigger(pos, candle); hit {
			e.closePosition(symbol, price, reason, step.Time)
			continue
		}
		if pos.MaxHoldSteps > 0 && pos.StepsHeld >= pos.MaxHoldSteps {
			e.closePosition(symbol, candle.Close, models.ExitTimeout, step.Time)
			continue
		}
		ratchetTrailingStop(pos, candle.Close)
	}
}

// exitTrigger reports whether the candle's range crosses the position's
// stop-loss or take-profit, and the exact level to execute at. When both
// levels fall inside the range the stop wins: the conservative
// assumption is that the adverse move came first.
func exitTrigger(pos *models.Position, candle models.Candle) (float64, models.ExitReason, bool) {
	if pos.Side == models.SideLong {
		if pos.StopLoss > 0 && candle.Low <= pos.StopLoss {
			return pos.StopLoss, models.ExitStopLoss, true
		}
		if pos.TakeProfit > 0 && candle.High >= pos.TakeProfit {
			return pos.TakeProfit, models.ExitTakeProfit, true
		}
		return 0, "", false
	}
	if pos.StopLoss > 0 && candle.High >= pos.StopLoss {
		return pos.StopLoss, models.ExitStopLoss, true
	}
	if pos.TakeProfit > 0 && candle.Low <= pos.TakeProfit {
		return pos.TakeProfit, models.ExitTakeProfit, true
	}
	return 0, "", false
}

// ratchetTrailingStop moves a trailing stop toward price on a favorable
// move. It never loosens.
func ratchetTrailingStop(pos *models.Position, close float64) {
	if !pos.TrailingStop || pos.TrailDistance <= 0 {
		return
	}
	if pos.Side == models.SideLong {
		if candidate := close - pos.TrailDistance; candidate > pos.StopLoss {
			pos.StopLoss = candidate
		}
		return
	}
	if candidate := close + pos.TrailDistance; candidate < pos.StopLoss {
		pos.StopLoss = candidate
	}
}

// handleSignals closes positions on opposing signals, then runs the
// remaining actionable signals through the risk manager as one batch
// and opens the approved ones.
func (e *Engine) handleSignals(step Step) {
	symbols := make([]string, 0, len(step.Signals))
	for s := range step.Signals {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var candidates []risk.Candidate
	for _, symbol := range symbols {
		input := step.Signals[symbol]
		signal := input.Signal
		if signal == nil || signal.Action == models.ActionHold {
			continue
		}
		if _, ok := step.Candles[symbol]; !ok {
			// Entry logic skips symbols with missing data this step.
			continue
		}
		e.publishSignal(signal)

		if pos, open := e.portfolio.Position(symbol); open {
			if opposes(pos.Side, signal.Action) {
				e.closePosition(symbol, signal.Price, models.ExitSignalReversal, step.Time)
			}
			// One position per symbol; the reversal close takes effect
			// next step.
			continue
		}
		candidates = append(candidates, risk.Candidate{
			Signal:     signal,
			Volatility: input.Volatility,
			Returns:    input.Returns,
		})
	}
	if len(candidates) == 0 {
		return
	}

	assessments := e.risk.AssessBatch(candidates, e.portfolioState(step))
	for i, assessment := range assessments {
		if !assessment.Approved {
			continue
		}
		e.openPosition(candidates[i], assessment.Fraction, step.Time)
	}
}

func opposes(side models.PositionSide, action models.SignalAction) bool {
	return (side == models.SideLong && action == models.ActionSell) ||
		(side == models.SideShort && action == models.ActionBuy)
}

// portfolioState snapshots the book for the risk checks. Every open
// position carries volatility so the portfolio risk budget charges the
// whole book: this step's evaluation when the symbol has one (HOLD
// included), the volatility recorded at entry otherwise.
func (e *Engine) portfolioState(step Step) risk.PortfolioState {
	state := risk.PortfolioState{
		TotalValue: e.portfolio.TotalValue(),
		Cash:       e.portfolio.Cash(),
	}
	for _, symbol := range e.portfolio.OpenSymbols() {
		pos, _ := e.portfolio.Position(symbol)
		exposure := risk.OpenExposure{
			Symbol:     symbol,
			Value:      pos.MarketValue(),
			Volatility: pos.EntryVolatility,
		}
		if input, ok := step.Signals[symbol]; ok && input.Signal != nil {
			exposure.Volatility = input.Volatility
			exposure.Returns = input.Returns
		}
		state.Positions = append(state.Positions, exposure)
	}
	return state
}

func (e *Engine) openPosition(c risk.Candidate, fraction float64, at time.Time) {
	signal := c.Signal
	opts := PositionOptions{
		TrailingStop: e.cfg.Trading.TrailingStop,
		MaxHoldSteps: e.cfg.Trading.MaxHoldCandles,
		Volatility:   c.Volatility,
	}
	pos, err := e.portfolio.Open(signal, fraction, opts, at)
	if err != nil {
		// Insufficient cash rejects the order outright. Cash is never
		// clamped into a partial fill.
		e.log.Warn().Err(err).Str("symbol", signal.Symbol).Msg("entry rejected")
		return
	}
	logging.LogTrade(e.log, pos.Symbol, string(pos.Side), "entry", pos.Quantity, 0)
	if e.events != nil {
		e.events.Publish(models.TradeEvent{
			Type:       models.EventPositionOpen,
			Symbol:     pos.Symbol,
			Action:     signal.Action,
			Confidence: signal.Confidence,
			Price:      pos.EntryPrice,
			Timestamp:  at,
		})
	}
}

func (e *Engine) closePosition(symbol string, price float64, reason models.ExitReason, at time.Time) {
	trade, err := e.portfolio.Close(symbol, price, reason, at)
	if err != nil {
		e.log.Error().Err(err).Str("symbol", symbol).Msg("close failed")
		return
	}
	e.risk.Sizer().ObserveTrade(trade.RealizedPnL)
	logging.LogTrade(e.log, trade.Symbol, string(trade.Side), string(reason), trade.Quantity, trade.RealizedPnL)
	if e.events != nil {
		e.events.Publish(models.TradeEvent{
			Type:       models.EventPositionExit,
			Symbol:     trade.Symbol,
			Price:      trade.ExitPrice,
			ExitReason: reason,
			PnL:        trade.RealizedPnL,
			Timestamp:  at,
		})
	}
}

// publishSignal emits actionable signals above the alert threshold.
func (e *Engine) publishSignal(signal *models.Signal) {
	logging.LogSignal(e.log, signal.Symbol, string(signal.Action), signal.Score, signal.Confidence)
	if e.events == nil || !e.cfg.Alerts.Enabled || signal.Confidence < e.cfg.Alerts.Threshold {
		return
	}
	e.events.Publish(models.TradeEvent{
		Type:       models.EventSignal,
		Symbol:     signal.Symbol,
		Action:     signal.Action,
		Confidence: signal.Confidence,
		Price:      signal.Price,
		Timestamp:  signal.Timestamp,
	})
}
