package ensemble

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"crypto-trader/internal/analysis"
	"crypto-trader/internal/analysis/indicators"
	"crypto-trader/internal/analysis/patterns"
	"crypto-trader/internal/models"
)

// Windows for the per-evaluation context. Pattern detection looks at
// the recent tail only; older formations are stale.
const (
	patternWindow = 60
	returnsWindow = 30
)

// Evaluation is one full analysis of a price series: the signal plus
// the market context downstream risk checks need.
type Evaluation struct {
	Signal   *models.Signal
	Snapshot indicators.Snapshot
	Patterns []analysis.Pattern
	// Levels are the support and resistance levels in the recent window.
	Levels []analysis.Level
	// Volatility is ATR relative to the last close, per candle.
	Volatility float64
	// Returns is the trailing per-candle return series.
	Returns []float64
}

// Analyzer runs the full pipeline for one series: indicators, pattern
// detection, sentiment, ensemble. Stateless across calls and safe to
// run concurrently for different symbols.
type Analyzer struct {
	engine    *Engine
	sentiment SentimentProvider
	log       zerolog.Logger
}

// NewAnalyzer creates an analyzer. A nil sentiment provider is treated
// as neutral.
func NewAnalyzer(engine *Engine, sentiment SentimentProvider, logger zerolog.Logger) *Analyzer {
	if sentiment == nil {
		sentiment = NeutralSentiment{}
	}
	return &Analyzer{
		engine:    engine,
		sentiment: sentiment,
		log:       logger.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze evaluates the series as of its last candle. A failing
// sentiment provider degrades to neutral with a warning; it never fails
// the evaluation.
func (a *Analyzer) Analyze(ctx context.Context, series *models.PriceSeries) Evaluation {
	snap := indicators.ComputeSnapshot(series)

	tail := series.Candles
	if len(tail) > patternWindow {
		tail = tail[len(tail)-patternWindow:]
	}
	matches := patterns.DetectAll(tail)

	sentiment, err := a.sentiment.SentimentScore(ctx, series.Symbol)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", series.Symbol).Msg("sentiment unavailable, using neutral")
		sentiment = 0
	}

	at := time.Now()
	if last, ok := series.Last(); ok {
		at = last.Timestamp
	}

	eval := Evaluation{
		Snapshot: snap,
		Patterns: matches,
		Levels:   indicators.SupportResistance(tail, indicators.DefaultLevelLookaround),
		Returns:  trailingReturns(series.Closes(), returnsWindow),
	}
	if snap.Close > 0 {
		eval.Volatility = snap.ATR / snap.Close
	}
	eval.Signal = a.engine.Evaluate(series.Symbol, snap, matches, sentiment, at)
	return eval
}

// trailingReturns computes the last n per-candle returns.
func trailingReturns(closes []float64, n int) []float64 {
	if len(closes) < 2 {
		return nil
	}
	start := len(closes) - n - 1
	if start < 0 {
		start = 0
	}
	var returns []float64
	for i := start + 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}
