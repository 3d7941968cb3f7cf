// Package ensemble combines indicator, pattern and sentiment analyses
// into one weighted trading signal.
package ensemble

import (
	"context"
	"math"
	"time"

	"crypto-trader/internal/analysis"
	"crypto-trader/internal/analysis/indicators"
	"crypto-trader/internal/config"
	"crypto-trader/internal/models"
)

// SentimentProvider supplies an externally computed sentiment score in
// [-1, 1] for a symbol.
type SentimentProvider interface {
	SentimentScore(ctx context.Context, symbol string) (float64, error)
}

// NeutralSentiment always returns 0. Absence of a sentiment source is
// neutral, not an error.
type NeutralSentiment struct{}

// SentimentScore implements SentimentProvider.
func (NeutralSentiment) SentimentScore(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}

// Source names of the contributing factors.
const (
	SourceRSI        = "rsi"
	SourceMACD       = "macd"
	SourceBollinger  = "bollinger"
	SourceStochastic = "stochastic"
	SourcePatterns   = "patterns"
	SourceSentiment  = "sentiment"
)

// agreementBonus is the confidence reward per source agreeing with the
// overall direction.
const agreementBonus = 8.0

// Engine produces trading signals from indicator snapshots, pattern
// matches and sentiment. Stateless per call and fully deterministic:
// identical inputs yield identical signals.
type Engine struct {
	weights         config.WeightConfig
	signalThreshold float64
	strongThreshold float64
	stopATRMult     float64
	takeProfitRatio float64
}

// New creates an ensemble engine from validated configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{
		weights:         cfg.Ensemble.Weights,
		signalThreshold: cfg.Ensemble.SignalThreshold,
		strongThreshold: cfg.Ensemble.StrongThreshold,
		stopATRMult:     cfg.Trading.StopLossATRMultiplier,
		takeProfitRatio: cfg.Trading.TakeProfitRatio,
	}
}

// Evaluate combines the latest snapshot, all pattern matches and the
// sentiment score into a signal for the symbol. at is the evaluation
// timestamp carried on the signal.
func (e *Engine) Evaluate(symbol string, snap indicators.Snapshot, matches []analysis.Pattern, sentiment float64, at time.Time) *models.Signal {
	factors := []models.Factor{
		{Source: SourceRSI, Weight: e.weights.RSI, Score: rsiScore(snap.RSI)},
		{Source: SourceMACD, Weight: e.weights.MACD, Score: macdScore(snap.MACD)},
		{Source: SourceBollinger, Weight: e.weights.Bollinger, Score: bollingerScore(snap.Close, snap.Bollinger)},
		{Source: SourceStochastic, Weight: e.weights.Stochastic, Score: stochasticScore(snap.Stochastic)},
		{Source: SourcePatterns, Weight: e.weights.Patterns, Score: patternConsensus(matches)},
		{Source: SourceSentiment, Weight: e.weights.Sentiment, Score: clampScore(sentiment * 100)},
	}

	var strength float64
	for _, f := range factors {
		strength += f.Weight * f.Score
	}
	strength = clampScore(strength)

	action := models.ActionHold
	switch {
	case strength > e.signalThreshold:
		action = models.ActionBuy
	case strength < -e.signalThreshold:
		action = models.ActionSell
	}

	signal := &models.Signal{
		Symbol:     symbol,
		Action:     action,
		Strength:   e.strengthLabel(strength, action),
		Score:      strength,
		Confidence: e.confidence(strength, factors, snap.RelativeATR),
		Factors:    factors,
		Price:      snap.Close,
		Timestamp:  at,
	}
	e.attachExitLevels(signal, snap)
	return signal
}

// strengthLabel maps strength magnitude to a label for non-HOLD actions.
func (e *Engine) strengthLabel(strength float64, action models.SignalAction) models.SignalStrength {
	if action == models.ActionHold {
		return models.StrengthWeak
	}
	abs := math.Abs(strength)
	switch {
	case abs > e.strongThreshold:
		return models.StrengthStrong
	case abs > e.signalThreshold:
		return models.StrengthModerate
	default:
		return models.StrengthWeak
	}
}

// confidence is distinct from directional strength: it rewards the count
// of sources agreeing with the overall direction and penalizes elevated
// volatility (ATR above its own recent average), clipped to [0, 100].
func (e *Engine) confidence(strength float64, factors []models.Factor, relativeATR float64) float64 {
	conf := math.Abs(strength)

	if strength != 0 {
		agreeing := 0
		for _, f := range factors {
			if f.Score*strength > 0 {
				agreeing++
			}
		}
		conf += float64(agreeing) * agreementBonus
	}

	if relativeATR > 1 {
		conf /= relativeATR
	}
	return clamp(conf, 0, 100)
}

// attachExitLevels derives ATR-scaled stop-loss and take-profit levels
// for actionable signals. With no ATR information the signal carries no
// stop and the risk manager will reject it.
func (e *Engine) attachExitLevels(s *models.Signal, snap indicators.Snapshot) {
	if s.Action == models.ActionHold || snap.ATR <= 0 || snap.Close <= 0 {
		return
	}
	risk := snap.ATR * e.stopATRMult
	if s.Action == models.ActionBuy {
		s.StopLoss = snap.Close - risk
		s.TakeProfit = snap.Close + risk*e.takeProfitRatio
	} else {
		s.StopLoss = snap.Close + risk
		s.TakeProfit = snap.Close - risk*e.takeProfitRatio
	}
	if s.StopLoss < 0 {
		s.StopLoss = 0
	}
}

// rsiScore maps RSI momentum to a directional score: above 50 bullish,
// below 50 bearish.
func rsiScore(rsi float64) float64 {
	return clampScore((rsi - 50) * 2)
}

// macdScore scores the MACD line against its signal line plus the
// histogram sign.
func macdScore(m indicators.MACDResult) float64 {
	var score float64
	if m.Line > m.Signal {
		score += 50
	} else if m.Line < m.Signal {
		score -= 50
	}
	if m.Histogram > 0 {
		score += 50
	} else if m.Histogram < 0 {
		score -= 50
	}
	return score
}

// bollingerScore maps the close's position within the bands (%B) to a
// directional score. A squeeze halves the magnitude: direction is less
// reliable during volatility contraction.
func bollingerScore(close float64, b indicators.BollingerResult) float64 {
	width := b.Upper - b.Lower
	if width == 0 || close == 0 {
		return 0
	}
	percentB := (close - b.Lower) / width
	score := clampScore((percentB - 0.5) * 200)
	if b.Squeeze {
		score /= 2
	}
	return score
}

// stochasticScore maps %K position to a directional score with a %K/%D
// crossover adjustment.
func stochasticScore(s indicators.StochasticResult) float64 {
	score := (s.K - 50) * 1.5
	if s.K > s.D {
		score += 25
	} else if s.K < s.D {
		score -= 25
	}
	return clampScore(score)
}

// patternConsensus averages the signed confidences of all matches.
// Neutral patterns contribute nothing.
func patternConsensus(matches []analysis.Pattern) float64 {
	if len(matches) == 0 {
		return 0
	}
	var total float64
	counted := 0
	for _, m := range matches {
		switch m.Direction {
		case analysis.PatternBullish:
			total += m.Confidence
			counted++
		case analysis.PatternBearish:
			total -= m.Confidence
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return clampScore(total / float64(counted))
}

func clampScore(v float64) float64 {
	return clamp(v, -100, 100)
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
