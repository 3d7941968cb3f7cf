package risk

import "crypto-trader/internal/config"

// minTradesForMeasuredWinRate is how many closed trades the ledger needs
// before the measured win rate replaces the configured prior.
const minTradesForMeasuredWinRate = 20

// kellyFraction is the fraction of full Kelly applied. Full Kelly is too
// aggressive for noisy signal edges; half Kelly keeps drawdowns tolerable.
const kellyFraction = 0.5

// Sizer produces the baseline position fraction from the Kelly criterion.
// The win rate starts at the configured prior and switches to the
// measured ledger win rate once enough trades have closed.
type Sizer struct {
	priorWinRate float64
	payoff       float64
	minFraction  float64
	maxFraction  float64

	trades int
	wins   int
}

// NewSizer creates a sizer from validated configuration.
func NewSizer(risk config.RiskConfig, trading config.TradingConfig) *Sizer {
	return &Sizer{
		priorWinRate: risk.KellyWinRate,
		payoff:       trading.TakeProfitRatio,
		minFraction:  risk.MinPositionSize,
		maxFraction:  risk.MaxPositionSize,
	}
}

// ObserveTrade feeds a closed trade's realized PnL into the measured win
// rate.
func (s *Sizer) ObserveTrade(realizedPnL float64) {
	s.trades++
	if realizedPnL > 0 {
		s.wins++
	}
}

// WinRate returns the effective win rate: measured once the ledger holds
// enough trades, the configured prior before that.
func (s *Sizer) WinRate() float64 {
	if s.trades >= minTradesForMeasuredWinRate {
		return float64(s.wins) / float64(s.trades)
	}
	return s.priorWinRate
}

// RawFraction returns the unclamped half-Kelly position fraction. May be
// non-positive when the edge is negative.
func (s *Sizer) RawFraction() float64 {
	p := s.WinRate()
	return (p - (1-p)/s.payoff) * kellyFraction
}

// BaseFraction returns the half-Kelly position fraction clamped to the
// configured bounds. A non-positive Kelly edge still returns the minimum
// fraction; the risk checks decide whether to trade at all.
func (s *Sizer) BaseFraction() float64 {
	f := s.RawFraction()
	if f < s.minFraction {
		return s.minFraction
	}
	if f > s.maxFraction {
		return s.maxFraction
	}
	return f
}
