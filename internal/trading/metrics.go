package trading

import (
	"math"

	"crypto-trader/internal/models"
)

// Metrics summarizes a simulation run. Computed once at report time
// from the equity curve and the closed trade ledger.
type Metrics struct {
	TotalReturnPct float64
	// MaxDrawdown is the worst peak-to-trough decline as a fraction of
	// the running peak, in [0, 1].
	MaxDrawdown float64
	Sharpe      float64
	Sortino     float64
	WinRate     float64
	// ProfitFactor is gross profit over gross loss. When gross loss is
	// zero it is reported as 0 with ProfitFactorDefined false, unless
	// gross profit is also zero, in which case 0 is the true value.
	ProfitFactor        float64
	ProfitFactorDefined bool
	GrossProfit         float64
	GrossLoss           float64
	TotalTrades         int
	WinningTrades       int
}

// ComputeMetrics derives the run metrics. periodsPerYear annualizes the
// Sharpe and Sortino ratios for the step interval used.
func ComputeMetrics(initialCapital float64, equity []models.EquityPoint, trades []models.Trade, periodsPerYear float64) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	if initialCapital > 0 && len(equity) > 0 {
		final := equity[len(equity)-1].Value
		m.TotalReturnPct = (final - initialCapital) / initialCapital * 100
	}
	m.MaxDrawdown = maxDrawdown(equity)
	m.Sharpe, m.Sortino = riskAdjustedReturns(equity, periodsPerYear)

	for _, t := range trades {
		if t.RealizedPnL > 0 {
			m.WinningTrades++
			m.GrossProfit += t.RealizedPnL
		} else {
			m.GrossLoss += -t.RealizedPnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}

	switch {
	case m.GrossLoss > 0:
		m.ProfitFactor = m.GrossProfit / m.GrossLoss
		m.ProfitFactorDefined = true
	case m.GrossProfit == 0:
		// No wins and no losses: zero is the true value.
		m.ProfitFactor = 0
		m.ProfitFactorDefined = true
	default:
		// Wins without losses: the ratio is undefined, flagged rather
		// than silently zero.
		m.ProfitFactor = 0
		m.ProfitFactorDefined = false
	}
	return m
}

// maxDrawdown is the largest decline from a running peak, as a fraction
// of that peak. Always in [0, 1] for non-negative equity values.
func maxDrawdown(equity []models.EquityPoint) float64 {
	var peak, worst float64
	for _, point := range equity {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			if dd := (peak - point.Value) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// riskAdjustedReturns computes annualized Sharpe and Sortino ratios
// from per-step equity returns.
func riskAdjustedReturns(equity []models.EquityPoint, periodsPerYear float64) (sharpe, sortino float64) {
	if len(equity) < 2 {
		return 0, 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	if len(returns) < 2 {
		return 0, 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance, downVariance float64
	downCount := 0
	for _, r := range returns {
		d := r - mean
		variance += d * d
		if r < 0 {
			downVariance += r * r
			downCount++
		}
	}
	variance /= float64(len(returns) - 1)

	annualize := math.Sqrt(periodsPerYear)
	if stddev := math.Sqrt(variance); stddev > 0 {
		sharpe = mean / stddev * annualize
	}
	if downCount > 0 {
		if downDev := math.Sqrt(downVariance / float64(downCount)); downDev > 0 {
			sortino = mean / downDev * annualize
		}
	}
	return sharpe, sortino
}
