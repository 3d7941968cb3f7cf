// Package risk validates trading signals against portfolio constraints
// and sizes the positions that pass.
package risk

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"crypto-trader/internal/config"
	"crypto-trader/internal/logging"
	"crypto-trader/internal/models"
)

// Volatility tier boundaries on per-candle relative volatility
// (ATR / close) and the position multipliers they map to.
const (
	volLowCeiling    = 0.02
	volMediumCeiling = 0.045
	volHighCeiling   = 0.08

	volLowMultiplier     = 1.0
	volMediumMultiplier  = 0.75
	volHighMultiplier    = 0.5
	volExtremeMultiplier = 0.25
)

// OpenExposure describes one open position as the risk checks see it.
type OpenExposure struct {
	Symbol string
	// Value is the position's current market value.
	Value float64
	// Volatility is the per-candle relative volatility of the asset.
	Volatility float64
	// Returns is the recent per-candle return series used for
	// correlation estimates. May be short or nil.
	Returns []float64
}

// PortfolioState is the snapshot of the book the checks run against.
type PortfolioState struct {
	TotalValue float64
	Cash       float64
	Positions  []OpenExposure
}

// sectorExposure sums the market value held in one sector.
func (p PortfolioState) sectorExposure(cfg *config.RiskConfig, sector string) float64 {
	var total float64
	for _, pos := range p.Positions {
		if cfg.Sector(pos.Symbol) == sector {
			total += pos.Value
		}
	}
	return total
}

// bookRisk is the running sum of position-fraction times asset
// volatility across the open book.
func (p PortfolioState) bookRisk() float64 {
	if p.TotalValue <= 0 {
		return 0
	}
	var total float64
	for _, pos := range p.Positions {
		total += pos.Value / p.TotalValue * pos.Volatility
	}
	return total
}

// Candidate is a signal under assessment together with the market
// context the checks need.
type Candidate struct {
	Signal *models.Signal
	// Volatility is the per-candle relative volatility of the asset.
	Volatility float64
	// Returns is the recent per-candle return series.
	Returns []float64
}

// Manager runs every candidate signal through the sequential risk
// checks. A rejection is terminal; a scale-down is recorded and the
// remaining checks continue on the reduced fraction.
type Manager struct {
	cfg   *config.RiskConfig
	sizer *Sizer
	log   zerolog.Logger
}

// NewManager creates a risk manager from validated configuration.
func NewManager(cfg *config.Config, logger zerolog.Logger) *Manager {
	return &Manager{
		cfg:   &cfg.Risk,
		sizer: NewSizer(cfg.Risk, cfg.Trading),
		log:   logger.With().Str("component", "risk").Logger(),
	}
}

// Sizer exposes the position sizer so the simulation engine can feed
// closed trades back into the measured win rate.
func (m *Manager) Sizer() *Sizer {
	return m.sizer
}

// Assess runs a single candidate through all checks against the current
// book. The portfolio risk budget sees only the already open positions;
// use AssessBatch when several signals compete for budget in one step.
func (m *Manager) Assess(c Candidate, p PortfolioState) *models.RiskAssessment {
	return m.assess(c, p, p.bookRisk())
}

// AssessBatch assesses several candidates arriving in the same step.
// Candidates are ordered by descending (confidence - risk score) so the
// most defensible trades claim portfolio risk budget first; approved
// candidates consume budget that later ones must fit under. Results are
// returned in the caller's original order.
func (m *Manager) AssessBatch(cands []Candidate, p PortfolioState) []*models.RiskAssessment {
	type ranked struct {
		idx   int
		cand  Candidate
		score float64
	}
	order := make([]ranked, len(cands))
	for i, c := range cands {
		order[i] = ranked{idx: i, cand: c, score: c.Signal.Confidence - m.riskScore(c, p)}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})

	results := make([]*models.RiskAssessment, len(cands))
	usedRisk := p.bookRisk()
	for _, r := range order {
		assessment := m.assess(r.cand, p, usedRisk)
		if assessment.Approved {
			usedRisk += assessment.Fraction * r.cand.Volatility
		}
		results[r.idx] = assessment
	}
	return results
}

// assess runs the sequential checks with the given amount of portfolio
// risk budget already in use.
func (m *Manager) assess(c Candidate, p PortfolioState, usedRisk float64) *models.RiskAssessment {
	s := c.Signal
	result := &models.RiskAssessment{
		Symbol:    s.Symbol,
		RiskScore: m.riskScore(c, p),
	}

	reject := func(reason models.RejectionReason) *models.RiskAssessment {
		result.Approved = false
		result.Fraction = 0
		result.Reasons = append(result.Reasons, reason)
		reasons := make([]string, len(result.Reasons))
		for i, r := range result.Reasons {
			reasons[i] = string(r)
		}
		logging.LogRejection(m.log, s.Symbol, reasons)
		return result
	}

	// 1. Confidence floor.
	if s.Confidence < m.cfg.MinSignalConfidence {
		return reject(models.RejectLowConfidence)
	}

	// 2. Requested size against the per-position cap. Clamp, never
	// reject.
	fraction := m.sizer.RawFraction()
	if fraction > m.cfg.MaxPositionSize {
		result.Adjustments = append(result.Adjustments,
			fmt.Sprintf("position cap clamp %.4f -> %.4f", fraction, m.cfg.MaxPositionSize))
		fraction = m.cfg.MaxPositionSize
	}
	if fraction < m.cfg.MinPositionSize {
		fraction = m.cfg.MinPositionSize
	}

	// 3. Volatility scaling.
	if mult := volatilityMultiplier(c.Volatility); mult < 1 {
		fraction *= mult
		result.Adjustments = append(result.Adjustments,
			fmt.Sprintf("volatility scale x%.2f", mult))
	}

	// 4. Correlation with existing positions. Scale down, never reject.
	if corr := m.maxCorrelation(c, p); corr > m.cfg.CorrelationLimit {
		scale := m.cfg.CorrelationLimit / corr
		fraction *= scale
		result.Adjustments = append(result.Adjustments,
			fmt.Sprintf("correlation %.2f scale x%.2f", corr, scale))
	}

	// 5. Sector exposure cap.
	if p.TotalValue > 0 {
		sector := m.cfg.Sector(s.Symbol)
		exposure := (p.sectorExposure(m.cfg, sector) + fraction*p.TotalValue) / p.TotalValue
		if exposure > m.cfg.MaxSectorExposure {
			return reject(models.RejectSectorExposure)
		}
	}

	// 6. Portfolio risk budget. Scale to fit; reject when the fit would
	// push the fraction below the absolute floor.
	if c.Volatility > 0 {
		available := m.cfg.MaxPortfolioRisk - usedRisk
		if available <= 0 {
			return reject(models.RejectPortfolioRisk)
		}
		if fraction*c.Volatility > available {
			scaled := available / c.Volatility
			if scaled < m.cfg.MinPositionSize {
				return reject(models.RejectPortfolioRisk)
			}
			result.Adjustments = append(result.Adjustments,
				fmt.Sprintf("risk budget scale %.4f -> %.4f", fraction, scaled))
			fraction = scaled
		}
	}

	// 7. Liquidity floor on free cash after entry.
	if p.TotalValue > 0 {
		freeCash := (p.Cash - fraction*p.TotalValue) / p.TotalValue
		if freeCash < m.cfg.LiquidityFloor {
			return reject(models.RejectLiquidityFloor)
		}
	}

	// 8. Mandatory stop-loss.
	if !s.HasStopLoss() {
		return reject(models.RejectMissingStopLoss)
	}

	// 9. Open position count cap.
	if len(p.Positions) >= m.cfg.MaxOpenPositions {
		return reject(models.RejectMaxPositions)
	}

	// The fraction never leaves the assessment below the absolute floor
	// once approved.
	if fraction < m.cfg.MinPositionSize {
		fraction = m.cfg.MinPositionSize
	}
	result.Approved = true
	result.Fraction = fraction
	return result
}

// maxCorrelation returns the highest estimated correlation between the
// candidate and any open position.
func (m *Manager) maxCorrelation(c Candidate, p PortfolioState) float64 {
	var maxCorr float64
	sector := m.cfg.Sector(c.Signal.Symbol)
	for _, pos := range p.Positions {
		if pos.Symbol == c.Signal.Symbol {
			continue
		}
		corr := estimateCorrelation(c.Returns, pos.Returns, m.cfg.Sector(pos.Symbol) == sector)
		if corr > maxCorr {
			maxCorr = corr
		}
	}
	return maxCorr
}

// riskScore summarizes how risky the candidate is in [0, 100] from its
// volatility, its correlation with the book and the book's current risk
// utilization.
func (m *Manager) riskScore(c Candidate, p PortfolioState) float64 {
	score := c.Volatility / volHighCeiling * 60
	if score > 60 {
		score = 60
	}
	score += m.maxCorrelation(c, p) * 25
	if m.cfg.MaxPortfolioRisk > 0 {
		utilization := p.bookRisk() / m.cfg.MaxPortfolioRisk
		if utilization > 1 {
			utilization = 1
		}
		score += utilization * 15
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// volatilityMultiplier maps realized volatility to its position size
// multiplier tier.
func volatilityMultiplier(vol float64) float64 {
	switch {
	case vol <= volLowCeiling:
		return volLowMultiplier
	case vol <= volMediumCeiling:
		return volMediumMultiplier
	case vol <= volHighCeiling:
		return volHighMultiplier
	default:
		return volExtremeMultiplier
	}
}
