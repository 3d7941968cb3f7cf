package models

// RejectionReason is a machine-readable cause for a risk rejection.
type RejectionReason string

const (
	RejectLowConfidence    RejectionReason = "CONFIDENCE_BELOW_MINIMUM"
	RejectSectorExposure   RejectionReason = "SECTOR_EXPOSURE_EXCEEDED"
	RejectPortfolioRisk    RejectionReason = "PORTFOLIO_RISK_BUDGET_EXCEEDED"
	RejectLiquidityFloor   RejectionReason = "LIQUIDITY_FLOOR_BREACHED"
	RejectMissingStopLoss  RejectionReason = "MISSING_STOP_LOSS"
	RejectMaxPositions     RejectionReason = "MAX_OPEN_POSITIONS_REACHED"
	RejectInsufficientCash RejectionReason = "INSUFFICIENT_CASH"
)

// RiskAssessment is the outcome of running a signal through the risk
// manager. A rejection is a first-class outcome, not an error. Consumed
// immediately by the simulation engine.
type RiskAssessment struct {
	Symbol    string
	Approved  bool
	RiskScore float64 // [0, 100]
	// Fraction is the admissible position fraction of portfolio value,
	// clamped to [minPositionSize, maxPositionSize] when approved.
	Fraction float64
	Reasons  []RejectionReason
	// Adjustments records the non-terminal scale-downs applied, for the
	// signal journal.
	Adjustments []string
}

// Rejected reports whether the assessment carries the given reason.
func (r *RiskAssessment) Rejected(reason RejectionReason) bool {
	for _, have := range r.Reasons {
		if have == reason {
			return true
		}
	}
	return false
}
