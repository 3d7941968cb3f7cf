package models

import "time"

// PositionSide represents the direction of a position.
type PositionSide string

const (
	SideLong  PositionSide = "LONG"
	SideShort PositionSide = "SHORT"
)

// PositionStatus represents the lifecycle state of a position.
// The only transition is OPEN -> CLOSED, exactly once.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "STOP_LOSS"
	ExitTakeProfit     ExitReason = "TAKE_PROFIT"
	ExitSignalReversal ExitReason = "SIGNAL_REVERSAL"
	ExitTimeout        ExitReason = "TIMEOUT"
	ExitManual         ExitReason = "MANUAL"
)

// Position is an open holding owned exclusively by the portfolio.
// On close it becomes an immutable Trade record.
type Position struct {
	ID           string
	Symbol       string
	Side         PositionSide
	Quantity     float64
	EntryPrice   float64
	EntryTime    time.Time
	StopLoss     float64
	TakeProfit   float64
	TrailingStop bool
	// TrailDistance is the stop distance maintained while trailing.
	TrailDistance float64
	// MaxHoldSteps closes the position with reason TIMEOUT after this many
	// steps when positive.
	MaxHoldSteps int
	StepsHeld    int
	Status       PositionStatus
	// EntryVolatility is the asset's per-candle relative volatility at
	// entry, kept so the risk budget can charge the open book even on
	// steps without a fresh evaluation for this symbol.
	EntryVolatility float64

	// Mark-to-market state, updated each step.
	LastPrice     float64
	UnrealizedPnL float64
}

// MarketValue returns the position's contribution to portfolio value.
// For a long this is the holding at the last price. For a short it is
// the reserved margin plus unrealized PnL, so equity moves with the
// mark and is continuous through the close.
func (p *Position) MarketValue() float64 {
	if p.Side == SideShort {
		return (2*p.EntryPrice - p.LastPrice) * p.Quantity
	}
	return p.LastPrice * p.Quantity
}

// Trade is the immutable ledger record of a closed position.
type Trade struct {
	ID          string
	PositionID  string
	Symbol      string
	Side        PositionSide
	Quantity    float64
	EntryPrice  float64
	EntryTime   time.Time
	ExitPrice   float64
	ExitTime    time.Time
	ExitReason  ExitReason
	RealizedPnL float64
	Commission  float64
}

// EquityPoint is one point of a portfolio's equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}
