package models

import "time"

// TradeEventType distinguishes what a trade event reports.
type TradeEventType string

const (
	EventSignal       TradeEventType = "signal"
	EventPositionOpen TradeEventType = "position_open"
	EventPositionExit TradeEventType = "position_exit"
)

// TradeEvent is emitted by the engine when a signal crosses the alert
// threshold or a position opens or closes. Delivery is entirely external.
type TradeEvent struct {
	Type       TradeEventType
	Symbol     string
	Action     SignalAction
	Confidence float64
	Price      float64
	ExitReason ExitReason
	PnL        float64
	Timestamp  time.Time
}
