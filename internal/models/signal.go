package models

import "time"

// SignalAction represents the trading action of a signal.
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// SignalStrength labels the magnitude of the ensemble strength.
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "weak"
	StrengthModerate SignalStrength = "moderate"
	StrengthStrong   SignalStrength = "strong"
)

// Factor is one contributing source in an ensemble signal. Score is
// directional in [-100, 100], negative meaning bearish.
type Factor struct {
	Source string
	Weight float64
	Score  float64
}

// Signal is a single trading decision produced by the ensemble engine.
// Created fresh per evaluation, never mutated.
type Signal struct {
	Symbol     string
	Action     SignalAction
	Confidence float64 // [0, 100]
	Strength   SignalStrength
	Score      float64 // weighted directional strength in [-100, 100]
	Factors    []Factor
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Timestamp  time.Time
}

// HasStopLoss reports whether the signal carries a stop-loss level.
// The risk manager rejects entry signals without one.
func (s *Signal) HasStopLoss() bool {
	return s.StopLoss > 0
}
