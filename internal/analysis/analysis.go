// Package analysis provides technical analysis functionality including
// indicators, pattern detection, and signal generation.
package analysis

// Pattern represents a detected chart or candlestick formation.
type Pattern struct {
	Name       string
	Type       PatternType
	Direction  PatternDirection
	StartIndex int
	EndIndex   int
	// Confidence in [0, 100], derived from tolerance tightness and the
	// pattern's base reliability.
	Confidence  float64
	TargetPrice float64
}

// PatternType represents the type of pattern.
type PatternType string

const (
	PatternTypeCandlestick PatternType = "candlestick"
	PatternTypeChart       PatternType = "chart"
)

// PatternDirection represents the expected direction of a pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
	PatternNeutral PatternDirection = "neutral"
)

// Level represents a support or resistance level.
type Level struct {
	Price      float64
	Type       LevelType
	TouchCount int
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)
