package patterns

import (
	"crypto-trader/internal/analysis"
	"crypto-trader/internal/models"
)

// Ratio tests for single- and two-candle shapes. Body and shadow sizes
// are measured against the candle's full range.
const (
	dojiBodyRatio     = 0.1 // body at most 10% of range
	hammerShadowRatio = 2.0 // lower shadow at least 2x body
	hammerUpperRatio  = 0.3 // upper shadow at most 30% of body+shadows
)

func body(c models.Candle) float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func candleRange(c models.Candle) float64 {
	return c.High - c.Low
}

func upperShadow(c models.Candle) float64 {
	if c.Close > c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}

func lowerShadow(c models.Candle) float64 {
	if c.Close > c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}

func isBullish(c models.Candle) bool {
	return c.Close > c.Open
}

// DetectDoji finds candles whose body is negligible against their range,
// signalling indecision.
func DetectDoji(candles []models.Candle) []analysis.Pattern {
	if len(candles) == 0 {
		return nil
	}
	i := len(candles) - 1
	c := candles[i]
	r := candleRange(c)
	if r == 0 || body(c)/r > dojiBodyRatio {
		return nil
	}
	return []analysis.Pattern{{
		Name:       "Doji",
		Type:       analysis.PatternTypeCandlestick,
		Direction:  analysis.PatternNeutral,
		StartIndex: i,
		EndIndex:   i,
		Confidence: reliabilityDoji,
	}}
}

// DetectHammer finds a long lower shadow with a small body near the top
// of the range after a decline, a bullish reversal shape.
func DetectHammer(candles []models.Candle) []analysis.Pattern {
	if len(candles) < 2 {
		return nil
	}
	i := len(candles) - 1
	c := candles[i]
	b := body(c)
	if b == 0 || candleRange(c) == 0 {
		return nil
	}
	if lowerShadow(c) < hammerShadowRatio*b || upperShadow(c) > hammerUpperRatio*candleRange(c) {
		return nil
	}
	// Requires a prior down candle for the reversal context.
	if isBullish(candles[i-1]) {
		return nil
	}
	return []analysis.Pattern{{
		Name:       "Hammer",
		Type:       analysis.PatternTypeCandlestick,
		Direction:  analysis.PatternBullish,
		StartIndex: i,
		EndIndex:   i,
		Confidence: reliabilityHammer,
	}}
}

// DetectShootingStar mirrors the hammer: a long upper shadow after an
// advance, a bearish reversal shape.
func DetectShootingStar(candles []models.Candle) []analysis.Pattern {
	if len(candles) < 2 {
		return nil
	}
	i := len(candles) - 1
	c := candles[i]
	b := body(c)
	if b == 0 || candleRange(c) == 0 {
		return nil
	}
	if upperShadow(c) < hammerShadowRatio*b || lowerShadow(c) > hammerUpperRatio*candleRange(c) {
		return nil
	}
	if !isBullish(candles[i-1]) {
		return nil
	}
	return []analysis.Pattern{{
		Name:       "Shooting Star",
		Type:       analysis.PatternTypeCandlestick,
		Direction:  analysis.PatternBearish,
		StartIndex: i,
		EndIndex:   i,
		Confidence: reliabilityShootingStar,
	}}
}

// DetectEngulfing finds a candle whose body engulfs the prior candle's
// body in the opposite direction.
func DetectEngulfing(candles []models.Candle) []analysis.Pattern {
	if len(candles) < 2 {
		return nil
	}
	i := len(candles) - 1
	curr, prev := candles[i], candles[i-1]
	if body(prev) == 0 || body(curr) <= body(prev) {
		return nil
	}

	if isBullish(curr) && !isBullish(prev) &&
		curr.Open <= prev.Close && curr.Close >= prev.Open {
		return []analysis.Pattern{{
			Name:       "Bullish Engulfing",
			Type:       analysis.PatternTypeCandlestick,
			Direction:  analysis.PatternBullish,
			StartIndex: i - 1,
			EndIndex:   i,
			Confidence: reliabilityEngulfing,
		}}
	}
	if !isBullish(curr) && isBullish(prev) &&
		curr.Open >= prev.Close && curr.Close <= prev.Open {
		return []analysis.Pattern{{
			Name:       "Bearish Engulfing",
			Type:       analysis.PatternTypeCandlestick,
			Direction:  analysis.PatternBearish,
			StartIndex: i - 1,
			EndIndex:   i,
			Confidence: reliabilityEngulfing,
		}}
	}
	return nil
}
