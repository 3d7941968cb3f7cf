// Package patterns provides chart and candlestick pattern detection.
package patterns

import (
	"math"

	"crypto-trader/internal/analysis"
	"crypto-trader/internal/models"
)

// Detection parameters shared by the chart formations.
const (
	// DefaultLookaround is the number of bars on each side confirming a
	// swing extremum.
	DefaultLookaround = 3
	// levelTolerance is the relative distance within which two extrema
	// count as the same level.
	levelTolerance = 0.025
	// triangleFlatSlope bounds the per-bar relative slope of a boundary
	// considered horizontal.
	triangleFlatSlope = 0.001
)

// Base reliability per pattern, the starting confidence before the
// tolerance-tightness adjustment. Reversal formations with a confirming
// extremum score higher than single-candle shapes.
const (
	reliabilityDoubleTop        = 70.0
	reliabilityDoubleBottom     = 70.0
	reliabilityHeadAndShoulders = 75.0
	reliabilityTriangle         = 60.0
	reliabilityEngulfing        = 55.0
	reliabilityHammer           = 50.0
	reliabilityShootingStar     = 50.0
	reliabilityDoji             = 35.0
)

// SwingPoint is a confirmed local extremum.
type SwingPoint struct {
	Index  int
	Price  float64
	IsHigh bool
}

// FindSwingPoints identifies swing highs and lows with the given
// look-around distance. Fewer candles than one full window yield none.
func FindSwingPoints(candles []models.Candle, lookaround int) []SwingPoint {
	if lookaround <= 0 {
		lookaround = DefaultLookaround
	}
	var swings []SwingPoint
	for i := lookaround; i < len(candles)-lookaround; i++ {
		isHigh := true
		isLow := true
		for j := 1; j <= lookaround; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
			}
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			swings = append(swings, SwingPoint{Index: i, Price: candles[i].High, IsHigh: true})
		}
		if isLow {
			swings = append(swings, SwingPoint{Index: i, Price: candles[i].Low, IsHigh: false})
		}
	}
	return swings
}

func swingHighs(swings []SwingPoint) []SwingPoint {
	var highs []SwingPoint
	for _, s := range swings {
		if s.IsHigh {
			highs = append(highs, s)
		}
	}
	return highs
}

func swingLows(swings []SwingPoint) []SwingPoint {
	var lows []SwingPoint
	for _, s := range swings {
		if !s.IsHigh {
			lows = append(lows, s)
		}
	}
	return lows
}

// withinTolerance reports whether two prices are within the level
// tolerance, and how tight the match is in [0, 1] (1 = exact).
func withinTolerance(p1, p2 float64) (bool, float64) {
	if p1 == 0 {
		return p2 == 0, 0
	}
	dist := math.Abs(p1-p2) / p1
	if dist > levelTolerance {
		return false, 0
	}
	return true, 1 - dist/levelTolerance
}

// confidence derives a pattern confidence from its base reliability and
// the tightness of its level matches.
func confidence(base, tightness float64) float64 {
	c := base + tightness*(100-base)*0.3
	if c > 100 {
		return 100
	}
	return c
}

// DetectDoubleTop finds two peaks within tolerance separated by a
// confirming trough; the target is a measured move below the trough.
func DetectDoubleTop(candles []models.Candle) []analysis.Pattern {
	swings := FindSwingPoints(candles, DefaultLookaround)
	highs := swingHighs(swings)
	lows := swingLows(swings)
	if len(highs) < 2 || len(lows) < 1 {
		return nil
	}

	var found []analysis.Pattern
	for i := 1; i < len(highs); i++ {
		first, second := highs[i-1], highs[i]
		ok, tightness := withinTolerance(first.Price, second.Price)
		if !ok {
			continue
		}

		trough, hasTrough := troughBetween(lows, first.Index, second.Index)
		if !hasTrough {
			continue
		}

		height := (first.Price+second.Price)/2 - trough.Price
		if height <= 0 {
			continue
		}
		found = append(found, analysis.Pattern{
			Name:        "Double Top",
			Type:        analysis.PatternTypeChart,
			Direction:   analysis.PatternBearish,
			StartIndex:  first.Index,
			EndIndex:    second.Index,
			Confidence:  confidence(reliabilityDoubleTop, tightness),
			TargetPrice: trough.Price - height,
		})
	}
	return found
}

// DetectDoubleBottom mirrors DetectDoubleTop for troughs with a
// confirming peak.
func DetectDoubleBottom(candles []models.Candle) []analysis.Pattern {
	swings := FindSwingPoints(candles, DefaultLookaround)
	highs := swingHighs(swings)
	lows := swingLows(swings)
	if len(lows) < 2 || len(highs) < 1 {
		return nil
	}

	var found []analysis.Pattern
	for i := 1; i < len(lows); i++ {
		first, second := lows[i-1], lows[i]
		ok, tightness := withinTolerance(first.Price, second.Price)
		if !ok {
			continue
		}

		peak, hasPeak := peakBetween(highs, first.Index, second.Index)
		if !hasPeak {
			continue
		}

		height := peak.Price - (first.Price+second.Price)/2
		if height <= 0 {
			continue
		}
		found = append(found, analysis.Pattern{
			Name:        "Double Bottom",
			Type:        analysis.PatternTypeChart,
			Direction:   analysis.PatternBullish,
			StartIndex:  first.Index,
			EndIndex:    second.Index,
			Confidence:  confidence(reliabilityDoubleBottom, tightness),
			TargetPrice: peak.Price + height,
		})
	}
	return found
}

// DetectHeadAndShoulders finds a middle peak strictly above two outer
// peaks within a tolerance band; target = neckline minus head height.
func DetectHeadAndShoulders(candles []models.Candle) []analysis.Pattern {
	swings := FindSwingPoints(candles, DefaultLookaround)
	highs := swingHighs(swings)
	lows := swingLows(swings)
	if len(highs) < 3 || len(lows) < 2 {
		return nil
	}

	var found []analysis.Pattern
	for i := 2; i < len(highs); i++ {
		left, head, right := highs[i-2], highs[i-1], highs[i]
		if head.Price <= left.Price || head.Price <= right.Price {
			continue
		}
		ok, tightness := withinTolerance(left.Price, right.Price)
		if !ok {
			continue
		}

		neckline, hasNeckline := necklineBetween(lows, left.Index, right.Index)
		if !hasNeckline {
			continue
		}

		height := head.Price - neckline
		if height <= 0 {
			continue
		}
		found = append(found, analysis.Pattern{
			Name:        "Head and Shoulders",
			Type:        analysis.PatternTypeChart,
			Direction:   analysis.PatternBearish,
			StartIndex:  left.Index,
			EndIndex:    right.Index,
			Confidence:  confidence(reliabilityHeadAndShoulders, tightness),
			TargetPrice: neckline - height,
		})
	}
	return found
}

// DetectInverseHeadAndShoulders mirrors DetectHeadAndShoulders for
// troughs; target = neckline plus head depth.
func DetectInverseHeadAndShoulders(candles []models.Candle) []analysis.Pattern {
	swings := FindSwingPoints(candles, DefaultLookaround)
	highs := swingHighs(swings)
	lows := swingLows(swings)
	if len(lows) < 3 || len(highs) < 2 {
		return nil
	}

	var found []analysis.Pattern
	for i := 2; i < len(lows); i++ {
		left, head, right := lows[i-2], lows[i-1], lows[i]
		if head.Price >= left.Price || head.Price >= right.Price {
			continue
		}
		ok, tightness := withinTolerance(left.Price, right.Price)
		if !ok {
			continue
		}

		var necklinePeaks []SwingPoint
		for _, h := range highs {
			if h.Index > left.Index && h.Index < right.Index {
				necklinePeaks = append(necklinePeaks, h)
			}
		}
		if len(necklinePeaks) == 0 {
			continue
		}
		neckline := (necklinePeaks[0].Price + necklinePeaks[len(necklinePeaks)-1].Price) / 2

		depth := neckline - head.Price
		if depth <= 0 {
			continue
		}
		found = append(found, analysis.Pattern{
			Name:        "Inverse Head and Shoulders",
			Type:        analysis.PatternTypeChart,
			Direction:   analysis.PatternBullish,
			StartIndex:  left.Index,
			EndIndex:    right.Index,
			Confidence:  confidence(reliabilityHeadAndShoulders, tightness),
			TargetPrice: neckline + depth,
		})
	}
	return found
}

// DetectTriangle classifies converging boundary lines fit through recent
// swing highs and lows as ascending, descending or symmetrical.
func DetectTriangle(candles []models.Candle) []analysis.Pattern {
	swings := FindSwingPoints(candles, DefaultLookaround)
	highs := swingHighs(swings)
	lows := swingLows(swings)
	if len(highs) < 2 || len(lows) < 2 {
		return nil
	}

	topSlope := relativeSlope(highs[0], highs[len(highs)-1])
	bottomSlope := relativeSlope(lows[0], lows[len(lows)-1])

	var name string
	var direction analysis.PatternDirection
	switch {
	case math.Abs(topSlope) <= triangleFlatSlope && bottomSlope > triangleFlatSlope:
		name = "Ascending Triangle"
		direction = analysis.PatternBullish
	case math.Abs(bottomSlope) <= triangleFlatSlope && topSlope < -triangleFlatSlope:
		name = "Descending Triangle"
		direction = analysis.PatternBearish
	case topSlope < -triangleFlatSlope && bottomSlope > triangleFlatSlope:
		name = "Symmetrical Triangle"
		direction = analysis.PatternNeutral
	default:
		return nil
	}

	start := highs[0].Index
	if lows[0].Index < start {
		start = lows[0].Index
	}
	end := highs[len(highs)-1].Index
	if lows[len(lows)-1].Index > end {
		end = lows[len(lows)-1].Index
	}

	height := highs[0].Price - lows[0].Price
	lastClose := candles[len(candles)-1].Close
	target := lastClose + height
	if direction == analysis.PatternBearish {
		target = lastClose - height
	}

	return []analysis.Pattern{{
		Name:        name,
		Type:        analysis.PatternTypeChart,
		Direction:   direction,
		StartIndex:  start,
		EndIndex:    end,
		Confidence:  reliabilityTriangle,
		TargetPrice: target,
	}}
}

// relativeSlope is the per-bar price change between two swings relative
// to the first swing's price.
func relativeSlope(a, b SwingPoint) float64 {
	bars := b.Index - a.Index
	if bars == 0 || a.Price == 0 {
		return 0
	}
	return (b.Price - a.Price) / float64(bars) / a.Price
}

// troughBetween returns the lowest swing low strictly between two
// indexes.
func troughBetween(lows []SwingPoint, from, to int) (SwingPoint, bool) {
	var best SwingPoint
	found := false
	for _, l := range lows {
		if l.Index <= from || l.Index >= to {
			continue
		}
		if !found || l.Price < best.Price {
			best = l
			found = true
		}
	}
	return best, found
}

// peakBetween returns the highest swing high strictly between two
// indexes.
func peakBetween(highs []SwingPoint, from, to int) (SwingPoint, bool) {
	var best SwingPoint
	found := false
	for _, h := range highs {
		if h.Index <= from || h.Index >= to {
			continue
		}
		if !found || h.Price > best.Price {
			best = h
			found = true
		}
	}
	return best, found
}

// necklineBetween averages the first and last swing lows between the
// shoulders.
func necklineBetween(lows []SwingPoint, from, to int) (float64, bool) {
	var between []SwingPoint
	for _, l := range lows {
		if l.Index > from && l.Index < to {
			between = append(between, l)
		}
	}
	if len(between) == 0 {
		return 0, false
	}
	return (between[0].Price + between[len(between)-1].Price) / 2, true
}
