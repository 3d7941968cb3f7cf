package indicators

import (
	"math"
	"sort"

	"crypto-trader/internal/analysis"
	"crypto-trader/internal/models"
)

// Level detection parameters.
const (
	DefaultLevelLookaround = 3
	levelClusterTolerance  = 0.015 // swings within 1.5% merge into one level
)

// SupportResistance derives support and resistance levels from swing
// extrema. Swing highs cluster into resistance, swing lows into support;
// each cluster's touch count measures its strength. Fewer candles than
// one full look-around window yield no levels, not an error.
func SupportResistance(candles []models.Candle, lookaround int) []analysis.Level {
	if lookaround <= 0 {
		lookaround = DefaultLevelLookaround
	}
	if len(candles) < 2*lookaround+1 {
		return nil
	}

	var highs, lows []float64
	for i := lookaround; i < len(candles)-lookaround; i++ {
		if isSwingHigh(candles, i, lookaround) {
			highs = append(highs, candles[i].High)
		}
		if isSwingLow(candles, i, lookaround) {
			lows = append(lows, candles[i].Low)
		}
	}

	levels := clusterLevels(highs, analysis.LevelResistance)
	levels = append(levels, clusterLevels(lows, analysis.LevelSupport)...)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

func isSwingHigh(candles []models.Candle, i, lookaround int) bool {
	for j := 1; j <= lookaround; j++ {
		if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
			return false
		}
	}
	return true
}

func isSwingLow(candles []models.Candle, i, lookaround int) bool {
	for j := 1; j <= lookaround; j++ {
		if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
			return false
		}
	}
	return true
}

// clusterLevels merges prices within the cluster tolerance into single
// levels, averaging members and counting touches.
func clusterLevels(prices []float64, levelType analysis.LevelType) []analysis.Level {
	if len(prices) == 0 {
		return nil
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	var levels []analysis.Level
	clusterSum := sorted[0]
	clusterCount := 1
	anchor := sorted[0]

	flush := func() {
		levels = append(levels, analysis.Level{
			Price:      clusterSum / float64(clusterCount),
			Type:       levelType,
			TouchCount: clusterCount,
		})
	}

	for _, p := range sorted[1:] {
		if anchor != 0 && math.Abs(p-anchor)/anchor <= levelClusterTolerance {
			clusterSum += p
			clusterCount++
			continue
		}
		flush()
		clusterSum = p
		clusterCount = 1
		anchor = p
	}
	flush()
	return levels
}
