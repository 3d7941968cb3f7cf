package patterns

import (
	"crypto-trader/internal/analysis"
	"crypto-trader/internal/models"
)

// DetectFunc scans a candle slice for one pattern family.
type DetectFunc func(candles []models.Candle) []analysis.Pattern

// Detector is a named entry in the detector registry.
type Detector struct {
	Name   string
	Detect DetectFunc
}

// Registry returns the fixed catalogue of pattern detectors, iterated
// directly rather than dispatched by constructed names.
func Registry() []Detector {
	return []Detector{
		{Name: "double_top", Detect: DetectDoubleTop},
		{Name: "double_bottom", Detect: DetectDoubleBottom},
		{Name: "head_and_shoulders", Detect: DetectHeadAndShoulders},
		{Name: "inverse_head_and_shoulders", Detect: DetectInverseHeadAndShoulders},
		{Name: "triangle", Detect: DetectTriangle},
		{Name: "doji", Detect: DetectDoji},
		{Name: "hammer", Detect: DetectHammer},
		{Name: "shooting_star", Detect: DetectShootingStar},
		{Name: "engulfing", Detect: DetectEngulfing},
	}
}

// DetectAll runs every registered detector and returns all matches.
// Reduction to a single bias happens in the ensemble, not here.
func DetectAll(candles []models.Candle) []analysis.Pattern {
	var all []analysis.Pattern
	for _, d := range Registry() {
		all = append(all, d.Detect(candles)...)
	}
	return all
}
