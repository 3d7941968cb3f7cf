package risk

import "math"

// Sector-based correlation estimates used when either side lacks enough
// return history for a Pearson estimate. Crypto assets move together, so
// the same-sector fallback is deliberately high.
const (
	minReturnsForCorrelation = 10
	sameSectorCorrelation    = 0.8
	crossSectorCorrelation   = 0.3
)

// pearson computes the correlation coefficient over the overlapping tail
// of two return series. Returns 0 when either series is degenerate.
func pearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// estimateCorrelation estimates the candidate's correlation with an open
// position, preferring measured return series and falling back to the
// sector heuristic.
func estimateCorrelation(candidateReturns, openReturns []float64, sameSector bool) float64 {
	if len(candidateReturns) >= minReturnsForCorrelation && len(openReturns) >= minReturnsForCorrelation {
		return pearson(candidateReturns, openReturns)
	}
	if sameSector {
		return sameSectorCorrelation
	}
	return crossSectorCorrelation
}
