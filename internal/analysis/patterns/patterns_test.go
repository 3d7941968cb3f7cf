package patterns

import (
	"testing"

	"crypto-trader/internal/analysis"
	"crypto-trader/internal/models"
)

func candle(open, high, low, close float64) models.Candle {
	return models.Candle{Open: open, High: high, Low: low, Close: close, Volume: 1000}
}

// pathCandles builds a candle per price point with a small symmetric
// range around it.
func pathCandles(prices ...float64) []models.Candle {
	candles := make([]models.Candle, len(prices))
	for i, p := range prices {
		candles[i] = candle(p, p+0.5, p-0.5, p)
	}
	return candles
}

func TestDetectDoji(t *testing.T) {
	tests := []struct {
		name string
		last models.Candle
		want bool
	}{
		{"tiny body is a doji", candle(100, 102, 98, 100.1), true},
		{"large body is not", candle(100, 102, 98, 101.8), false},
		{"flat candle is not", candle(100, 100, 100, 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDoji([]models.Candle{tt.last})
			if (len(got) > 0) != tt.want {
				t.Errorf("DetectDoji = %v matches, want match=%v", len(got), tt.want)
			}
			if tt.want && got[0].Direction != analysis.PatternNeutral {
				t.Errorf("doji direction = %v, want neutral", got[0].Direction)
			}
		})
	}
}

func TestDetectHammer(t *testing.T) {
	down := candle(100, 100.5, 99, 99.5)
	hammer := candle(99.4, 99.6, 96, 99.5)

	got := DetectHammer([]models.Candle{down, hammer})
	if len(got) != 1 {
		t.Fatalf("expected one hammer, got %d", len(got))
	}
	if got[0].Direction != analysis.PatternBullish {
		t.Errorf("hammer direction = %v, want bullish", got[0].Direction)
	}

	// Same shape without the prior down candle is not a reversal.
	up := candle(99, 99.5, 98.9, 100)
	if got := DetectHammer([]models.Candle{up, hammer}); len(got) != 0 {
		t.Errorf("hammer without prior decline should not match, got %d", len(got))
	}
}

func TestDetectEngulfing(t *testing.T) {
	tests := []struct {
		name    string
		prev    models.Candle
		curr    models.Candle
		matches int
		dir     analysis.PatternDirection
	}{
		{
			"bullish engulfing",
			candle(100, 100.5, 98.5, 99),
			candle(98.8, 101.5, 98.5, 101.2),
			1, analysis.PatternBullish,
		},
		{
			"bearish engulfing",
			candle(99, 101.5, 98.5, 101),
			candle(101.2, 101.5, 98, 98.5),
			1, analysis.PatternBearish,
		},
		{
			"smaller body does not engulf",
			candle(100, 102, 97, 98),
			candle(98.5, 99.5, 98.2, 99),
			0, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEngulfing([]models.Candle{tt.prev, tt.curr})
			if len(got) != tt.matches {
				t.Fatalf("matches = %d, want %d", len(got), tt.matches)
			}
			if tt.matches > 0 && got[0].Direction != tt.dir {
				t.Errorf("direction = %v, want %v", got[0].Direction, tt.dir)
			}
		})
	}
}

func TestFindSwingPoints(t *testing.T) {
	candles := pathCandles(90, 92, 94, 96, 100, 96, 94, 92, 90, 88, 86, 88, 90, 92, 94)
	swings := FindSwingPoints(candles, 3)

	var highs, lows int
	for _, s := range swings {
		if s.IsHigh {
			highs++
			if s.Index != 4 {
				t.Errorf("swing high at index %d, want 4", s.Index)
			}
		} else {
			lows++
			if s.Index != 10 {
				t.Errorf("swing low at index %d, want 10", s.Index)
			}
		}
	}
	if highs != 1 || lows != 1 {
		t.Errorf("found %d highs and %d lows, want 1 and 1", highs, lows)
	}
}

func TestDetectDoubleTop(t *testing.T) {
	// Two peaks at ~100 separated by a trough at 90, then a decline.
	candles := pathCandles(
		84, 86, 88, 92, 96, 100, 96, 93, 91, 90,
		91, 93, 96, 99.8, 96, 93, 91, 89, 87, 85,
	)
	got := DetectDoubleTop(candles)
	if len(got) != 1 {
		t.Fatalf("expected one double top, got %d", len(got))
	}
	p := got[0]
	if p.Direction != analysis.PatternBearish {
		t.Errorf("direction = %v, want bearish", p.Direction)
	}
	// Measured move: target below the trough by the pattern height.
	if p.TargetPrice >= 90 {
		t.Errorf("target %v should be below the trough", p.TargetPrice)
	}
	if p.Confidence < reliabilityDoubleTop {
		t.Errorf("confidence %v below base reliability", p.Confidence)
	}
}

func TestDetectDoubleBottom(t *testing.T) {
	candles := pathCandles(
		116, 114, 112, 108, 104, 100, 104, 107, 109, 110,
		109, 107, 104, 100.2, 104, 107, 109, 111, 113, 115,
	)
	got := DetectDoubleBottom(candles)
	if len(got) != 1 {
		t.Fatalf("expected one double bottom, got %d", len(got))
	}
	if got[0].Direction != analysis.PatternBullish {
		t.Errorf("direction = %v, want bullish", got[0].Direction)
	}
	if got[0].TargetPrice <= 110 {
		t.Errorf("target %v should be above the confirming peak", got[0].TargetPrice)
	}
}

func TestRegistryCoversAllDetectors(t *testing.T) {
	names := map[string]bool{}
	for _, d := range Registry() {
		if d.Detect == nil {
			t.Errorf("detector %s has no function", d.Name)
		}
		if names[d.Name] {
			t.Errorf("duplicate detector name %s", d.Name)
		}
		names[d.Name] = true
	}
	if len(names) != 9 {
		t.Errorf("registry has %d detectors, want 9", len(names))
	}
}
