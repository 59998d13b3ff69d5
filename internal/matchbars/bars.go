// Package matchbars converts 0-100 match scores into the fixed-width bar
// display used by candidate cards and back.
package matchbars

import (
	"math"
	"strings"
)

const (
	// TotalBars is the default number of bars in the match visualization.
	TotalBars = 8

	// MinScore and MaxScore bound every normalised score.
	MinScore = 0
	MaxScore = 100

	filledGlyph = "▮"
	emptyGlyph  = "▯"
)

// Round rounds half away from zero for positive values (2.5 -> 3).
func Round(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

// Clamp bounds v to [MinScore, MaxScore]. NaN is treated as MinScore.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// Normalize converts an arbitrary score into the integer [0,100] domain.
func Normalize(v float64) int {
	return Round(Clamp(v))
}

// ScoreToBars converts a score into barCount flags, the first ones filled.
// Out-of-range scores are clamped, a non-positive barCount uses TotalBars.
func ScoreToBars(score float64, barCount int) []bool {
	if barCount <= 0 {
		barCount = TotalBars
	}

	filled := Round(Clamp(score) / MaxScore * float64(barCount))

	bars := make([]bool, barCount)
	for i := range bars {
		bars[i] = i < filled
	}
	return bars
}

// BarsToScore converts bars back into a score. The conversion is lossy: the
// result can differ from the original score by up to ceil(50/len(bars)).
func BarsToScore(bars []bool) int {
	if len(bars) == 0 {
		return MinScore
	}

	filled := 0
	for _, b := range bars {
		if b {
			filled++
		}
	}

	return Round(float64(filled) / float64(len(bars)) * MaxScore)
}

// Category returns a human-readable label for the score.
func Category(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Moderate"
	case score >= 30:
		return "Weak"
	default:
		return "Poor"
	}
}

// ColorClass returns the style class name for the score.
func ColorClass(score int) string {
	return "score-" + strings.ToLower(Category(score))
}

// Render draws the bars as terminal glyphs.
func Render(bars []bool) string {
	var b strings.Builder
	for _, filled := range bars {
		if filled {
			b.WriteString(filledGlyph)
			continue
		}
		b.WriteString(emptyGlyph)
	}
	return b.String()
}
