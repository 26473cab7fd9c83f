// Package format holds the pure result formatters: every function here maps a
// raw numeric or result value to a display string or small dataset, with a
// defined fallback for missing data. Panels call these instead of formatting
// inline so the threshold contracts live in one place.
package format

import (
	"fmt"
	"math"

	"carf/internal/types"
)

// ConfidenceLevel buckets a classification confidence for badge styling.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceBucket maps a confidence in [0,1] to a badge level.
// Boundaries are inclusive at the top: 0.8 is high, 0.5 is medium.
func ConfidenceBucket(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EntropyBucket maps a domain entropy in [0,1] to an ambiguity label.
func EntropyBucket(entropy float64) string {
	switch {
	case entropy < 0.3:
		return "Low ambiguity"
	case entropy < 0.6:
		return "Moderate ambiguity"
	default:
		return "High ambiguity"
	}
}

// SafePercentage renders a [0,1] value as a percentage, clamping out-of-range
// input. NaN renders as "N/A".
func SafePercentage(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", types.Clamp01(v)*100)
}

// FormatEffect renders a causal effect estimate to three decimal places.
func FormatEffect(effect float64) string {
	return fmt.Sprintf("%.3f", effect)
}

// Robustness renders a refutation tally as "passed/total". Zero total means
// no refutation tests ran.
func Robustness(passed, total int) string {
	if total <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d/%d", passed, total)
}

// Gamma derives the sensitivity parameter from the refutation tally:
// 1 + ratio*1.5, so a clean 5/5 run yields 2.5 and a 0/n run yields 1.
func Gamma(passed, total int) float64 {
	if total <= 0 {
		return 1
	}
	return 1 + (float64(passed)/float64(total))*1.5
}

// CurvePoint is one point of the sensitivity curve.
type CurvePoint struct {
	Gamma float64
	Bound float64
}

// SensitivityCurve generates the illustrative robustness curve shown next to
// the refutation counts. The shape is a fixed cubic decay parameterized only
// by gamma; it is a visualization aid, not a computed sensitivity analysis.
func SensitivityCurve(gamma float64) []CurvePoint {
	const n = 20
	if gamma < 1 {
		gamma = 1
	}
	points := make([]CurvePoint, n)
	for i := 0; i < n; i++ {
		x := 1 + (gamma-1)*float64(i)/float64(n-1)
		t := (x - 1) / math.Max(gamma-1, 1e-9)
		points[i] = CurvePoint{
			Gamma: x,
			Bound: 1 - t*t*t,
		}
	}
	return points
}
