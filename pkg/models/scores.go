package models

import "math"

// ClampScore coerces an LLM-provided score into [0,100]. Non-finite values
// fall back to def. This is the single validation point for numeric fields
// entering from the LLM boundary; downstream code assumes already-valid data.
func ClampScore(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp01 coerces a value into [0,1], falling back to def when non-finite.
func Clamp01(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Min(1, math.Max(0, v))
}

// ClampSigned coerces a value into [-1,1], falling back to def when non-finite.
func ClampSigned(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Min(1, math.Max(-1, v))
}

// IsValidScore reports whether v is a finite number in [0,100].
func IsValidScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}
