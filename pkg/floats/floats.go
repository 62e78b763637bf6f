package floats

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LastOr returns the last element of values, or fallback when the slice is
// empty or the last element is not finite. Indicator series carry NaN in
// their warmup region, so callers read tails through this.
func LastOr(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	v := values[len(values)-1]
	if !IsFinite(v) {
		return fallback
	}
	return v
}

// At returns values[i], or fallback when the index is out of range or the
// element is not finite.
func At(values []float64, i int, fallback float64) float64 {
	if i < 0 || i >= len(values) {
		return fallback
	}
	v := values[i]
	if !IsFinite(v) {
		return fallback
	}
	return v
}
