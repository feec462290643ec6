package calculator

import "math"

// Extremes returns the minimum and maximum of values. Both are 0 for an empty slice.
func Extremes(values []float64) (low, high float64) {
	if len(values) == 0 {
		return 0, 0
	}
	low, high = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return low, high
}

// Position returns where current sits within [low, high] (0.0~1.0, not clamped).
// A flat range yields 0.5.
func Position(current, low, high float64) float64 {
	if high == low {
		return 0.5
	}
	return (current - low) / (high - low)
}

// SeriesPosition is Position of the last value within the full range of values.
func SeriesPosition(values []float64) float64 {
	last, ok := Last(values)
	if !ok {
		return 0.5
	}
	low, high := Extremes(values)
	return Position(last, low, high)
}

// Returns converts a level series into simple period returns.
// Non-finite results (division by zero) are dropped.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		r := (values[i] - values[i-1]) / values[i-1]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp100 bounds a score to [0, 100].
func Clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}
