package calculator

import "github.com/markcheno/go-talib"

// SMA returns the sliding simple moving average. The output has
// len(values)-period+1 entries; it is empty when there are fewer values than the period.
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	return talib.Sma(values, period)[period-1:]
}

// EMA returns the exponential moving average seeded with the first value.
// The output is aligned with the input; it is empty when len(values) < period.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	prev := values[0]
	for i, v := range values {
		next := v
		if i > 0 {
			next = v*k + prev*(1-k)
		}
		out[i] = next
		prev = next
	}
	return out
}

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Last returns the final element and whether one exists.
func Last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

// LastOr returns the final element, or fallback for an empty slice.
func LastOr(values []float64, fallback float64) float64 {
	if v, ok := Last(values); ok {
		return v
	}
	return fallback
}

// Tail returns the last n values, or all of them when fewer exist.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
