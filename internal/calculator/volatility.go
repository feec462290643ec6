package calculator

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"
)

// TradingDays is the annualization base.
const TradingDays = 252

// Std returns the sliding population standard deviation, aligned like SMA.
func Std(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	return talib.StdDev(values, period, 1)[period-1:]
}

// StdSimple is the population standard deviation of the whole slice, 0 when empty.
func StdSimple(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// MaxDrawdown returns the worst peak-to-trough decline as a positive fraction.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return math.Abs(worst)
}

// AnnualizedReturn compounds the total return over (n-1)/252 years.
// Undefined for fewer than two values.
func AnnualizedReturn(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	total := values[len(values)-1]/values[0] - 1
	years := float64(len(values)-1) / TradingDays
	return math.Pow(1+total, 1/years) - 1, true
}

// AnnualizedVol is the sample standard deviation of returns scaled by sqrt(252).
// Undefined for fewer than two returns.
func AnnualizedVol(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	mean := Mean(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance) * math.Sqrt(TradingDays), true
}

// SharpeRatio is annRet/annVol, undefined when annVol is zero.
func SharpeRatio(annRet, annVol float64) (float64, bool) {
	if annVol == 0 || math.IsNaN(annVol) {
		return 0, false
	}
	return annRet / annVol, true
}

// Correlation is the Pearson coefficient over the trailing min(len(a), len(b)) points.
// Returns 0 when either side is empty or has no variance.
func Correlation(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	xs, ys := a[len(a)-n:], b[len(b)-n:]
	meanX, meanY := Mean(xs), Mean(ys)
	var num, dx, dy float64
	for i := 0; i < n; i++ {
		vx, vy := xs[i]-meanX, ys[i]-meanY
		num += vx * vy
		dx += vx * vx
		dy += vy * vy
	}
	denom := math.Sqrt(dx * dy)
	if denom == 0 {
		return 0
	}
	return num / denom
}

// VaR returns the historical value-at-risk quantile of returns (e.g. q=0.05).
func VaR(returns []float64, q float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
