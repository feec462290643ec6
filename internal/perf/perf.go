// Package perf computes realized risk and performance statistics of a NAV series.
package perf

import (
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

const (
	minPoints    = 5
	recentWindow = 30
)

// Compute returns the performance statistics of values. Fewer than five
// points leaves every metric undefined.
func Compute(values []float64, minPerfDays int) model.PerfStats {
	n := len(values)
	if n < minPoints {
		return model.PerfStats{Recent30Insufficient: true, Insufficient: true}
	}

	returns := make([]float64, 0, n-1)
	wins := 0
	for i := 1; i < n; i++ {
		r := (values[i] - values[i-1]) / values[i-1]
		returns = append(returns, r)
		if r > 0 {
			wins++
		}
	}

	stats := model.PerfStats{
		MaxDrawdown:          model.Float64(calculator.MaxDrawdown(values)),
		WinRate:              model.Float64(float64(wins) / float64(len(returns))),
		Recent30:             model.Float64(recent(values)),
		Recent30Insufficient: n < recentWindow,
		Insufficient:         n < minPerfDays,
	}
	annRet, okRet := calculator.AnnualizedReturn(values)
	if okRet {
		stats.AnnReturn = model.Float64(annRet)
	}
	annVol, okVol := calculator.AnnualizedVol(returns)
	if okVol {
		stats.AnnVol = model.Float64(annVol)
	}
	if okRet && okVol {
		if sharpe, ok := calculator.SharpeRatio(annRet, annVol); ok {
			stats.Sharpe = model.Float64(sharpe)
		}
	}
	return stats
}

// recent is the return over the last 30 points, or the whole series when shorter.
func recent(values []float64) float64 {
	n := len(values)
	base := values[0]
	if n >= recentWindow {
		base = values[n-recentWindow]
	}
	return (values[n-1] - base) / base
}
