// Package valuation explains where a fund's NAV sits against its own history.
package valuation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/config"
	"FundSentinel/internal/model"
)

const (
	drawdownWindow   = 120
	bandWindow       = 60
	percentileHigh   = 0.8
	percentileLow    = 0.2
	bandLimit        = 1.2
	cheapDrawdown    = -0.08
	trendStrongScore = 65
	trendWeakScore   = 45
	trendOkScore     = 60
	minDailyMove     = 0.002
)

// Explain classifies the last value of values as cheap, neutral or expensive.
// trendScore drives the trend filter and suggestion; premium is copied through.
// now anchors the estimated mean-reversion date.
func Explain(values []float64, trendScore float64, premium *float64, th config.Thresholds, now time.Time) model.Valuation {
	last, ok := calculator.Last(values)
	if !ok || math.IsNaN(last) || math.IsInf(last, 0) {
		return model.Valuation{
			Level:      model.ValuationNeutral,
			Label:      model.ValuationNeutral.Label(),
			Premium:    premium,
			Suggestion: "观望",
		}
	}

	low, high := calculator.Extremes(values)
	mean := calculator.Mean(values)
	sd := calculator.StdSimple(values)

	position := calculator.Position(last, low, high)
	z := 0.0
	if sd > 0 {
		z = (last - mean) / sd
	}
	drawdown := drawdownFromPeak(values, last)
	pct := percentile(values, last)
	band := rollingBand(values, last)

	level := model.ValuationNeutral
	switch {
	case position >= th.HighPos || z > th.ZHigh || pct > percentileHigh || band > bandLimit:
		level = model.ValuationExpensive
	case position <= th.LowPos || z < th.ZLow || drawdown < cheapDrawdown || pct < percentileLow || band < -bandLimit:
		level = model.ValuationCheap
	}

	filter := trendFilter(trendScore)
	v := model.Valuation{
		Level:       level,
		Label:       level.Label(),
		Position:    model.Float64(position),
		Z:           model.Float64(z),
		Drawdown:    model.Float64(drawdown),
		Percentile:  model.Float64(pct),
		Band:        model.Float64(band),
		Premium:     premium,
		TrendFilter: filter,
		Suggestion:  suggestion(level, trendScore >= trendOkScore),
		Explain:     fmt.Sprintf("分位 %.1f%% / 位置 %.1f%% / %s", pct*100, position*100, filter),
	}
	if days, ok := EstimateDays(values); ok {
		v.EstimateDays = &days
		v.EstimateDate = now.AddDate(0, 0, days).Format("2006-01-02")
	}
	return v
}

// EstimateDays estimates how many trading days the NAV needs to revert to its
// MA20 (or the full mean for short series) at the average absolute daily move.
// The estimate is clamped to [2, 30] and undefined when the series never moves.
func EstimateDays(values []float64) (int, bool) {
	last, ok := calculator.Last(values)
	if !ok {
		return 0, false
	}
	avgAbs := 0.0
	n := 0
	for i := 1; i < len(values); i++ {
		r := 0.0
		if values[i-1] != 0 {
			r = (values[i] - values[i-1]) / values[i-1]
		}
		avgAbs += math.Abs(r)
		n++
	}
	if n == 0 {
		return 0, false
	}
	avgAbs /= float64(n)
	if avgAbs <= 0 {
		return 0, false
	}
	target := calculator.Mean(values)
	if len(values) >= 20 {
		target = calculator.Mean(calculator.Tail(values, 20))
	}
	gap := math.Abs(target-last) / math.Max(1e-6, last)
	days := int(math.Ceil(gap / math.Max(avgAbs, minDailyMove)))
	return max(2, min(30, days)), true
}

func drawdownFromPeak(values []float64, last float64) float64 {
	_, peak := calculator.Extremes(calculator.Tail(values, drawdownWindow))
	if peak == 0 {
		return 0
	}
	return (last - peak) / peak
}

// percentile is the first sorted rank at or above last, over n-1.
func percentile(values []float64, last float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := sort.SearchFloat64s(sorted, last)
	if rank >= len(sorted) {
		return 0.5
	}
	return float64(rank) / float64(max(1, len(sorted)-1))
}

func rollingBand(values []float64, last float64) float64 {
	recent := calculator.Tail(values, bandWindow)
	sd := calculator.StdSimple(recent)
	if sd == 0 {
		return 0
	}
	return (last - calculator.Mean(recent)) / sd
}

func trendFilter(score float64) string {
	switch {
	case score >= trendStrongScore:
		return "趋势强"
	case score <= trendWeakScore:
		return "趋势弱"
	default:
		return "趋势中性"
	}
}

func suggestion(level model.ValuationLevel, trendOk bool) string {
	switch {
	case level == model.ValuationCheap && trendOk:
		return "考虑加仓"
	case level == model.ValuationCheap:
		return "等待趋势确认"
	case level == model.ValuationExpensive && trendOk:
		return "估值高但趋势强，谨慎减仓"
	case level == model.ValuationExpensive:
		return "考虑减仓"
	default:
		return "观望"
	}
}
