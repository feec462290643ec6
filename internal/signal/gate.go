// Package signal grades backtested patterns by sample confidence and picks the
// single most trustworthy one.
package signal

import (
	"math"

	"FundSentinel/internal/model"
)

// Expected-frequency priors per group: the share of history a pattern is
// expected to trigger on.
var ratePriors = map[model.Group]float64{
	model.GroupValuation: 0.18,
	model.GroupDrawdown:  0.08,
	model.GroupRunLength: 0.06,
	model.GroupSwing:     0.04,
	model.GroupRSI:       0.08,
	model.GroupTrend:     0.02,
}

const defaultRate = 0.05

// Expected is the number of triggers a pattern of group g should produce over histLen points.
func Expected(g model.Group, histLen int) int {
	rate, ok := ratePriors[g]
	if !ok {
		rate = defaultRate
	}
	return max(8, round(float64(max(1, histLen))*rate))
}

// SampleMeta is the sample-size grading of one pattern.
type SampleMeta struct {
	Expected  int
	Effective int
	MinSoft   int
	MinHard   int
	Level     model.SampleLevel
}

// AssessSample grades sample against expected, crediting 60% of the group's
// sample when that is larger.
func AssessSample(expected, sample, groupSample int) SampleMeta {
	effective := max(sample, round(float64(groupSample)*0.6))
	m := SampleMeta{
		Expected:  expected,
		Effective: effective,
		MinSoft:   clampInt(round(float64(expected)*0.3), 6, 30),
		MinHard:   clampInt(round(float64(expected)*0.15), 4, 15),
	}
	switch e := float64(effective); {
	case e >= float64(expected)*0.6:
		m.Level = model.SampleHigh
	case e >= float64(expected)*0.3:
		m.Level = model.SampleMid
	default:
		m.Level = model.SampleLow
	}
	return m
}

// Assess annotates every pattern of res with confidence flags.
// band is the current trend band level; histLen the length of the full history.
func Assess(res model.BacktestResult, band string, histLen int, winRateStrict float64) []model.SignalAssessment {
	out := make([]model.SignalAssessment, 0, len(res.Patterns))
	for _, p := range res.Patterns {
		group := res.Groups[p.Group].Sample
		meta := AssessSample(Expected(p.Group, histLen), p.Sample, group)

		a := model.SignalAssessment{
			PatternStats: p,
			Expected:     meta.Expected,
			Effective:    meta.Effective,
			GroupSample:  group,
			MinSoft:      meta.MinSoft,
			MinHard:      meta.MinHard,
			Level:        meta.Level,
		}
		if v, ok := p.WinRate(); ok {
			a.WinRate = model.Float64(v)
		}
		if v, ok := p.AvgReturn(); ok {
			a.AvgReturn = model.Float64(v)
		}
		if v, ok := p.AvgDrawdown(); ok {
			a.AvgDrawdown = model.Float64(v)
		}

		a.LowSample = meta.Effective < meta.MinSoft
		a.VeryLowSample = meta.Effective < meta.MinHard
		a.LowWin = a.WinRate != nil && *a.WinRate < winRateStrict
		a.Downgraded = !a.LowSample && a.LowWin
		a.ConfirmRequired = a.Downgraded
		switch p.Side {
		case model.SideBuy:
			a.TrendFiltered = band != model.BandStrong
		case model.SideSell:
			a.TrendFiltered = band != model.BandWeak
		}
		a.DrawdownBad = a.AvgDrawdown != nil && *a.AvgDrawdown <= -0.2
		out = append(out, a)
	}
	return out
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
