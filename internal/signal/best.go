package signal

import (
	"sort"

	"FundSentinel/internal/backtest"
	"FundSentinel/internal/model"
)

var primaryKeys = map[string]bool{
	backtest.KeyCheap:       true,
	backtest.KeyExpensive:   true,
	backtest.KeyDrawdownBuy: true,
}

var secondaryKeys = map[string]bool{
	backtest.KeyNineTurnBuy:                      true,
	backtest.KeyNineTurnSell:                     true,
	backtest.KeySwingBuy:                         true,
	backtest.KeySwingSell:                        true,
	backtest.BandKey(true, backtest.TierStrong):  true,
	backtest.BandKey(true, backtest.TierMedium):  true,
	backtest.BandKey(false, backtest.TierStrong): true,
	backtest.BandKey(false, backtest.TierMedium): true,
}

// Best picks the highest-scoring eligible pattern. Primary candidates
// (valuation and drawdown) are preferred whenever any is eligible.
// It returns nil when no candidate survives the gates.
func Best(assessments []model.SignalAssessment) (*model.SignalAssessment, model.SignalTier) {
	var primary, secondary []model.SignalAssessment
	for _, a := range assessments {
		if a.Downgraded || a.TrendFiltered || a.WinRate == nil {
			continue
		}
		switch {
		case primaryKeys[a.Key]:
			if !a.VeryLowSample {
				primary = append(primary, a)
			}
		case secondaryKeys[a.Key]:
			if a.Effective >= max(4, a.MinHard) {
				secondary = append(secondary, a)
			}
		}
	}

	pool, tier := primary, model.TierPrimary
	if len(pool) == 0 {
		pool, tier = secondary, model.TierSecondary
	}
	if len(pool) == 0 {
		return nil, ""
	}

	buy := top(pool, model.SideBuy)
	sell := top(pool, model.SideSell)
	switch {
	case buy != nil && sell != nil:
		if Score(*buy) >= Score(*sell) {
			return buy, tier
		}
		return sell, tier
	case buy != nil:
		return buy, tier
	default:
		return sell, tier
	}
}

func top(pool []model.SignalAssessment, side model.Side) *model.SignalAssessment {
	var matched []model.SignalAssessment
	for _, a := range pool {
		if a.Side == side {
			matched = append(matched, a)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := Score(matched[i]), Score(matched[j])
		if si != sj {
			return si > sj
		}
		return deref(matched[i].AvgReturn, 0) > deref(matched[j].AvgReturn, 0)
	})
	best := matched[0]
	return &best
}

// Score ranks a candidate: win rate and average return minus the average
// adverse excursion (0.25 when unknown), scaled by the pattern family weight.
func Score(a model.SignalAssessment) float64 {
	dd := 0.25
	if a.AvgDrawdown != nil {
		dd = *a.AvgDrawdown
		if dd < 0 {
			dd = -dd
		}
	}
	raw := deref(a.WinRate, 0)*0.6 + deref(a.AvgReturn, 0)*1.2 - dd*0.6
	return raw * familyWeight(a.Group)
}

func familyWeight(g model.Group) float64 {
	switch g {
	case model.GroupValuation, model.GroupDrawdown:
		return 1.3
	case model.GroupTrend:
		return 0.9
	case model.GroupSwing, model.GroupRunLength:
		return 0.8
	default:
		return 0.7
	}
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
