package backtest

import (
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

// CurrentBand classifies today's trend regime from the MA20/MA60 relationship
// and the MA20 slope over the whole series.
func CurrentBand(values []float64) model.TrendBand {
	neutral := model.TrendBand{Level: model.BandNeutral, Strength: tierNames[TierMild], Label: "中性"}
	ma20 := calculator.SMA(values, 20)
	ma60 := calculator.SMA(values, 60)
	m20, ok20 := calculator.Last(ma20)
	m60, ok60 := calculator.Last(ma60)
	if !ok20 || !ok60 {
		return neutral
	}
	slope := 0.0
	if len(ma20) > 1 {
		prev := ma20[len(ma20)-2]
		slope = (m20 - prev) / max(1e-6, prev)
	}
	strength := tierNames[bandTier(m20, m60)]
	switch {
	case m20 > m60 && slope > 0:
		return model.TrendBand{Level: model.BandStrong, Strength: strength, Label: "强势带·" + strength}
	case m20 < m60 && slope < 0:
		return model.TrendBand{Level: model.BandWeak, Strength: strength, Label: "弱势带·" + strength}
	default:
		neutral.Strength = strength
		return neutral
	}
}
