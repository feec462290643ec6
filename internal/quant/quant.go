// Package quant scores a fund on eight factors and blends them with tilted weights.
package quant

import (
	"math"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/config"
	"FundSentinel/internal/model"
)

// Input is what the scorer needs beyond the tunables.
type Input struct {
	// Values is the metric window of NAVs, oldest first.
	Values []float64
	// LongHistory is the full dated history, used for index alignment.
	LongHistory  []model.PricePoint
	IndexHistory []model.IndexPoint
	// Premium is (estimate - previous NAV) / previous NAV.
	Premium            float64
	EstimatedChangePct float64
	PublishedChangePct *float64
	QuantKey           string
	ManagerCommitment  string
}

// series bundles the derived indicator series shared by the factors.
type series struct {
	values   []float64
	returns  []float64
	last     float64
	ma5      float64
	ma20     float64
	ma60     float64
	rsi14    *float64
	rsi6     *float64
	annVol   float64
	mdd      float64
	position float64 // 0~100 within the full range
	strength int
}

// Score computes all factor values, the tilted weights and the composite score.
func Score(in Input, tun config.Tunables) model.QuantMetrics {
	if len(in.Values) < tun.Indicator.MinRSIDays {
		return neutral(in.Values, tun)
	}

	s := derive(in.Values)
	target := tun.Quant.TargetVol.For(in.QuantKey)

	factors := []model.FactorScore{
		scoreTrend(s),
		scoreOversold(s),
		scoreSentiment(s, target),
		scoreRisk(s, target, in.ManagerCommitment),
		scoreFundFlow(s, in.Premium),
		scoreLiquidity(),
		scoreConsistency(in.PublishedChangePct, in.EstimatedChangePct),
		scoreLinkage(in.LongHistory, in.IndexHistory),
	}
	weights := tun.Factors.Tilt(factors)
	total := 0.0
	for _, f := range factors {
		total += f.Value * weights[f.Key]
	}

	low, high := calculator.Extremes(s.values)
	span := high - low
	if span == 0 {
		span = 1
	}
	rsiForSignal := 50.0
	if s.rsi14 != nil {
		rsiForSignal = *s.rsi14
	}

	n := len(s.values)
	return model.QuantMetrics{
		Last:             s.last,
		Factors:          factors,
		BaseWeights:      tun.Factors.Base(),
		Weights:          weights,
		Total:            total,
		LastRSI:          s.rsi14,
		LastRSI6:         s.rsi6,
		MACD:             calculator.MACD(s.values),
		KDJ:              calculator.KDJ(s.values, 9),
		BollingerPos:     calculator.BollingerPosition(s.values, 20, 2),
		Vol:              calculator.StdSimple(s.returns),
		AnnVol:           s.annVol,
		VaR5:             calculator.VaR(s.returns, 0.05),
		MaxDrawdown:      s.mdd,
		GridPos:          (s.last - low) / span,
		TDUp:             calculator.RunLength(s.values, 10, true),
		TDDown:           calculator.RunLength(s.values, 10, false),
		ReversalSignal:   reversalSignal(s.returns),
		SwingSignal:      swingSignal(s.ma20, s.ma60, rsiForSignal),
		DrawdownSignal:   drawdownSignal(s.mdd),
		Confidence:       confidence(n, tun.Indicator.MinSignalDays),
		InsufficientData: n < tun.Indicator.MinSignalDays,
	}
}

// neutral is the all-50 result for series too short to score.
func neutral(values []float64, tun config.Tunables) model.QuantMetrics {
	factors := make([]model.FactorScore, 0, len(model.FactorKeys))
	for _, k := range model.FactorKeys {
		factors = append(factors, model.FactorScore{Key: k, Label: k.Label(), Value: 50})
	}
	return model.QuantMetrics{
		Last:             calculator.LastOr(values, 0),
		Factors:          factors,
		BaseWeights:      tun.Factors.Base(),
		Weights:          tun.Factors.Normalized(),
		Total:            50,
		BollingerPos:     0.5,
		ReversalSignal:   noSignal,
		SwingSignal:      noSignal,
		DrawdownSignal:   noSignal,
		Confidence:       "低",
		InsufficientData: true,
	}
}

func derive(values []float64) series {
	s := series{values: values, returns: calculator.Returns(values)}
	s.last = values[len(values)-1]
	s.ma5 = calculator.LastOr(calculator.SMA(values, 5), s.last)
	s.ma20 = calculator.LastOr(calculator.SMA(values, 20), s.last)
	s.ma60 = calculator.LastOr(calculator.SMA(values, 60), s.ma20)
	if v, ok := calculator.Last(calculator.RSI(values, 14)); ok {
		s.rsi14 = model.Float64(v)
	}
	if v, ok := calculator.Last(calculator.RSI(values, 6)); ok {
		s.rsi6 = model.Float64(v)
	}
	s.annVol = calculator.StdSimple(s.returns) * math.Sqrt(calculator.TradingDays)
	s.mdd = calculator.MaxDrawdown(values)

	low, high := calculator.Extremes(values)
	s.position = 50
	if high != low {
		s.position = (s.last - low) / (high - low) * 100
	}
	if s.ma5 > s.ma20 {
		s.strength++
	}
	if s.ma20 > s.ma60 {
		s.strength++
	}
	if s.last > s.ma5 {
		s.strength++
	}
	return s
}

func confidence(n, minSignalDays int) string {
	switch {
	case n >= minSignalDays:
		return "高"
	case n >= 30:
		return "中"
	default:
		return "低"
	}
}
