package quant

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/config"
	"FundSentinel/internal/model"
)

var tun = config.DefaultTunables()

func wave(n int, drift float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 + 0.03*math.Sin(float64(i)*0.4) + drift*float64(i)
	}
	return out
}

func dated(values []float64) []model.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, len(values))
	for i, v := range values {
		out[i] = model.PricePoint{Date: start.AddDate(0, 0, i).Format("2006-01-02"), Value: v}
	}
	return out
}

func TestScore_InsufficientData(t *testing.T) {
	m := Score(Input{Values: []float64{1, 1.01, 1.02}}, tun)

	assert.True(t, m.InsufficientData)
	assert.Equal(t, 50.0, m.Total)
	require.Len(t, m.Factors, 8)
	for _, f := range m.Factors {
		assert.Equal(t, 50.0, f.Value, f.Key)
	}
	sum := 0.0
	for _, w := range m.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScore_FactorsBoundedAndWeightsNormalized(t *testing.T) {
	for _, drift := range []float64{-0.004, 0, 0.004} {
		t.Run(fmt.Sprintf("drift %.3f", drift), func(t *testing.T) {
			values := wave(200, drift)
			m := Score(Input{Values: values, Premium: 0.5, QuantKey: "equity"}, tun)

			require.Len(t, m.Factors, 8)
			for _, f := range m.Factors {
				assert.GreaterOrEqual(t, f.Value, 0.0, f.Key)
				assert.LessOrEqual(t, f.Value, 100.0, f.Key)
			}
			sum := 0.0
			for _, w := range m.Weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
			assert.GreaterOrEqual(t, m.Total, 0.0)
			assert.LessOrEqual(t, m.Total, 100.0)
			assert.False(t, m.InsufficientData)
			assert.Equal(t, "高", m.Confidence)
		})
	}
}

func TestScore_TrendMonotonicInPosition(t *testing.T) {
	// Same moving-average structure, different final position: the higher
	// last value must not lower the trend score.
	base := wave(100, 0.001)
	lower := append([]float64(nil), base...)
	higher := append([]float64(nil), base...)
	lower[len(lower)-1] = base[len(base)-1] - 0.005
	higher[len(higher)-1] = base[len(base)-1] + 0.005

	lo := Score(Input{Values: lower}, tun).TrendScore()
	hi := Score(Input{Values: higher}, tun).TrendScore()
	assert.GreaterOrEqual(t, hi, lo)
}

func TestScore_Consistency(t *testing.T) {
	values := wave(60, 0)
	m := Score(Input{Values: values, EstimatedChangePct: 1.0}, tun)
	assert.Equal(t, 50.0, m.Factor(model.FactorConsistency))

	m = Score(Input{Values: values, EstimatedChangePct: 1.0, PublishedChangePct: model.Float64(0.2)}, tun)
	assert.InDelta(t, 80.0, m.Factor(model.FactorConsistency), 1e-9)
}

func TestScore_RiskPenalty(t *testing.T) {
	values := wave(60, 0)
	plain := Score(Input{Values: values}, tun).Factor(model.FactorRisk)
	low := Score(Input{Values: values, ManagerCommitment: "低"}, tun).Factor(model.FactorRisk)
	assert.InDelta(t, plain-10, low, 1e-9)
}

func TestScoreLinkage(t *testing.T) {
	values := wave(80, 0.001)
	history := dated(values)
	index := make([]model.IndexPoint, len(history))
	for i, p := range history {
		index[i] = model.IndexPoint{Date: p.Date, Close: p.Value * 3000}
	}
	assert.InDelta(t, 100.0, scoreLinkage(history, index).Value, 1e-6)

	assert.Equal(t, 50.0, scoreLinkage(history, index[:10]).Value)

	// Index dates that never overlap leave the factor neutral.
	for i := range index {
		index[i].Date = "1999-01-01"
	}
	assert.Equal(t, 50.0, scoreLinkage(history, index).Value)
}

func TestSignals(t *testing.T) {
	assert.Equal(t, "连续上涨后转弱", reversalSignal([]float64{0.01, 0.01, 0.01, 0.01, -0.01}))
	assert.Equal(t, "连续下跌后反弹", reversalSignal([]float64{-0.01, -0.01, -0.01, -0.01, 0.02}))
	assert.Equal(t, noSignal, reversalSignal([]float64{0.01, -0.01}))
	assert.Equal(t, "偏多信号", swingSignal(1.1, 1.0, 55))
	assert.Equal(t, "深度回撤抄底机会", drawdownSignal(0.2))
}
