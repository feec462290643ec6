package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/backtest"
	"FundSentinel/internal/config"
	"FundSentinel/internal/model"
)

var fixedNow = time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return New(config.DefaultTunables(), WithClock(func() time.Time { return fixedNow }))
}

func series(values []float64) []model.PricePoint {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	out := make([]model.PricePoint, len(values))
	for i, v := range values {
		out[i] = model.PricePoint{Date: start.AddDate(0, 0, i).Format("2006-01-02"), Value: v}
	}
	return out
}

func input(values []float64, gsz, dwjz *float64) model.FundInput {
	return model.FundInput{
		Code:    "000001",
		Name:    "稳健混合A",
		History: series(values),
		Gsz:     gsz,
		Dwjz:    dwjz,
		AsOf:    fixedNow,
		Live:    true,
	}
}

func TestBuild_FlatSeriesHolds(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 1
	}
	res, err := newTestEngine().Build(input(values, model.Float64(1), model.Float64(1)))
	require.NoError(t, err)

	require.NotNil(t, res.Valuation.Position)
	assert.InDelta(t, 0.5, *res.Valuation.Position, 1e-9)
	require.NotNil(t, res.Valuation.Z)
	assert.InDelta(t, 0, *res.Valuation.Z, 1e-9)
	require.NotNil(t, res.Valuation.Drawdown)
	assert.InDelta(t, 0, *res.Valuation.Drawdown, 1e-9)

	assert.True(t, res.Metrics.InsufficientData)
	assert.Equal(t, model.StanceNeutral, res.Decision.Stance)
	assert.Equal(t, model.ActionHold, res.Plan.Action)
	assert.Equal(t, model.ActionHold, res.FinalAction())
	assert.Equal(t, "数据不足", res.Plan.Reasons[0])
}

func TestBuild_RisingSeriesNeverPicksSell(t *testing.T) {
	values := make([]float64, 0, 330)
	for i := 0; i < 300; i++ {
		values = append(values, 1+float64(i)/299)
	}
	for i := 0; i < 30; i++ {
		values = append(values, 2)
	}

	assert.Equal(t, model.BandStrong, backtest.CurrentBand(values[:300]).Level)

	res, err := newTestEngine().Build(input(values, model.Float64(2), model.Float64(2)))
	require.NoError(t, err)
	if res.BestSignal != nil {
		assert.NotEqual(t, model.SideSell, res.BestSignal.Side)
	}
	for _, a := range res.Assessments {
		if a.Side == model.SideSell {
			assert.True(t, a.TrendFiltered, a.Key)
		}
	}
}

func TestEvaluate_MissingPreviousNAVSkips(t *testing.T) {
	in := input([]float64{1, 1.01, 1.02}, model.Float64(1.03), nil)

	_, err := newTestEngine().Build(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	out := newTestEngine().Evaluate(in)
	assert.Equal(t, model.OutcomeSkip, out.Status)
	assert.Equal(t, ReasonMissingQuote, out.Reason)
	assert.Nil(t, out.Result)
}

func TestEvaluate_UnusableNAV(t *testing.T) {
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		out := newTestEngine().Evaluate(input([]float64{1, 1.01}, nil, model.Float64(v)))
		assert.Equal(t, model.OutcomeSkip, out.Status, "dwjz=%v", v)
	}
}

func TestEvaluate_MissingEstimateFallsBack(t *testing.T) {
	out := newTestEngine().Evaluate(input(wave(200), nil, model.Float64(1.05)))
	require.Equal(t, model.OutcomeOK, out.Status)
	assert.False(t, out.Result.Estimate.Live)
	assert.Equal(t, 1.05, out.Result.Estimate.Estimated)
	assert.Zero(t, out.Result.Premium)
	assert.Contains(t, out.Notes, NoteStaleEstimate)
}

func TestEvaluate_RecoversPanics(t *testing.T) {
	e := newTestEngine()
	e.build = func(model.FundInput) (*model.StrategyResult, error) {
		panic("index out of range")
	}
	out := e.Evaluate(input(nil, model.Float64(1), model.Float64(1)))
	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Equal(t, "策略计算失败: index out of range", out.Reason)

	e.build = func(model.FundInput) (*model.StrategyResult, error) {
		return nil, fmt.Errorf("boom")
	}
	out = e.Evaluate(input(nil, model.Float64(1), model.Float64(1)))
	assert.Equal(t, model.OutcomeFailed, out.Status)
}

func TestBuild_Idempotent(t *testing.T) {
	in := input(wave(800), model.Float64(1.02), model.Float64(1.01))
	e := newTestEngine()

	a, err := e.Build(in)
	require.NoError(t, err)
	b, err := e.Build(in)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestMarketType(t *testing.T) {
	tests := []struct {
		name, code, typeKey string
		want                string
	}{
		{"华夏沪深300ETF联接A", "000051", "index_broad", MarketLinked},
		{"广发纳斯达克100(QDII)", "270042", "qdii_equity", MarketQDII},
		{"华安黄金ETF", "518880", "commodity_gold", MarketCommodity},
		{"中金普洛斯REIT", "180102", "reits", MarketREITs},
		{"沪深300ETF", "000300", "index_broad", MarketETF},
		{"某某基金", "510300", "hybrid_flexible", MarketETF},
		{"易方达蓝筹精选混合", "005827", "hybrid_flexible", MarketOTC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarketType(tt.name, tt.code, tt.typeKey))
		})
	}
}

func TestPlan(t *testing.T) {
	neutral := model.Decision{Stance: model.StanceNeutral, GroupBias: model.BiasNeutral, TrendLabel: "趋势中性"}
	tests := []struct {
		name string
		in   planInput
		want model.Action
		last string
	}{
		{
			name: "group bias buy",
			in:   planInput{decision: withBias(neutral, model.BiasBuy), gate: 0.01, ceiling: 0.3},
			want: model.ActionAccumulate,
			last: "溢价：0.00%",
		},
		{
			name: "expensive reduces",
			in:   planInput{decision: neutral, valuation: model.Valuation{Level: model.ValuationExpensive}, gate: 0.01, ceiling: 0.3},
			want: model.ActionReduce,
			last: "溢价：0.00%",
		},
		{
			name: "risk ceiling is inclusive",
			in:   planInput{decision: withBias(neutral, model.BiasBuy), gate: 0.01, ceiling: 0.3, mdd: model.Float64(0.3)},
			want: model.ActionReduce,
			last: "风控：回撤≥30%",
		},
		{
			name: "premium gate turns accumulate into hold",
			in:   planInput{decision: withBias(neutral, model.BiasBuy), premium: 0.02, gate: 0.01, ceiling: 0.3},
			want: model.ActionHold,
			last: "溢价门槛：>1.00%",
		},
		{
			name: "premium gate turns hold into reduce",
			in:   planInput{decision: neutral, premium: 0.02, gate: 0.01, ceiling: 0.3},
			want: model.ActionReduce,
			last: "溢价门槛：>1.00%",
		},
		{
			name: "cheap valuation ignores premium gate",
			in:   planInput{decision: neutral, valuation: model.Valuation{Level: model.ValuationCheap}, premium: 0.02, gate: 0.01, ceiling: 0.3},
			want: model.ActionHold,
			last: "溢价：2.00%",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := plan(tt.in)
			assert.Equal(t, tt.want, p.Action)
			assert.Equal(t, tt.last, p.Reasons[len(p.Reasons)-1])
		})
	}
}

func TestPlan_ReasonOrder(t *testing.T) {
	best := &model.SignalAssessment{
		PatternStats: model.PatternStats{Name: "低估值", Sample: 12},
		WinRate:      model.Float64(0.625),
	}
	p := plan(planInput{
		decision:     model.Decision{GroupBias: model.BiasSell, TrendLabel: "趋势偏弱"},
		valuation:    model.Valuation{Label: "估值中性"},
		best:         best,
		premium:      0.001,
		gate:         0.01,
		ceiling:      0.3,
		mdd:          model.Float64(0.125),
		rsi:          model.Float64(28.4),
		insufficient: true,
	})
	assert.Equal(t, []string{
		"数据不足",
		"组回测倾向：偏卖",
		"回测最优：低估值（胜率 62.5% / 样本 12）",
		"趋势：趋势偏弱",
		"估值：估值中性",
		"溢价：0.10%",
		"回撤：12.50%",
		"RSI：28",
	}, p.Reasons)
	assert.Equal(t, model.ActionReduce, p.Action)
}

func TestDecide(t *testing.T) {
	tun := config.DefaultTunables()
	metrics := func(total float64, insufficient bool) model.QuantMetrics {
		return model.QuantMetrics{
			Total:            total,
			Factors:          []model.FactorScore{{Key: model.FactorTrend, Value: 75}},
			LastRSI:          model.Float64(25),
			InsufficientData: insufficient,
		}
	}

	d := decide(metrics(80, false), model.PerfStats{MaxDrawdown: model.Float64(0.1)}, model.BacktestResult{}, tun)
	assert.Equal(t, model.StanceBullish, d.Stance)
	assert.Equal(t, "趋势偏强", d.TrendLabel)
	assert.Equal(t, "超卖", d.OversoldLabel)
	assert.Equal(t, "低", d.RiskLevel)
	assert.Equal(t, "趋势偏强，RSI超卖，最大回撤10.00%，组回测中性", d.Explain)
	assert.NotContains(t, d.Explain, "趋势趋势")

	d = decide(metrics(80, false), model.PerfStats{MaxDrawdown: model.Float64(0.25)}, model.BacktestResult{}, tun)
	assert.Equal(t, model.StanceNeutral, d.Stance)
	assert.Equal(t, "中", d.RiskLevel)

	d = decide(metrics(40, false), model.PerfStats{MaxDrawdown: model.Float64(0.35)}, model.BacktestResult{}, tun)
	assert.Equal(t, model.StanceCautious, d.Stance)
	assert.Equal(t, "高", d.RiskLevel)

	d = decide(metrics(40, true), model.PerfStats{MaxDrawdown: model.Float64(0.1)}, model.BacktestResult{}, tun)
	assert.Equal(t, model.StanceNeutral, d.Stance)

	d = decide(metrics(40, false), model.PerfStats{}, model.BacktestResult{}, tun)
	assert.Equal(t, model.StanceNeutral, d.Stance)
	assert.Equal(t, "—", d.RiskLevel)
}

func TestGroupVote(t *testing.T) {
	votes := config.DefaultTunables().Votes
	groups := map[model.Group]model.GroupStats{
		model.GroupValuation: {Sample: 10, Wins: 7},
		model.GroupTrend:     {Sample: 10, Wins: 2},
	}
	bias, scores := groupVote(groups, votes)
	assert.Equal(t, model.BiasBuy, bias)
	require.NotNil(t, scores[model.GroupValuation])
	assert.InDelta(t, 0.7, *scores[model.GroupValuation], 1e-9)
	assert.Nil(t, scores[model.GroupSwing])

	groups[model.GroupDrawdown] = model.GroupStats{Sample: 10, Wins: 1}
	bias, _ = groupVote(groups, votes)
	assert.Equal(t, model.BiasSell, bias)
}

func withBias(d model.Decision, b model.Bias) model.Decision {
	d.GroupBias = b
	return d
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 + 0.1*math.Sin(float64(i)/15) + 0.0005*float64(i)
	}
	return out
}
