package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/model"
)

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func TestRun_TooShort(t *testing.T) {
	res := Run(linear(59, 1, 2), 20, 30)
	assert.True(t, res.Insufficient)
	assert.Empty(t, res.Patterns)

	// Long enough for 60 points but not for lookahead+10.
	res = Run(linear(65, 1, 2), 60, 30)
	assert.True(t, res.Insufficient)
}

func TestRun_RisingSeries(t *testing.T) {
	res := Run(linear(200, 1, 2), 20, 30)
	require.False(t, res.Insufficient)

	sell, ok := res.Pattern(KeyNineTurnSell)
	require.True(t, ok)
	assert.Equal(t, model.GroupRunLength, sell.Group)
	assert.Equal(t, 0, sell.Wins, "a rising series never rewards a sell")
	rate, ok := sell.WinRate()
	require.True(t, ok)
	assert.Equal(t, 0.0, rate)

	cheap, ok := res.Pattern(KeyCheap)
	require.True(t, ok)
	assert.Equal(t, cheap.Sample, cheap.Wins)

	_, ok = res.Pattern(KeyDrawdownBuy)
	assert.False(t, ok)

	// A single bull-band switch is recorded, never repeated while the tag holds.
	bands := 0
	for _, p := range res.Patterns {
		if p.Group == model.GroupTrend {
			bands += p.Sample
		}
	}
	assert.LessOrEqual(t, bands, 3)
	assert.GreaterOrEqual(t, bands, 1)
}

func TestRun_GroupTotals(t *testing.T) {
	values := make([]float64, 300)
	for i := range values {
		values[i] = 1 + 0.2*math.Sin(float64(i)/15) + float64(i)*0.0005
	}
	res := Run(values, 20, 30)
	require.NotEmpty(t, res.Patterns)

	totals := map[model.Group]int{}
	for _, p := range res.Patterns {
		totals[p.Group] += p.Sample
		assert.LessOrEqual(t, p.Wins, p.Sample)
		dd, ok := p.AvgDrawdown()
		require.True(t, ok)
		assert.LessOrEqual(t, dd, 0.0)
	}
	for g, total := range totals {
		assert.Equal(t, total, res.Groups[g].Sample, g)
	}
}

func TestScan_DrawdownAndForward(t *testing.T) {
	values := linear(40, 1, 2)
	values = append(values, linear(40, 2, 1.5)...)
	values = append(values, linear(40, 1.5, 1.6)...)
	samples := Scan(values, 10)

	var dd []Sample
	for _, s := range samples {
		if s.Key == KeyDrawdownBuy {
			dd = append(dd, s)
		}
	}
	require.NotEmpty(t, dd)
	for _, s := range dd {
		assert.LessOrEqual(t, (values[s.Index]-2)/2, -0.1)
		assert.InDelta(t, (values[s.Index+10]-values[s.Index])/values[s.Index], s.Return, 1e-12)
	}
}

func TestStep_ReversalUsesRunBeforeToday(t *testing.T) {
	keys := func(samples []Sample) []string {
		var out []string
		for _, s := range samples {
			out = append(out, s.Key)
		}
		return out
	}

	ind := indicators{values: []float64{1.0, 0.99, 0.98, 0.97, 1.0, 1.01}, low: 0.9, high: 1.1}
	st, got := step(scanState{down: 3, peak: 1.0}, ind, 4, 1)
	assert.Contains(t, keys(got), KeyReversalBuy)
	assert.Equal(t, 1, st.up)
	assert.Equal(t, 0, st.down)

	_, got = step(scanState{down: 2, peak: 1.0}, ind, 4, 1)
	assert.NotContains(t, keys(got), KeyReversalBuy)

	ind = indicators{values: []float64{1.0, 1.01, 1.02, 1.03, 1.0, 0.99}, low: 0.9, high: 1.1}
	_, got = step(scanState{up: 3, peak: 1.03}, ind, 4, 1)
	assert.Contains(t, keys(got), KeyReversalSell)
}

func TestAggregate_FirstSeenOrder(t *testing.T) {
	stats, groups := Aggregate([]Sample{
		{Key: KeyExpensive, Return: -0.02, Drawdown: -0.01},
		{Key: KeyCheap, Return: 0.03, Drawdown: -0.02},
		{Key: KeyExpensive, Return: 0.01, Drawdown: -0.03},
		{Key: BandKey(true, TierStrong), Return: 0.01},
	})
	require.Len(t, stats, 3)
	assert.Equal(t, KeyExpensive, stats[0].Key)
	assert.Equal(t, 2, stats[0].Sample)
	assert.Equal(t, 1, stats[0].Wins)
	assert.Equal(t, "强势带·强", stats[2].Name)
	assert.Equal(t, model.SideBuy, stats[2].Side)

	v := groups[model.GroupValuation]
	assert.Equal(t, 3, v.Sample)
	assert.Equal(t, 2, v.Wins)
	assert.Equal(t, 1, groups[model.GroupTrend].Sample)
}

func TestCurrentBand(t *testing.T) {
	assert.Equal(t, model.BandNeutral, CurrentBand(linear(30, 1, 2)).Level)

	up := CurrentBand(linear(120, 1, 2))
	assert.Equal(t, model.BandStrong, up.Level)
	assert.Equal(t, "强", up.Strength)

	down := CurrentBand(linear(120, 2, 1))
	assert.Equal(t, model.BandWeak, down.Level)
}

func TestSimple(t *testing.T) {
	values := linear(40, 1, 2)
	values = append(values, linear(40, 2, 1.6)...)
	values = append(values, linear(40, 1.6, 2.2)...)
	s := Simple(values, 10)

	require.NotNil(t, s.RunLengthWin)
	assert.Greater(t, s.RunLengthSample, 0)
	require.NotNil(t, s.DrawdownWin)
	require.NotNil(t, s.SwingWin)

	empty := Simple([]float64{1}, 10)
	assert.Nil(t, empty.SwingWin)
	assert.Equal(t, 0, empty.SwingSample)
}
