package calculator

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 10 + math.Sin(float64(i)*0.7)*0.8 + float64(i)*0.01
	}
	return out
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, []float64{2, 3, 4}, SMA(values, 3))
	assert.Empty(t, SMA(values, 6))
	assert.Empty(t, SMA(values, 0))

	for _, p := range []int{1, 5, 20} {
		got := SMA(wave(80), p)
		assert.Len(t, got, 80-p+1, "period %d", p)
	}
}

func TestSMA_MatchesTalib(t *testing.T) {
	values := wave(120)
	ours := SMA(values, 20)
	ref := talib.Sma(values, 20)
	require.Len(t, ref, len(values))
	for i, v := range ours {
		assert.InDelta(t, ref[i+19], v, 1e-9)
	}
}

func TestEMA(t *testing.T) {
	assert.Empty(t, EMA([]float64{1, 2}, 3))

	got := EMA([]float64{1, 2, 3}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0])
	assert.InDelta(t, 1.5, got[1], 1e-12)
	assert.InDelta(t, 2.25, got[2], 1e-12)
}

func TestRSI_Bounds(t *testing.T) {
	values := wave(200)
	got := RSI(values, 14)
	assert.Len(t, got, len(values)-14)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	assert.Empty(t, RSI(values[:14], 14))
}

func TestRSI_MatchesTalib(t *testing.T) {
	values := wave(150)
	ours := RSI(values, 14)
	ref := talib.Rsi(values, 14)
	for i, v := range ours {
		assert.InDelta(t, ref[i+14], v, 1e-6, "index %d", i)
	}
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	// avgLoss of zero is replaced by one, so the value depends on the gain size.
	values := []float64{1, 2, 3, 4}
	got := RSI(values, 3)
	require.Len(t, got, 1)
	assert.InDelta(t, 50.0, got[0], 1e-9)
}

func TestStd_MatchesTalib(t *testing.T) {
	values := wave(90)
	ours := Std(values, 20)
	ref := talib.StdDev(values, 20, 1)
	for i, v := range ours {
		assert.InDelta(t, ref[i+19], v, 1e-6)
	}
}

func TestStd_AgreesWithWindowedStdSimple(t *testing.T) {
	values := wave(60)
	got := Std(values, 20)
	require.Len(t, got, 41)
	assert.InDelta(t, StdSimple(values[40:]), got[40], 1e-6)
	assert.Nil(t, Std(values[:10], 20))
}

func TestBollingerPosition_WindowBand(t *testing.T) {
	values := wave(60)
	window := values[40:]
	mid := Mean(window)
	sd := StdSimple(window)
	last := values[len(values)-1]
	want := (last - (mid - 2*sd)) / (4 * sd)
	assert.InDelta(t, want, BollingerPosition(values, 20, 2), 1e-6)

	upper, _, lower := talib.BBands(values, 20, 2, 2, talib.SMA)
	ref := (last - lower[59]) / (upper[59] - lower[59])
	assert.InDelta(t, ref, BollingerPosition(values, 20, 2), 1e-12)

	assert.Equal(t, 0.5, BollingerPosition(values[:5], 20, 2))
	assert.Equal(t, 0.5, BollingerPosition(nil, 20, 2))
}

func TestStdSimple(t *testing.T) {
	assert.Equal(t, 0.0, StdSimple(nil))
	assert.Equal(t, 0.0, StdSimple([]float64{3, 3, 3}))
	assert.InDelta(t, 2.0, StdSimple([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"rising", []float64{1, 2, 3}, 0},
		{"single dip", []float64{1, 2, 1.5, 2.5}, 0.25},
		{"worst of two", []float64{10, 8, 12, 6, 7}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.values)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestAnnualized(t *testing.T) {
	_, ok := AnnualizedReturn([]float64{1})
	assert.False(t, ok)

	values := make([]float64, 253)
	for i := range values {
		values[i] = 1 + float64(i)/252*0.1
	}
	ret, ok := AnnualizedReturn(values)
	require.True(t, ok)
	assert.InDelta(t, 0.1, ret, 1e-9)

	_, ok = AnnualizedVol(nil)
	assert.False(t, ok)
	vol, ok := AnnualizedVol([]float64{0.01, -0.01, 0.01, -0.01})
	require.True(t, ok)
	assert.Greater(t, vol, 0.0)

	_, ok = SharpeRatio(0.1, 0)
	assert.False(t, ok)
	sharpe, ok := SharpeRatio(0.1, 0.2)
	require.True(t, ok)
	assert.InDelta(t, 0.5, sharpe, 1e-12)
}

func TestCorrelation(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, Correlation(a, []float64{2, 4, 6, 8, 10}), 1e-12)
	assert.InDelta(t, -1.0, Correlation(a, []float64{5, 4, 3, 2, 1}), 1e-12)
	assert.Equal(t, 0.0, Correlation(a, []float64{1, 1, 1}))
	assert.Equal(t, 0.0, Correlation(nil, a))
	// Only the trailing overlap is compared.
	assert.InDelta(t, 1.0, Correlation([]float64{9, 9, 1, 2, 3}, []float64{1, 2, 3}), 1e-12)
}

func TestPositionAndReturns(t *testing.T) {
	assert.Equal(t, 0.5, Position(3, 3, 3))
	assert.InDelta(t, 0.25, Position(2, 1, 5), 1e-12)
	assert.Equal(t, 0.5, SeriesPosition(nil))

	rets := Returns([]float64{1, 1.1, 0.99})
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.1, rets[0], 1e-12)
	assert.InDelta(t, -0.1, rets[1], 1e-12)
	assert.Len(t, Returns([]float64{0, 1, 2}), 1)
}

func TestOscillators(t *testing.T) {
	flat := make([]float64, 40)
	for i := range flat {
		flat[i] = 1
	}
	macd := MACD(flat)
	assert.Equal(t, 0.0, macd.Line)
	assert.Equal(t, 0.0, macd.Hist)

	kdj := KDJ(flat, 9)
	require.NotNil(t, kdj)
	assert.InDelta(t, 50.0, kdj.K, 1e-9)
	assert.InDelta(t, 50.0, kdj.J, 1e-9)
	assert.Nil(t, KDJ(flat[:5], 9))

	assert.Equal(t, 0.5, BollingerPosition(flat, 20, 2))

	assert.Equal(t, 3, RunLength([]float64{5, 4, 5, 6, 7}, 10, true))
	assert.Equal(t, 0, RunLength([]float64{5, 4, 5, 6, 7}, 10, false))
	assert.InDelta(t, -0.05, VaR([]float64{0.01, -0.05, 0.02}, 0.05), 1e-12)
}
