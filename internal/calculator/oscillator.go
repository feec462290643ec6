package calculator

import (
	"github.com/markcheno/go-talib"

	"FundSentinel/internal/model"
)

// MACD returns the last MACD line (EMA12-EMA26), its EMA9 signal and the histogram.
// Without enough data for EMA26 the line collapses to zero.
func MACD(values []float64) model.MACD {
	ema12 := EMA(values, 12)
	ema26 := EMA(values, 26)
	line := make([]float64, len(ema12))
	for i, v := range ema12 {
		slow := v
		if i < len(ema26) {
			slow = ema26[i]
		}
		line[i] = v - slow
	}
	signal := EMA(line, 9)
	var out model.MACD
	if len(line) == 0 {
		return out
	}
	out.Line = line[len(line)-1]
	if len(signal) > 0 {
		out.Signal = signal[len(signal)-1]
	}
	out.Hist = out.Line - out.Signal
	return out
}

// KDJ runs the 2/3-1/3 stochastic smoothing over every full window.
// Returns nil when there are fewer values than the period.
func KDJ(values []float64, period int) *model.KDJ {
	if period <= 0 || len(values) < period {
		return nil
	}
	k, d := 50.0, 50.0
	for i := period - 1; i < len(values); i++ {
		low, high := Extremes(values[i-period+1 : i+1])
		rsv := 50.0
		if high != low {
			rsv = (values[i] - low) / (high - low) * 100
		}
		k = 2.0/3.0*k + rsv/3.0
		d = 2.0/3.0*d + k/3.0
	}
	return &model.KDJ{K: k, D: d, J: 3*k - 2*d}
}

// BollingerPosition places the last value within mid±width·std over period.
// A zero-width band, or too little data for it, yields 0.5.
func BollingerPosition(values []float64, period int, width float64) float64 {
	if period <= 0 || len(values) < period {
		return 0.5
	}
	upperBand, _, lowerBand := talib.BBands(values, period, width, width, talib.SMA)
	last := values[len(values)-1]
	upper, lower := upperBand[len(upperBand)-1], lowerBand[len(lowerBand)-1]
	if upper == lower {
		return 0.5
	}
	return (last - lower) / (upper - lower)
}

// RunLength is the length of the trailing run of consecutive rising (up) or
// falling steps within the last window values.
func RunLength(values []float64, window int, up bool) int {
	tail := Tail(values, window)
	count := 0
	for i := 1; i < len(tail); i++ {
		moved := tail[i] < tail[i-1]
		if up {
			moved = tail[i] > tail[i-1]
		}
		if moved {
			count++
		} else {
			count = 0
		}
	}
	return count
}
