package backtest

import (
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

// Simple measures plain win rates (exit above entry after lookahead) for three
// entry rules: at least seven consecutive declines opening a ten-point window,
// MA20 above MA60, and a drawdown deeper than 10% from the running peak.
func Simple(values []float64, lookahead int) model.SimpleBacktest {
	var out model.SimpleBacktest
	n := len(values)
	if n < 2 {
		return out
	}

	var runIdx, swingIdx, ddIdx []int
	for i := 9; i < n-lookahead; i++ {
		down := 0
		for j := i - 8; j <= i; j++ {
			if values[j] >= values[j-1] {
				break
			}
			down++
		}
		if down >= 7 {
			runIdx = append(runIdx, i)
		}
	}

	ma20 := calculator.SMA(values, 20)
	ma60 := calculator.SMA(values, 60)
	for i := 60; i < n-lookahead; i++ {
		a, b := ma20[i-(n-len(ma20))], ma60[i-(n-len(ma60))]
		if a > b {
			swingIdx = append(swingIdx, i)
		}
	}

	peak := values[0]
	for i := 1; i < n-lookahead; i++ {
		if values[i] > peak {
			peak = values[i]
		}
		if (values[i]-peak)/peak < -0.1 {
			ddIdx = append(ddIdx, i)
		}
	}

	out.RunLengthWin, out.RunLengthSample = winRate(values, runIdx, lookahead)
	out.SwingWin, out.SwingSample = winRate(values, swingIdx, lookahead)
	out.DrawdownWin, out.DrawdownSample = winRate(values, ddIdx, lookahead)
	return out
}

func winRate(values []float64, idx []int, lookahead int) (*float64, int) {
	if len(idx) == 0 {
		return nil, 0
	}
	wins := 0
	for _, i := range idx {
		exit := values[len(values)-1]
		if i+lookahead < len(values) {
			exit = values[i+lookahead]
		}
		if exit > values[i] {
			wins++
		}
	}
	return model.Float64(float64(wins) / float64(len(idx))), len(idx)
}
