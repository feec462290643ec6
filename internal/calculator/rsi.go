package calculator

// RSI computes the Wilder-smoothed relative strength index series.
// Requires at least period+1 values, otherwise returns nil. The first element
// uses simple averages of the first period changes; later ones are smoothed.
// An average loss of exactly zero is treated as 1, so an all-gain window
// yields 100-100/(1+avgGain) rather than a flat 100.
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(values)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	for i := period + 1; i < len(values); i++ {
		gain, loss := change(values[i-1], values[i])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func change(prev, curr float64) (gain, loss float64) {
	d := curr - prev
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		avgLoss = 1
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
