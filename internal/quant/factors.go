package quant

import (
	"math"

	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

const (
	noSignal      = "暂无明显信号"
	momentumDays  = 21
	linkageWindow = 120
	linkageMin    = 30
)

func factor(key model.FactorKey, v float64) model.FactorScore {
	return model.FactorScore{Key: key, Label: key.Label(), Value: calculator.Clamp100(v)}
}

// scoreTrend rewards a high range position and stacked moving averages.
func scoreTrend(s series) model.FactorScore {
	return factor(model.FactorTrend, 50+0.4*(s.position-50)+12*float64(s.strength))
}

// scoreOversold rewards a low range position and a depressed short RSI.
func scoreOversold(s series) model.FactorScore {
	rsi := 50.0
	switch {
	case s.rsi6 != nil:
		rsi = *s.rsi6
	case s.rsi14 != nil:
		rsi = *s.rsi14
	}
	return factor(model.FactorOversold, 0.6*(100-s.position)+2*(50-rsi))
}

// scoreSentiment blends the daily win rate, calm volatility and trend strength.
func scoreSentiment(s series, targetVol float64) model.FactorScore {
	winRate := 0.0
	if len(s.returns) > 0 {
		wins := 0
		for _, r := range s.returns {
			if r > 0 {
				wins++
			}
		}
		winRate = float64(wins) / float64(len(s.returns))
	}
	calm := 1 - math.Min(s.annVol/(2*targetVol), 1)
	return factor(model.FactorSentiment, winRate*60+calm*25+float64(s.strength)/3*15)
}

// scoreRisk penalizes volatility against the category target, drawdown, and
// a weak manager commitment.
func scoreRisk(s series, targetVol float64, commitment string) model.FactorScore {
	volNorm := math.Min(s.annVol/(targetVol*1.6), 1)
	mddNorm := math.Min(s.mdd/0.3, 1)
	penalty := 0.0
	switch commitment {
	case "低":
		penalty = 10
	case "中":
		penalty = 5
	}
	return factor(model.FactorRisk, 100-volNorm*45-mddNorm*45-penalty)
}

// scoreFundFlow reads one-month momentum and the live premium as flow proxies.
func scoreFundFlow(s series, premium float64) model.FactorScore {
	momentum := 0.0
	n := len(s.values)
	if n > momentumDays {
		base := s.values[n-momentumDays]
		momentum = (s.last - base) / base
	}
	return factor(model.FactorFundFlow, 50+momentum*200+premium*200)
}

// scoreLiquidity has no data source for open-ended funds and stays neutral.
func scoreLiquidity() model.FactorScore {
	return factor(model.FactorLiquidity, 50)
}

// scoreConsistency compares the published daily change with the intraday estimate.
func scoreConsistency(published *float64, estimatedPct float64) model.FactorScore {
	if published == nil {
		return factor(model.FactorConsistency, 50)
	}
	return factor(model.FactorConsistency, 100-math.Abs(*published-estimatedPct)*25)
}

// scoreLinkage is the return correlation with the benchmark over date-aligned points.
func scoreLinkage(history []model.PricePoint, index []model.IndexPoint) model.FactorScore {
	if len(index) < linkageMin || len(history) < linkageMin {
		return factor(model.FactorLinkage, 50)
	}
	closes := make(map[string]float64, len(index))
	for _, p := range index {
		closes[p.Date] = p.Close
	}
	var fund, idx []float64
	for _, p := range history {
		if c, ok := closes[p.Date]; ok {
			fund = append(fund, p.Value)
			idx = append(idx, c)
		}
	}
	fund, idx = calculator.Tail(fund, linkageWindow), calculator.Tail(idx, linkageWindow)
	if len(fund) < linkageMin {
		return factor(model.FactorLinkage, 50)
	}
	corr := calculator.Correlation(calculator.Returns(fund), calculator.Returns(idx))
	return factor(model.FactorLinkage, (corr+1)*50)
}

// reversalSignal flags a four-day run that breaks on the latest day.
func reversalSignal(returns []float64) string {
	n := len(returns)
	if n < 5 {
		return noSignal
	}
	last := returns[n-1]
	allUp, allDown := true, true
	for _, r := range returns[n-5 : n-1] {
		allUp = allUp && r > 0
		allDown = allDown && r < 0
	}
	switch {
	case allUp && last < 0:
		return "连续上涨后转弱"
	case allDown && last > 0:
		return "连续下跌后反弹"
	default:
		return noSignal
	}
}

func swingSignal(ma20, ma60, rsi float64) string {
	if ma20 > ma60 && rsi > 50 {
		return "偏多信号"
	}
	return "偏空或震荡"
}

func drawdownSignal(mdd float64) string {
	if mdd > 0.15 {
		return "深度回撤抄底机会"
	}
	return "回撤可控"
}
