package strategy

import (
	"fmt"
	"math"

	"FundSentinel/internal/config"
	"FundSentinel/internal/model"
)

// stanceLadder maps the composite score to a stance, first match wins.
// A bullish stance additionally needs the drawdown below MaxDrawdown.
var stanceLadder = []struct {
	MinScore    float64
	MaxDrawdown float64
	Stance      model.Stance
}{
	{70, 0.2, model.StanceBullish},
	{50, math.Inf(1), model.StanceNeutral},
}

func mapStance(score, mdd float64) model.Stance {
	for _, s := range stanceLadder {
		if score >= s.MinScore && mdd < s.MaxDrawdown {
			return s.Stance
		}
	}
	return model.StanceCautious
}

func trendLabel(score float64, th config.Thresholds) string {
	switch {
	case score >= th.TrendGood:
		return "趋势偏强"
	case score >= th.TrendWarn:
		return "趋势中性"
	default:
		return "趋势偏弱"
	}
}

func oversoldLabel(rsi *float64) string {
	switch {
	case rsi == nil:
		return "中性"
	case *rsi < 30:
		return "超卖"
	case *rsi > 70:
		return "超买"
	default:
		return "中性"
	}
}

func riskLevel(mdd *float64, th config.Thresholds) string {
	switch {
	case mdd == nil:
		return "—"
	case *mdd < th.DrawdownLow:
		return "低"
	case *mdd < th.DrawdownHigh:
		return "中"
	default:
		return "高"
	}
}

// groupVote weighs each group's win rate into a buy or sell tally.
func groupVote(groups map[model.Group]model.GroupStats, votes config.GroupVotes) (model.Bias, map[model.Group]*float64) {
	scores := make(map[model.Group]*float64, len(model.VoteGroups))
	var buy, sell float64
	for _, g := range model.VoteGroups {
		scores[g] = nil
		wr, ok := groups[g].WinRate()
		if !ok {
			continue
		}
		scores[g] = model.Float64(wr)
		w := votes.Weight(g)
		if wr >= votes.BuyAt {
			buy += w * wr
		}
		if wr <= votes.SellAt {
			sell += w * (1 - wr)
		}
	}
	switch {
	case buy > sell:
		return model.BiasBuy, scores
	case sell > buy:
		return model.BiasSell, scores
	default:
		return model.BiasNeutral, scores
	}
}

// decide synthesizes the qualitative view. Insufficient data or an
// undefined drawdown pins the stance to neutral.
func decide(m model.QuantMetrics, p model.PerfStats, bt model.BacktestResult, tun config.Tunables) model.Decision {
	d := model.Decision{
		Stance:        model.StanceNeutral,
		TrendLabel:    trendLabel(m.TrendScore(), tun.Thresholds),
		OversoldLabel: oversoldLabel(m.LastRSI),
		RiskLevel:     riskLevel(p.MaxDrawdown, tun.Thresholds),
	}
	d.GroupBias, d.GroupScores = groupVote(bt.Groups, tun.Votes)

	mddText := "—"
	if p.MaxDrawdown != nil {
		mddText = fmt.Sprintf("%.2f%%", *p.MaxDrawdown*100)
		if !m.InsufficientData && !p.Insufficient {
			d.Stance = mapStance(m.Total, *p.MaxDrawdown)
		}
	}
	d.Explain = fmt.Sprintf("%s，RSI%s，最大回撤%s，组回测%s", d.TrendLabel, d.OversoldLabel, mddText, d.GroupBias.Label())
	return d
}
