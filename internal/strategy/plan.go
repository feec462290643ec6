package strategy

import (
	"fmt"
	"regexp"
	"strings"

	"FundSentinel/internal/model"
)

// Market types, matching the keys of config.PremiumGates.
const (
	MarketLinked    = "linked"
	MarketQDII      = "qdii"
	MarketCommodity = "commodity"
	MarketREITs     = "reits"
	MarketETF       = "etf"
	MarketOTC       = "otc"
)

var (
	qdiiName     = regexp.MustCompile(`(?i)QDII`)
	etfName      = regexp.MustCompile(`(?i)ETF`)
	exchangeCode = regexp.MustCompile(`^[5169]\d{5}$`)
)

// MarketType classifies where a fund trades. The order of checks matters.
func MarketType(name, code, typeKey string) string {
	switch {
	case strings.Contains(name, "联接"):
		return MarketLinked
	case qdiiName.MatchString(name):
		return MarketQDII
	case strings.HasPrefix(typeKey, "commodity_"):
		return MarketCommodity
	case typeKey == "reits":
		return MarketREITs
	case etfName.MatchString(name) || exchangeCode.MatchString(code):
		return MarketETF
	default:
		return MarketOTC
	}
}

type planInput struct {
	decision     model.Decision
	valuation    model.Valuation
	best         *model.SignalAssessment
	premium      float64
	gate         float64
	ceiling      float64
	mdd          *float64
	rsi          *float64
	insufficient bool
}

// plan turns the decision into an action and its ordered reasons.
func plan(in planInput) model.ExecutionPlan {
	action := model.ActionHold
	switch {
	case in.decision.GroupBias == model.BiasBuy:
		action = model.ActionAccumulate
	case in.decision.GroupBias == model.BiasSell:
		action = model.ActionReduce
	case in.decision.Stance == model.StanceBullish && in.valuation.Level != model.ValuationExpensive:
		action = model.ActionAccumulate
	case in.decision.Stance == model.StanceCautious || in.valuation.Level == model.ValuationExpensive:
		action = model.ActionReduce
	}

	var reasons []string
	if in.insufficient {
		reasons = append(reasons, "数据不足")
	}
	reasons = append(reasons, "组回测倾向："+in.decision.GroupBias.Label())
	if in.best != nil && in.best.WinRate != nil {
		reasons = append(reasons, fmt.Sprintf("回测最优：%s（胜率 %.1f%% / 样本 %d）", in.best.Name, *in.best.WinRate*100, in.best.Sample))
	}
	reasons = append(reasons,
		"趋势："+in.decision.TrendLabel,
		"估值："+in.valuation.Label,
		fmt.Sprintf("溢价：%.2f%%", in.premium*100),
	)
	if in.mdd != nil {
		reasons = append(reasons, fmt.Sprintf("回撤：%.2f%%", *in.mdd*100))
	}
	if in.rsi != nil {
		reasons = append(reasons, fmt.Sprintf("RSI：%.0f", *in.rsi))
	}

	if in.mdd != nil && *in.mdd >= in.ceiling {
		action = model.ActionReduce
		reasons = append(reasons, fmt.Sprintf("风控：回撤≥%.0f%%", in.ceiling*100))
	}
	if in.premium > in.gate && in.valuation.Level != model.ValuationCheap {
		if action == model.ActionAccumulate {
			action = model.ActionHold
		} else {
			action = model.ActionReduce
		}
		reasons = append(reasons, fmt.Sprintf("溢价门槛：>%.2f%%", in.gate*100))
	}
	return model.ExecutionPlan{Action: action, Reasons: reasons}
}
