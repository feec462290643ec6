package model

// Action is the final discrete recommendation.
type Action string

const (
	ActionAccumulate Action = "accumulate"
	ActionReduce     Action = "reduce"
	ActionHold       Action = "hold"
)

// Label returns the Chinese display text.
func (a Action) Label() string {
	switch a {
	case ActionAccumulate:
		return "加仓"
	case ActionReduce:
		return "减仓"
	default:
		return "观望"
	}
}

// Stance is the overall posture derived from the composite score.
type Stance string

const (
	StanceBullish  Stance = "bullish"
	StanceNeutral  Stance = "neutral"
	StanceCautious Stance = "cautious"
)

func (s Stance) Label() string {
	switch s {
	case StanceBullish:
		return "偏多"
	case StanceCautious:
		return "谨慎"
	default:
		return "中性"
	}
}

// Bias is the direction suggested by the historical group vote.
type Bias string

const (
	BiasBuy     Bias = "buy"
	BiasSell    Bias = "sell"
	BiasNeutral Bias = "neutral"
)

func (b Bias) Label() string {
	switch b {
	case BiasBuy:
		return "偏买"
	case BiasSell:
		return "偏卖"
	default:
		return "中性"
	}
}

// Side is the trade direction a pattern implies.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Group buckets related backtest patterns.
type Group string

const (
	GroupValuation Group = "valuation"
	GroupDrawdown  Group = "drawdown"
	GroupRunLength Group = "run_length"
	GroupSwing     Group = "swing"
	GroupRSI       Group = "rsi"
	GroupTrend     Group = "trend"
	GroupOther     Group = "other"
)

// VoteGroups are the groups that take part in the decision vote, in order.
var VoteGroups = []Group{GroupValuation, GroupDrawdown, GroupRunLength, GroupSwing, GroupRSI, GroupTrend}

// PatternStats accumulates forward outcomes of one historical pattern.
type PatternStats struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Rule        string  `json:"rule"`
	Side        Side    `json:"side"`
	Group       Group   `json:"group"`
	Sample      int     `json:"sample"`
	Wins        int     `json:"wins"`
	SumReturn   float64 `json:"sum_return"`
	SumDrawdown float64 `json:"sum_drawdown"`
}

// WinRate is undefined when no sample was recorded.
func (p PatternStats) WinRate() (float64, bool) {
	if p.Sample == 0 {
		return 0, false
	}
	return float64(p.Wins) / float64(p.Sample), true
}

func (p PatternStats) AvgReturn() (float64, bool) {
	if p.Sample == 0 {
		return 0, false
	}
	return p.SumReturn / float64(p.Sample), true
}

func (p PatternStats) AvgDrawdown() (float64, bool) {
	if p.Sample == 0 {
		return 0, false
	}
	return p.SumDrawdown / float64(p.Sample), true
}

// GroupStats is the roll-up of every pattern in one group.
type GroupStats struct {
	Group       Group   `json:"group"`
	Sample      int     `json:"sample"`
	Wins        int     `json:"wins"`
	SumReturn   float64 `json:"sum_return"`
	SumDrawdown float64 `json:"sum_drawdown"`
}

func (g GroupStats) WinRate() (float64, bool) {
	if g.Sample == 0 {
		return 0, false
	}
	return float64(g.Wins) / float64(g.Sample), true
}

// BacktestResult lists pattern statistics in first-seen order.
type BacktestResult struct {
	Lookahead    int                  `json:"lookahead"`
	MinSample    int                  `json:"min_sample"`
	Insufficient bool                 `json:"insufficient"`
	Patterns     []PatternStats       `json:"patterns"`
	Groups       map[Group]GroupStats `json:"groups"`
}

// Pattern looks up a pattern by key.
func (r BacktestResult) Pattern(key string) (PatternStats, bool) {
	for _, p := range r.Patterns {
		if p.Key == key {
			return p, true
		}
	}
	return PatternStats{}, false
}

// SimpleBacktest reports plain win rates of three entry rules.
type SimpleBacktest struct {
	RunLengthWin    *float64 `json:"run_length_win"`
	RunLengthSample int      `json:"run_length_sample"`
	SwingWin        *float64 `json:"swing_win"`
	SwingSample     int      `json:"swing_sample"`
	DrawdownWin     *float64 `json:"drawdown_win"`
	DrawdownSample  int      `json:"drawdown_sample"`
}

// TrendBand is the current trend regime of the series.
type TrendBand struct {
	Level    string `json:"level"`
	Strength string `json:"strength"`
	Label    string `json:"label"`
}

const (
	BandStrong  = "strong"
	BandWeak    = "weak"
	BandNeutral = "neutral"
)

// SampleLevel grades how well a pattern's sample covers its expectation.
type SampleLevel string

const (
	SampleHigh SampleLevel = "high"
	SampleMid  SampleLevel = "mid"
	SampleLow  SampleLevel = "low"
)

// SignalAssessment is a PatternStats annotated with confidence flags.
type SignalAssessment struct {
	PatternStats
	WinRate         *float64    `json:"win_rate"`
	AvgReturn       *float64    `json:"avg_return"`
	AvgDrawdown     *float64    `json:"avg_drawdown"`
	Expected        int         `json:"expected"`
	Effective       int         `json:"effective"`
	GroupSample     int         `json:"group_sample"`
	MinSoft         int         `json:"min_soft"`
	MinHard         int         `json:"min_hard"`
	Level           SampleLevel `json:"level"`
	LowSample       bool        `json:"low_sample"`
	VeryLowSample   bool        `json:"very_low_sample"`
	LowWin          bool        `json:"low_win"`
	Downgraded      bool        `json:"downgraded"`
	ConfirmRequired bool        `json:"confirm_required"`
	TrendFiltered   bool        `json:"trend_filtered"`
	DrawdownBad     bool        `json:"drawdown_bad"`
}

// SignalTier says which candidate pool produced the best signal.
type SignalTier string

const (
	TierPrimary   SignalTier = "primary"
	TierSecondary SignalTier = "secondary"
)

// Decision is the synthesized qualitative view.
type Decision struct {
	Stance        Stance             `json:"stance"`
	TrendLabel    string             `json:"trend_label"`
	OversoldLabel string             `json:"oversold_label"`
	RiskLevel     string             `json:"risk_level"`
	GroupBias     Bias               `json:"group_bias"`
	GroupScores   map[Group]*float64 `json:"group_scores"`
	Explain       string             `json:"explain"`
}

// ExecutionPlan is the recommended action with its ordered reasons.
type ExecutionPlan struct {
	Action  Action   `json:"action"`
	Reasons []string `json:"reasons"`
}

// StrategyResult is the full output of one fund evaluation.
type StrategyResult struct {
	Code           string             `json:"code"`
	Name           string             `json:"name"`
	Estimate       IntradayEstimate   `json:"estimate"`
	Metrics        QuantMetrics       `json:"metrics"`
	Perf           PerfStats          `json:"perf"`
	Valuation      Valuation          `json:"valuation"`
	Backtest       BacktestResult     `json:"backtest"`
	Simple         SimpleBacktest     `json:"simple_backtest"`
	TrendBand      TrendBand          `json:"trend_band"`
	Assessments    []SignalAssessment `json:"assessments"`
	BestSignal     *SignalAssessment  `json:"best_signal,omitempty"`
	BestSignalTier SignalTier         `json:"best_signal_tier,omitempty"`
	Decision       Decision           `json:"decision"`
	Plan           ExecutionPlan      `json:"plan"`
	Chanlun        Chanlun            `json:"chanlun"`
	ChanlunMerge   ChanlunMerge       `json:"chanlun_merge"`
	FundType       FundType           `json:"fund_type"`
	Category       string             `json:"category"`
	MarketType     string             `json:"market_type"`
	Premium        float64            `json:"premium"`
	PremiumGate    float64            `json:"premium_gate"`
	RiskCeiling    float64            `json:"risk_ceiling"`
}

// FinalAction is the plan action after the structural merge.
func (r *StrategyResult) FinalAction() Action {
	if r.ChanlunMerge.Action != "" {
		return r.ChanlunMerge.Action
	}
	return r.Plan.Action
}

// OutcomeStatus classifies the result of evaluating one fund in a batch.
type OutcomeStatus string

const (
	OutcomeOK     OutcomeStatus = "ok"
	OutcomeSkip   OutcomeStatus = "skip"
	OutcomeFailed OutcomeStatus = "failed"
)

// Outcome wraps a StrategyResult with the batch-level status.
type Outcome struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Status OutcomeStatus   `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Notes  []string        `json:"notes,omitempty"`
	Result *StrategyResult `json:"result,omitempty"`
}
