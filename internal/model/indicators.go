package model

// FactorKey identifies one of the eight scoring factors.
type FactorKey string

const (
	FactorTrend       FactorKey = "trend"
	FactorOversold    FactorKey = "oversold"
	FactorSentiment   FactorKey = "sentiment"
	FactorRisk        FactorKey = "risk"
	FactorFundFlow    FactorKey = "fund_flow"
	FactorLiquidity   FactorKey = "liquidity"
	FactorConsistency FactorKey = "consistency"
	FactorLinkage     FactorKey = "linkage"
)

// FactorKeys lists every factor in report order.
var FactorKeys = []FactorKey{
	FactorTrend, FactorOversold, FactorSentiment, FactorRisk,
	FactorFundFlow, FactorLiquidity, FactorConsistency, FactorLinkage,
}

var factorLabels = map[FactorKey]string{
	FactorTrend:       "趋势因子",
	FactorOversold:    "超卖因子",
	FactorSentiment:   "情绪因子",
	FactorRisk:        "风险因子",
	FactorFundFlow:    "资金因子",
	FactorLiquidity:   "流动性因子",
	FactorConsistency: "一致性因子",
	FactorLinkage:     "联动因子",
}

// Label returns the display name of the factor.
func (k FactorKey) Label() string {
	if l, ok := factorLabels[k]; ok {
		return l
	}
	return string(k)
}

// FactorScore is a single factor value in [0, 100].
type FactorScore struct {
	Key   FactorKey `json:"key"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
}

// MACD holds the last values of the MACD line, signal and histogram.
type MACD struct {
	Line   float64 `json:"line"`
	Signal float64 `json:"signal"`
	Hist   float64 `json:"hist"`
}

// KDJ holds the final stochastic K, D and J values.
type KDJ struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
	J float64 `json:"j"`
}

// QuantMetrics is the output of the multi-factor scorer.
type QuantMetrics struct {
	Last             float64               `json:"last"`
	Factors          []FactorScore         `json:"factors"`
	BaseWeights      map[FactorKey]float64 `json:"base_weights"`
	Weights          map[FactorKey]float64 `json:"weights"`
	Total            float64               `json:"total"`
	LastRSI          *float64              `json:"last_rsi,omitempty"`
	LastRSI6         *float64              `json:"last_rsi6,omitempty"`
	MACD             MACD                  `json:"macd"`
	KDJ              *KDJ                  `json:"kdj,omitempty"`
	BollingerPos     float64               `json:"bollinger_pos"`
	Vol              float64               `json:"vol"`
	AnnVol           float64               `json:"ann_vol"`
	VaR5             float64               `json:"var5"`
	MaxDrawdown      float64               `json:"max_drawdown"`
	GridPos          float64               `json:"grid_pos"`
	TDUp             int                   `json:"td_up"`
	TDDown           int                   `json:"td_down"`
	ReversalSignal   string                `json:"reversal_signal"`
	SwingSignal      string                `json:"swing_signal"`
	DrawdownSignal   string                `json:"drawdown_signal"`
	Confidence       string                `json:"confidence"`
	InsufficientData bool                  `json:"insufficient_data"`
}

// Factor returns the value of the given factor, or 50 when absent.
func (m QuantMetrics) Factor(key FactorKey) float64 {
	for _, f := range m.Factors {
		if f.Key == key {
			return f.Value
		}
	}
	return 50
}

// TrendScore is a shortcut for the trend factor.
func (m QuantMetrics) TrendScore() float64 {
	return m.Factor(FactorTrend)
}

// PerfStats summarizes realized performance over the risk window.
// Nil fields are undefined for the given series.
type PerfStats struct {
	AnnReturn            *float64 `json:"ann_return"`
	AnnVol               *float64 `json:"ann_vol"`
	Sharpe               *float64 `json:"sharpe"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	WinRate              *float64 `json:"win_rate"`
	Recent30             *float64 `json:"recent30"`
	Recent30Insufficient bool     `json:"recent30_insufficient"`
	Insufficient         bool     `json:"insufficient"`
}

// ValuationLevel is the coarse valuation classification.
type ValuationLevel string

const (
	ValuationCheap     ValuationLevel = "cheap"
	ValuationNeutral   ValuationLevel = "neutral"
	ValuationExpensive ValuationLevel = "expensive"
)

// Label returns the Chinese display text.
func (l ValuationLevel) Label() string {
	switch l {
	case ValuationCheap:
		return "估值偏低"
	case ValuationExpensive:
		return "估值偏高"
	default:
		return "估值中性"
	}
}

// Valuation explains where the last NAV sits relative to its own history.
type Valuation struct {
	Level        ValuationLevel `json:"level"`
	Label        string         `json:"label"`
	Position     *float64       `json:"position"`
	Z            *float64       `json:"z"`
	Drawdown     *float64       `json:"drawdown"`
	Percentile   *float64       `json:"percentile"`
	Band         *float64       `json:"band"`
	Premium      *float64       `json:"premium"`
	TrendFilter  string         `json:"trend_filter"`
	Suggestion   string         `json:"suggestion"`
	Explain      string         `json:"explain"`
	EstimateDays *int           `json:"estimate_days,omitempty"`
	EstimateDate string         `json:"estimate_date,omitempty"`
}
