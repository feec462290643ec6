package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"FundSentinel/internal/model"
)

// Tunables groups every numeric knob of the strategy engine.
// Zero fields are filled from the `default` tags by DefaultTunables / Normalize.
type Tunables struct {
	Thresholds Thresholds     `yaml:"thresholds" json:"thresholds"`
	Indicator  Indicator      `yaml:"indicator" json:"indicator"`
	Factors    FactorWeights  `yaml:"factors" json:"factors"`
	Votes      GroupVotes     `yaml:"votes" json:"votes"`
	Quant      Quant          `yaml:"quant" json:"quant"`
	Categories Categories     `yaml:"categories" json:"categories"`
	Chanlun    ChanlunOptions `yaml:"chanlun" json:"chanlun"`
}

// Thresholds are the valuation and stance cut-offs.
type Thresholds struct {
	TrendGood    float64 `yaml:"trend_good" json:"trend_good" default:"70" validate:"gt=0,lte=100"`
	TrendWarn    float64 `yaml:"trend_warn" json:"trend_warn" default:"50" validate:"gt=0,ltefield=TrendGood"`
	LowPos       float64 `yaml:"low_pos" json:"low_pos" default:"0.2" validate:"gte=0,lte=1"`
	HighPos      float64 `yaml:"high_pos" json:"high_pos" default:"0.8" validate:"gtfield=LowPos,lte=1"`
	ZLow         float64 `yaml:"z_low" json:"z_low" default:"-1.2" validate:"lt=0"`
	ZHigh        float64 `yaml:"z_high" json:"z_high" default:"1.2" validate:"gt=0"`
	DrawdownLow  float64 `yaml:"drawdown_low" json:"drawdown_low" default:"0.15" validate:"gt=0"`
	DrawdownHigh float64 `yaml:"drawdown_high" json:"drawdown_high" default:"0.3" validate:"gtfield=DrawdownLow"`
}

// Indicator holds history-length requirements.
type Indicator struct {
	MinSignalDays     int     `yaml:"min_signal_days" json:"min_signal_days" default:"120" validate:"gt=0"`
	MinPerfDays       int     `yaml:"min_perf_days" json:"min_perf_days" default:"60" validate:"gt=0"`
	MinRSIDays        int     `yaml:"min_rsi_days" json:"min_rsi_days" default:"14" validate:"gt=0"`
	BacktestMinSample int     `yaml:"backtest_min_sample" json:"backtest_min_sample" default:"60" validate:"gt=0"`
	WinRateStrict     float64 `yaml:"win_rate_strict" json:"win_rate_strict" default:"0.55" validate:"gt=0,lt=1"`
	StrategyWindow    int     `yaml:"strategy_window" json:"strategy_window" default:"720" validate:"gt=0"`
}

// FactorWeights are the base weights of the eight factors and the tilt parameters.
type FactorWeights struct {
	Trend       float64 `yaml:"trend" json:"trend" default:"0.15" validate:"gte=0"`
	Oversold    float64 `yaml:"oversold" json:"oversold" default:"0.15" validate:"gte=0"`
	Sentiment   float64 `yaml:"sentiment" json:"sentiment" default:"0.08" validate:"gte=0"`
	Risk        float64 `yaml:"risk" json:"risk" default:"0.25" validate:"gte=0"`
	FundFlow    float64 `yaml:"fund_flow" json:"fund_flow" default:"0.12" validate:"gte=0"`
	Liquidity   float64 `yaml:"liquidity" json:"liquidity" default:"0.1" validate:"gte=0"`
	Consistency float64 `yaml:"consistency" json:"consistency" default:"0.1" validate:"gte=0"`
	Linkage     float64 `yaml:"linkage" json:"linkage" default:"0.05" validate:"gte=0"`
	TiltBase    float64 `yaml:"tilt_base" json:"tilt_base" default:"0.5" validate:"gte=0"`
	TiltDiv     float64 `yaml:"tilt_div" json:"tilt_div" default:"200" validate:"gt=0"`
}

// Base returns the untilted weight of every factor.
func (w FactorWeights) Base() map[model.FactorKey]float64 {
	return map[model.FactorKey]float64{
		model.FactorTrend:       w.Trend,
		model.FactorOversold:    w.Oversold,
		model.FactorSentiment:   w.Sentiment,
		model.FactorRisk:        w.Risk,
		model.FactorFundFlow:    w.FundFlow,
		model.FactorLiquidity:   w.Liquidity,
		model.FactorConsistency: w.Consistency,
		model.FactorLinkage:     w.Linkage,
	}
}

// Tilt scales each base weight by TiltBase + score/TiltDiv and renormalizes to sum to 1.
func (w FactorWeights) Tilt(scores []model.FactorScore) map[model.FactorKey]float64 {
	base := w.Base()
	out := make(map[model.FactorKey]float64, len(scores))
	sum := 0.0
	for _, f := range scores {
		adj := base[f.Key] * (w.TiltBase + f.Value/w.TiltDiv)
		out[f.Key] = adj
		sum += adj
	}
	if sum > 0 {
		for k := range out {
			out[k] /= sum
		}
	}
	return out
}

// Normalized returns the base weights scaled to sum to 1.
func (w FactorWeights) Normalized() map[model.FactorKey]float64 {
	out := w.Base()
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for k := range out {
			out[k] /= sum
		}
	}
	return out
}

// GroupVotes weights the backtest groups in the decision vote.
type GroupVotes struct {
	Valuation float64 `yaml:"valuation" json:"valuation" default:"1.6" validate:"gte=0"`
	Drawdown  float64 `yaml:"drawdown" json:"drawdown" default:"1.4" validate:"gte=0"`
	RunLength float64 `yaml:"run_length" json:"run_length" default:"0.7" validate:"gte=0"`
	Swing     float64 `yaml:"swing" json:"swing" default:"0.6" validate:"gte=0"`
	RSI       float64 `yaml:"rsi" json:"rsi" default:"0.7" validate:"gte=0"`
	Trend     float64 `yaml:"trend" json:"trend" default:"0.4" validate:"gte=0"`
	BuyAt     float64 `yaml:"buy_at" json:"buy_at" default:"0.56" validate:"gt=0,lte=1"`
	SellAt    float64 `yaml:"sell_at" json:"sell_at" default:"0.44" validate:"gte=0,ltfield=BuyAt"`
}

// Weight returns the vote weight of a group; unknown groups get 0.6.
func (v GroupVotes) Weight(g model.Group) float64 {
	switch g {
	case model.GroupValuation:
		return v.Valuation
	case model.GroupDrawdown:
		return v.Drawdown
	case model.GroupRunLength:
		return v.RunLength
	case model.GroupSwing:
		return v.Swing
	case model.GroupRSI:
		return v.RSI
	case model.GroupTrend:
		return v.Trend
	default:
		return 0.6
	}
}

// ByQuantKey holds one value per quant key (bond, equity, qdii).
type ByQuantKey struct {
	Bond   float64 `yaml:"bond" json:"bond"`
	Equity float64 `yaml:"equity" json:"equity"`
	QDII   float64 `yaml:"qdii" json:"qdii"`
}

// For picks the value for key, falling back to Equity.
func (b ByQuantKey) For(key string) float64 {
	switch key {
	case "bond":
		return b.Bond
	case "qdii":
		return b.QDII
	default:
		return b.Equity
	}
}

// PremiumGates are the maximum tolerated estimate premiums per market type.
type PremiumGates struct {
	Default   float64 `yaml:"default" json:"default" default:"0.01" validate:"gt=0"`
	ETF       float64 `yaml:"etf" json:"etf" default:"0.008" validate:"gt=0"`
	Linked    float64 `yaml:"linked" json:"linked" default:"0.006" validate:"gt=0"`
	OTC       float64 `yaml:"otc" json:"otc" default:"0.012" validate:"gt=0"`
	QDII      float64 `yaml:"qdii" json:"qdii" default:"0.012" validate:"gt=0"`
	Commodity float64 `yaml:"commodity" json:"commodity" default:"0.012" validate:"gt=0"`
	REITs     float64 `yaml:"reits" json:"reits" default:"0.01" validate:"gt=0"`
}

// Gate returns the premium threshold for a market type.
func (p PremiumGates) Gate(marketType string) float64 {
	switch marketType {
	case "etf":
		return p.ETF
	case "linked":
		return p.Linked
	case "otc":
		return p.OTC
	case "qdii":
		return p.QDII
	case "commodity":
		return p.Commodity
	case "reits":
		return p.REITs
	default:
		return p.Default
	}
}

// Quant holds scorer targets and the premium gates.
type Quant struct {
	TargetVol  ByQuantKey   `yaml:"target_vol" json:"target_vol"`
	RiskBudget ByQuantKey   `yaml:"risk_budget" json:"risk_budget"`
	Premium    PremiumGates `yaml:"premium" json:"premium"`
}

// CategoryProfile sizes the history windows for one fund category.
type CategoryProfile struct {
	Window      int     `yaml:"window" json:"window" validate:"gt=0"`
	Lookahead   int     `yaml:"lookahead" json:"lookahead" validate:"gt=0"`
	RiskCeiling float64 `yaml:"risk_ceiling" json:"risk_ceiling" validate:"gt=0,lte=1"`
}

// Categories holds a profile per category (money, bond, qdii, equity).
type Categories struct {
	Money  CategoryProfile `yaml:"money" json:"money"`
	Bond   CategoryProfile `yaml:"bond" json:"bond"`
	QDII   CategoryProfile `yaml:"qdii" json:"qdii"`
	Equity CategoryProfile `yaml:"equity" json:"equity"`
}

// Profile returns the profile for a category, falling back to Equity.
func (c Categories) Profile(category string) CategoryProfile {
	switch category {
	case "money":
		return c.Money
	case "bond":
		return c.Bond
	case "qdii":
		return c.QDII
	default:
		return c.Equity
	}
}

// ChanlunOptions configures stroke detection and the merge weights.
type ChanlunOptions struct {
	MinGap          int     `yaml:"min_gap" json:"min_gap" default:"5" validate:"gt=0"`
	MinPct          float64 `yaml:"min_pct" json:"min_pct" default:"0.01" validate:"gt=0"`
	WeightBase      float64 `yaml:"weight_base" json:"weight_base" default:"0.7" validate:"gte=0,lte=1"`
	WeightChan      float64 `yaml:"weight_chan" json:"weight_chan" default:"0.3" validate:"gte=0,lte=1"`
	IndexWeightBase float64 `yaml:"index_weight_base" json:"index_weight_base" default:"0.6" validate:"gte=0,lte=1"`
	IndexWeightChan float64 `yaml:"index_weight_chan" json:"index_weight_chan" default:"0.4" validate:"gte=0,lte=1"`
	ConfidenceBoost float64 `yaml:"confidence_boost" json:"confidence_boost" default:"0.2" validate:"gte=0,lte=1"`
}

// SetDefaults fills the per-key tables, which struct tags cannot express.
// It is invoked by defaults.Set.
func (q *Quant) SetDefaults() {
	if q.TargetVol == (ByQuantKey{}) {
		q.TargetVol = ByQuantKey{Bond: 0.06, Equity: 0.15, QDII: 0.18}
	}
	if q.RiskBudget == (ByQuantKey{}) {
		q.RiskBudget = ByQuantKey{Bond: 0.12, Equity: 0.18, QDII: 0.25}
	}
}

// SetDefaults fills any category left unset.
func (c *Categories) SetDefaults() {
	fill := func(p *CategoryProfile, window, lookahead int, ceiling float64) {
		if p.Window == 0 {
			p.Window = window
		}
		if p.Lookahead == 0 {
			p.Lookahead = lookahead
		}
		if p.RiskCeiling == 0 {
			p.RiskCeiling = ceiling
		}
	}
	fill(&c.Money, 300, 10, 0.3)
	fill(&c.Bond, 600, 20, 0.2)
	fill(&c.QDII, 1500, 60, 0.35)
	fill(&c.Equity, 1800, 40, 0.3)
}

var validate = validator.New()

// DefaultTunables returns the stock parameter set.
func DefaultTunables() Tunables {
	var t Tunables
	if err := t.Normalize(); err != nil {
		panic(fmt.Sprintf("default tunables: %v", err))
	}
	return t
}

// Normalize applies defaults to unset fields and validates the result.
func (t *Tunables) Normalize() error {
	if err := defaults.Set(t); err != nil {
		return fmt.Errorf("apply tunable defaults: %w", err)
	}
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("validate tunables: %w", err)
	}
	return nil
}

// Version is a short stable fingerprint of the parameter set, shown in reports.
func (t Tunables) Version() string {
	data, err := json.Marshal(t)
	if err != nil {
		return "unknown"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:10]
}
