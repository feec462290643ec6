// Package strategy composes the indicator, valuation, backtest and structure
// stages into one recommendation per fund.
package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"FundSentinel/internal/backtest"
	"FundSentinel/internal/chanlun"
	"FundSentinel/internal/config"
	"FundSentinel/internal/fundtype"
	"FundSentinel/internal/model"
	"FundSentinel/internal/perf"
	"FundSentinel/internal/quant"
	"FundSentinel/internal/signal"
	"FundSentinel/internal/valuation"
)

// NoteStaleEstimate is attached to outcomes priced from the previous NAV.
const NoteStaleEstimate = "估值未更新，使用昨日净值估算"

// Engine evaluates funds against one parameter set. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	tun   config.Tunables
	now   func() time.Time
	loc   *time.Location
	build func(model.FundInput) (*model.StrategyResult, error)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source used for projected dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the calendar used for projected dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// New returns an engine using tun.
func New(tun config.Tunables, opts ...Option) *Engine {
	e := &Engine{tun: tun, now: time.Now, loc: time.UTC}
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		e.loc = loc
	}
	for _, opt := range opts {
		opt(e)
	}
	e.build = e.Build
	return e
}

// Version fingerprints the engine's parameter set.
func (e *Engine) Version() string {
	return e.tun.Version()
}

// Evaluate runs Build and folds every failure mode into the outcome.
// It never panics.
func (e *Engine) Evaluate(in model.FundInput) (out model.Outcome) {
	out = model.Outcome{Code: in.Code, Name: displayName(in)}
	defer func() {
		if r := recover(); r != nil {
			out.Status = model.OutcomeFailed
			out.Reason = fmt.Sprintf("策略计算失败: %v", r)
			out.Result = nil
		}
	}()

	res, err := e.build(in)
	if err != nil {
		var se *SkipError
		if errors.As(err, &se) {
			out.Status = model.OutcomeSkip
			out.Reason = se.Reason
			return out
		}
		out.Status = model.OutcomeFailed
		out.Reason = "策略计算失败: " + err.Error()
		return out
	}

	out.Status = model.OutcomeOK
	out.Result = res
	if !res.Estimate.Live {
		out.Notes = append(out.Notes, NoteStaleEstimate)
	}
	return out
}

// Build computes the full strategy result for one fund. It returns a
// *SkipError wrapping ErrInvalidInput when the previous NAV is unusable.
func (e *Engine) Build(in model.FundInput) (*model.StrategyResult, error) {
	est, err := estimate(in)
	if err != nil {
		return nil, err
	}

	name := displayName(in)
	ft := fundtype.Detect(name, in.Code)
	category := fundtype.Category(ft.Key)
	profile := e.tun.Categories.Profile(category)

	history := clean(in.History)
	metricHistory := model.Tail(history, min(e.tun.Indicator.StrategyWindow, profile.Window))
	metricValues := model.Values(metricHistory)
	premium := est.Premium()

	metrics := quant.Score(quant.Input{
		Values:             metricValues,
		LongHistory:        history,
		IndexHistory:       in.IndexHistory,
		Premium:            premium,
		EstimatedChangePct: est.ChangePct(),
		PublishedChangePct: in.PublishedChangePct,
		QuantKey:           fundtype.QuantKey(ft.Key),
		ManagerCommitment:  in.ManagerCommitment,
	}, e.tun)
	stats := perf.Compute(metricValues, e.tun.Indicator.MinPerfDays)
	val := valuation.Explain(metricValues, metrics.TrendScore(), model.Float64(premium), e.tun.Thresholds, e.now().In(e.loc))

	minSample := max(30, min(e.tun.Indicator.BacktestMinSample, profile.Window/4))
	bt := backtest.Run(model.Values(model.Tail(history, profile.Window)), profile.Lookahead, minSample)
	simple := backtest.Simple(metricValues, profile.Lookahead)
	band := backtest.CurrentBand(model.Values(history))

	assessments := signal.Assess(bt, band.Level, max(1, len(history)), e.tun.Indicator.WinRateStrict)
	best, tier := signal.Best(assessments)

	decision := decide(metrics, stats, bt, e.tun)
	market := MarketType(name, in.Code, ft.Key)
	gate := e.tun.Quant.Premium.Gate(market)
	execution := plan(planInput{
		decision:     decision,
		valuation:    val,
		best:         best,
		premium:      premium,
		gate:         gate,
		ceiling:      profile.RiskCeiling,
		mdd:          stats.MaxDrawdown,
		rsi:          metrics.LastRSI,
		insufficient: metrics.InsufficientData || stats.Insufficient,
	})

	cl := e.tun.Chanlun
	structure := chanlun.Detect(metricHistory, chanlun.Options{MinGap: cl.MinGap, MinPct: cl.MinPct})
	merge := chanlun.Merge(execution.Action, structure, chanlun.IndexLike(ft, name), chanlun.MergeWeights{
		Base:            cl.WeightBase,
		Chan:            cl.WeightChan,
		IndexBase:       cl.IndexWeightBase,
		IndexChan:       cl.IndexWeightChan,
		ConfidenceBoost: cl.ConfidenceBoost,
	})

	return &model.StrategyResult{
		Code:           in.Code,
		Name:           name,
		Estimate:       est,
		Metrics:        metrics,
		Perf:           stats,
		Valuation:      val,
		Backtest:       bt,
		Simple:         simple,
		TrendBand:      band,
		Assessments:    assessments,
		BestSignal:     best,
		BestSignalTier: tier,
		Decision:       decision,
		Plan:           execution,
		Chanlun:        structure,
		ChanlunMerge:   merge,
		FundType:       ft,
		Category:       category,
		MarketType:     market,
		Premium:        premium,
		PremiumGate:    gate,
		RiskCeiling:    profile.RiskCeiling,
	}, nil
}

// estimate validates the quote. A missing live estimate falls back to the
// previous NAV; a missing previous NAV cannot be evaluated.
func estimate(in model.FundInput) (model.IntradayEstimate, error) {
	if in.Dwjz == nil || !usable(*in.Dwjz) {
		return model.IntradayEstimate{}, skip(in.Code, ReasonMissingQuote)
	}
	est := model.IntradayEstimate{
		Estimated:          *in.Dwjz,
		PreviousClose:      *in.Dwjz,
		AsOf:               in.AsOf,
		PublishedChangePct: in.PublishedChangePct,
	}
	if in.Gsz != nil && usable(*in.Gsz) {
		est.Estimated = *in.Gsz
		est.Live = in.Live
	}
	return est, nil
}

// clean drops points whose value cannot be a NAV.
func clean(points []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, 0, len(points))
	for _, p := range points {
		if usable(p.Value) {
			out = append(out, p)
		}
	}
	return out
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func displayName(in model.FundInput) string {
	if in.Name != "" {
		return in.Name
	}
	return in.Code
}
