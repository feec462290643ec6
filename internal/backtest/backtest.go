// Package backtest replays historical pattern triggers and measures what
// happened over a fixed look-ahead horizon.
package backtest

import (
	"FundSentinel/internal/calculator"
	"FundSentinel/internal/model"
)

const (
	minSeries       = 60
	warmup          = 4
	runTrigger      = 9
	reversalRun     = 3
	drawdownTrigger = -0.1
	rsiOversold     = 30
	rsiOverbought   = 70
	cheapPos        = 0.2
	expensivePos    = 0.8
	strongGap       = 0.03
	mediumGap       = 0.015
)

// Pattern keys. The band keys are built from bandKey.
const (
	KeyNineTurnSell  = "nine_turn_sell"
	KeyNineTurnBuy   = "nine_turn_buy"
	KeyReversalBuy   = "reversal_buy"
	KeyReversalSell  = "reversal_sell"
	KeyDrawdownBuy   = "drawdown_buy"
	KeySwingBuy      = "swing_buy"
	KeySwingSell     = "swing_sell"
	KeyRSIOversold   = "rsi_oversold"
	KeyRSIOverbought = "rsi_overbought"
	KeyCheap         = "cheap"
	KeyExpensive     = "expensive"
)

type patternDef struct {
	name  string
	rule  string
	side  model.Side
	group model.Group
}

var patterns = map[string]patternDef{
	KeyNineTurnSell:  {"九转卖", "连续上涨计数≥9", model.SideSell, model.GroupRunLength},
	KeyNineTurnBuy:   {"九转买", "连续下跌计数≥9", model.SideBuy, model.GroupRunLength},
	KeyReversalBuy:   {"神奇反转", "连续下跌后转强", model.SideBuy, model.GroupOther},
	KeyReversalSell:  {"神奇转弱", "连续上涨后转弱", model.SideSell, model.GroupOther},
	KeyDrawdownBuy:   {"回撤抄底", "回撤≤-10%", model.SideBuy, model.GroupDrawdown},
	KeySwingBuy:      {"波段多", "MA20上穿MA60", model.SideBuy, model.GroupSwing},
	KeySwingSell:     {"波段空", "MA20下穿MA60", model.SideSell, model.GroupSwing},
	KeyRSIOversold:   {"RSI超卖", "RSI≤30", model.SideBuy, model.GroupRSI},
	KeyRSIOverbought: {"RSI超买", "RSI≥70", model.SideSell, model.GroupRSI},
	KeyCheap:         {"低估值", "历史分位≤20%", model.SideBuy, model.GroupValuation},
	KeyExpensive:     {"高估值", "历史分位≥80%", model.SideSell, model.GroupValuation},
}

// Band tiers, strongest first.
const (
	TierStrong = "strong"
	TierMedium = "medium"
	TierMild   = "mild"
)

var tierNames = map[string]string{TierStrong: "强", TierMedium: "中", TierMild: "弱"}

// BandKey returns the pattern key of a trend-band switch, e.g. "bull_band_strong".
func BandKey(bull bool, tier string) string {
	if bull {
		return "bull_band_" + tier
	}
	return "bear_band_" + tier
}

func lookupPattern(key string) patternDef {
	if def, ok := patterns[key]; ok {
		return def
	}
	for _, bull := range []bool{true, false} {
		for tier, label := range tierNames {
			if BandKey(bull, tier) != key {
				continue
			}
			if bull {
				return patternDef{"强势带·" + label, "趋势强弱带切换", model.SideBuy, model.GroupTrend}
			}
			return patternDef{"弱势带·" + label, "趋势强弱带切换", model.SideSell, model.GroupTrend}
		}
	}
	return patternDef{key, "", model.SideBuy, model.GroupOther}
}

// Sample is one pattern trigger with its forward outcome.
type Sample struct {
	Key      string
	Index    int
	Return   float64
	Drawdown float64
}

// scanState is everything carried from one index to the next.
type scanState struct {
	up       int
	down     int
	peak     float64
	lastBand string
}

// indicators are precomputed once per run; lookups are bounds-checked.
type indicators struct {
	values []float64
	ma20   []float64
	ma60   []float64
	rsi14  []float64
	low    float64
	high   float64
}

func (ind indicators) at(series []float64, i int) (float64, bool) {
	j := i - (len(ind.values) - len(series))
	if j < 0 || j >= len(series) {
		return 0, false
	}
	return series[j], true
}

// Run backtests every pattern over values with the given look-ahead.
// Series shorter than max(60, lookahead+10) produce an empty, insufficient result.
func Run(values []float64, lookahead, minSample int) model.BacktestResult {
	res := model.BacktestResult{Lookahead: lookahead, MinSample: minSample, Groups: map[model.Group]model.GroupStats{}}
	if len(values) < max(minSeries, lookahead+10) {
		res.Insufficient = true
		return res
	}
	samples := Scan(values, lookahead)
	res.Patterns, res.Groups = Aggregate(samples)
	return res
}

// Scan folds over the series and returns every trigger in index order.
func Scan(values []float64, lookahead int) []Sample {
	ind := indicators{
		values: values,
		ma20:   calculator.SMA(values, 20),
		ma60:   calculator.SMA(values, 60),
		rsi14:  calculator.RSI(values, 14),
	}
	ind.low, ind.high = calculator.Extremes(values)

	state := scanState{peak: values[0]}
	var out []Sample
	for i := warmup; i < len(values)-lookahead; i++ {
		var triggered []Sample
		state, triggered = step(state, ind, i, lookahead)
		out = append(out, triggered...)
	}
	return out
}

// step evaluates every pattern at index i.
func step(st scanState, ind indicators, i, lookahead int) (scanState, []Sample) {
	values := ind.values
	v, prev := values[i], values[i-1]
	ret := (values[i+lookahead] - v) / v
	dd := forwardDrawdown(values, i, lookahead)

	var out []Sample
	emit := func(key string) {
		out = append(out, Sample{Key: key, Index: i, Return: ret, Drawdown: dd})
	}

	runUp, runDown := st.up, st.down
	switch {
	case v > prev:
		st.up++
		st.down = 0
	case v < prev:
		st.down++
		st.up = 0
	}
	if st.up >= runTrigger {
		emit(KeyNineTurnSell)
	}
	if st.down >= runTrigger {
		emit(KeyNineTurnBuy)
	}
	// Reversals compare today's move with the run that ended yesterday.
	if runDown >= reversalRun && v > prev {
		emit(KeyReversalBuy)
	}
	if runUp >= reversalRun && v < prev {
		emit(KeyReversalSell)
	}

	if v > st.peak {
		st.peak = v
	}
	if st.peak != 0 && (v-st.peak)/st.peak <= drawdownTrigger {
		emit(KeyDrawdownBuy)
	}

	ma20, ok20 := ind.at(ind.ma20, i)
	ma60, ok60 := ind.at(ind.ma60, i)
	prev20, okPrev20 := ind.at(ind.ma20, i-1)
	prev60, okPrev60 := ind.at(ind.ma60, i-1)
	if ok20 && ok60 && okPrev20 && okPrev60 {
		if prev20 <= prev60 && ma20 > ma60 {
			emit(KeySwingBuy)
		}
		if prev20 >= prev60 && ma20 < ma60 {
			emit(KeySwingSell)
		}
	}

	if rsi, ok := ind.at(ind.rsi14, i); ok {
		if rsi <= rsiOversold {
			emit(KeyRSIOversold)
		}
		if rsi >= rsiOverbought {
			emit(KeyRSIOverbought)
		}
	}

	pos := calculator.Position(v, ind.low, ind.high)
	if pos <= cheapPos {
		emit(KeyCheap)
	}
	if pos >= expensivePos {
		emit(KeyExpensive)
	}

	if ok20 && ok60 {
		slope := 0.0
		if okPrev20 {
			slope = (ma20 - prev20) / max(1e-6, prev20)
		}
		key := ""
		switch {
		case v > ma20 && ma20 > ma60 && slope > 0:
			key = BandKey(true, bandTier(ma20, ma60))
		case v < ma20 && ma20 < ma60 && slope < 0:
			key = BandKey(false, bandTier(ma20, ma60))
		}
		if key != "" && key != st.lastBand {
			emit(key)
			st.lastBand = key
		}
	}
	return st, out
}

// forwardDrawdown is the worst move below v within the next lookahead points, as a
// non-positive fraction of v.
func forwardDrawdown(values []float64, i, lookahead int) float64 {
	v := values[i]
	if v == 0 {
		return 0
	}
	low := v
	end := min(len(values)-1, i+lookahead)
	for j := i + 1; j <= end; j++ {
		if values[j] < low {
			low = values[j]
		}
	}
	return (low - v) / v
}

func bandTier(ma20, ma60 float64) string {
	gap := (ma20 - ma60) / max(1e-6, ma60)
	if gap < 0 {
		gap = -gap
	}
	switch {
	case gap >= strongGap:
		return TierStrong
	case gap >= mediumGap:
		return TierMedium
	default:
		return TierMild
	}
}

// Aggregate folds samples into per-pattern stats (first-seen order) and group roll-ups.
func Aggregate(samples []Sample) ([]model.PatternStats, map[model.Group]model.GroupStats) {
	var stats []model.PatternStats
	index := map[string]int{}
	for _, s := range samples {
		pos, ok := index[s.Key]
		if !ok {
			def := lookupPattern(s.Key)
			stats = append(stats, model.PatternStats{
				Key:   s.Key,
				Name:  def.name,
				Rule:  def.rule,
				Side:  def.side,
				Group: def.group,
			})
			pos = len(stats) - 1
			index[s.Key] = pos
		}
		p := &stats[pos]
		p.Sample++
		p.SumReturn += s.Return
		p.SumDrawdown += s.Drawdown
		if (p.Side == model.SideBuy && s.Return > 0) || (p.Side == model.SideSell && s.Return < 0) {
			p.Wins++
		}
	}

	groups := map[model.Group]model.GroupStats{}
	for _, p := range stats {
		g := groups[p.Group]
		g.Group = p.Group
		g.Sample += p.Sample
		g.Wins += p.Wins
		g.SumReturn += p.SumReturn
		g.SumDrawdown += p.SumDrawdown
		groups[p.Group] = g
	}
	return stats, groups
}
