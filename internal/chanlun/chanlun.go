// Package chanlun detects pivot/stroke/center structure in a price series
// and derives structural buy and sell points from it.
package chanlun

import (
	"math"
	"regexp"
	"strings"

	"FundSentinel/internal/model"
)

const minPoints = 10

// Options tunes stroke detection.
type Options struct {
	MinGap int
	MinPct float64
}

// DefaultOptions matches the stock tunables.
var DefaultOptions = Options{MinGap: 5, MinPct: 0.01}

// Detect runs the full pipeline: pivots, strokes, centers, signals and trend.
func Detect(series []model.PricePoint, opts Options) model.Chanlun {
	points := finite(series)
	empty := model.Chanlun{Trend: model.ChanTrend{Direction: model.DirectionFlat}, PricePos: "未知"}
	if len(points) < minPoints {
		return empty
	}

	strokes := Strokes(Pivots(points), opts)
	centers := Centers(strokes)
	out := model.Chanlun{
		Strokes:  strokes,
		Centers:  centers,
		Trend:    Trend(strokes),
		PricePos: "未知",
	}
	if len(centers) > 0 {
		last := centers[len(centers)-1]
		out.LastCenter = &last
		out.PricePos = pricePosition(points[len(points)-1].Price, last)
		out.Signals = Classify(strokes, last)
	}
	return out
}

func finite(series []model.PricePoint) []model.Pivot {
	out := make([]model.Pivot, 0, len(series))
	for i, p := range series {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, model.Pivot{Index: i, Date: p.Date, Price: p.Value})
	}
	return out
}

// Pivots marks every interior point that is >= (top) or <= (bottom) both
// neighbours. A point on a plateau can be both.
func Pivots(points []model.Pivot) []model.Pivot {
	var out []model.Pivot
	for i := 1; i < len(points)-1; i++ {
		prev, curr, next := points[i-1], points[i], points[i+1]
		if curr.Price >= prev.Price && curr.Price >= next.Price {
			top := curr
			top.Type = model.PivotTop
			out = append(out, top)
		}
		if curr.Price <= prev.Price && curr.Price <= next.Price {
			bottom := curr
			bottom.Type = model.PivotBottom
			out = append(out, bottom)
		}
	}
	return out
}

// Strokes links alternating pivots. A same-type pivot that is at least as
// extreme replaces the anchor; an opposite one forms a stroke once it is far
// enough away in both bars and price.
func Strokes(pivots []model.Pivot, opts Options) []model.Stroke {
	var out []model.Stroke
	var anchor *model.Pivot
	for _, p := range pivots {
		if anchor == nil {
			a := p
			anchor = &a
			continue
		}
		if p.Type == anchor.Type {
			if (p.Type == model.PivotTop && p.Price >= anchor.Price) ||
				(p.Type == model.PivotBottom && p.Price <= anchor.Price) {
				a := p
				anchor = &a
			}
			continue
		}
		gap := p.Index - anchor.Index
		pct := math.Abs(p.Price-anchor.Price) / math.Max(1e-6, anchor.Price)
		if gap >= opts.MinGap && pct >= opts.MinPct {
			dir := model.DirectionDown
			if p.Type == model.PivotTop {
				dir = model.DirectionUp
			}
			out = append(out, model.Stroke{From: *anchor, To: p, Direction: dir})
			a := p
			anchor = &a
		}
	}
	return out
}

// Centers builds a center from every three consecutive strokes, spanning
// their extreme endpoints.
func Centers(strokes []model.Stroke) []model.Center {
	var out []model.Center
	for i := 2; i < len(strokes); i++ {
		high, low := math.Inf(-1), math.Inf(1)
		for _, s := range strokes[i-2 : i+1] {
			for _, price := range []float64{s.From.Price, s.To.Price} {
				high = math.Max(high, price)
				low = math.Min(low, price)
			}
		}
		if low <= high {
			out = append(out, model.Center{Index: i, High: high, Low: low, Mid: (high + low) / 2, Range: high - low})
		}
	}
	return out
}

// Classify derives buy and sell points from the last strokes and center.
func Classify(strokes []model.Stroke, center model.Center) []model.ChanSignal {
	if len(strokes) < 3 {
		return nil
	}
	last, prev, prev2 := strokes[len(strokes)-1], strokes[len(strokes)-2], strokes[len(strokes)-3]
	end := last.To.Price
	date := last.To.Date
	up, down := model.DirectionUp, model.DirectionDown

	var out []model.ChanSignal
	add := func(typ string, side model.Side, strength string) {
		out = append(out, model.ChanSignal{Type: typ, Side: side, Strength: strength, Date: date})
	}
	if last.Direction == down && end <= center.Low*1.01 {
		add("一买", model.SideBuy, "强")
	}
	if prev.Direction == up && last.Direction == down && end >= center.Low && end <= center.Mid {
		add("二买", model.SideBuy, "中")
	}
	if prev2.Direction == up && prev.Direction == down && last.Direction == up && end > center.High {
		add("三买", model.SideBuy, "中")
	}
	if last.Direction == up && end >= center.High*0.99 {
		add("一卖", model.SideSell, "强")
	}
	if last.Direction == up && end > center.High*1.02 {
		add("三卖", model.SideSell, "强")
	}
	return out
}

// Trend reads direction from the last stroke, strength from its length against
// the previous one, and completion against the mean of the last five.
func Trend(strokes []model.Stroke) model.ChanTrend {
	if len(strokes) < 2 {
		return model.ChanTrend{Direction: model.DirectionFlat}
	}
	prev, last := strokes[len(strokes)-2], strokes[len(strokes)-1]
	len1, len2 := prev.Length(), last.Length()

	recent := strokes[max(0, len(strokes)-5):]
	avg := 0.0
	for _, s := range recent {
		avg += s.Length()
	}
	avg /= float64(len(recent))

	return model.ChanTrend{
		Direction:  last.Direction,
		Strength:   min(100, int(math.Round(len2/math.Max(1e-6, len1)*50))),
		Completion: min(100, int(math.Round(len2/math.Max(1e-6, avg)*100))),
	}
}

func pricePosition(price float64, c model.Center) string {
	switch {
	case price > c.High:
		return "上轨上方"
	case price < c.Low:
		return "下轨下方"
	default:
		return "中枢内"
	}
}

var indexLikePattern = regexp.MustCompile(`指数|ETF|QDII|联接`)

// IndexLike reports whether a fund tracks an index closely enough that
// structural signals deserve more weight.
func IndexLike(ft model.FundType, fundName string) bool {
	return indexLikePattern.MatchString(ft.Name) ||
		indexLikePattern.MatchString(strings.ToUpper(fundName)) ||
		strings.HasPrefix(ft.Key, "index_") ||
		strings.HasPrefix(ft.Key, "qdii_")
}

// MergeWeights are the relative weights of the base decision and the structure.
type MergeWeights struct {
	Base, Chan           float64
	IndexBase, IndexChan float64
	ConfidenceBoost      float64
}

// Merge folds structural signals into the base action. A third-sell point
// always forces a reduction.
func Merge(base model.Action, c model.Chanlun, indexLike bool, w MergeWeights) model.ChanlunMerge {
	m := model.ChanlunMerge{Action: base, WeightBase: w.Base, WeightChan: w.Chan, IndexLike: indexLike}
	if indexLike {
		m.WeightBase, m.WeightChan = w.IndexBase, w.IndexChan
	}
	thirdSell := false
	for _, s := range c.Signals {
		if s.Side == model.SideBuy {
			m.BuySignals = append(m.BuySignals, s)
		} else {
			m.SellSignals = append(m.SellSignals, s)
			thirdSell = thirdSell || s.Type == "三卖"
		}
	}
	if (len(m.BuySignals) > 0 && base == model.ActionAccumulate) ||
		(len(m.SellSignals) > 0 && base == model.ActionReduce) {
		m.ConfidenceBoost = w.ConfidenceBoost
	}
	if thirdSell {
		m.Action = model.ActionReduce
	}
	return m
}
