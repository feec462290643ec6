package model

// PivotType marks a local extreme.
type PivotType string

const (
	PivotTop    PivotType = "top"
	PivotBottom PivotType = "bottom"
)

// Pivot is a local top or bottom of the price series.
type Pivot struct {
	Index int       `json:"index"`
	Date  string    `json:"date"`
	Price float64   `json:"price"`
	Type  PivotType `json:"type"`
}

// Direction of a stroke or of the structural trend.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Stroke connects two opposite pivots.
type Stroke struct {
	From      Pivot     `json:"from"`
	To        Pivot     `json:"to"`
	Direction Direction `json:"direction"`
}

// Length is the absolute price travel of the stroke.
func (s Stroke) Length() float64 {
	d := s.To.Price - s.From.Price
	if d < 0 {
		return -d
	}
	return d
}

// Center is the overlap zone of three consecutive strokes.
type Center struct {
	Index int     `json:"index"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Mid   float64 `json:"mid"`
	Range float64 `json:"range"`
}

// ChanSignal is a buy or sell point relative to the last center.
type ChanSignal struct {
	Type     string `json:"type"`
	Side     Side   `json:"side"`
	Strength string `json:"strength"`
	Date     string `json:"date"`
}

// ChanTrend describes the most recent structural move.
type ChanTrend struct {
	Direction  Direction `json:"direction"`
	Strength   int       `json:"strength"`
	Completion int       `json:"completion"`
}

// Chanlun is the full structural analysis of a series.
type Chanlun struct {
	Strokes    []Stroke     `json:"strokes"`
	Centers    []Center     `json:"centers"`
	Signals    []ChanSignal `json:"signals"`
	Trend      ChanTrend    `json:"trend"`
	LastCenter *Center      `json:"last_center,omitempty"`
	PricePos   string       `json:"price_pos"`
}

// ChanlunMerge is the outcome of folding structural signals into a base action.
type ChanlunMerge struct {
	Action          Action       `json:"action"`
	WeightBase      float64      `json:"weight_base"`
	WeightChan      float64      `json:"weight_chan"`
	ConfidenceBoost float64      `json:"confidence_boost"`
	BuySignals      []ChanSignal `json:"buy_signals"`
	SellSignals     []ChanSignal `json:"sell_signals"`
	IndexLike       bool         `json:"index_like"`
}
