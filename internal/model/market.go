package model

import "time"

// PricePoint is one published NAV observation.
type PricePoint struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value float64 `json:"value"`
}

// IndexPoint is one daily close of a benchmark index.
type IndexPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// IntradayEstimate is the live valuation of a fund during the trading day.
// Estimated falls back to PreviousClose when no live figure exists.
type IntradayEstimate struct {
	Estimated          float64   `json:"estimated"`
	PreviousClose      float64   `json:"previous_close"`
	AsOf               time.Time `json:"as_of"`
	Live               bool      `json:"live"`
	PublishedChangePct *float64  `json:"published_change_pct,omitempty"`
}

// Premium is the relative gap between the estimate and the last published NAV.
func (e IntradayEstimate) Premium() float64 {
	if e.PreviousClose == 0 {
		return 0
	}
	return (e.Estimated - e.PreviousClose) / e.PreviousClose
}

// ChangePct is Premium expressed in percent.
func (e IntradayEstimate) ChangePct() float64 {
	return e.Premium() * 100
}

// Values extracts the NAV column of a series.
func Values(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Tail returns the last n points, or all of them when fewer exist.
func Tail(points []PricePoint, n int) []PricePoint {
	if n <= 0 || len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
