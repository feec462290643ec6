// Package recorder keeps a queryable history of batch runs and the per-fund
// evaluations inside them.
package recorder

import (
	"context"

	"FundSentinel/internal/model"
)

// Recorder persists historical data for analysis.
type Recorder interface {
	// RecordRun stores the run header and every outcome in it.
	RecordRun(ctx context.Context, run *model.BatchRun) error
	// RecordEvaluation stores one outcome outside a batch, e.g. an API call.
	RecordEvaluation(ctx context.Context, runID string, outcome model.Outcome) error
	Close() error
}

// evaluationRow is the flattened form of an outcome.
type evaluationRow struct {
	Code        string
	Name        string
	Status      string
	Reason      string
	Action      string
	Stance      string
	Valuation   string
	Score       *float64
	Premium     *float64
	MaxDrawdown *float64
	Estimated   *float64
	Live        bool
	Version     string
}

func flatten(o model.Outcome) evaluationRow {
	row := evaluationRow{
		Code:   o.Code,
		Name:   o.Name,
		Status: string(o.Status),
		Reason: o.Reason,
	}
	res := o.Result
	if res == nil {
		return row
	}
	row.Action = string(res.FinalAction())
	row.Stance = string(res.Decision.Stance)
	row.Valuation = string(res.Valuation.Level)
	row.Score = model.Float64(res.Metrics.Total)
	row.Premium = model.Float64(res.Premium)
	row.MaxDrawdown = res.Perf.MaxDrawdown
	row.Estimated = model.Float64(res.Estimate.Estimated)
	row.Live = res.Estimate.Live
	return row
}
