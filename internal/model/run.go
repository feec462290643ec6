package model

import "time"

// BatchRun is one evaluation pass over the watchlist.
type BatchRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Version    string    `json:"version"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Counts tallies final actions and non-ok outcomes.
func (r *BatchRun) Counts() (accumulate, reduce, hold, abnormal int) {
	for _, o := range r.Outcomes {
		if o.Status != OutcomeOK || o.Result == nil {
			abnormal++
			continue
		}
		switch o.Result.FinalAction() {
		case ActionAccumulate:
			accumulate++
		case ActionReduce:
			reduce++
		default:
			hold++
		}
	}
	return accumulate, reduce, hold, abnormal
}
