package recorder

import (
	"context"

	"FundSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, *model.BatchRun) error { return nil }
func (n *NoopRecorder) RecordEvaluation(context.Context, string, model.Outcome) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
