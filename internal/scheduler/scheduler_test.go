package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FundSentinel/internal/fund"
	"FundSentinel/internal/model"
)

type fakeCollector struct {
	fail map[string]error
}

func (f *fakeCollector) Collect(_ context.Context, code string) (model.FundInput, error) {
	if err := f.fail[code]; err != nil {
		return model.FundInput{}, err
	}
	return model.FundInput{Code: code, Name: "基金" + code, Dwjz: model.Float64(1)}, nil
}

type fakeEngine struct{}

func (fakeEngine) Version() string { return "test-version" }

func (fakeEngine) Evaluate(in model.FundInput) model.Outcome {
	if in.Code == "000009" {
		return model.Outcome{Code: in.Code, Name: in.Name, Status: model.OutcomeSkip, Reason: "估值数据缺失"}
	}
	return model.Outcome{
		Code:   in.Code,
		Name:   in.Name,
		Status: model.OutcomeOK,
		Result: &model.StrategyResult{
			Code:     in.Code,
			Estimate: model.IntradayEstimate{Estimated: 1, PreviousClose: 1, Live: true},
			Plan:     model.ExecutionPlan{Action: model.ActionHold, Reasons: []string{"组回测倾向：中性"}},
		},
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeRecorder struct {
	runs  []*model.BatchRun
	evals []model.Outcome
}

func (f *fakeRecorder) RecordRun(_ context.Context, run *model.BatchRun) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRecorder) RecordEvaluation(_ context.Context, _ string, o model.Outcome) error {
	f.evals = append(f.evals, o)
	return nil
}

func (f *fakeRecorder) Close() error { return nil }

func newTestScheduler(t *testing.T, codes []string, fail map[string]error) (*Scheduler, *fakeSender, *fakeRecorder) {
	t.Helper()
	wl, err := fund.NewManager(filepath.Join(t.TempDir(), "watchlist.json"), codes)
	require.NoError(t, err)
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	s := NewScheduler(context.Background(), Deps{
		Collector:   &fakeCollector{fail: fail},
		Engine:      fakeEngine{},
		Watchlist:   wl,
		Notifier:    sender,
		Recorder:    rec,
		Location:    time.FixedZone("CST", 8*3600),
		Concurrency: 3,
	})
	return s, sender, rec
}

func TestRunBatch(t *testing.T) {
	codes := []string{"000001", "000002", "000003", "000009", "000005"}
	s, sender, rec := newTestScheduler(t, codes, map[string]error{"000003": errors.New("timeout")})

	run, err := s.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, run.Outcomes, len(codes))
	for i, o := range run.Outcomes {
		assert.Equal(t, codes[i], o.Code, "outcomes keep watchlist order")
	}
	assert.Equal(t, model.OutcomeFailed, run.Outcomes[2].Status)
	assert.Contains(t, run.Outcomes[2].Reason, "获取失败")
	assert.Equal(t, model.OutcomeSkip, run.Outcomes[3].Status)
	assert.Equal(t, "test-version", run.Version)
	assert.NotEmpty(t, run.ID)

	require.Len(t, rec.runs, 1)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "统计：加仓 0｜减仓/防守 0｜观望 3｜异常 2")
}

func TestRunBatch_EmptyWatchlist(t *testing.T) {
	s, sender, _ := newTestScheduler(t, nil, nil)
	_, err := s.RunBatch(context.Background())
	assert.ErrorIs(t, err, ErrEmptyWatchlist)
	assert.Empty(t, sender.sent)
}

func TestRunBatch_Busy(t *testing.T) {
	s, _, _ := newTestScheduler(t, []string{"000001"}, nil)
	s.running.Lock()
	defer s.running.Unlock()
	_, err := s.RunBatch(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRunBatch_Cancelled(t *testing.T) {
	s, sender, rec := newTestScheduler(t, []string{"000001", "000002"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RunBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.runs)
	assert.Empty(t, sender.sent)
}

func TestHandleCommand(t *testing.T) {
	s, _, rec := newTestScheduler(t, []string{"000001"}, map[string]error{"999999": errors.New("no data")})
	ctx := context.Background()

	tests := []struct {
		cmd  string
		want string
	}{
		{"/list", "1. 000001"},
		{"/add 110022", "✅ 110022 已加入（共 2 只）"},
		{"/add 110022", "已在观察列表中"},
		{"/add abc", "invalid fund code"},
		{"/add", "请提供基金代码"},
		{"/remove 000001", "✅ 000001 已移除（共 1 只）"},
		{"/remove 000001", "不在观察列表中"},
		{"/fund", "用法"},
		{"/fund 000007", "基金000007</b> (#000007)"},
		{"/fund 7", "基金000007</b> (#000007)"},
		{"/fund abc", "❌ invalid fund code"},
		{"/fund@FundSentinelBot 000008", "(#000008)"},
		{"/fund 999999", "❌ 获取失败"},
		{"/help", "可用命令"},
		{"", "可用命令"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.cmd), func(t *testing.T) {
			assert.Contains(t, s.HandleCommand(ctx, tt.cmd), tt.want)
		})
	}

	assert.Len(t, rec.evals, 3)
	assert.True(t, strings.HasPrefix(s.HandleCommand(ctx, "/list"), "📋"))
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t, nil, nil)
	require.NoError(t, s.Register("0 30 14 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}
