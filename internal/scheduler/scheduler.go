// Package scheduler runs the daily evaluation batch and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"FundSentinel/internal/batch"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/metrics"
	"FundSentinel/internal/model"
	"FundSentinel/internal/notifier"
	"FundSentinel/internal/recorder"
)

var (
	// ErrBusy is returned when a batch is already running.
	ErrBusy = errors.New("batch already running")
	// ErrEmptyWatchlist is returned when there is nothing to evaluate.
	ErrEmptyWatchlist = errors.New("watchlist is empty")
)

// Collector gathers the engine input for one fund.
type Collector interface {
	Collect(ctx context.Context, code string) (model.FundInput, error)
}

// Evaluator is the strategy engine.
type Evaluator interface {
	Evaluate(in model.FundInput) model.Outcome
	Version() string
}

// Watchlist is the persisted set of codes.
type Watchlist interface {
	Codes() []string
	Add(code string) (bool, error)
	Remove(code string) (bool, error)
}

// Sender delivers report text.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Deps wires the scheduler's collaborators. Notifier, Recorder and Metrics may be nil.
type Deps struct {
	Collector   Collector
	Engine      Evaluator
	Watchlist   Watchlist
	Notifier    Sender
	Recorder    recorder.Recorder
	Metrics     metrics.Sink
	Location    *time.Location
	Concurrency int
	ReportLimit int
	Now         func() time.Time
}

// Scheduler manages the cron task and the batch pipeline.
type Scheduler struct {
	Cron *cron.Cron
	Ctx  context.Context

	deps    Deps
	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, deps Deps) *Scheduler {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds(), cron.WithLocation(deps.Location)),
		Ctx:  ctx,
		deps: deps,
	}
}

// Register adds the daily batch at spec (six-field cron, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Str("tz", s.deps.Location.String()).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Info().Msg("running daily batch")
	run, err := s.RunBatch(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("daily batch")
		if !errors.Is(err, ErrBusy) {
			s.trySend(s.Ctx, fmt.Sprintf("❌ 盘中策略批次失败: %v", err))
		}
		return
	}
	acc, red, hold, abnormal := run.Counts()
	log.Info().Str("run_id", run.ID).Int("accumulate", acc).Int("reduce", red).
		Int("hold", hold).Int("abnormal", abnormal).Msg("daily batch done")
}

// RunBatch collects and evaluates every watched fund, records the run and
// sends the report. Outcomes keep the watchlist order.
func (s *Scheduler) RunBatch(ctx context.Context) (*model.BatchRun, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()

	codes := s.deps.Watchlist.Codes()
	if len(codes) == 0 {
		return nil, ErrEmptyWatchlist
	}

	start := s.deps.Now()
	defer func() { s.deps.Metrics.RecordLatency("batch", s.deps.Now().Sub(start)) }()

	run := &model.BatchRun{
		ID:        uuid.NewString(),
		StartedAt: start,
		Version:   s.deps.Engine.Version(),
	}

	results := batch.Run(ctx, codes, s.deps.Concurrency, s.EvaluateCode)
	outcomes := make(map[string]model.Outcome, len(results))
	for _, r := range results {
		o := r.Value
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("code", r.Item).Msg("fund collection failed")
			o = model.Outcome{Code: r.Item, Name: r.Item, Status: model.OutcomeFailed, Reason: "获取失败: " + r.Err.Error()}
			s.deps.Metrics.RecordEvaluation(string(o.Status))
		}
		outcomes[r.Item] = o
	}
	for _, code := range codes {
		run.Outcomes = append(run.Outcomes, outcomes[code])
	}
	run.FinishedAt = s.deps.Now()

	if err := ctx.Err(); err != nil {
		return run, fmt.Errorf("batch interrupted: %w", err)
	}

	if err := s.deps.Recorder.RecordRun(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("record run")
		s.deps.Metrics.RecordError("record")
	}
	for _, msg := range notifier.FormatBatchReport(run, s.deps.Location, s.deps.ReportLimit) {
		s.trySend(ctx, msg)
	}
	return run, nil
}

// EvaluateCode collects one fund and evaluates it. Only collection errors are
// returned; strategy failures are reported in the outcome.
func (s *Scheduler) EvaluateCode(ctx context.Context, code string) (model.Outcome, error) {
	in, err := s.deps.Collector.Collect(ctx, code)
	if err != nil {
		s.deps.Metrics.RecordError("collect")
		return model.Outcome{}, fmt.Errorf("collect %s: %w", code, err)
	}
	return s.EvaluateInput(ctx, in), nil
}

// EvaluateInput evaluates a caller-supplied input and records the metrics.
func (s *Scheduler) EvaluateInput(_ context.Context, in model.FundInput) model.Outcome {
	start := s.deps.Now()
	out := s.deps.Engine.Evaluate(in)
	s.deps.Metrics.RecordLatency("evaluate", s.deps.Now().Sub(start))
	s.deps.Metrics.RecordEvaluation(string(out.Status))
	switch {
	case out.Status == model.OutcomeOK && out.Result != nil:
		s.deps.Metrics.RecordAction(string(out.Result.FinalAction()))
	case out.Status == model.OutcomeFailed:
		log.Error().Str("code", out.Code).Str("reason", out.Reason).Msg("strategy evaluation failed")
	}
	return out
}

const helpText = `可用命令:
• /run 立即运行盘中策略
• /fund &lt;code&gt; 查看单只基金
• /add &lt;code&gt; 加入观察列表
• /remove &lt;code&gt; 移出观察列表
• /list 查看观察列表`

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats append the bot name: /run@FundSentinelBot.
	cmd, _, _ := strings.Cut(fields[0], "@")
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/run", "运行策略":
		go s.dailyTask()
		return "⏳ 已开始运行盘中策略，完成后发送报告。"
	case "/fund", "查看基金":
		if arg == "" {
			return "用法: /fund &lt;code&gt;"
		}
		code, err := fund.NormalizeCode(arg)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		out, err := s.EvaluateCode(ctx, code)
		if err != nil {
			return fmt.Sprintf("❌ 获取失败: %v", err)
		}
		if err := s.deps.Recorder.RecordEvaluation(ctx, "", out); err != nil {
			log.Warn().Err(err).Str("code", out.Code).Msg("record evaluation")
		}
		return notifier.FormatFundDetail(out)
	case "/add":
		return s.editWatchlist(arg, s.deps.Watchlist.Add, "已加入", "已在观察列表中")
	case "/remove":
		return s.editWatchlist(arg, s.deps.Watchlist.Remove, "已移除", "不在观察列表中")
	case "/list", "观察列表":
		return notifier.FormatWatchlist(s.deps.Watchlist.Codes())
	default:
		return helpText
	}
}

func (s *Scheduler) editWatchlist(code string, op func(string) (bool, error), done, noop string) string {
	if code == "" {
		return "请提供基金代码"
	}
	changed, err := op(code)
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	if !changed {
		return fmt.Sprintf("ℹ️ %s %s", code, noop)
	}
	return fmt.Sprintf("✅ %s %s（共 %d 只）", code, done, len(s.deps.Watchlist.Codes()))
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
		s.deps.Metrics.RecordError("notify")
	}
}
