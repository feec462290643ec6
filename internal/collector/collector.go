package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"FundSentinel/internal/cache"
	"FundSentinel/internal/config"
	"FundSentinel/internal/fundtype"
	"FundSentinel/internal/metrics"
	"FundSentinel/internal/model"
)

// HistoryCache stores one day's NAV history per fund.
type HistoryCache interface {
	Load(ctx context.Context, code, day string) ([]model.PricePoint, error)
	Save(ctx context.Context, code, day string, points []model.PricePoint) error
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Estimates map[string]*Estimate
	Histories map[string][]model.PricePoint
	Profiles  map[string]*Profile
	Indexes   map[string][]model.IndexPoint
	// EstimateErr fails every estimate request when set.
	EstimateErr error

	HistoryCalls int
}

// Name identifies the mock in logs.
func (m *MockFetcher) Name() string { return "mock" }

// FetchEstimate returns the canned quote for code, or EstimateErr when set.
func (m *MockFetcher) FetchEstimate(_ context.Context, code string) (*Estimate, error) {
	if m.EstimateErr != nil {
		return nil, m.EstimateErr
	}
	if e, ok := m.Estimates[code]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("estimate %s: %w", code, ErrNoData)
}

// FetchHistory pages the stored series from newest to oldest, as the site does.
func (m *MockFetcher) FetchHistory(_ context.Context, code string, page, per int) ([]model.PricePoint, error) {
	m.HistoryCalls++
	all := m.Histories[code]
	end := len(all) - (page-1)*per
	if end <= 0 {
		return nil, nil
	}
	start := max(0, end-per)
	return append([]model.PricePoint(nil), all[start:end]...), nil
}

// FetchProfile returns the canned profile, ErrNoData when none is stored.
func (m *MockFetcher) FetchProfile(_ context.Context, code string) (*Profile, error) {
	if p, ok := m.Profiles[code]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile %s: %w", code, ErrNoData)
}

// FetchIndexHistory returns at most the last days points stored for secid.
func (m *MockFetcher) FetchIndexHistory(_ context.Context, secid string, days int) ([]model.IndexPoint, error) {
	pts, ok := m.Indexes[secid]
	if !ok {
		return nil, fmt.Errorf("kline %s: %w", secid, ErrNoData)
	}
	if len(pts) > days {
		pts = pts[len(pts)-days:]
	}
	return pts, nil
}

// Options tunes paging, retries and the calendar.
type Options struct {
	PageSize   int
	MaxPages   int
	Retries    int
	Backoff    time.Duration
	IndexDays  int
	Categories config.Categories
	Location   *time.Location
	Now        func() time.Time
	Metrics    metrics.Sink
}

// Collector assembles a model.FundInput from the fetcher and the day cache.
type Collector struct {
	Fetcher Fetcher
	store   HistoryCache
	opts    Options
}

// NewCollector creates a new Collector. store may be nil.
func NewCollector(fetcher Fetcher, store HistoryCache, opts Options) *Collector {
	if opts.PageSize <= 0 {
		opts.PageSize = 200
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 12
	}
	switch {
	case opts.Retries == 0:
		opts.Retries = 2
	case opts.Retries < 0:
		opts.Retries = 0
	}
	if opts.Backoff == 0 {
		opts.Backoff = 300 * time.Millisecond
	}
	if opts.IndexDays <= 0 {
		opts.IndexDays = 360
	}
	if opts.Categories == (config.Categories{}) {
		opts.Categories = config.DefaultTunables().Categories
	}
	if opts.Location == nil {
		opts.Location = time.FixedZone("CST", 8*3600)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	return &Collector{Fetcher: fetcher, store: store, opts: opts}
}

// Collect fetches everything the engine needs for one fund. Only a context
// error aborts; upstream gaps leave the corresponding fields empty so the
// engine can decide to skip.
func (c *Collector) Collect(ctx context.Context, code string) (model.FundInput, error) {
	start := c.opts.Now()
	defer func() { c.opts.Metrics.RecordLatency("collect", c.opts.Now().Sub(start)) }()

	now := start.In(c.opts.Location)
	today := now.Format("2006-01-02")
	in := model.FundInput{Code: code, Name: code, AsOf: now}

	est, err := c.estimateWithRetry(ctx, code)
	if err != nil {
		if ctx.Err() != nil {
			return in, ctx.Err()
		}
		c.opts.Metrics.RecordError("fetch_estimate")
		log.Warn().Err(err).Str("code", code).Msg("estimate unavailable")
	} else {
		if est.Name != "" {
			in.Name = est.Name
		}
		in.Gsz, in.Dwjz = est.Gsz, est.Dwjz
		in.Live = est.Gsz != nil && strings.HasPrefix(est.Time, today)
	}

	ft := fundtype.Detect(in.Name, code)
	target := c.opts.Categories.Profile(fundtype.Category(ft.Key)).Window
	history, err := c.history(ctx, code, today, target)
	if err != nil {
		if ctx.Err() != nil {
			return in, ctx.Err()
		}
		c.opts.Metrics.RecordError("fetch_history")
		log.Warn().Err(err).Str("code", code).Msg("history unavailable")
	}
	in.History = history
	if est != nil {
		in.PublishedChangePct = publishedChange(history, est.Time)
	}

	profile, err := c.Fetcher.FetchProfile(ctx, code)
	if err != nil {
		log.Debug().Err(err).Str("code", code).Msg("profile unavailable")
		profile = &Profile{}
	}
	in.TypeName, in.Benchmark = profile.Type, profile.Benchmark

	if secid, ok := fundtype.IndexSecid(in.Name, profile.Type, profile.Benchmark); ok {
		in.IndexSecid = secid
		idx, err := c.Fetcher.FetchIndexHistory(ctx, secid, c.opts.IndexDays)
		if err != nil {
			log.Debug().Err(err).Str("code", code).Str("secid", secid).Msg("index history unavailable")
		} else {
			in.IndexHistory = idx
		}
	}

	return in, nil
}

func (c *Collector) estimateWithRetry(ctx context.Context, code string) (*Estimate, error) {
	var lastErr error
	for i := 0; i <= c.opts.Retries; i++ {
		est, err := c.Fetcher.FetchEstimate(ctx, code)
		if err == nil {
			return est, nil
		}
		lastErr = err
		if i == c.opts.Retries {
			break
		}
		wait := c.opts.Backoff + time.Duration(i)*c.opts.Backoff*2/3
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("fetch estimate %s after %d attempts: %w", code, c.opts.Retries+1, lastErr)
}

// history serves today's cached series, otherwise fetches the first page and
// deepens it when it is short for the fund's category window.
func (c *Collector) history(ctx context.Context, code, today string, target int) ([]model.PricePoint, error) {
	if c.store != nil {
		pts, err := c.store.Load(ctx, code, today)
		if err == nil && len(pts) > 0 {
			return pts, nil
		}
		if err != nil && !errors.Is(err, cache.ErrMiss) {
			log.Debug().Err(err).Str("code", code).Msg("history cache read failed")
		}
	}

	pts, err := c.Fetcher.FetchHistory(ctx, code, 1, c.opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", code, err)
	}
	if len(pts) < min(300, target*2/5) {
		deep, err := c.deepHistory(ctx, code, target)
		if err != nil {
			log.Debug().Err(err).Str("code", code).Msg("deep history fetch stopped")
		}
		if len(deep) > len(pts) {
			pts = deep
		}
	}

	if c.store != nil && len(pts) > 0 {
		if err := c.store.Save(ctx, code, today, pts); err != nil {
			log.Warn().Err(err).Str("code", code).Msg("history cache write failed")
		}
	}
	return pts, nil
}

// deepHistory pages backwards until target points or an empty page, then
// de-duplicates by date.
func (c *Collector) deepHistory(ctx context.Context, code string, target int) ([]model.PricePoint, error) {
	byDate := make(map[string]float64)
	var err error
	for page := 1; page <= c.opts.MaxPages && len(byDate) < target; page++ {
		var batch []model.PricePoint
		batch, err = c.Fetcher.FetchHistory(ctx, code, page, c.opts.PageSize)
		if err != nil || len(batch) == 0 {
			break
		}
		for _, p := range batch {
			byDate[p.Date] = p.Value
		}
	}

	out := make([]model.PricePoint, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, model.PricePoint{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, err
}

// publishedChange is the official daily change in percent when the history
// already contains the estimate's trading day.
func publishedChange(history []model.PricePoint, estimateTime string) *float64 {
	if len(estimateTime) < 10 || len(history) < 2 {
		return nil
	}
	day := estimateTime[:10]
	for i := len(history) - 1; i > 0; i-- {
		if history[i].Date != day {
			continue
		}
		return pctChange(decimal.NewFromFloat(history[i].Value), decimal.NewFromFloat(history[i-1].Value))
	}
	return nil
}

// pctChange is (cur-prev)/prev*100 in exact decimal arithmetic, rounded to
// four places. A non-positive base yields nil.
func pctChange(cur, prev decimal.Decimal) *float64 {
	if !prev.IsPositive() {
		return nil
	}
	pct := cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(4)
	return model.Float64(pct.InexactFloat64())
}
