package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"FundSentinel/internal/api"
	"FundSentinel/internal/cache"
	"FundSentinel/internal/collector"
	"FundSentinel/internal/config"
	"FundSentinel/internal/fund"
	"FundSentinel/internal/logger"
	"FundSentinel/internal/metrics"
	"FundSentinel/internal/notifier"
	"FundSentinel/internal/recorder"
	"FundSentinel/internal/scheduler"
	"FundSentinel/internal/strategy"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("load .env")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	if _, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatal().Err(err).Msg("setup logger")
	}
	log.Info().Msg("FundSentinel starting...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rm := metrics.New(reg)
	loc := cfg.Location()

	// Init fetcher and history cache
	fetcher := collector.NewEastmoneyFetcher(collector.EastmoneyOptions{
		EstimateURL:       cfg.DataSource.EstimateURL,
		HistoryURL:        cfg.DataSource.HistoryURL,
		ProfileURL:        cfg.DataSource.ProfileURL,
		KlineURL:          cfg.DataSource.KlineURL,
		Proxy:             cfg.Proxy,
		RequestsPerMinute: cfg.DataSource.RateLimit,
	})
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")

	store := historyCache(ctx, cfg)
	if c, ok := store.(interface{ Close() error }); ok {
		defer c.Close()
	}

	col := collector.NewCollector(fetcher, store, collector.Options{
		PageSize:   cfg.DataSource.PageSize,
		MaxPages:   cfg.DataSource.MaxPages,
		Categories: cfg.Strategy.Categories,
		Location:   loc,
		Metrics:    rm,
	})

	// Init watchlist
	wl, err := fund.NewManager(cfg.Watchlist.StateFile, cfg.Watchlist.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("init watchlist")
	}
	log.Info().Int("funds", len(wl.Codes())).Msg("watchlist loaded")

	engine := strategy.New(cfg.Strategy, strategy.WithLocation(loc))
	log.Info().Str("version", engine.Version()).Msg("strategy engine ready")

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			defer sr.Close()
		}
	}

	deps := scheduler.Deps{
		Collector:   col,
		Engine:      engine,
		Watchlist:   wl,
		Recorder:    rec,
		Metrics:     rm,
		Location:    loc,
		Concurrency: cfg.Batch.Concurrency,
		ReportLimit: cfg.Batch.ReportLimit,
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		deps.Notifier = tn
	} else {
		log.Warn().Msg("telegram not configured, reports are only recorded")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, deps)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Start HTTP API
	var srv *api.Server
	if cfg.API.Addr != "" {
		srv = api.NewServer(api.NewHandler(sched, rec), api.WithAddr(cfg.API.Addr), api.WithGatherer(reg))
		srv.Start()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily batch now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("FundSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
		stop()
	}
	cancel()
	log.Info().Msg("FundSentinel stopped")
}

// historyCache prefers Redis when configured, then the file cache. A nil
// cache disables caching.
func historyCache(ctx context.Context, cfg *config.Config) collector.HistoryCache {
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx,
			cache.WithAddr(cfg.Cache.RedisAddr),
			cache.WithPassword(cfg.Cache.RedisPassword),
			cache.WithDB(cfg.Cache.RedisDB),
			cache.WithTTL(cfg.Cache.TTL),
		)
		if err == nil {
			log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("redis history cache ready")
			return rc
		}
		log.Warn().Err(err).Msg("redis unavailable, falling back to file cache")
	}
	if cfg.Cache.Dir != "" {
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err == nil {
			return fc
		}
		log.Warn().Err(err).Msg("file cache unavailable, caching disabled")
	}
	return nil
}
