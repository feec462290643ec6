package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		EstimateURL string `yaml:"estimate_url"`
		HistoryURL  string `yaml:"history_url"`
		ProfileURL  string `yaml:"profile_url"`
		KlineURL    string `yaml:"kline_url"`
		RateLimit   int    `yaml:"rate_limit"`
		PageSize    int    `yaml:"page_size"`
		MaxPages    int    `yaml:"max_pages"`
	} `yaml:"data_source"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
		Timezone  string `yaml:"timezone"`
	} `yaml:"schedule"`
	Watchlist struct {
		StateFile string   `yaml:"state_file"`
		Seed      []string `yaml:"seed"`
	} `yaml:"watchlist"`
	Cache struct {
		Dir           string        `yaml:"dir"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	API struct {
		Addr string `yaml:"addr"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Batch struct {
		Concurrency int `yaml:"concurrency"`
		ReportLimit int `yaml:"report_limit"`
	} `yaml:"batch"`
	Proxy    string   `yaml:"proxy"`
	Strategy Tunables `yaml:"strategy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FUND_CODES"); v != "" {
		cfg.Watchlist.Seed = splitCodes(v)
	}
	if v := os.Getenv("BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Concurrency = n
		}
	}

	// Defaults
	if cfg.DataSource.EstimateURL == "" {
		cfg.DataSource.EstimateURL = "https://fundgz.1234567.com.cn/js"
	}
	if cfg.DataSource.HistoryURL == "" {
		cfg.DataSource.HistoryURL = "https://fundf10.eastmoney.com/F10DataApi.aspx"
	}
	if cfg.DataSource.ProfileURL == "" {
		cfg.DataSource.ProfileURL = "https://fundf10.eastmoney.com"
	}
	if cfg.DataSource.KlineURL == "" {
		cfg.DataSource.KlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	}
	if cfg.DataSource.RateLimit == 0 {
		cfg.DataSource.RateLimit = 120
	}
	if cfg.DataSource.PageSize == 0 {
		cfg.DataSource.PageSize = 200
	}
	if cfg.DataSource.MaxPages == 0 {
		cfg.DataSource.MaxPages = 12
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 14 * * 1-5"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Asia/Shanghai"
	}
	if cfg.Watchlist.StateFile == "" {
		cfg.Watchlist.StateFile = "data/watchlist.json"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data/cache"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fund_sentinel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 6
	}
	if cfg.Batch.ReportLimit == 0 {
		cfg.Batch.ReportLimit = 60
	}
	if err := cfg.Strategy.Normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	for _, code := range c.Watchlist.Seed {
		if len(code) != 6 {
			return fmt.Errorf("watchlist.seed: invalid fund code %q", code)
		}
	}
	return nil
}

// Location returns the configured schedule timezone, falling back to UTC+8.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

func splitCodes(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	}) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
