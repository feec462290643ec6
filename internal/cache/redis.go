package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"FundSentinel/internal/model"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type RedisOption func(*RedisConfig)

func WithAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

func WithPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

func WithPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(c *RedisConfig) { c.TTL = ttl }
}

// RedisCache stores histories under <prefix>:history:<code>:<day> with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{Addr: "localhost:6379", Prefix: "fundsentinel", TTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (c *RedisCache) key(code, day string) string {
	return fmt.Sprintf("%s:history:%s:%s", c.prefix, code, day)
}

func (c *RedisCache) Load(ctx context.Context, code, day string) ([]model.PricePoint, error) {
	data, err := c.client.Get(ctx, c.key(code, day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", code, err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", code, err)
	}
	return e.Points, nil
}

func (c *RedisCache) Save(ctx context.Context, code, day string, points []model.PricePoint) error {
	data, err := json.Marshal(entry{Day: day, Points: points})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(code, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", code, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
