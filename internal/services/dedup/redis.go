package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/pkg/logger"
)

const redisKeyPrefix = "tradepulse:dedup:"

// Redis is the shared dedup cache for multi-instance deployments: cooldowns
// survive restarts and are visible across replicas. Backend errors fail open.
type Redis struct {
	cli      *redis.Client
	cooldown time.Duration
	log      *logger.Logger
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func NewRedis(cfg RedisConfig, cooldown time.Duration, log *logger.Logger) *Redis {
	if cooldown <= 0 {
		cooldown = 300 * time.Second
	}
	cli := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &Redis{cli: cli, cooldown: cooldown, log: log}
}

func (r *Redis) IsDuplicate(ctx context.Context, ticker, exchange, direction string) bool {
	n, err := r.cli.Exists(ctx, redisKeyPrefix+cacheKey(ticker, exchange, direction)).Result()
	if err != nil {
		r.warn("dedup lookup failed", err)
		return false
	}
	return n > 0
}

func (r *Redis) Record(ctx context.Context, ticker, exchange, direction string) {
	err := r.cli.Set(ctx, redisKeyPrefix+cacheKey(ticker, exchange, direction), 1, r.cooldown).Err()
	if err != nil {
		r.warn("dedup record failed", err)
	}
}

// Size counts live cooldown keys. Scan-based, approximate under concurrent
// writes; only used for the status endpoint.
func (r *Redis) Size(ctx context.Context) int {
	var count int
	iter := r.cli.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		r.warn("dedup size scan failed", err)
		return 0
	}
	return count
}

func (r *Redis) Close() error {
	return r.cli.Close()
}

func (r *Redis) warn(msg string, err error) {
	if r.log != nil {
		r.log.Warn(msg, logger.Error(err))
	}
}

var _ Cache = (*Redis)(nil)
