package database

import (
	"context"
	"expert_review_backend/internal/config"
	"expert_review_backend/pkg/logger"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	defaultRedisPoolSize    = 50
	defaultRedisMinIdle     = 5
	defaultRedisDialTimeout = 5 * time.Second
)

// redisOptions 未配置的连接池参数回落到默认值
func redisOptions(cfg *config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultRedisPoolSize
	}
	if opts.MinIdleConns < 0 || opts.MinIdleConns > opts.PoolSize {
		opts.MinIdleConns = defaultRedisMinIdle
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultRedisDialTimeout
	}
	return opts
}

func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	opts := redisOptions(cfg)
	rdb := redis.NewClient(opts)

	// 启动时探活，避免在 Redis 不可达时无限等待
	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	logger.Log.Info("Redis connection established",
		zap.String("addr", opts.Addr),
		zap.Int("pool_size", opts.PoolSize),
		zap.Duration("dial_timeout", opts.DialTimeout))
	return rdb, nil
}
