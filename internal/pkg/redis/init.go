package redis

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// Rdb 锁、限流计数、去重与 OAuth state 共用的客户端
var Rdb *redis.Client

// InitRedis 连接 Redis 并在 5 秒内完成探活
func InitRedis(cfg config.RedisConfig) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	rdb.AddHook(logger.NewRedisLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	log.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB)
	Rdb = rdb
	return nil
}
