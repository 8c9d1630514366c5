package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/c14220110/poliklinik-antrian/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis membuat client Redis dari config. REDIS_ADDR kosong berarti cache
// dimatikan: hasilnya (nil, nil) dan pemanggil harus siap menerima client nil.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" || cfg.AppEnv == "test" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
