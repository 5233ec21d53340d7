// Package rediscache keeps resolved identities close to the sync
// endpoint so repeated app launches skip the database.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"signalmarket/internal/config"
	"signalmarket/internal/stories/accounts"
)

type Cache struct {
	db  *redis.Client
	ttl time.Duration
}

func New(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Cache, error) {
	const op = "rediscache.New"
	db := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func resolutionKey(telegramID int64) string {
	return fmt.Sprintf("account:tg:%d", telegramID)
}

// GetResolution returns the cached resolution or nil on a miss.
func (c *Cache) GetResolution(ctx context.Context, telegramID int64) (*accounts.Resolution, error) {
	val, err := c.db.Get(ctx, resolutionKey(telegramID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var res accounts.Resolution
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		return nil, fmt.Errorf("decode cached resolution: %w", err)
	}
	return &res, nil
}

func (c *Cache) SetResolution(ctx context.Context, telegramID int64, res *accounts.Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode resolution: %w", err)
	}
	return c.db.Set(ctx, resolutionKey(telegramID), data, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
