package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avdeenkov/flightbook/config"
	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	dealsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, dealsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		dealsTTL: dealsTTL,
	}
}

func (c *RedisCache) GetDeals(ctx context.Context, page int) ([]domain.Schedule, error) {
	data, err := c.client.Get(ctx, dealsKey(page)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var schedules []domain.Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *RedisCache) SetDeals(ctx context.Context, page int, schedules []domain.Schedule) error {
	payload, err := json.Marshal(schedules)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dealsKey(page), payload, c.dealsTTL).Err()
}

// InvalidateDeals drops all cached deal pages, called after schedule writes.
func (c *RedisCache) InvalidateDeals(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "cache:deals:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// AcquireScheduleLock serializes booking writes per schedule. The SQL
// conditional updates remain the hard guarantee; the lock keeps concurrent
// requests from burning a transaction just to lose the seat race.
func (c *RedisCache) AcquireScheduleLock(ctx context.Context, scheduleID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, scheduleLockKey(scheduleID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseScheduleLock(ctx context.Context, scheduleID int64) error {
	return c.client.Del(ctx, scheduleLockKey(scheduleID)).Err()
}

func dealsKey(page int) string {
	return fmt.Sprintf("cache:deals:page:%d", page)
}

func scheduleLockKey(scheduleID int64) string {
	return fmt.Sprintf("lock:schedule:%d", scheduleID)
}
