package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Cache é o cache lateral read-through por (profissional, dia).
// Staleness até o TTL é aceitável; mutações invalidam explicitamente.
type Cache interface {
	GetDay(ctx context.Context, professionalID uint, date string) (*DayAvailability, bool)
	SetDay(ctx context.Context, professionalID uint, date string, day *DayAvailability)
	InvalidateDay(ctx context.Context, professionalID uint, date string)
}

// ======================================================
// REDIS
// ======================================================

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func dayKey(professionalID uint, date string) string {
	return fmt.Sprintf("avail:%d:%s", professionalID, date)
}

func (c *RedisCache) GetDay(ctx context.Context, professionalID uint, date string) (*DayAvailability, bool) {
	raw, err := c.client.Get(ctx, dayKey(professionalID, date)).Bytes()
	if err != nil {
		// redis.Nil ou indisponibilidade: ambos viram cache miss
		return nil, false
	}

	var day DayAvailability
	if err := json.Unmarshal(raw, &day); err != nil {
		return nil, false
	}
	return &day, true
}

func (c *RedisCache) SetDay(ctx context.Context, professionalID uint, date string, day *DayAvailability) {
	raw, err := json.Marshal(day)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, dayKey(professionalID, date), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache: set failed", zap.Error(err))
	}
}

func (c *RedisCache) InvalidateDay(ctx context.Context, professionalID uint, date string) {
	if err := c.client.Del(ctx, dayKey(professionalID, date)).Err(); err != nil {
		c.logger.Warn("availability cache: invalidate failed", zap.Error(err))
	}
}

var _ Cache = (*RedisCache)(nil)
