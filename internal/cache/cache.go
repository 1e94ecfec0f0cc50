package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/service-scheduler/internal/config"
)

// NewQueueClient abre a conexão Redis usada pela fila de notificações.
// Cliente é injetado nos consumidores; nada de singleton global.
func NewQueueClient(cfg *config.Config) *redis.Client {
	return newClient(cfg, cfg.RedisQueueDB)
}

// NewCacheClient abre a conexão Redis usada pelo cache de disponibilidade.
func NewCacheClient(cfg *config.Config) *redis.Client {
	return newClient(cfg, cfg.RedisCacheDB)
}

func newClient(cfg *config.Config, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis (db %d): %v", db, err)
	}

	return client
}
