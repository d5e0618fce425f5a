// Package cache guarda resúmenes de ventas en Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/franquicias-pos/internal/application/sales"
	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

var _ sales.SummaryCache = (*RedisSummaryCache)(nil)

// RedisSummaryCache caché versionada por franquicia: invalidar incrementa la versión
// y las claves viejas expiran solas por TTL.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSummaryCache conecta con Redis. ttl <= 0 usa un minuto.
func NewRedisSummaryCache(addr, password string, db int, ttl time.Duration) *RedisSummaryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newRedisSummaryCache(client, ttl)
}

func newRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisSummaryCache{client: client, ttl: ttl, prefix: "pos:summary"}
}

func (c *RedisSummaryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSummaryCache) Close() error {
	return c.client.Close()
}

// Get lee la versión de la franquicia una sola vez; el ticket es la clave de datos resuelta.
func (c *RedisSummaryCache) Get(ctx context.Context, franchiseID, key string) (*repository.SalesSummary, string, bool, error) {
	dataKey, err := c.dataKey(ctx, franchiseID, key)
	if err != nil {
		return nil, "", false, err
	}
	val, err := c.client.Get(ctx, dataKey).Result()
	if err == redis.Nil {
		return nil, dataKey, false, nil
	}
	if err != nil {
		return nil, dataKey, false, err
	}
	var out repository.SalesSummary
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, dataKey, false, err
	}
	return &out, dataKey, true, nil
}

// Set escribe bajo la clave versionada que entregó Get. Si hubo Invalidate en medio,
// la entrada queda en la versión vieja, que nadie lee, y expira por TTL.
func (c *RedisSummaryCache) Set(ctx context.Context, ticket string, summary *repository.SalesSummary) error {
	if summary == nil || ticket == "" {
		return nil
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ticket, payload, c.ttl).Err()
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, franchiseID string) error {
	return c.client.Incr(ctx, c.versionKey(franchiseID)).Err()
}

func (c *RedisSummaryCache) versionKey(franchiseID string) string {
	return fmt.Sprintf("%s:ver:%s", c.prefix, franchiseID)
}

func (c *RedisSummaryCache) dataKey(ctx context.Context, franchiseID, key string) (string, error) {
	ver, err := c.client.Get(ctx, c.versionKey(franchiseID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:v%d:%s", c.prefix, franchiseID, ver, key), nil
}
