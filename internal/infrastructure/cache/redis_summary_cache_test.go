package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/franquicias-pos/internal/domain/repository"
)

func TestNewRedisSummaryCache_Defaults(t *testing.T) {
	c := NewRedisSummaryCache("127.0.0.1:1", "", 0, 0)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, time.Minute, c.ttl)
	assert.Equal(t, "pos:summary:ver:F1", c.versionKey("F1"))
}

// Sin servidor la caché devuelve error y el llamador decide seguir sin ella.
func TestRedisSummaryCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := newRedisSummaryCache(client, 5*time.Second)
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.Error(t, c.Ping(ctx))
	_, ticket, hit, err := c.Get(ctx, "F1", "k")
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Empty(t, ticket)
	assert.Error(t, c.Invalidate(ctx, "F1"))
	assert.NoError(t, c.Set(ctx, "pos:summary:F1:v0:k", nil), "nil no se guarda")
	assert.NoError(t, c.Set(ctx, "", &repository.SalesSummary{SalesCount: 1}), "sin ticket no se escribe")
}

func redisForTest(t *testing.T) *RedisSummaryCache {
	t.Helper()
	addr := os.Getenv("POS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("POS_TEST_REDIS_ADDR not set")
	}
	c := newRedisSummaryCache(redis.NewClient(&redis.Options{Addr: addr}), time.Minute)
	c.prefix = fmt.Sprintf("pos:test:%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c
}

// Un resumen calculado antes de Invalidate se escribe en la versión vieja y no se vuelve a leer.
func TestRedisSummaryCache_SetAfterInvalidateStaysInOldVersion(t *testing.T) {
	c := redisForTest(t)
	ctx := context.Background()
	t.Cleanup(func() {
		keys, _ := c.client.Keys(ctx, c.prefix+":*").Result()
		if len(keys) > 0 {
			_ = c.client.Del(ctx, keys...).Err()
		}
	})

	_, ticket, hit, err := c.Get(ctx, "F1", "k")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Invalidate(ctx, "F1"))
	stale := &repository.SalesSummary{SalesCount: 1, TotalSold: decimal.RequireFromString("10.00"), ItemsQty: 1}
	require.NoError(t, c.Set(ctx, ticket, stale))

	_, freshTicket, hit, err := c.Get(ctx, "F1", "k")
	require.NoError(t, err)
	assert.False(t, hit, "la versión nueva no ve el resumen viejo")
	assert.NotEqual(t, ticket, freshTicket)

	fresh := &repository.SalesSummary{SalesCount: 2, TotalSold: decimal.RequireFromString("25.00"), ItemsQty: 3}
	require.NoError(t, c.Set(ctx, freshTicket, fresh))
	got, _, hit, err := c.Get(ctx, "F1", "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 2, got.SalesCount)
	assert.True(t, fresh.TotalSold.Equal(got.TotalSold))
}
