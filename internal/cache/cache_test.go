package cache_test

import (
	"context"
	"testing"
	"time"

	"smartTask/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis недоступен: %v", err)
	}
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return cache.NewWithClient(client), srv
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "some-key", payload{Name: "first", Count: 3}, time.Minute))

	var got payload
	hit, err := c.Get(ctx, "some-key", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "first", Count: 3}, got)
}

func TestCache_GetMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	hit, err := c.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short-lived", payload{Name: "gone soon"}, time.Minute))

	srv.FastForward(2 * time.Minute)

	var got payload
	hit, err := c.Get(ctx, "short-lived", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "to-delete", payload{Name: "bye"}, time.Minute))
	require.NoError(t, c.Delete(ctx, "to-delete"))

	var got payload
	hit, err := c.Get(ctx, "to-delete", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// удаление отсутствующего ключа не считается ошибкой
	assert.NoError(t, c.Delete(ctx, "never-existed"))
}

func TestCache_DeleteMatching(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tasks:u1:list:aaa", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "tasks:u1:list:bbb", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "tasks:u1:task:ccc", payload{}, time.Minute))
	require.NoError(t, c.Set(ctx, "tasks:u2:list:ddd", payload{}, time.Minute))

	deleted, err := c.DeleteMatching(ctx, "tasks:u1:list:*")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	var got payload
	hit, err := c.Get(ctx, "tasks:u1:task:ccc", &got)
	require.NoError(t, err)
	assert.True(t, hit, "ключ задачи не должен попасть под списочный шаблон")

	hit, err = c.Get(ctx, "tasks:u2:list:ddd", &got)
	require.NoError(t, err)
	assert.True(t, hit, "ключи другого владельца не должны задеваться")
}

func TestCache_HealthCheck(t *testing.T) {
	c, srv := newTestCache(t)

	assert.NoError(t, c.HealthCheck(context.Background()))

	srv.Close()
	assert.Error(t, c.HealthCheck(context.Background()))
}
