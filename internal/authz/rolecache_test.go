package authz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RoleCache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRoleCache(RoleCacheConfig{Client: client, TTL: ttl})
	t.Cleanup(cache.Stop)
	return cache, client
}

func TestRoleCacheSetGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleRenter)

	role, ok := cache.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, RoleRenter, role)
	assert.Equal(t, 1, cache.Size())
}

func TestRoleCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	_, ok := cache.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestRoleCacheExpiry(t *testing.T) {
	cache, _ := newTestCache(t, 30*time.Millisecond)
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleOwner)
	role, ok := cache.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, RoleOwner, role)

	time.Sleep(50 * time.Millisecond)

	_, ok = cache.Get(ctx, "u1")
	assert.False(t, ok, "entry must not be served past its TTL")
}

func TestRoleCacheTier2Promotion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	first := NewRoleCache(RoleCacheConfig{Client: client, TTL: time.Minute})
	first.Set(ctx, "u1", RoleAdmin)
	first.Stop()

	// A fresh instance has an empty tier 1 and must fall back to Redis.
	second := NewRoleCache(RoleCacheConfig{Client: client, TTL: time.Minute})
	defer second.Stop()

	role, ok := second.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	assert.Equal(t, 1, second.Size(), "tier-2 hit should be promoted into tier 1")
}

func TestRoleCacheInvalidateClearsBothTiers(t *testing.T) {
	cache, client := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleRenter)
	cache.Invalidate(ctx, "u1")

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok)
	err := client.Get(ctx, "authz:role:u1").Err()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRoleCacheClear(t *testing.T) {
	cache, client := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleRenter)
	cache.Set(ctx, "u2", RoleOwner)
	cache.Clear(ctx)

	assert.Equal(t, 0, cache.Size())
	keys, err := client.Keys(ctx, "authz:role:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRoleCacheCleanupRemovesExpired(t *testing.T) {
	cache, _ := newTestCache(t, 20*time.Millisecond)
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleRenter)
	time.Sleep(40 * time.Millisecond)
	cache.Cleanup(ctx)

	assert.Equal(t, 0, cache.Size())
}

func TestRoleCacheTier2UnavailableDegradesToNoop(t *testing.T) {
	cache := NewRoleCache(RoleCacheConfig{Client: nil, TTL: time.Minute})
	defer cache.Stop()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		cache.Set(ctx, "u1", RoleRenter)
		cache.Invalidate(ctx, "u1")
		cache.Clear(ctx)
		cache.Cleanup(ctx)
	})

	cache.Set(ctx, "u2", RoleOwner)
	role, ok := cache.Get(ctx, "u2")
	require.True(t, ok)
	assert.Equal(t, RoleOwner, role)
}

func TestRoleCacheTier2DownDegradesToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRoleCache(RoleCacheConfig{Client: client, TTL: time.Minute})
	defer cache.Stop()
	ctx := context.Background()

	mr.Close()

	assert.NotPanics(t, func() {
		cache.Set(ctx, "u1", RoleRenter)
	})
	role, ok := cache.Get(ctx, "u1")
	require.True(t, ok)
	assert.Equal(t, RoleRenter, role)
}

func TestRoleCacheConcurrentAccess(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set(ctx, "shared", RoleRenter)
				if role, ok := cache.Get(ctx, "shared"); ok {
					assert.Equal(t, RoleRenter, role)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRoleCacheBackgroundSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRoleCache(RoleCacheConfig{Client: client, TTL: 10 * time.Millisecond, SweepInterval: 20 * time.Millisecond})
	defer cache.Stop()
	ctx := context.Background()

	cache.Set(ctx, "u1", RoleRenter)
	assert.Eventually(t, func() bool {
		return cache.Size() == 0
	}, time.Second, 10*time.Millisecond, "sweep should remove the expired entry")
}

func TestRoleCacheStopIsIdempotent(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	cache.Stop()
	assert.NotPanics(t, cache.Stop)
}
