package authz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRoleTTL bounds how long a cached role is trusted.
	DefaultRoleTTL = 5 * time.Minute
	// DefaultSweepInterval is how often expired tier-1 entries are removed.
	DefaultSweepInterval = 2 * time.Minute

	roleKeyPrefix = "authz:role:"
)

// RoleCache maps a user ID to their last-known role. Tier 1 is an
// in-process map guarded by a mutex; tier 2 is Redis and survives process
// restarts. Tier 2 is strictly best effort: every failure there is
// swallowed so a Redis outage degrades to tier-1-only operation.
type RoleCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry

	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	sweepEvery time.Duration
	stopOnce   sync.Once
	stop       chan struct{}
	done       chan struct{}
}

// RoleCacheConfig collects construction options for RoleCache.
type RoleCacheConfig struct {
	// Client is the tier-2 Redis client. Nil disables tier 2.
	Client *redis.Client
	TTL    time.Duration
	// SweepInterval controls the background expiry sweep. Zero or
	// negative disables the sweeper entirely.
	SweepInterval time.Duration
	Logger        *slog.Logger
}

// NewRoleCache constructs a RoleCache and starts its background sweep.
// Callers own the lifecycle and must call Stop on shutdown.
func NewRoleCache(cfg RoleCacheConfig) *RoleCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRoleTTL
	}
	c := &RoleCache{
		entries:    make(map[string]CacheEntry),
		client:     cfg.Client,
		ttl:        ttl,
		logger:     cfg.Logger,
		sweepEvery: cfg.SweepInterval,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if c.sweepEvery > 0 {
		go c.sweepLoop()
	} else {
		close(c.done)
	}
	return c
}

// Get returns the cached role for userID. The second return is false on
// miss or expiry. A tier-2 hit is promoted into tier 1 before returning.
func (c *RoleCache) Get(ctx context.Context, userID string) (Role, bool) {
	if userID == "" {
		return RoleNone, false
	}
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if ok {
		if entry.Expired(now) {
			c.mu.Lock()
			delete(c.entries, userID)
			c.mu.Unlock()
			return RoleNone, false
		}
		return entry.Role, true
	}

	entry, ok = c.tier2Get(ctx, userID)
	if !ok || entry.Expired(now) {
		return RoleNone, false
	}
	c.mu.Lock()
	c.entries[userID] = entry
	c.mu.Unlock()
	return entry.Role, true
}

// Set stores the role in both tiers. Two concurrent Sets for the same key
// are an idempotent overwrite, not a correctness problem.
func (c *RoleCache) Set(ctx context.Context, userID string, role Role) {
	if userID == "" {
		return
	}
	now := time.Now()
	entry := CacheEntry{Role: role, CachedAt: now, ExpiresAt: now.Add(c.ttl)}

	c.mu.Lock()
	c.entries[userID] = entry
	c.mu.Unlock()

	c.tier2Set(ctx, userID, entry)
}

// Invalidate removes the entry for userID from both tiers.
func (c *RoleCache) Invalidate(ctx context.Context, userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, roleKeyPrefix+userID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.logTier2("invalidate", err)
	}
}

// Clear drops every entry from both tiers.
func (c *RoleCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, roleKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logTier2("clear", err)
			return
		}
	}
	if err := iter.Err(); err != nil {
		c.logTier2("clear scan", err)
	}
}

// Cleanup removes expired tier-1 entries and opportunistically prunes
// expired tier-2 keys. Redis has no per-field expiry view we rely on, so
// tier-2 pruning iterates the namespace lazily.
func (c *RoleCache) Cleanup(ctx context.Context) {
	now := time.Now()
	c.mu.Lock()
	for id, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, roleKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var entry CacheEntry
		if err := json.Unmarshal(payload, &entry); err != nil || entry.Expired(now) {
			_ = c.client.Del(ctx, key).Err()
		}
	}
	if err := iter.Err(); err != nil {
		c.logTier2("cleanup scan", err)
	}
}

// Size returns the number of tier-1 entries, expired or not.
func (c *RoleCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop cancels the background sweep. Safe to call more than once.
func (c *RoleCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *RoleCache) sweepLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			c.Cleanup(ctx)
			cancel()
		}
	}
}

func (c *RoleCache) tier2Get(ctx context.Context, userID string) (CacheEntry, bool) {
	if c.client == nil {
		return CacheEntry{}, false
	}
	payload, err := c.client.Get(ctx, roleKeyPrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logTier2("get", err)
		}
		return CacheEntry{}, false
	}
	var entry CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		c.logTier2("decode", err)
		return CacheEntry{}, false
	}
	return entry, true
}

func (c *RoleCache) tier2Set(ctx context.Context, userID string, entry CacheEntry) {
	if c.client == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, roleKeyPrefix+userID, payload, c.ttl).Err(); err != nil {
		c.logTier2("set", err)
	}
}

func (c *RoleCache) logTier2(op string, err error) {
	if c.logger != nil {
		c.logger.Debug("role cache tier 2 degraded", slog.String("op", op), slog.Any("error", err))
	}
}
