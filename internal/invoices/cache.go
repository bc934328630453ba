package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"invoice-api/internal/shared/telemetry"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the byte-level store behind CachedRepo.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache parses a redis:// URL and returns a connected cache.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{Client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// CachedRepo serves GetByID from a cache and invalidates on every mutation.
// Cache failures degrade to the wrapped Repo.
type CachedRepo struct {
	Repo
	Cache Cache
	TTL   time.Duration
}

type cacheEntry struct {
	Invoice    Invoice `json:"invoice"`
	StorageKey string  `json:"storage_key"`
}

func cacheKey(ownerID, id string) string {
	return fmt.Sprintf("invoice:%s:%s", ownerID, id)
}

// GetByID reads through the cache. A read that loads the row before a
// concurrent update or delete and stores it after that write's invalidation
// leaves a stale entry until TTL expires.
func (r *CachedRepo) GetByID(ctx context.Context, ownerID, id string) (Invoice, error) {
	key := cacheKey(ownerID, id)
	log := telemetry.FromContext(ctx).WithField("cache_key", key)

	if raw, err := r.Cache.Get(ctx, key); err == nil {
		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			inv := entry.Invoice
			inv.StorageKey = entry.StorageKey
			return inv, nil
		}
		log.Warn("cache.decode_failed")
	} else if !errors.Is(err, ErrCacheMiss) {
		log.WithError(err).Warn("cache.get_failed")
	}

	inv, err := r.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return Invoice{}, err
	}

	raw, err := json.Marshal(cacheEntry{Invoice: inv, StorageKey: inv.StorageKey})
	if err == nil {
		if err := r.Cache.Set(ctx, key, raw, r.TTL); err != nil {
			log.WithError(err).Warn("cache.set_failed")
		}
	}
	return inv, nil
}

// UpdateByID updates the record and drops its cache entry.
func (r *CachedRepo) UpdateByID(ctx context.Context, id string, patch Patch) (Invoice, error) {
	inv, err := r.Repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return Invoice{}, err
	}
	r.invalidate(ctx, inv.UserID, id)
	return inv, nil
}

// DeleteByID deletes the record and drops its cache entry.
func (r *CachedRepo) DeleteByID(ctx context.Context, ownerID, id string) error {
	err := r.Repo.DeleteByID(ctx, ownerID, id)
	r.invalidate(ctx, ownerID, id)
	return err
}

func (r *CachedRepo) invalidate(ctx context.Context, ownerID, id string) {
	if err := r.Cache.Del(ctx, cacheKey(ownerID, id)); err != nil {
		telemetry.FromContext(ctx).WithError(err).WithField("invoice_id", id).Warn("cache.invalidate_failed")
	}
}

var _ Repo = (*CachedRepo)(nil)
