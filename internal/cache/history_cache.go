/**
 * @description
 * This file implements the recent-transaction-history cache on Redis. Each
 * (user, account) pair owns a bounded list of JSON entries under the key
 * `user:{userId}:history:{accountName}`; appends trim the list to the most
 * recent entries and refresh a rolling TTL. The cache is a pure performance
 * projection of the ledger: it is never authoritative, and every caller is
 * expected to treat its failures as a miss.
 *
 * @dependencies
 * - context, encoding/json, fmt, time: Standard Go libraries.
 * - github.com/redis/go-redis/v9: The Redis client library.
 * - internal/domain: For the history-entry view shape.
 */

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/corebank/banking-service/internal/domain"
)

const (
	// DefaultEntryLimit bounds each key to the 10 most recent transactions.
	DefaultEntryLimit = 10
	// DefaultTTL is the rolling expiry refreshed on every append.
	DefaultTTL = time.Hour
)

// HistoryCache is the capability the ledger and history services hold. The
// concrete client is injected at bootstrap; there is no package-level handle.
type HistoryCache interface {
	Append(ctx context.Context, userID uuid.UUID, accountName string, entry domain.HistoryEntry) error
	Exists(ctx context.Context, userID uuid.UUID, accountName string) (bool, error)
	ReadAll(ctx context.Context, userID uuid.UUID, accountName string) ([]domain.HistoryEntry, error)
	Purge(ctx context.Context, userID uuid.UUID, accountName string) error
}

// Commander is the slice of the Redis client the cache uses. A full
// redis.UniversalClient satisfies it; tests back it with an in-memory list
// store.
type Commander interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisHistoryCache implements HistoryCache on a Redis list per key.
type RedisHistoryCache struct {
	client Commander
	limit  int64
	ttl    time.Duration
}

// NewRedisHistoryCache creates a history cache around an existing client.
// Non-positive limit or ttl fall back to the defaults.
func NewRedisHistoryCache(client Commander, limit int, ttl time.Duration) *RedisHistoryCache {
	if limit <= 0 {
		limit = DefaultEntryLimit
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisHistoryCache{client: client, limit: int64(limit), ttl: ttl}
}

// HistoryKey builds the cache key for a (user, account) pair.
func HistoryKey(userID uuid.UUID, accountName string) string {
	return fmt.Sprintf("user:%s:history:%s", userID, accountName)
}

// Append pushes one entry, trims the list to the most recent `limit` entries,
// and refreshes the rolling TTL. Trim follows push so the key never holds more
// than `limit` entries once an append completes.
func (c *RedisHistoryCache) Append(ctx context.Context, userID uuid.UUID, accountName string, entry domain.HistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := HistoryKey(userID, accountName)
	if err := c.client.RPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	if err := c.client.LTrim(ctx, key, -c.limit, -1).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

// Exists reports whether a cache key is currently present for the pair.
func (c *RedisHistoryCache) Exists(ctx context.Context, userID uuid.UUID, accountName string) (bool, error) {
	n, err := c.client.Exists(ctx, HistoryKey(userID, accountName)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReadAll returns every cached entry, oldest first.
func (c *RedisHistoryCache) ReadAll(ctx context.Context, userID uuid.UUID, accountName string) ([]domain.HistoryEntry, error) {
	raw, err := c.client.LRange(ctx, HistoryKey(userID, accountName), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Purge drops the cache key for the pair, typically after its account is
// deleted. Deleting an absent key is not an error.
func (c *RedisHistoryCache) Purge(ctx context.Context, userID uuid.UUID, accountName string) error {
	return c.client.Del(ctx, HistoryKey(userID, accountName)).Err()
}
