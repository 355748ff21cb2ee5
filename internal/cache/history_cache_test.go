package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/corebank/banking-service/internal/domain"
)

// fakeRedis backs the Commander seam with an in-memory list store so the
// trim-window and TTL arguments are exercised without a live server.
type fakeRedis struct {
	lists      map[string][]string
	ttls       map[string]time.Duration
	expireSets int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		switch val := v.(type) {
		case []byte:
			f.lists[key] = append(f.lists[key], string(val))
		case string:
			f.lists[key] = append(f.lists[key], val)
		default:
			f.lists[key] = append(f.lists[key], fmt.Sprint(val))
		}
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		f.lists[key] = nil
	} else {
		f.lists[key] = list[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	f.expireSets++
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if len(f.lists[key]) > 0 {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return redis.NewStringSliceResult(nil, nil)
	}
	return redis.NewStringSliceResult(list[start:stop+1], nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.lists[key]; ok {
			delete(f.lists, key)
			delete(f.ttls, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestHistoryKey_Format(t *testing.T) {
	userID := uuid.MustParse("3f1c2a44-9b77-4c8e-b1d2-0a5e6f7a8b9c")

	got := HistoryKey(userID, "savings")
	want := "user:3f1c2a44-9b77-4c8e-b1d2-0a5e6f7a8b9c:history:savings"
	if got != want {
		t.Fatalf("expected key %q, got %q", want, got)
	}
}

func TestNewRedisHistoryCache_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		ttl       time.Duration
		wantLimit int64
		wantTTL   time.Duration
	}{
		{name: "explicit values kept", limit: 25, ttl: 2 * time.Hour, wantLimit: 25, wantTTL: 2 * time.Hour},
		{name: "non-positive limit falls back", limit: 0, ttl: time.Hour, wantLimit: DefaultEntryLimit, wantTTL: time.Hour},
		{name: "non-positive ttl falls back", limit: 10, ttl: -time.Second, wantLimit: 10, wantTTL: DefaultTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRedisHistoryCache(nil, tt.limit, tt.ttl)
			if c.limit != tt.wantLimit {
				t.Fatalf("expected limit %d, got %d", tt.wantLimit, c.limit)
			}
			if c.ttl != tt.wantTTL {
				t.Fatalf("expected ttl %s, got %s", tt.wantTTL, c.ttl)
			}
		})
	}
}

func TestAppend_KeepsOnlyMostRecentEntriesInOrder(t *testing.T) {
	fake := newFakeRedis()
	c := NewRedisHistoryCache(fake, DefaultEntryLimit, time.Hour)
	userID := uuid.New()
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		entry := domain.HistoryEntry{
			Description: fmt.Sprintf("Deposited %d to account savings", i),
			Amount:      fmt.Sprintf("+%d", i),
		}
		if err := c.Append(ctx, userID, "savings", entry); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	entries, err := c.ReadAll(ctx, userID, "savings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != DefaultEntryLimit {
		t.Fatalf("expected exactly %d entries after 12 appends, got %d", DefaultEntryLimit, len(entries))
	}
	// The two oldest appends must have been trimmed away; the rest read back
	// oldest first.
	for i, entry := range entries {
		wantAmount := fmt.Sprintf("+%d", i+3)
		if entry.Amount != wantAmount {
			t.Fatalf("expected entry %d amount %q, got %q", i, wantAmount, entry.Amount)
		}
	}
}

func TestAppend_RefreshesRollingTTL(t *testing.T) {
	fake := newFakeRedis()
	ttl := 45 * time.Minute
	c := NewRedisHistoryCache(fake, 5, ttl)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Append(ctx, userID, "savings", domain.HistoryEntry{Description: "d", Amount: "+1"}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	key := HistoryKey(userID, "savings")
	if fake.ttls[key] != ttl {
		t.Fatalf("expected configured ttl %s on the key, got %s", ttl, fake.ttls[key])
	}
	if fake.expireSets != 3 {
		t.Fatalf("expected the ttl to be refreshed on every append, got %d refreshes", fake.expireSets)
	}
}

func TestExistsAndPurge(t *testing.T) {
	fake := newFakeRedis()
	c := NewRedisHistoryCache(fake, DefaultEntryLimit, time.Hour)
	userID := uuid.New()
	ctx := context.Background()

	hit, err := c.Exists(ctx, userID, "savings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Fatal("expected no key before any append")
	}

	if err := c.Append(ctx, userID, "savings", domain.HistoryEntry{Description: "d", Amount: "+1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if hit, _ = c.Exists(ctx, userID, "savings"); !hit {
		t.Fatal("expected key to exist after an append")
	}

	if err := c.Purge(ctx, userID, "savings"); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if hit, _ = c.Exists(ctx, userID, "savings"); hit {
		t.Fatal("expected key to be gone after purge")
	}

	// Purging an absent key stays quiet.
	if err := c.Purge(ctx, userID, "savings"); err != nil {
		t.Fatalf("expected purge of absent key to succeed, got %v", err)
	}
}
