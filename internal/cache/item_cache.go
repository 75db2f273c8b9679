package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/item-service/internal/domain"
)

// fenceTTL bounds how long a per-item fence outlives its last invalidation.
// It must exceed the longest read that can race a mutation.
const fenceTTL = 24 * time.Hour

// ItemCache stores items by id for the read path.
//
// Readers call Fence before loading an item from the store and pass the value
// to Set. Invalidate advances the fence and drops the entry in one step, so a
// Set carrying a fence observed before the invalidation is discarded instead
// of resurrecting a deleted or outdated item.
type ItemCache interface {
	// Get reports misses with ok=false and a nil error.
	Get(ctx context.Context, id int64) (item *domain.Item, ok bool, err error)
	Fence(ctx context.Context, id int64) (int64, error)
	// Set stores item only if the fence for item.ID still equals fence.
	Set(ctx context.Context, item *domain.Item, fence int64) error
	Invalidate(ctx context.Context, id int64) error
}

type cachedItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       *int64    `json:"price"`
	Available   bool      `json:"available"`
	Email       string    `json:"email"`
	SpecialID   int64     `json:"special_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// setIfFence writes KEYS[1] only while KEYS[2] (the fence, absent = 0) equals
// ARGV[1]. ARGV[3] is the entry TTL in milliseconds; 0 means no expiry.
var setIfFence = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if (current or "0") ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

type redisItemCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisItemCache returns a cache backed by client. Entries expire after ttl.
func NewRedisItemCache(client *redis.Client, ttl time.Duration) ItemCache {
	return &redisItemCache{client: client, ttl: ttl, prefix: "item:"}
}

func (c *redisItemCache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

func (c *redisItemCache) fenceKey(id int64) string {
	return c.key(id) + ":fence"
}

func (c *redisItemCache) Get(ctx context.Context, id int64) (*domain.Item, bool, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry cachedItem
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, err
	}
	item := domain.Item(entry)
	return &item, true, nil
}

func (c *redisItemCache) Fence(ctx context.Context, id int64) (int64, error) {
	fence, err := c.client.Get(ctx, c.fenceKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return fence, err
}

func (c *redisItemCache) Set(ctx context.Context, item *domain.Item, fence int64) error {
	data, err := json.Marshal(cachedItem(*item))
	if err != nil {
		return err
	}
	keys := []string{c.key(item.ID), c.fenceKey(item.ID)}
	return setIfFence.Run(ctx, c.client, keys, strconv.FormatInt(fence, 10), data, c.ttl.Milliseconds()).Err()
}

func (c *redisItemCache) Invalidate(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.fenceKey(id))
		pipe.Expire(ctx, c.fenceKey(id), fenceTTL)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}

type noopItemCache struct{}

// NewNoopItemCache returns a cache that never hits.
func NewNoopItemCache() ItemCache {
	return noopItemCache{}
}

func (noopItemCache) Get(context.Context, int64) (*domain.Item, bool, error) {
	return nil, false, nil
}

func (noopItemCache) Fence(context.Context, int64) (int64, error) { return 0, nil }

func (noopItemCache) Set(context.Context, *domain.Item, int64) error { return nil }

func (noopItemCache) Invalidate(context.Context, int64) error { return nil }
