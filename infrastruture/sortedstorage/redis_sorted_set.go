package sortedstorage

import (
	"context"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

var _ i.SortedSet = &RedisSortedSet{}

// RedisSortedSet manages scored sets in Redis with TTL support.
type RedisSortedSet struct {
	client *redis.Client
	locker *redsync.Redsync
	ttl    time.Duration
}

// NewRedisSortedSet initializes a RedisSortedSet with the provided Redis client and TTL.
func NewRedisSortedSet(client *redis.Client, ttlSeconds int) (*RedisSortedSet, error) {
	set := &RedisSortedSet{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
	pool := goredis.NewPool(client)
	set.locker = redsync.New(pool)
	return set, nil
}

// Add adds a member with a given score and refreshes the key expiration.
func (rss *RedisSortedSet) Add(ctx context.Context, key string, score float64, member string) error {
	if err := rss.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return err
	}

	if rss.ttl > 0 {
		_ = rss.client.Expire(ctx, key, rss.ttl).Err()
	}
	return nil
}

// Remove removes member from the set. Removing an absent member is not an error.
func (rss *RedisSortedSet) Remove(ctx context.Context, key string, member string) error {
	return rss.client.ZRem(ctx, key, member).Err()
}

// Members returns every member ordered by ascending score.
func (rss *RedisSortedSet) Members(ctx context.Context, key string) ([]string, error) {
	return rss.client.ZRange(ctx, key, 0, -1).Result()
}

// Count returns the number of members in the set.
func (rss *RedisSortedSet) Count(ctx context.Context, key string) int64 {
	return rss.client.ZCard(ctx, key).Val()
}

// Refresh extends the key expiration. Without a TTL it does nothing.
func (rss *RedisSortedSet) Refresh(ctx context.Context, key string) error {
	if rss.ttl <= 0 {
		return nil
	}
	return rss.client.Expire(ctx, key, rss.ttl).Err()
}

// Reset drops the set. Concurrent resets of the same key take turns.
func (rss *RedisSortedSet) Reset(ctx context.Context, key string) error {
	mutex := rss.locker.NewMutex(key + ":reset_lock")
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.UnlockContext(ctx)
	}()

	return rss.client.Del(ctx, key).Err()
}
