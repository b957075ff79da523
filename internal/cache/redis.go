package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/classmatch/classmatch/internal/config"
)

const (
	likeCountTTL   = time.Hour
	dailyCountTTL  = 48 * time.Hour
	sessionSetTTL  = 12 * time.Hour
	dailyDayFormat = "2006-01-02"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForLikeCount generates the key for a user's cached liker count.
func (c *RedisCache) KeyForLikeCount(userID string) string {
	return fmt.Sprintf("likes:count:%s", userID)
}

func (c *RedisCache) UpdateLikeCount(ctx context.Context, userID string, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, likeCountTTL).Err()
}

func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (int64, bool, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// IncrLikeCount bumps the cached count when one is present. A plain INCR
// would resurrect an expired key at 1 and serve it as a wrong hit, so the
// increment is skipped on a miss and the next read repopulates from the
// swipe log.
func (c *RedisCache) IncrLikeCount(ctx context.Context, userID string) error {
	key := c.KeyForLikeCount(userID)
	exists, err := c.Client.Expire(ctx, key, likeCountTTL).Result()
	if err != nil || !exists {
		return err
	}
	return c.Client.Incr(ctx, key).Err()
}

// KeyForDailySwipes keys the swipe counter by (user, calendar day) so the
// limit survives process restarts and rolls over at midnight UTC.
func (c *RedisCache) KeyForDailySwipes(userID string, now time.Time) string {
	return fmt.Sprintf("swipes:daily:%s:%s", userID, now.UTC().Format(dailyDayFormat))
}

// IncrDailySwipes bumps today's counter and returns the new value.
func (c *RedisCache) IncrDailySwipes(ctx context.Context, userID string, now time.Time) (int64, error) {
	key := c.KeyForDailySwipes(userID, now)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = c.Client.Expire(ctx, key, dailyCountTTL).Err()
	return n, nil
}

// GetDailySwipes returns today's counter, 0 when absent.
func (c *RedisCache) GetDailySwipes(ctx context.Context, userID string, now time.Time) (int64, error) {
	val, err := c.Client.Get(ctx, c.KeyForDailySwipes(userID, now)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// KeyForSessionSwiped holds the set of candidate ids the user has acted on
// in the current app session, used to suppress re-presentation before the
// next full reload.
func (c *RedisCache) KeyForSessionSwiped(userID string) string {
	return fmt.Sprintf("session:swiped:%s", userID)
}

func (c *RedisCache) AddSessionSwiped(ctx context.Context, userID, targetID string) error {
	key := c.KeyForSessionSwiped(userID)
	if err := c.Client.SAdd(ctx, key, targetID).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, sessionSetTTL).Err()
}

func (c *RedisCache) SessionSwiped(ctx context.Context, userID string) (map[string]struct{}, error) {
	members, err := c.Client.SMembers(ctx, c.KeyForSessionSwiped(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	return out, nil
}

// ClearSessionSwiped drops the session set, used on manual refresh.
func (c *RedisCache) ClearSessionSwiped(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, c.KeyForSessionSwiped(userID)).Err()
}
