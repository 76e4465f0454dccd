package ratings

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter allows at most max ratings per author in each window
type RedisLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: int64(max), window: window}
}

func (rl *RedisLimiter) Allow(ctx context.Context, authorID string) (bool, error) {
	if rl == nil || rl.rdb == nil {
		return false, fmt.Errorf("Redis client not available")
	}

	key := fmt.Sprintf("rate:rating:%s", authorID)
	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// Set expiration if first time
	if count == 1 {
		if err := rl.rdb.Expire(ctx, key, rl.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= rl.max, nil
}
