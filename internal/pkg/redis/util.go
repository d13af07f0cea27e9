package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 仅删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TryLock SETNX 抢锁，最多额外重试 retry 次
func TryLock(ctx context.Context, key, token string, ttl time.Duration, retry int, interval time.Duration) (bool, error) {
	for attempt := 0; ; attempt++ {
		ok, err := Rdb.SetNX(ctx, key, token, ttl).Result()
		if err != nil || ok {
			return ok, err
		}
		if attempt >= retry {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func UnLock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, Rdb, []string{key}, token).Err()
}

func SAdd(ctx context.Context, key string, members ...any) error {
	return Rdb.SAdd(ctx, key, members...).Err()
}

func Members(ctx context.Context, key string) ([]string, error) {
	return Rdb.SMembers(ctx, key).Result()
}

// Rename 源键不存在时返回 (false, nil)
func Rename(ctx context.Context, oldKey, newKey string) (bool, error) {
	if err := Rdb.Rename(ctx, oldKey, newKey).Err(); err != nil {
		if strings.Contains(err.Error(), "no such key") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func Exists(ctx context.Context, key string) (bool, error) {
	n, err := Rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func DeleteKey(ctx context.Context, keys ...string) error {
	return Rdb.Del(ctx, keys...).Err()
}
