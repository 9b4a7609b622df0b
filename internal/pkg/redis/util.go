package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const incrExpireScript = "local n = redis.call('incr', KEYS[1]) if n == 1 then redis.call('pexpire', KEYS[1], ARGV[1]) end return n"

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 获取字符串类型的值，不存在时返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// GetDel 读取并删除，用于一次性凭据
func GetDel(ctx context.Context, key string) (string, error) {
	value, err := Rdb.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// TryLock 尝试加锁，retryTimes 为 -1 时一直重试
func TryLock(ctx context.Context, key string, value interface{}, expiration time.Duration, retryTimes int) (bool, error) {
	for i := 0; i <= retryTimes || retryTimes == -1; i++ {
		success, err := Rdb.SetNX(ctx, key, value, expiration).Result()
		if err != nil {
			return false, err
		}
		if success {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return false, nil
}

// UnLock 释放锁，仅删除自己持有的锁
func UnLock(ctx context.Context, key string, value interface{}) {
	Rdb.Eval(ctx, unlockScript, []string{key}, value)
}

// IncrWithExpire 计数加一，首次写入时设置过期时间
func IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	return Rdb.Eval(ctx, incrExpireScript, []string{key}, expiration.Milliseconds()).Int64()
}

// ZAddAndTrim 以 score 写入成员，删除 score 小于 minScore 的旧成员，并刷新键的过期时间
func ZAddAndTrim(ctx context.Context, key string, members []string, score, minScore float64, expiration time.Duration) error {
	if len(members) == 0 {
		return nil
	}
	values := make([]redis.Z, len(members))
	for i, m := range members {
		values[i] = redis.Z{Score: score, Member: m}
	}
	pipe := Rdb.TxPipeline()
	pipe.ZAdd(ctx, key, values...)
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatFloat(minScore, 'f', -1, 64))
	pipe.Expire(ctx, key, expiration)
	_, err := pipe.Exec(ctx)
	return err
}

// ZMScore 批量读取成员 score，不存在的成员为 0
func ZMScore(ctx context.Context, key string, members []string) ([]float64, error) {
	if len(members) == 0 {
		return nil, nil
	}
	return Rdb.ZMScore(ctx, key, members...).Result()
}

// DeleteKey 删除一个键
func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}
