package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginFailKeyPrefix = "sweetshop:login:fail:"

// ユーザー名ごとのログイン失敗回数を数える。
// 最初の失敗から window の間に maxAttempts 回失敗したら、期限切れまで拒否する
type RedisLoginThrottle struct {
	rdb         *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewRedisLoginThrottle(rdb *redis.Client, maxAttempts int, window time.Duration) *RedisLoginThrottle {
	return &RedisLoginThrottle{
		rdb:         rdb,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func (t *RedisLoginThrottle) key(username string) string {
	return loginFailKeyPrefix + username
}

// まだ試行してよいか
func (t *RedisLoginThrottle) Allowed(ctx context.Context, username string) (bool, error) {
	n, err := t.rdb.Get(ctx, t.key(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n < t.maxAttempts, nil
}

// 失敗を1回記録する。窓は最初の失敗から始まる。
// キー作成とTTL設定はMULTIで一緒に送るので、TTLなしのキーは残らない
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, username string) error {
	key := t.key(username)
	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, t.window)
		pipe.Incr(ctx, key)
		return nil
	})
	return err
}

// ログイン成功で回数をリセット
func (t *RedisLoginThrottle) Reset(ctx context.Context, username string) error {
	return t.rdb.Del(ctx, t.key(username)).Err()
}
