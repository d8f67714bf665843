// Package ratelimit はログイン試行回数をRedisの固定ウィンドウで数える。
//
// キー:
//   - login:email:<email> — email単位
//   - login:ip:<ip>       — IP単位
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	auth "ecadmin/internal/usecase/auth_usecase"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("redis unavailable")

type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

type RedisLoginLimiter struct {
	redis  redis.UniversalClient
	config Config
}

var _ auth.LoginLimiter = (*RedisLoginLimiter)(nil)

// DI
func NewRedisLoginLimiter(client redis.UniversalClient, cfg Config) *RedisLoginLimiter {
	return &RedisLoginLimiter{redis: client, config: cfg}
}

// Check は失敗回数が上限に達していたらErrTooManyAttempts。
func (l *RedisLoginLimiter) Check(ctx context.Context, email, ip string) error {
	for _, key := range keys(email, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return auth.ErrTooManyAttempts
		}
	}
	return nil
}

// 失敗を1回数える（最初の1回でTTLをセット）
func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	for _, key := range keys(email, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// 成功したらemail側だけ消す（IP側は他アカウントへの総当たり対策で残す）
func (l *RedisLoginLimiter) Reset(ctx context.Context, email, ip string) error {
	if err := l.redis.Del(ctx, emailKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func keys(email, ip string) []string {
	ks := []string{emailKey(email)}
	if ip != "" {
		ks = append(ks, ipKey(ip))
	}
	return ks
}

func emailKey(email string) string { return "login:email:" + email }

func ipKey(ip string) string { return "login:ip:" + ip }

// REDIS_URL未設定時
type NoopLoginLimiter struct{}

func (NoopLoginLimiter) Check(ctx context.Context, email, ip string) error         { return nil }
func (NoopLoginLimiter) RecordFailure(ctx context.Context, email, ip string) error { return nil }
func (NoopLoginLimiter) Reset(ctx context.Context, email, ip string) error         { return nil }
