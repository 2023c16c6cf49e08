package oauth

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/os/gmlock"
	"github.com/google/uuid"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/iimeta/fastrelay/utility/redis"
)

// locker 同一账号同时只允许一个刷新
type locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool)
}

// 进程内锁
type localLocker struct{}

func (localLocker) TryLock(_ context.Context, key string) (func(), bool) {

	if !gmlock.TryLock(key) {
		return nil, false
	}

	return func() { gmlock.Unlock(key) }, true
}

// Redis锁, 多实例部署时使用
type redisLocker struct{}

func (redisLocker) TryLock(ctx context.Context, key string) (func(), bool) {

	token := uuid.New().String()

	ok, err := redis.TryLock(ctx, key, token, config.Cfg.OAuth.LockTTL*time.Second)
	if err != nil {
		logger.Errorf(ctx, "oauth TryLock key: %s, error: %v", key, err)
		return nil, false
	}

	if !ok {
		return nil, false
	}

	return func() {
		if err := redis.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			logger.Errorf(ctx, "oauth Unlock key: %s, error: %v", key, err)
		}
	}, true
}
