package cmd

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogf/gf/v2/database/gredis"
	"github.com/gogf/gf/v2/os/grpool"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/iimeta/fastrelay/utility/redis"
)

var channels = []string{
	consts.CHANGE_CHANNEL_ACCOUNT,
	consts.CHANGE_CHANNEL_GROUP,
	consts.CHANGE_CHANNEL_PERMISSION,
}

// 订阅变更通道, 断开后指数退避重连
func subscribe(ctx context.Context) error {

	conn, _, err := redis.Subscribe(ctx, channels[0], channels[1:]...)
	if err != nil {
		return err
	}

	return grpool.AddWithRecover(ctx, func(ctx context.Context) {
		for {

			msg, err := conn.ReceiveMessage(ctx)
			if err != nil {

				if ctx.Err() != nil {
					return
				}

				logger.Errorf(ctx, "Subscribe error: %v", err)

				if conn = reconnect(ctx); conn == nil {
					return
				}

				continue
			}

			if err = service.Scheduler().Subscribe(ctx, msg.Channel, msg.Payload); err != nil {
				logger.Error(ctx, err)
			}
		}
	}, nil)
}

func reconnect(ctx context.Context) gredis.Conn {

	var conn gredis.Conn

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0

	if err := backoff.RetryNotify(func() (err error) {
		conn, _, err = redis.Subscribe(ctx, channels[0], channels[1:]...)
		return err
	}, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Errorf(ctx, "Subscribe Reconnect error: %v, retry in: %s", err, next)
	}); err != nil {
		logger.Errorf(ctx, "Subscribe Reconnect stopped: %v", err)
		return nil
	}

	logger.Info(ctx, "Subscribe Reconnect success")

	return conn
}
