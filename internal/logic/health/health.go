package health

import (
	"context"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/os/gcron"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/logger"
)

const cronName = "health-sweep"

type sHealth struct {
	account service.IAccount
	group   service.IGroup
}

// New group为空时只释放账号限流
func New(account service.IAccount, group service.IGroup) service.IHealth {
	return &sHealth{
		account: account,
		group:   group,
	}
}

// 释放已到期的账号限流与分组成员暂停
func (s *sHealth) Sweep(ctx context.Context) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sHealth Sweep time: %d", gtime.TimestampMilli()-now)
	}()

	var firstErr error

	accounts, err := s.account.ReleaseRateLimits(ctx)
	if err != nil {
		firstErr = gerror.Wrap(err, "release rate limits")
	}

	members := 0
	if s.group != nil {
		if members, err = s.group.ReleaseSuspensions(ctx); err != nil && firstErr == nil {
			firstErr = gerror.Wrap(err, "release suspensions")
		}
	}

	if accounts > 0 || members > 0 {
		logger.Infof(ctx, "sHealth Sweep accounts: %d, members: %d", accounts, members)
	}

	return firstErr
}

// 按配置的CRON定时执行
func (s *sHealth) Start(ctx context.Context) error {

	if !config.Cfg.Health.Open {
		logger.Info(ctx, "sHealth Start health sweep closed")
		return nil
	}

	if _, err := gcron.AddSingleton(ctx, config.Cfg.Health.Cron, func(ctx context.Context) {
		if err := s.Sweep(gctx.New()); err != nil {
			logger.Error(ctx, err)
		}
	}, cronName); err != nil {
		logger.Error(ctx, err)
		return err
	}

	logger.Infof(ctx, "sHealth Start cron: %s", config.Cfg.Health.Cron)

	return nil
}
