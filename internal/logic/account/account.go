package account

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/logger"
)

type sAccount struct {
	store service.IStore
}

func New(store service.IStore) service.IAccount {
	return &sAccount{
		store: store,
	}
}

// 根据ID获取账号
func (s *sAccount) GetAccount(ctx context.Context, id string) (*model.Account, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sAccount GetAccount time: %d", gtime.TimestampMilli()-now)
	}()

	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	return account, nil
}

// 获取可用账号, 每次读取最新数据, 不存在或不可用返回nil
func (s *sAccount) GetAvailable(ctx context.Context, id string) (*model.Account, error) {

	if id == "" {
		return nil, nil
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if account == nil {
		logger.Warningf(ctx, "sAccount GetAvailable account: %s not found", id)
		return nil, nil
	}

	if !account.IsAvailable(gtime.TimestampMilli()) {
		logger.Debugf(ctx, "sAccount GetAvailable account: %s unavailable, enabled: %t, status: %s, rateLimitedUntil: %d",
			id, account.IsEnabled, account.Status, account.RateLimitedUntil)
		return nil, nil
	}

	return account, nil
}

// 获取平台下的启用账号
func (s *sAccount) GetByPlatforms(ctx context.Context, platforms []string) ([]*model.Account, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sAccount GetByPlatforms time: %d", gtime.TimestampMilli()-now)
	}()

	accounts, err := s.store.FindAccounts(ctx, &model.AccountQuery{
		Platforms:   platforms,
		OnlyEnabled: true,
	})
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	return accounts, nil
}

// 记录账号使用
func (s *sAccount) Touch(ctx context.Context, id string) error {

	if err := s.store.TouchAccount(ctx, id, gtime.TimestampMilli()); err != nil {
		logger.Error(ctx, err)
		return err
	}

	return nil
}

// 标记账号限流, duration为0时使用账号配置的限流窗口
func (s *sAccount) MarkRateLimited(ctx context.Context, id string, duration time.Duration) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sAccount MarkRateLimited time: %d", gtime.TimestampMilli()-now)
	}()

	if duration <= 0 {

		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return err
		}

		if account == nil {
			return nil
		}

		duration = time.Duration(max(account.RateLimitDuration, 60)) * time.Second
	}

	until := now + duration.Milliseconds()

	if err := s.store.SetAccountRateLimited(ctx, id, until); err != nil {
		logger.Error(ctx, err)
		return err
	}

	logger.Infof(ctx, "sAccount MarkRateLimited account: %s until: %d", id, until)

	return nil
}

// 释放已过期的账号限流
func (s *sAccount) ReleaseRateLimits(ctx context.Context) (int64, error) {

	released, err := s.store.ReleaseRateLimits(ctx, gtime.TimestampMilli())
	if err != nil {
		logger.Error(ctx, err)
		return 0, err
	}

	if released > 0 {
		logger.Infof(ctx, "sAccount ReleaseRateLimits released: %d", released)
	}

	return released, nil
}
