package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/logic/account"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/model"
)

func Test_GetAvailable(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(&model.Account{Id: "a", IsEnabled: true, Status: consts.ACCOUNT_STATUS_ACTIVE})

		svc := account.New(s)

		got, err := svc.GetAvailable(ctx, "a")
		t.AssertNil(err)
		t.Assert(got.Id, "a")

		// 每次读取最新状态
		s.PutAccount(&model.Account{Id: "a", IsEnabled: false, Status: consts.ACCOUNT_STATUS_ACTIVE})
		got, err = svc.GetAvailable(ctx, "a")
		t.AssertNil(err)
		t.AssertNil(got)

		got, err = svc.GetAvailable(ctx, "missing")
		t.AssertNil(err)
		t.AssertNil(got)

		got, err = svc.GetAvailable(ctx, "")
		t.AssertNil(err)
		t.AssertNil(got)
	})
}

func Test_MarkRateLimited(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(&model.Account{Id: "a", IsEnabled: true, Status: consts.ACCOUNT_STATUS_ACTIVE, RateLimitDuration: 120})

		svc := account.New(s)

		before := gtime.TimestampMilli()
		t.AssertNil(svc.MarkRateLimited(ctx, "a", 0))

		got, _ := s.GetAccount(ctx, "a")
		t.Assert(got.Status, consts.ACCOUNT_STATUS_ACTIVE)
		t.Assert(got.RateLimitedUntil >= before+120_000, true)

		available, _ := svc.GetAvailable(ctx, "a")
		t.AssertNil(available)

		t.AssertNil(svc.MarkRateLimited(ctx, "a", -time.Hour))
		t.AssertNil(svc.MarkRateLimited(ctx, "missing", 0))
	})
}

func Test_ReleaseRateLimits(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(&model.Account{Id: "a", IsEnabled: true, Status: consts.ACCOUNT_STATUS_RATE_LIMITED, RateLimitedUntil: 1})
		s.PutAccount(&model.Account{Id: "b", IsEnabled: true, Status: consts.ACCOUNT_STATUS_RATE_LIMITED, RateLimitedUntil: gtime.TimestampMilli() + 60_000})
		s.PutAccount(&model.Account{Id: "c", IsEnabled: true, Status: consts.ACCOUNT_STATUS_ACTIVE, RateLimitedUntil: 1})
		s.PutAccount(&model.Account{Id: "d", IsEnabled: true, Status: consts.ACCOUNT_STATUS_ERROR, RateLimitedUntil: 1})

		svc := account.New(s)

		released, err := svc.ReleaseRateLimits(ctx)
		t.AssertNil(err)
		t.Assert(released, 3)

		got, _ := svc.GetAvailable(ctx, "a")
		t.AssertNE(got, nil)

		// 异常状态不随限流清理恢复
		d, _ := s.GetAccount(ctx, "d")
		t.Assert(d.Status, consts.ACCOUNT_STATUS_ERROR)
		t.Assert(d.RateLimitedUntil, 0)
	})
}

func Test_Touch(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(&model.Account{Id: "a", IsEnabled: true, Status: consts.ACCOUNT_STATUS_ACTIVE})

		svc := account.New(s)
		t.AssertNil(svc.Touch(ctx, "a"))

		got, _ := s.GetAccount(ctx, "a")
		t.Assert(got.UsageCount, 1)
		t.Assert(got.LastUsedAt > 0, true)

		accounts, err := svc.GetByPlatforms(ctx, []string{consts.PLATFORM_CLAUDE})
		t.AssertNil(err)
		t.Assert(len(accounts), 0)
	})
}
