package health_test

import (
	"context"
	"testing"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/logic/account"
	"github.com/iimeta/fastrelay/internal/logic/group"
	"github.com/iimeta/fastrelay/internal/logic/health"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/model"
)

func Test_Sweep(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		past := gtime.TimestampMilli() - 1000

		s := store.NewMemory()
		s.PutAccount(&model.Account{Id: "a", IsEnabled: true, Status: consts.ACCOUNT_STATUS_RATE_LIMITED, RateLimitedUntil: past})
		s.PutGroup(&model.ApiKeyGroup{Id: "g", IsEnabled: true})
		s.PutApiKey(&model.ApiKey{Id: "k", IsEnabled: true})
		s.PutMapping(&model.ApiKeyGroupMapping{GroupId: "g", ApiKeyId: "k", ConsecutiveFailures: 3, DisabledUntil: past})

		svc := health.New(account.New(s), group.New(s))
		t.AssertNil(svc.Sweep(ctx))

		a, _ := s.GetAccount(ctx, "a")
		t.Assert(a.Status, consts.ACCOUNT_STATUS_ACTIVE)
		t.Assert(a.RateLimitedUntil, 0)

		t.Assert(s.GetMapping("g", "k").DisabledUntil, 0)
		t.Assert(len(s.Events()), 1)

		// 没有分组服务时只处理账号
		t.AssertNil(health.New(account.New(s), nil).Sweep(ctx))
	})
}

func Test_SweepCanceled(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := store.NewMemory()
		svc := health.New(account.New(s), group.New(s))

		t.AssertNE(svc.Sweep(ctx), nil)
	})
}
