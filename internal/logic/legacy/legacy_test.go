package legacy_test

import (
	"context"
	"testing"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/logic/account"
	"github.com/iimeta/fastrelay/internal/logic/affinity"
	"github.com/iimeta/fastrelay/internal/logic/legacy"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
)

func newAccount(id, platform string, priority int) *model.Account {
	return &model.Account{
		Id:        id,
		Platform:  platform,
		Priority:  priority,
		IsEnabled: true,
		Status:    consts.ACCOUNT_STATUS_ACTIVE,
	}
}

func newLegacy(s *store.Memory) (service.ILegacy, service.IAffinity) {
	aff := affinity.New()
	return legacy.New(account.New(s), aff), aff
}

func Test_Score(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		now := gtime.TimestampMilli()

		fresh := newAccount("a", consts.PLATFORM_CLAUDE, 1)
		used := newAccount("b", consts.PLATFORM_CLAUDE, 1)
		used.LastUsedAt = now

		t.Assert(legacy.Score(fresh, now), 100)
		t.Assert(legacy.Score(used, now), 200)
		t.Assert(legacy.Score(fresh, now) < legacy.Score(used, now), true)

		// 使用次数惩罚封顶
		heavy := newAccount("c", consts.PLATFORM_CLAUDE, 0)
		heavy.UsageCount = 1000
		t.Assert(legacy.Score(heavy, now), 50)

		recent := newAccount("d", consts.PLATFORM_CLAUDE, 0)
		recent.LastUsedAt = now - 2*60_000
		t.Assert(legacy.Score(recent, now), 50)

		recent.LastUsedAt = now - 10*60_000
		t.Assert(legacy.Score(recent, now), 20)

		recent.LastUsedAt = now - 60*60_000
		t.Assert(legacy.Score(recent, now), 0)

		// 限流窗口120秒, 距上次使用60秒, ratio=0.5
		limited := newAccount("e", consts.PLATFORM_CLAUDE, 0)
		limited.RateLimitDuration = 120
		limited.LastUsedAt = now - 60_000
		t.Assert(legacy.Score(limited, now), 150)

		// ratio达到0.8不再惩罚
		limited.RateLimitDuration = 60
		t.Assert(legacy.Score(limited, now), 50)

		// 从未使用不计限流惩罚
		limited.LastUsedAt = 0
		t.Assert(legacy.Score(limited, now), 0)
	})
}

func Test_SelectBinding(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(newAccount("x", consts.PLATFORM_CLAUDE, 5))
		s.PutAccount(newAccount("y", consts.PLATFORM_CLAUDE, 1))

		svc, _ := newLegacy(s)
		key := &model.ApiKey{Id: "k", IsEnabled: true, ClaudeAccountId: "x"}

		selection, err := svc.Select(ctx, key, "", "")
		t.AssertNil(err)
		t.Assert(selection.Account.Id, "x")
		t.Assert(selection.Source, consts.SELECTION_SOURCE_LEGACY_BINDING)

		got, _ := s.GetAccount(ctx, "x")
		t.Assert(got.UsageCount, 1)

		other, _ := s.GetAccount(ctx, "y")
		t.Assert(other.UsageCount, 0)
	})
}

func Test_SelectConsoleBinding(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()

		unavailable := newAccount("x", consts.PLATFORM_CLAUDE, 1)
		unavailable.RateLimitedUntil = gtime.TimestampMilli() + 60_000
		s.PutAccount(unavailable)
		s.PutAccount(newAccount("c", consts.PLATFORM_CLAUDE_CONSOLE, 9))

		svc, _ := newLegacy(s)
		key := &model.ApiKey{Id: "k", IsEnabled: true, ClaudeAccountId: "x", ClaudeConsoleAccountId: "c"}

		selection, err := svc.Select(ctx, key, "", "")
		t.AssertNil(err)
		t.Assert(selection.Account.Id, "c")

		// 绑定账号不存在时继续后续步骤
		key.ClaudeAccountId = "missing"
		key.ClaudeConsoleAccountId = ""
		selection, err = svc.Select(ctx, key, "", "")
		t.AssertNil(err)
		t.Assert(selection.Account.Id, "c")
		t.Assert(selection.Source, consts.SELECTION_SOURCE_LEGACY_SCORE)
	})
}

func Test_SelectScore(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()

		used := newAccount("a", consts.PLATFORM_CLAUDE, 1)
		used.LastUsedAt = gtime.TimestampMilli()
		s.PutAccount(used)
		s.PutAccount(newAccount("b", consts.PLATFORM_CLAUDE, 1))
		s.PutAccount(newAccount("g", consts.PLATFORM_GEMINI, 0))

		svc, _ := newLegacy(s)
		key := &model.ApiKey{Id: "k", IsEnabled: true}

		selection, err := svc.Select(ctx, key, "", "")
		t.AssertNil(err)
		t.Assert(selection.Account.Id, "b")
	})
}

func Test_SelectModel(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()

		a := newAccount("a", consts.PLATFORM_CLAUDE, 0)
		a.SupportedModels = []string{"claude-3-haiku"}
		s.PutAccount(a)

		b := newAccount("b", consts.PLATFORM_CLAUDE, 5)
		b.SupportedModels = []string{"Claude-Sonnet-4:claude-sonnet-4-20250514"}
		s.PutAccount(b)

		svc, _ := newLegacy(s)
		key := &model.ApiKey{Id: "k", IsEnabled: true}

		selection, err := svc.Select(ctx, key, "", "claude-sonnet-4")
		t.AssertNil(err)
		t.Assert(selection.Account.Id, "b")

		selection, err = svc.Select(ctx, key, "", "gpt-4o")
		t.AssertNil(err)
		t.Assert(selection.Found(), false)
		t.Assert(selection.ModelFiltered, true)

		s.PutAccount(&model.Account{Id: "a", Platform: consts.PLATFORM_CLAUDE, IsEnabled: false})
		s.PutAccount(&model.Account{Id: "b", Platform: consts.PLATFORM_CLAUDE, IsEnabled: false})

		selection, err = svc.Select(ctx, key, "", "gpt-4o")
		t.AssertNil(err)
		t.Assert(selection.Found(), false)
		t.Assert(selection.ModelFiltered, false)
	})
}

func Test_SelectAffinity(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := store.NewMemory()
		s.PutAccount(newAccount("a", consts.PLATFORM_CLAUDE, 1))
		s.PutAccount(newAccount("b", consts.PLATFORM_CLAUDE, 1))

		svc, aff := newLegacy(s)
		key := &model.ApiKey{Id: "k", IsEnabled: true}

		first, err := svc.Select(ctx, key, "session", "")
		t.AssertNil(err)
		t.Assert(aff.Get(ctx, "session"), first.Account.Id)

		// 首次选择后该账号评分变高, 粘性仍返回同一账号
		second, err := svc.Select(ctx, key, "session", "")
		t.AssertNil(err)
		t.Assert(second.Account.Id, first.Account.Id)
		t.Assert(second.Source, consts.SELECTION_SOURCE_AFFINITY)

		// 粘性账号不可用后重新选择, 并替换映射
		disabled := newAccount(first.Account.Id, consts.PLATFORM_CLAUDE, 1)
		disabled.IsEnabled = false
		s.PutAccount(disabled)

		third, err := svc.Select(ctx, key, "session", "")
		t.AssertNil(err)
		t.AssertNE(third.Account.Id, first.Account.Id)
		t.Assert(third.Source, consts.SELECTION_SOURCE_LEGACY_SCORE)
		t.Assert(aff.Get(ctx, "session"), third.Account.Id)
	})
}
