package model_test

import (
	"testing"

	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/model"
)

const now = int64(1_700_000_000_000)

func activeAccount() *model.Account {
	return &model.Account{
		Id:        "a1",
		Platform:  consts.PLATFORM_CLAUDE,
		IsEnabled: true,
		Status:    consts.ACCOUNT_STATUS_ACTIVE,
	}
}

func Test_Account_IsAvailable(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		account := activeAccount()
		t.Assert(account.IsAvailable(now), true)

		account.IsEnabled = false
		t.Assert(account.IsAvailable(now), false)

		account = activeAccount()
		account.RateLimitedUntil = now + 1
		t.Assert(account.IsAvailable(now), false)

		account.RateLimitedUntil = now
		t.Assert(account.IsAvailable(now), false)

		account.RateLimitedUntil = now - 1
		t.Assert(account.IsAvailable(now), true)

		account.Status = consts.ACCOUNT_STATUS_RATE_LIMITED
		t.Assert(account.IsAvailable(now), false)

		var missing *model.Account
		t.Assert(missing.IsAvailable(now), false)
	})
}

func Test_Account_SupportsModel(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		account := activeAccount()
		t.Assert(account.SupportsModel("anything"), true)

		account.SupportedModels = []string{"claude-sonnet-4:claude-sonnet-4-20250514", "Claude-Opus-4"}
		t.Assert(account.SupportsModel("CLAUDE-SONNET-4"), true)
		t.Assert(account.SupportsModel("claude-opus-4"), true)
		t.Assert(account.SupportsModel("claude-sonnet"), false)
		t.Assert(account.SupportsModel("claude-sonnet-4-20250514"), false)
		t.Assert(account.SupportsModel(""), true)

		t.Assert(account.MapModel("claude-sonnet-4"), "claude-sonnet-4-20250514")
		t.Assert(account.MapModel("claude-opus-4"), "claude-opus-4")
		t.Assert(account.MapModel("gpt-4o"), "gpt-4o")
	})
}

func Test_Account_Clone(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		account := activeAccount()
		account.SupportedModels = []string{"m1"}
		account.OAuth = &model.OAuthToken{AccessToken: "at"}

		clone := account.Clone()
		clone.SupportedModels[0] = "m2"
		clone.OAuth.AccessToken = "changed"

		t.Assert(account.SupportedModels[0], "m1")
		t.Assert(account.OAuth.AccessToken, "at")
	})
}

func Test_ApiKey(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		key := &model.ApiKey{
			Id:                     "k1",
			IsEnabled:              true,
			ClaudeAccountId:        "c1",
			ClaudeConsoleAccountId: "c2",
			GeminiAccountId:        "g1",
		}

		t.Assert(key.GetService(), consts.SERVICE_CLAUDE)
		t.Assert(key.BindingIds(), []string{"c1", "c2"})
		t.Assert(key.AllowsPlatform(consts.PLATFORM_CLAUDE_CONSOLE), true)
		t.Assert(key.AllowsPlatform(consts.PLATFORM_GEMINI), false)

		key.Service = consts.SERVICE_GEMINI
		t.Assert(key.BindingIds(), []string{"g1"})

		key.Service = consts.SERVICE_OPENAI
		t.Assert(len(key.BindingIds()), 0)

		t.Assert(key.IsValid(now), true)
		key.ExpiresAt = now
		t.Assert(key.IsValid(now), false)

		t.Assert(key.HasGroups(), false)
		key.IsGroupManaged = true
		key.GroupIds = []string{"g"}
		t.Assert(key.HasGroups(), true)
	})
}

func Test_Mapping_IsAvailable(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		policy := &model.HealthPolicy{
			FailureThreshold:  3,
			FailureCeiling:    5,
			SuspendDuration:   300_000,
			MinSuccessRate:    0.5,
			MinSampleRequests: 10,
		}

		mapping := &model.ApiKeyGroupMapping{
			ApiKeyId: "k1",
			ApiKey:   &model.ApiKey{Id: "k1", IsEnabled: true},
			Weight:   10,
		}
		t.Assert(mapping.IsAvailable(now, policy), true)

		mapping.DisabledUntil = now + 1000
		t.Assert(mapping.IsAvailable(now, policy), false)
		mapping.DisabledUntil = now - 1
		t.Assert(mapping.IsAvailable(now, policy), true)

		mapping.ConsecutiveFailures = 5
		t.Assert(mapping.IsAvailable(now, policy), false)
		mapping.ConsecutiveFailures = 4
		t.Assert(mapping.IsAvailable(now, policy), true)

		// 样本不足不考虑成功率
		mapping.TotalRequests, mapping.SuccessRequests = 10, 0
		t.Assert(mapping.IsAvailable(now, policy), true)
		mapping.TotalRequests, mapping.SuccessRequests = 11, 5
		t.Assert(mapping.IsAvailable(now, policy), false)
		mapping.SuccessRequests = 6
		t.Assert(mapping.IsAvailable(now, policy), true)

		mapping.ApiKey.IsEnabled = false
		t.Assert(mapping.IsAvailable(now, policy), false)

		mapping.ApiKey = nil
		t.Assert(mapping.IsAvailable(now, policy), false)
	})
}

func Test_Mapping_WeightScore(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		mapping := &model.ApiKeyGroupMapping{Weight: 70}
		t.Assert(mapping.SuccessRate(), 1)
		t.Assert(mapping.WeightScore(), 70)

		mapping.TotalRequests, mapping.SuccessRequests = 10, 5
		t.Assert(mapping.WeightScore(), 52.5)

		low := &model.ApiKeyGroupMapping{Weight: 0}
		t.Assert(low.WeightScore(), 1)

		higherWeight := &model.ApiKeyGroupMapping{Weight: 71, TotalRequests: 10, SuccessRequests: 5}
		t.Assert(higherWeight.WeightScore() > mapping.WeightScore(), true)
	})
}

func Test_Permission(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		permission := &model.ApiKeyAccountPoolPermission{
			PoolGroup:         "p1",
			AllowedPlatforms:  []string{consts.PLATFORM_GEMINI},
			AllowedAccountIds: []string{"a", "b"},
			IsEnabled:         true,
			EffectiveFrom:     now - 10,
			EffectiveTo:       now + 10,
		}

		t.Assert(permission.IsEffective(now), true)
		t.Assert(permission.IsEffective(now-11), false)
		t.Assert(permission.IsEffective(now+10), false)

		t.Assert(permission.AllowsPlatform(consts.PLATFORM_GEMINI), true)
		t.Assert(permission.AllowsPlatform(consts.PLATFORM_CLAUDE), false)
		permission.AllowedPlatforms = []string{consts.PERMISSION_PLATFORM_ALL}
		t.Assert(permission.AllowsPlatform(consts.PLATFORM_CLAUDE), true)

		t.Assert(permission.Covers(&model.Account{Id: "a", PoolGroup: "p1"}, consts.PLATFORM_CLAUDE, now), true)
		t.Assert(permission.Covers(&model.Account{Id: "c", PoolGroup: "p1"}, consts.PLATFORM_CLAUDE, now), false)
		t.Assert(permission.Covers(&model.Account{Id: "a", PoolGroup: "p2"}, consts.PLATFORM_CLAUDE, now), false)

		permission.IsEnabled = false
		t.Assert(permission.IsEffective(now), false)
	})
}

func Test_Strategy_Parse(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		t.Assert(model.ParseGroupStrategy("weighted"), model.GroupWeighted)
		t.Assert(model.ParseGroupStrategy("least_connections"), model.GroupLeastConnections)
		t.Assert(model.ParseGroupStrategy(""), model.GroupRoundRobin)
		t.Assert(model.ParseGroupStrategy("unknown").String(), "round_robin")

		t.Assert(model.ParseFailoverStrategy("none"), model.FailoverNone)
		t.Assert(model.ParseFailoverStrategy(""), model.FailoverNext)

		for _, s := range []string{"priority", "round_robin", "random", "performance", "least_used", "weighted", "consistent_hash"} {
			t.Assert(model.ParsePoolStrategy(s).String(), s)
		}
		t.Assert(model.ParsePoolStrategy("bogus"), model.PoolPriority)
	})
}

func Test_Selection(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		var selection *model.Selection
		t.Assert(selection.Found(), false)

		t.Assert(model.NoSelection("none").Found(), false)
		t.Assert(model.NewSelection(activeAccount(), consts.SELECTION_SOURCE_POOL).Found(), true)
	})
}

func Test_GroupStatistics(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {
		t.Assert(model.GroupStatistics{}.AverageResponseTime(), 0)
		t.Assert(model.GroupStatistics{SuccessRequests: 4, TotalResponseTime: 1000}.AverageResponseTime(), 250)
	})
}
