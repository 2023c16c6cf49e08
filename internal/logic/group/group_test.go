package group_test

import (
	"context"
	"math"
	"testing"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/logic/group"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/model"
)

func newStore(strategy model.GroupStrategy, members ...*model.ApiKeyGroupMapping) *store.Memory {

	s := store.NewMemory()
	s.PutGroup(&model.ApiKeyGroup{Id: "g", IsEnabled: true, LbStrategy: strategy})

	for _, member := range members {
		member.GroupId = "g"
		s.PutApiKey(&model.ApiKey{Id: member.ApiKeyId, IsEnabled: true})
		s.PutMapping(member)
	}

	return s
}

func Test_RoundRobin(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", Order: 1},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", Order: 2},
			&model.ApiKeyGroupMapping{ApiKeyId: "c", Order: 3},
		)

		svc := group.New(s)

		seen := make(map[string]int)
		for range 3 {
			mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g")
			t.AssertNil(err)
			seen[mapping.ApiKeyId]++
		}

		t.Assert(seen, map[string]int{"a": 1, "b": 1, "c": 1})

		g, _ := s.GetGroup(ctx, "g")
		t.Assert(g.RoundRobinIndex, 0)

		// 游标按当前长度取模
		mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g", "a", "b")
		t.AssertNil(err)
		t.Assert(mapping.ApiKeyId, "c")
	})
}

func Test_Weighted(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupWeighted,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", Priority: 1, Weight: 70},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", Priority: 2, Weight: 30},
		)

		svc := group.New(s)

		draws := 5000
		hits := 0
		for range draws {
			mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g")
			t.AssertNil(err)
			if mapping.ApiKeyId == "a" {
				hits++
			}
		}

		t.Assert(math.Abs(float64(hits)/float64(draws)-0.7) < 0.05, true)
	})
}

func Test_WeightedSuspended(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupWeighted,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", Priority: 1, Weight: 70},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", Priority: 2, Weight: 30},
		)

		svc := group.New(s)

		for range 3 {
			t.AssertNil(svc.HandleApiKeyFailure(ctx, "a", "g"))
		}

		a := s.GetMapping("g", "a")
		t.Assert(a.HealthStatus, consts.HEALTH_STATUS_UNHEALTHY)
		t.Assert(a.DisabledUntil > gtime.TimestampMilli(), true)

		for range 200 {
			mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g")
			t.AssertNil(err)
			t.Assert(mapping.ApiKeyId, "b")
		}

		events := s.Events()
		t.Assert(len(events), 1)
		t.Assert(events[0].Event, consts.GROUP_EVENT_SUSPENDED)
		t.Assert(events[0].ApiKeyId, "a")

		g, _ := s.GetGroup(ctx, "g")
		t.Assert(g.Statistics.FailedRequests, 3)
	})
}

func Test_SuspensionIdempotence(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "a"},
		)

		svc := group.New(s)

		for range 3 {
			t.AssertNil(svc.HandleApiKeyFailure(ctx, "a", "g"))
		}

		disabledUntil := s.GetMapping("g", "a").DisabledUntil
		t.Assert(disabledUntil > 0, true)

		t.AssertNil(svc.HandleApiKeyFailure(ctx, "a", "g"))
		t.Assert(s.GetMapping("g", "a").DisabledUntil, disabledUntil)
		t.Assert(s.GetMapping("g", "a").ConsecutiveFailures, 4)

		healthy, err := svc.IsHealthy(ctx, "g")
		t.AssertNil(err)
		t.Assert(healthy, false)

		t.AssertNil(svc.RecoverApiKey(ctx, "a", "g"))

		a := s.GetMapping("g", "a")
		t.Assert(a.DisabledUntil, 0)
		t.Assert(a.ConsecutiveFailures, 0)
		t.Assert(a.HealthStatus, consts.HEALTH_STATUS_HEALTHY)

		healthy, err = svc.IsHealthy(ctx, "g")
		t.AssertNil(err)
		t.Assert(healthy, true)

		t.Assert(len(s.Events()), 2)
		t.Assert(s.Events()[1].Event, consts.GROUP_EVENT_RECOVERED)
	})
}

func Test_Eligibility(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "ceiling", ConsecutiveFailures: 5},
			&model.ApiKeyGroupMapping{ApiKeyId: "low", TotalRequests: 20, SuccessRequests: 5},
			&model.ApiKeyGroupMapping{ApiKeyId: "sample", TotalRequests: 10, SuccessRequests: 0},
			&model.ApiKeyGroupMapping{ApiKeyId: "expired", DisabledUntil: 1},
			&model.ApiKeyGroupMapping{ApiKeyId: "disabled"},
		)
		s.PutApiKey(&model.ApiKey{Id: "disabled", IsEnabled: false})

		svc := group.New(s)

		members, err := svc.GetAvailableMembers(ctx, "g")
		t.AssertNil(err)

		ids := make([]string, 0)
		for _, member := range members {
			ids = append(ids, member.ApiKeyId)
		}

		t.Assert(ids, []string{"expired", "sample"})
	})
}

func Test_PerformFailover(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", Order: 1},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", Order: 2},
		)

		svc := group.New(s)

		mapping := svc.PerformFailover(ctx, "g", "a")
		t.Assert(mapping.ApiKeyId, "b")

		t.AssertNil(svc.PerformFailover(ctx, "g", "a", "b"))
		t.AssertNil(svc.PerformFailover(ctx, "missing", "a"))

		s.PutGroup(&model.ApiKeyGroup{Id: "g", IsEnabled: true, FailoverStrategy: model.FailoverNone})
		t.AssertNil(svc.PerformFailover(ctx, "g", "a"))

		s.PutGroup(&model.ApiKeyGroup{Id: "g", IsEnabled: false})
		mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g")
		t.AssertNil(err)
		t.AssertNil(mapping)
	})
}

func Test_LeastConnections(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupLeastConnections,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", Weight: 10},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", Weight: 20},
		)

		svc := group.New(s)

		// 连接数相同, 权重分高者优先
		mapping, err := svc.SelectBestApiKeyFromGroup(ctx, "g")
		t.AssertNil(err)
		t.Assert(mapping.ApiKeyId, "b")

		t.AssertNil(svc.AcquireConnection(ctx, "b", "g"))

		mapping, err = svc.SelectBestApiKeyFromGroup(ctx, "g")
		t.AssertNil(err)
		t.Assert(mapping.ApiKeyId, "a")

		t.AssertNil(svc.ReleaseConnection(ctx, "b", "g"))
		t.AssertNil(svc.ReleaseConnection(ctx, "b", "g"))
		t.Assert(s.GetMapping("g", "b").CurrentConnections, 0)

		g, _ := s.GetGroup(ctx, "g")
		t.Assert(g.Statistics.CurrentConnections, 0)
	})
}

func Test_RecordStatistics(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", ConsecutiveFailures: 2},
		)

		svc := group.New(s)

		t.AssertNil(svc.RecordUsage(ctx, "g"))
		t.AssertNil(svc.RecordSuccess(ctx, "a", "g", 0.5, 200))

		g, _ := s.GetGroup(ctx, "g")
		t.Assert(g.Statistics.TotalRequests, 1)
		t.Assert(g.Statistics.SuccessRequests, 1)
		t.Assert(g.Statistics.TotalCost, 0.5)
		t.Assert(g.Statistics.AverageResponseTime(), 200)

		a := s.GetMapping("g", "a")
		t.Assert(a.ConsecutiveFailures, 0)
		t.Assert(a.SuccessRequests, 1)
	})
}

func Test_ReleaseSuspensions(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {

		ctx := context.Background()
		past := gtime.TimestampMilli() - 1000
		s := newStore(model.GroupRoundRobin,
			&model.ApiKeyGroupMapping{ApiKeyId: "a", ConsecutiveFailures: 3, DisabledUntil: past},
			&model.ApiKeyGroupMapping{ApiKeyId: "b", ConsecutiveFailures: 5, DisabledUntil: past},
		)

		svc := group.New(s)

		released, err := svc.ReleaseSuspensions(ctx)
		t.AssertNil(err)
		t.Assert(released, 1)

		a := s.GetMapping("g", "a")
		t.Assert(a.DisabledUntil, 0)
		t.Assert(a.ConsecutiveFailures, 3)

		// 保留失败次数, 再失败一次立即重新暂停
		t.AssertNil(svc.HandleApiKeyFailure(ctx, "a", "g"))
		t.Assert(s.GetMapping("g", "a").DisabledUntil > gtime.TimestampMilli(), true)

		events := s.Events()
		t.Assert(len(events), 2)
		t.Assert(events[0].Event, consts.GROUP_EVENT_RELEASED)
		t.Assert(events[1].Event, consts.GROUP_EVENT_SUSPENDED)
	})
}
