package group

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/gogf/gf/v2/container/gmap"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/cache"
	"github.com/iimeta/fastrelay/utility/lb"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/samber/lo"
)

type sGroup struct {
	store      service.IStore
	groupCache *cache.Cache    // [分组ID]*model.ApiKeyGroup
	cursors    *gmap.StrAnyMap // [分组ID]*lb.RoundRobin
}

func New(store service.IStore) service.IGroup {
	return &sGroup{
		store:      store,
		groupCache: cache.New(),
		cursors:    gmap.NewStrAnyMap(true),
	}
}

// 成员健康判定阈值, 随配置热加载
func healthPolicy() *model.HealthPolicy {
	return &model.HealthPolicy{
		FailureThreshold:  config.Cfg.Router.FailureThreshold,
		FailureCeiling:    config.Cfg.Router.FailureCeiling,
		SuspendDuration:   (config.Cfg.Router.SuspendSeconds * time.Second).Milliseconds(),
		MinSuccessRate:    config.Cfg.Router.MinSuccessRate,
		MinSampleRequests: config.Cfg.Router.MinSampleRequests,
	}
}

// 根据分组ID获取分组, 配置了缓存时优先读缓存
func (s *sGroup) GetGroup(ctx context.Context, groupId string) (*model.ApiKeyGroup, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup GetGroup time: %d", gtime.TimestampMilli()-now)
	}()

	ttl := config.Cfg.Router.GroupCacheTTL * time.Second

	if ttl > 0 {
		if value := s.groupCache.GetVal(ctx, groupId); value != nil {
			group := *value.(*model.ApiKeyGroup)
			return &group, nil
		}
	}

	group, err := s.store.GetGroup(ctx, groupId)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	if group != nil && ttl > 0 {
		cached := *group
		if err = s.groupCache.Set(ctx, groupId, &cached, ttl); err != nil {
			logger.Error(ctx, err)
		}
	}

	return group, nil
}

// 获取分组可用成员, 分组不存在或已禁用返回空
func (s *sGroup) GetAvailableMembers(ctx context.Context, groupId string, exclude ...string) ([]*model.ApiKeyGroupMapping, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup GetAvailableMembers time: %d", gtime.TimestampMilli()-now)
	}()

	group, err := s.GetGroup(ctx, groupId)
	if err != nil {
		return nil, err
	}

	if group == nil || !group.IsEnabled {
		return nil, nil
	}

	mappings, err := s.store.FindGroupMappings(ctx, groupId)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	policy := healthPolicy()

	return lo.Filter(mappings, func(mapping *model.ApiKeyGroupMapping, _ int) bool {
		return !slices.Contains(exclude, mapping.ApiKeyId) && mapping.IsAvailable(now, policy)
	}), nil
}

// 按分组负载均衡策略选择成员, 无可用成员返回nil
func (s *sGroup) SelectBestApiKeyFromGroup(ctx context.Context, groupId string, exclude ...string) (*model.ApiKeyGroupMapping, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup SelectBestApiKeyFromGroup time: %d", gtime.TimestampMilli()-now)
	}()

	members, err := s.GetAvailableMembers(ctx, groupId, exclude...)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		logger.Infof(ctx, "sGroup SelectBestApiKeyFromGroup group: %s no available member", groupId)
		return nil, nil
	}

	group, err := s.GetGroup(ctx, groupId)
	if err != nil {
		return nil, err
	}

	if group == nil {
		return nil, nil
	}

	mapping := s.pick(ctx, group, members)

	logger.Debugf(ctx, "sGroup SelectBestApiKeyFromGroup group: %s, strategy: %s, apiKey: %s", groupId, group.LbStrategy, mapping.ApiKeyId)

	return mapping, nil
}

// 策略异常时退化为轮询
func (s *sGroup) pick(ctx context.Context, group *model.ApiKeyGroup, members []*model.ApiKeyGroupMapping) (mapping *model.ApiKeyGroupMapping) {

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "sGroup pick group: %s, strategy: %s, panic: %v", group.Id, group.LbStrategy, r)
			mapping = s.roundRobin(ctx, group, members)
		}
	}()

	var err error

	switch group.LbStrategy {
	case model.GroupWeighted:
		mapping, err = weighted(members)
	case model.GroupLeastConnections:
		mapping, err = leastConnections(members)
	default:
		return s.roundRobin(ctx, group, members)
	}

	if err != nil {
		logger.Errorf(ctx, "sGroup pick group: %s, strategy: %s, error: %v", group.Id, group.LbStrategy, err)
		return s.roundRobin(ctx, group, members)
	}

	return mapping
}

func (s *sGroup) roundRobin(ctx context.Context, group *model.ApiKeyGroup, members []*model.ApiKeyGroupMapping) *model.ApiKeyGroupMapping {

	roundRobin := s.cursors.GetOrSetFuncLock(group.Id, func() any {
		return lb.NewRoundRobin(group.RoundRobinIndex)
	}).(*lb.RoundRobin)

	mapping := members[roundRobin.Index(len(members))]

	if err := s.store.SaveGroupCursor(ctx, group.Id, roundRobin.Cursor()); err != nil {
		logger.Error(ctx, err)
	}

	return mapping
}

func weighted(members []*model.ApiKeyGroupMapping) (*model.ApiKeyGroupMapping, error) {

	index := lb.PickWeight(lo.Map(members, func(mapping *model.ApiKeyGroupMapping, _ int) float64 {
		return mapping.WeightScore()
	}))

	if index < 0 || index >= len(members) {
		return nil, gerror.Newf("weighted pick index %d out of range %d", index, len(members))
	}

	return members[index], nil
}

// 连接数最少, 相同时权重分高者优先
func leastConnections(members []*model.ApiKeyGroupMapping) (*model.ApiKeyGroupMapping, error) {

	if len(members) == 0 {
		return nil, gerror.New("least connections with empty members")
	}

	return slices.MinFunc(members, func(a, b *model.ApiKeyGroupMapping) int {
		if a.CurrentConnections != b.CurrentConnections {
			return cmp.Compare(a.CurrentConnections, b.CurrentConnections)
		}
		return cmp.Compare(b.WeightScore(), a.WeightScore())
	}), nil
}

// 记录成员失败, 连续失败达到阈值时暂停
func (s *sGroup) HandleApiKeyFailure(ctx context.Context, apiKeyId, groupId string) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup HandleApiKeyFailure time: %d", gtime.TimestampMilli()-now)
	}()

	failure, err := s.store.RecordMappingFailure(ctx, groupId, apiKeyId, now, healthPolicy())
	if err != nil {
		logger.Error(ctx, err)
		return err
	}

	if failure == nil || failure.Mapping == nil {
		logger.Warningf(ctx, "sGroup HandleApiKeyFailure group: %s apiKey: %s mapping not found", groupId, apiKeyId)
		return nil
	}

	if err = s.store.IncGroupStatistics(ctx, groupId, &model.GroupStatistics{FailedRequests: 1}); err != nil {
		logger.Error(ctx, err)
	}

	if failure.Suspended {

		logger.Warningf(ctx, "sGroup HandleApiKeyFailure group: %s apiKey: %s suspended until: %d, consecutiveFailures: %d",
			groupId, apiKeyId, failure.Mapping.DisabledUntil, failure.Mapping.ConsecutiveFailures)

		s.event(ctx, failure.Mapping, consts.GROUP_EVENT_SUSPENDED, "consecutive failures reached threshold")
	}

	return nil
}

// 恢复成员, 清除暂停与连续失败
func (s *sGroup) RecoverApiKey(ctx context.Context, apiKeyId, groupId string) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup RecoverApiKey time: %d", gtime.TimestampMilli()-now)
	}()

	if err := s.store.RecoverMapping(ctx, groupId, apiKeyId); err != nil {
		logger.Error(ctx, err)
		return err
	}

	logger.Infof(ctx, "sGroup RecoverApiKey group: %s apiKey: %s", groupId, apiKeyId)

	s.event(ctx, &model.ApiKeyGroupMapping{GroupId: groupId, ApiKeyId: apiKeyId}, consts.GROUP_EVENT_RECOVERED, "manual recover")

	return nil
}

// 排除失败成员重新选择, 不返回错误
func (s *sGroup) PerformFailover(ctx context.Context, groupId string, failedApiKeyIds ...string) *model.ApiKeyGroupMapping {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup PerformFailover time: %d", gtime.TimestampMilli()-now)
	}()

	group, err := s.GetGroup(ctx, groupId)
	if err != nil || group == nil {
		return nil
	}

	if group.FailoverStrategy == model.FailoverNone {
		return nil
	}

	mapping, err := s.SelectBestApiKeyFromGroup(ctx, groupId, failedApiKeyIds...)
	if err != nil {
		logger.Errorf(ctx, "sGroup PerformFailover group: %s error: %v", groupId, err)
		return nil
	}

	return mapping
}

// 记录成员成功
func (s *sGroup) RecordSuccess(ctx context.Context, apiKeyId, groupId string, cost float64, responseTime int64) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup RecordSuccess time: %d", gtime.TimestampMilli()-now)
	}()

	if err := s.store.RecordMappingSuccess(ctx, groupId, apiKeyId, responseTime, now); err != nil {
		logger.Error(ctx, err)
		return err
	}

	if err := s.store.IncGroupStatistics(ctx, groupId, &model.GroupStatistics{
		SuccessRequests:   1,
		TotalResponseTime: responseTime,
		TotalCost:         cost,
		LastUsedAt:        now,
	}); err != nil {
		logger.Error(ctx, err)
		return err
	}

	return nil
}

// 记录分组选中
func (s *sGroup) RecordUsage(ctx context.Context, groupId string) error {

	if err := s.store.IncGroupStatistics(ctx, groupId, &model.GroupStatistics{
		TotalRequests: 1,
		LastUsedAt:    gtime.TimestampMilli(),
	}); err != nil {
		logger.Error(ctx, err)
		return err
	}

	return nil
}

func (s *sGroup) AcquireConnection(ctx context.Context, apiKeyId, groupId string) error {
	return s.connection(ctx, apiKeyId, groupId, 1)
}

func (s *sGroup) ReleaseConnection(ctx context.Context, apiKeyId, groupId string) error {
	return s.connection(ctx, apiKeyId, groupId, -1)
}

func (s *sGroup) connection(ctx context.Context, apiKeyId, groupId string, delta int64) error {

	if err := s.store.IncMappingConnections(ctx, groupId, apiKeyId, delta); err != nil {
		logger.Error(ctx, err)
		return err
	}

	if err := s.store.IncGroupStatistics(ctx, groupId, &model.GroupStatistics{CurrentConnections: delta}); err != nil {
		logger.Error(ctx, err)
		return err
	}

	return nil
}

// 至少一个可用成员即为健康
func (s *sGroup) IsHealthy(ctx context.Context, groupId string) (bool, error) {

	members, err := s.GetAvailableMembers(ctx, groupId)
	if err != nil {
		return false, err
	}

	return len(members) > 0, nil
}

// 释放暂停已到期的成员, 连续失败次数保留
func (s *sGroup) ReleaseSuspensions(ctx context.Context) (int, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sGroup ReleaseSuspensions time: %d", gtime.TimestampMilli()-now)
	}()

	released, err := s.store.ReleaseSuspensions(ctx, now, healthPolicy())
	if err != nil {
		logger.Error(ctx, err)
		return 0, err
	}

	for _, mapping := range released {
		s.event(ctx, mapping, consts.GROUP_EVENT_RELEASED, "suspension elapsed")
	}

	if len(released) > 0 {
		logger.Infof(ctx, "sGroup ReleaseSuspensions released: %d", len(released))
	}

	return len(released), nil
}

// 移除分组缓存与轮询游标
func (s *sGroup) RemoveCache(ctx context.Context, groupId string) {

	if err := s.groupCache.Remove(ctx, groupId); err != nil {
		logger.Error(ctx, err)
	}

	s.cursors.Remove(groupId)
}

func (s *sGroup) event(ctx context.Context, mapping *model.ApiKeyGroupMapping, event, reason string) {
	if err := s.store.InsertGroupEvent(ctx, &model.ApiKeyGroupEvent{
		GroupId:             mapping.GroupId,
		ApiKeyId:            mapping.ApiKeyId,
		Event:               event,
		Reason:              reason,
		ConsecutiveFailures: mapping.ConsecutiveFailures,
		DisabledUntil:       mapping.DisabledUntil,
		CreatedAt:           gtime.TimestampMilli(),
	}); err != nil {
		logger.Error(ctx, err)
	}
}
