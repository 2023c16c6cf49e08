package store

import (
	"context"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/dao"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Mongo MongoDB存储, 每次变更均为单文档原子更新
type Mongo struct {
	account    *dao.AccountDao
	apiKey     *dao.ApiKeyDao
	group      *dao.ApiKeyGroupDao
	mapping    *dao.ApiKeyGroupMappingDao
	event      *dao.ApiKeyGroupEventDao
	permission *dao.ApiKeyAccountPoolPermissionDao
}

// NewMongo 需在db.Init之后调用
func NewMongo(database ...string) *Mongo {
	return &Mongo{
		account:    dao.NewAccountDao(database...),
		apiKey:     dao.NewApiKeyDao(database...),
		group:      dao.NewApiKeyGroupDao(database...),
		mapping:    dao.NewApiKeyGroupMappingDao(database...),
		event:      dao.NewApiKeyGroupEventDao(database...),
		permission: dao.NewApiKeyAccountPoolPermissionDao(database...),
	}
}

func mappingFilter(groupId, apiKeyId string) bson.M {
	return bson.M{"group_id": groupId, "api_key_id": apiKeyId}
}

// 字段缺失按0参与计算
func field(name string) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + name, 0}}
}

func add(name string, delta any) bson.M {
	return bson.M{"$add": bson.A{field(name), delta}}
}

// 分组统计累加, 连接数不低于0
func statisticsPipeline(delta *model.GroupStatistics) []bson.M {
	return []bson.M{{
		"$set": bson.M{
			"statistics.total_requests":      add("statistics.total_requests", delta.TotalRequests),
			"statistics.success_requests":    add("statistics.success_requests", delta.SuccessRequests),
			"statistics.failed_requests":     add("statistics.failed_requests", delta.FailedRequests),
			"statistics.total_response_time": add("statistics.total_response_time", delta.TotalResponseTime),
			"statistics.total_cost":          add("statistics.total_cost", delta.TotalCost),
			"statistics.current_connections": bson.M{"$max": bson.A{0, add("statistics.current_connections", delta.CurrentConnections)}},
			"statistics.last_used_at":        bson.M{"$max": bson.A{field("statistics.last_used_at"), delta.LastUsedAt}},
		},
	}}
}

// 失败计数并按阈值暂停, 返回本次暂停的截止时间
func failurePipeline(now int64, policy *model.HealthPolicy) ([]bson.M, int64) {

	suspendUntil := now + policy.SuspendDuration
	reached := bson.M{"$gte": bson.A{"$consecutive_failures", policy.FailureThreshold}}

	// 计数与暂停判断在同一次更新中完成, 暂停期间的失败不改变截止时间
	return []bson.M{{
		"$set": bson.M{
			"consecutive_failures": add("consecutive_failures", 1),
			"failed_requests":      add("failed_requests", 1),
			"total_requests":       add("total_requests", 1),
			"updated_at":           now,
		},
	}, {
		"$set": bson.M{
			"disabled_until": bson.M{"$cond": bson.M{
				"if":   bson.M{"$and": bson.A{reached, bson.M{"$lt": bson.A{field("disabled_until"), now}}}},
				"then": suspendUntil,
				"else": field("disabled_until"),
			}},
			"health_status": bson.M{"$cond": bson.M{
				"if":   reached,
				"then": consts.HEALTH_STATUS_UNHEALTHY,
				"else": bson.M{"$ifNull": bson.A{"$health_status", consts.HEALTH_STATUS_UNKNOWN}},
			}},
		},
	}}, suspendUntil
}

func connectionsPipeline(delta int64) []bson.M {
	return []bson.M{{
		"$set": bson.M{
			"current_connections": bson.M{"$max": bson.A{0, add("current_connections", delta)}},
		},
	}}
}

func (s *Mongo) GetAccount(ctx context.Context, id string) (*model.Account, error) {

	result, err := s.account.FindById(ctx, id)
	if err != nil {
		return nil, gerror.Wrapf(err, "find account %s", id)
	}

	return toAccount(result), nil
}

func (s *Mongo) FindAccounts(ctx context.Context, query *model.AccountQuery) ([]*model.Account, error) {

	filter := bson.M{}

	if len(query.Ids) > 0 {
		filter["_id"] = bson.M{"$in": query.Ids}
	}

	if len(query.Platforms) > 0 {
		filter["platform"] = bson.M{"$in": query.Platforms}
	}

	if query.PoolGroup != "" {
		filter["pool_group"] = query.PoolGroup
	}

	if query.OnlyEnabled {
		filter["is_enabled"] = true
	}

	results, err := s.account.Find(ctx, filter, "priority", "-weight")
	if err != nil {
		return nil, gerror.Wrap(err, "find accounts")
	}

	return lo.Map(results, func(result *entity.Account, _ int) *model.Account {
		return toAccount(result)
	}), nil
}

func (s *Mongo) TouchAccount(ctx context.Context, id string, now int64) error {

	if err := s.account.UpdateById(ctx, id, bson.M{
		"$inc": bson.M{"usage_count": 1},
		"$set": bson.M{"last_used_at": now},
	}); err != nil {
		return gerror.Wrapf(err, "touch account %s", id)
	}

	return nil
}

func (s *Mongo) SetAccountRateLimited(ctx context.Context, id string, until int64) error {

	if err := s.account.UpdateById(ctx, id, bson.M{
		"rate_limited_until": until,
	}); err != nil {
		return gerror.Wrapf(err, "rate limit account %s", id)
	}

	return nil
}

func (s *Mongo) ReleaseRateLimits(ctx context.Context, now int64) (int64, error) {

	expired := bson.M{"$gt": 0, "$lt": now}

	// 历史数据中限流状态的账号一并恢复为正常
	restored, err := s.account.UpdateMany(ctx, bson.M{
		"status":             consts.ACCOUNT_STATUS_RATE_LIMITED,
		"rate_limited_until": expired,
	}, bson.M{
		"status":             consts.ACCOUNT_STATUS_ACTIVE,
		"rate_limited_until": 0,
	})
	if err != nil {
		return 0, gerror.Wrap(err, "release rate limits")
	}

	cleared, err := s.account.UpdateMany(ctx, bson.M{
		"rate_limited_until": expired,
	}, bson.M{
		"rate_limited_until": 0,
	})
	if err != nil {
		return restored, gerror.Wrap(err, "clear rate limits")
	}

	return restored + cleared, nil
}

func (s *Mongo) SaveAccountToken(ctx context.Context, id string, token *model.OAuthToken) error {

	set := bson.M{
		"oauth.access_token": token.AccessToken,
		"oauth.expires_at":   token.ExpiresAt,
	}

	if token.RefreshToken != "" {
		set["oauth.refresh_token"] = token.RefreshToken
	}

	if len(token.Scopes) > 0 {
		set["oauth.scopes"] = token.Scopes
	}

	if err := s.account.UpdateById(ctx, id, set); err != nil {
		return gerror.Wrapf(err, "save account %s token", id)
	}

	return nil
}

func (s *Mongo) GetApiKey(ctx context.Context, id string) (*model.ApiKey, error) {

	result, err := s.apiKey.FindById(ctx, id)
	if err != nil {
		return nil, gerror.Wrapf(err, "find api key %s", id)
	}

	return toApiKey(result), nil
}

func (s *Mongo) GetGroup(ctx context.Context, id string) (*model.ApiKeyGroup, error) {

	result, err := s.group.FindById(ctx, id)
	if err != nil {
		return nil, gerror.Wrapf(err, "find group %s", id)
	}

	return toGroup(result), nil
}

func (s *Mongo) SaveGroupCursor(ctx context.Context, id string, cursor int64) error {

	if err := s.group.UpdateById(ctx, id, bson.M{"round_robin_index": cursor}); err != nil {
		return gerror.Wrapf(err, "save group %s cursor", id)
	}

	return nil
}

func (s *Mongo) IncGroupStatistics(ctx context.Context, id string, delta *model.GroupStatistics) error {

	if _, err := s.group.FindOneAndUpdate(ctx, bson.M{"_id": id}, statisticsPipeline(delta)); err != nil {
		return gerror.Wrapf(err, "inc group %s statistics", id)
	}

	return nil
}

func (s *Mongo) FindGroupMappings(ctx context.Context, groupId string) ([]*model.ApiKeyGroupMapping, error) {

	results, err := s.mapping.Find(ctx, bson.M{"group_id": groupId}, "order", "priority")
	if err != nil {
		return nil, gerror.Wrapf(err, "find group %s mappings", groupId)
	}

	if len(results) == 0 {
		return nil, nil
	}

	apiKeys, err := s.apiKey.FindByIds(ctx, lo.Uniq(lo.Map(results, func(result *entity.ApiKeyGroupMapping, _ int) string {
		return result.ApiKeyId
	})))
	if err != nil {
		return nil, gerror.Wrapf(err, "find group %s api keys", groupId)
	}

	apiKeyMap := lo.SliceToMap(apiKeys, func(apiKey *entity.ApiKey) (string, *entity.ApiKey) {
		return apiKey.Id, apiKey
	})

	items := make([]*model.ApiKeyGroupMapping, 0, len(results))
	for _, result := range results {
		mapping := toMapping(result)
		// 成员密钥不存在时保持为nil, 视为不可用
		mapping.ApiKey = toApiKey(apiKeyMap[result.ApiKeyId])
		items = append(items, mapping)
	}

	return items, nil
}

func (s *Mongo) RecordMappingFailure(ctx context.Context, groupId, apiKeyId string, now int64, policy *model.HealthPolicy) (*model.MappingFailure, error) {

	pipeline, suspendUntil := failurePipeline(now, policy)

	result, err := s.mapping.FindOneAndUpdate(ctx, mappingFilter(groupId, apiKeyId), pipeline)
	if err != nil {
		return nil, gerror.Wrapf(err, "record group %s api key %s failure", groupId, apiKeyId)
	}

	if result == nil {
		return nil, nil
	}

	mapping := toMapping(result)

	return &model.MappingFailure{
		Mapping:   mapping,
		Suspended: mapping.ConsecutiveFailures >= policy.FailureThreshold && mapping.DisabledUntil == suspendUntil,
	}, nil
}

func (s *Mongo) RecordMappingSuccess(ctx context.Context, groupId, apiKeyId string, responseTime, now int64) error {

	if err := s.mapping.UpdateOne(ctx, mappingFilter(groupId, apiKeyId), bson.M{
		"$set": bson.M{
			"consecutive_failures": 0,
			"health_status":        consts.HEALTH_STATUS_HEALTHY,
			"last_used_at":         now,
		},
		"$inc": bson.M{
			"success_requests":    1,
			"total_requests":      1,
			"total_response_time": responseTime,
		},
	}); err != nil {
		return gerror.Wrapf(err, "record group %s api key %s success", groupId, apiKeyId)
	}

	return nil
}

func (s *Mongo) RecoverMapping(ctx context.Context, groupId, apiKeyId string) error {

	if err := s.mapping.UpdateOne(ctx, mappingFilter(groupId, apiKeyId), bson.M{
		"consecutive_failures": 0,
		"disabled_until":       0,
		"health_status":        consts.HEALTH_STATUS_HEALTHY,
	}); err != nil {
		return gerror.Wrapf(err, "recover group %s api key %s", groupId, apiKeyId)
	}

	return nil
}

func (s *Mongo) IncMappingConnections(ctx context.Context, groupId, apiKeyId string, delta int64) error {

	if _, err := s.mapping.FindOneAndUpdate(ctx, mappingFilter(groupId, apiKeyId), connectionsPipeline(delta)); err != nil {
		return gerror.Wrapf(err, "inc group %s api key %s connections", groupId, apiKeyId)
	}

	return nil
}

func (s *Mongo) ReleaseSuspensions(ctx context.Context, now int64, policy *model.HealthPolicy) ([]*model.ApiKeyGroupMapping, error) {

	filter := bson.M{
		"disabled_until":       bson.M{"$gt": 0, "$lt": now},
		"consecutive_failures": bson.M{"$lt": policy.FailureCeiling},
	}

	results, err := s.mapping.Find(ctx, filter)
	if err != nil {
		return nil, gerror.Wrap(err, "find suspended mappings")
	}

	if len(results) == 0 {
		return nil, nil
	}

	filter["_id"] = bson.M{"$in": lo.Map(results, func(result *entity.ApiKeyGroupMapping, _ int) string {
		return result.Id
	})}

	if _, err = s.mapping.UpdateMany(ctx, filter, bson.M{
		"disabled_until": 0,
		"health_status":  consts.HEALTH_STATUS_UNKNOWN,
	}); err != nil {
		return nil, gerror.Wrap(err, "release suspended mappings")
	}

	return lo.Map(results, func(result *entity.ApiKeyGroupMapping, _ int) *model.ApiKeyGroupMapping {
		return toMapping(result)
	}), nil
}

func (s *Mongo) FindPermissions(ctx context.Context, apiKeyId string) ([]*model.ApiKeyAccountPoolPermission, error) {

	results, err := s.permission.Find(ctx, bson.M{"api_key_id": apiKeyId}, "priority", "pool_group")
	if err != nil {
		return nil, gerror.Wrapf(err, "find api key %s permissions", apiKeyId)
	}

	return lo.Map(results, func(result *entity.ApiKeyAccountPoolPermission, _ int) *model.ApiKeyAccountPoolPermission {
		return toPermission(result)
	}), nil
}

func (s *Mongo) InsertGroupEvent(ctx context.Context, event *model.ApiKeyGroupEvent) error {

	if _, err := s.event.Insert(ctx, &entity.ApiKeyGroupEvent{
		Id:                  event.Id,
		GroupId:             event.GroupId,
		ApiKeyId:            event.ApiKeyId,
		Event:               event.Event,
		Reason:              event.Reason,
		ConsecutiveFailures: event.ConsecutiveFailures,
		DisabledUntil:       event.DisabledUntil,
		CreatedAt:           event.CreatedAt,
	}); err != nil {
		return gerror.Wrapf(err, "insert group %s event", event.GroupId)
	}

	return nil
}
