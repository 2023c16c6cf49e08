package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/utility/util"
)

// Memory 进程内存储, 单节点部署与测试使用, 读写均为副本
type Memory struct {
	mu          sync.RWMutex
	accounts    map[string]*model.Account
	apiKeys     map[string]*model.ApiKey
	groups      map[string]*model.ApiKeyGroup
	mappings    map[string]*model.ApiKeyGroupMapping // [分组ID/密钥ID]
	permissions map[string]*model.ApiKeyAccountPoolPermission
	events      []*model.ApiKeyGroupEvent
}

func NewMemory() *Memory {
	return &Memory{
		accounts:    make(map[string]*model.Account),
		apiKeys:     make(map[string]*model.ApiKey),
		groups:      make(map[string]*model.ApiKeyGroup),
		mappings:    make(map[string]*model.ApiKeyGroupMapping),
		permissions: make(map[string]*model.ApiKeyAccountPoolPermission),
	}
}

func mappingKey(groupId, apiKeyId string) string {
	return groupId + "/" + apiKeyId
}

func (s *Memory) PutAccount(account *model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Id] = account.Clone()
}

func (s *Memory) PutApiKey(apiKey *model.ApiKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKeys[apiKey.Id] = apiKey.Clone()
}

func (s *Memory) PutGroup(group *model.ApiKeyGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := *group
	s.groups[group.Id] = &g
}

// PutMapping 成员的ApiKey字段忽略, 读取时按ApiKeyId关联
func (s *Memory) PutMapping(mapping *model.ApiKeyGroupMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := mapping.Clone()
	m.ApiKey = nil
	if m.Id == "" {
		m.Id = util.GenerateId()
	}
	s.mappings[mappingKey(m.GroupId, m.ApiKeyId)] = m
}

func (s *Memory) PutPermission(permission *model.ApiKeyAccountPoolPermission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := permission.Clone()
	if p.Id == "" {
		p.Id = util.GenerateId()
	}
	s.permissions[p.Id] = p
}

func (s *Memory) DeleteAccount(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
}

// GetMapping 成员当前状态
func (s *Memory) GetMapping(groupId, apiKeyId string) *model.ApiKeyGroupMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mappings[mappingKey(groupId, apiKeyId)].Clone()
}

func (s *Memory) Events() []*model.ApiKeyGroupEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]*model.ApiKeyGroupEvent, 0, len(s.events))
	for _, e := range s.events {
		event := *e
		events = append(events, &event)
	}
	return events
}

func (s *Memory) GetAccount(ctx context.Context, id string) (*model.Account, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts[id].Clone(), nil
}

func (s *Memory) FindAccounts(ctx context.Context, query *model.AccountQuery) ([]*model.Account, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*model.Account, 0)
	for _, account := range s.accounts {

		if len(query.Ids) > 0 && !slices.Contains(query.Ids, account.Id) {
			continue
		}

		if len(query.Platforms) > 0 && !slices.Contains(query.Platforms, account.Platform) {
			continue
		}

		if query.PoolGroup != "" && account.PoolGroup != query.PoolGroup {
			continue
		}

		if query.OnlyEnabled && !account.IsEnabled {
			continue
		}

		items = append(items, account.Clone())
	}

	slices.SortFunc(items, func(a, b *model.Account) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(b.Weight, a.Weight),
			cmp.Compare(a.Id, b.Id),
		)
	})

	return items, nil
}

func (s *Memory) TouchAccount(ctx context.Context, id string, now int64) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if account := s.accounts[id]; account != nil {
		account.UsageCount++
		account.LastUsedAt = now
	}

	return nil
}

func (s *Memory) SetAccountRateLimited(ctx context.Context, id string, until int64) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if account := s.accounts[id]; account != nil {
		account.RateLimitedUntil = until
	}

	return nil
}

func (s *Memory) ReleaseRateLimits(ctx context.Context, now int64) (int64, error) {

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var released int64
	for _, account := range s.accounts {
		if account.RateLimitedUntil > 0 && account.RateLimitedUntil < now {
			if account.Status == consts.ACCOUNT_STATUS_RATE_LIMITED {
				account.Status = consts.ACCOUNT_STATUS_ACTIVE
			}
			account.RateLimitedUntil = 0
			released++
		}
	}

	return released, nil
}

func (s *Memory) SaveAccountToken(ctx context.Context, id string, token *model.OAuthToken) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.accounts[id]
	if account == nil {
		return nil
	}

	if account.OAuth == nil {
		account.OAuth = &model.OAuthToken{}
	}

	account.OAuth.AccessToken = token.AccessToken
	account.OAuth.ExpiresAt = token.ExpiresAt

	if token.RefreshToken != "" {
		account.OAuth.RefreshToken = token.RefreshToken
	}

	if len(token.Scopes) > 0 {
		account.OAuth.Scopes = slices.Clone(token.Scopes)
	}

	return nil
}

func (s *Memory) GetApiKey(ctx context.Context, id string) (*model.ApiKey, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.apiKeys[id].Clone(), nil
}

func (s *Memory) GetGroup(ctx context.Context, id string) (*model.ApiKeyGroup, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	group := s.groups[id]
	if group == nil {
		return nil, nil
	}

	g := *group

	return &g, nil
}

func (s *Memory) SaveGroupCursor(ctx context.Context, id string, cursor int64) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if group := s.groups[id]; group != nil {
		group.RoundRobinIndex = cursor
	}

	return nil
}

func (s *Memory) IncGroupStatistics(ctx context.Context, id string, delta *model.GroupStatistics) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group := s.groups[id]
	if group == nil {
		return nil
	}

	statistics := &group.Statistics
	statistics.TotalRequests += delta.TotalRequests
	statistics.SuccessRequests += delta.SuccessRequests
	statistics.FailedRequests += delta.FailedRequests
	statistics.TotalResponseTime += delta.TotalResponseTime
	statistics.TotalCost += delta.TotalCost
	statistics.CurrentConnections = max(statistics.CurrentConnections+delta.CurrentConnections, 0)
	statistics.LastUsedAt = max(statistics.LastUsedAt, delta.LastUsedAt)

	return nil
}

func (s *Memory) FindGroupMappings(ctx context.Context, groupId string) ([]*model.ApiKeyGroupMapping, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*model.ApiKeyGroupMapping, 0)
	for _, mapping := range s.mappings {
		if mapping.GroupId == groupId {
			m := mapping.Clone()
			m.ApiKey = s.apiKeys[m.ApiKeyId].Clone()
			items = append(items, m)
		}
	}

	slices.SortFunc(items, func(a, b *model.ApiKeyGroupMapping) int {
		return cmp.Or(
			cmp.Compare(a.Order, b.Order),
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.ApiKeyId, b.ApiKeyId),
		)
	})

	return items, nil
}

func (s *Memory) RecordMappingFailure(ctx context.Context, groupId, apiKeyId string, now int64, policy *model.HealthPolicy) (*model.MappingFailure, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mapping := s.mappings[mappingKey(groupId, apiKeyId)]
	if mapping == nil {
		return nil, nil
	}

	mapping.ConsecutiveFailures++
	mapping.FailedRequests++
	mapping.TotalRequests++

	suspended := false
	if mapping.ConsecutiveFailures >= policy.FailureThreshold {

		mapping.HealthStatus = consts.HEALTH_STATUS_UNHEALTHY

		// 暂停期间的失败不改变截止时间
		if !mapping.IsSuspended(now) {
			mapping.DisabledUntil = now + policy.SuspendDuration
			suspended = true
		}
	}

	return &model.MappingFailure{
		Mapping:   mapping.Clone(),
		Suspended: suspended,
	}, nil
}

func (s *Memory) RecordMappingSuccess(ctx context.Context, groupId, apiKeyId string, responseTime, now int64) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mapping := s.mappings[mappingKey(groupId, apiKeyId)]; mapping != nil {
		mapping.ConsecutiveFailures = 0
		mapping.HealthStatus = consts.HEALTH_STATUS_HEALTHY
		mapping.SuccessRequests++
		mapping.TotalRequests++
		mapping.TotalResponseTime += responseTime
		mapping.LastUsedAt = now
	}

	return nil
}

func (s *Memory) RecoverMapping(ctx context.Context, groupId, apiKeyId string) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mapping := s.mappings[mappingKey(groupId, apiKeyId)]; mapping != nil {
		mapping.ConsecutiveFailures = 0
		mapping.DisabledUntil = 0
		mapping.HealthStatus = consts.HEALTH_STATUS_HEALTHY
	}

	return nil
}

func (s *Memory) IncMappingConnections(ctx context.Context, groupId, apiKeyId string, delta int64) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mapping := s.mappings[mappingKey(groupId, apiKeyId)]; mapping != nil {
		mapping.CurrentConnections = max(mapping.CurrentConnections+delta, 0)
	}

	return nil
}

func (s *Memory) ReleaseSuspensions(ctx context.Context, now int64, policy *model.HealthPolicy) ([]*model.ApiKeyGroupMapping, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	released := make([]*model.ApiKeyGroupMapping, 0)
	for _, mapping := range s.mappings {
		if mapping.DisabledUntil > 0 && mapping.DisabledUntil < now && mapping.ConsecutiveFailures < policy.FailureCeiling {
			released = append(released, mapping.Clone())
			mapping.DisabledUntil = 0
			mapping.HealthStatus = consts.HEALTH_STATUS_UNKNOWN
		}
	}

	return released, nil
}

func (s *Memory) FindPermissions(ctx context.Context, apiKeyId string) ([]*model.ApiKeyAccountPoolPermission, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*model.ApiKeyAccountPoolPermission, 0)
	for _, permission := range s.permissions {
		if permission.ApiKeyId == apiKeyId {
			items = append(items, permission.Clone())
		}
	}

	slices.SortFunc(items, func(a, b *model.ApiKeyAccountPoolPermission) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(a.PoolGroup, b.PoolGroup),
			cmp.Compare(a.Id, b.Id),
		)
	})

	return items, nil
}

func (s *Memory) InsertGroupEvent(ctx context.Context, event *model.ApiKeyGroupEvent) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := *event
	if e.Id == "" {
		e.Id = util.GenerateId()
	}

	s.events = append(s.events, &e)

	return nil
}
