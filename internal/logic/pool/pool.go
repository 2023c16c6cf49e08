package pool

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gogf/gf/v2/container/gmap"
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

type sPool struct {
	store           service.IStore
	account         service.IAccount
	sessionCache    *cache.Cache    // [密钥ID:平台:会话哈希]账号ID
	permissionCache *cache.Cache    // [密钥ID][]*model.ApiKeyAccountPoolPermission
	cursors         *gmap.StrAnyMap // [密钥ID]*lb.RoundRobin
}

func New(store service.IStore, account service.IAccount) service.IPool {
	return &sPool{
		store:           store,
		account:         account,
		sessionCache:    cache.New(config.Cfg.Router.PoolSessionCap),
		permissionCache: cache.New(),
		cursors:         gmap.NewStrAnyMap(true),
	}
}

func sessionKey(apiKeyId, platform, sessionHash string) string {
	return fmt.Sprintf("%s:%s:%s", apiKeyId, platform, sessionHash)
}

// 按账号池权限选择账号
func (s *sPool) SelectBestAccount(ctx context.Context, apiKeyId, platform, sessionHash string, requestedModel ...string) (*model.Selection, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sPool SelectBestAccount time: %d", gtime.TimestampMilli()-now)
	}()

	var m string
	if len(requestedModel) > 0 {
		m = requestedModel[0]
	}

	permissions, err := s.GetEffectivePermissions(ctx, apiKeyId, platform)
	if err != nil {
		return nil, err
	}

	if sessionHash != "" {

		account, err := s.sessionAccount(ctx, apiKeyId, platform, sessionHash, m, permissions)
		if err != nil {
			return nil, err
		}

		if account != nil {
			return model.NewSelection(account, consts.SELECTION_SOURCE_POOL), nil
		}
	}

	if len(permissions) == 0 {
		return model.NoSelection(fmt.Sprintf("no effective pool permission for platform %s", platform)), nil
	}

	allowed, err := s.allowedAccounts(ctx, permissions, platform)
	if err != nil {
		return nil, err
	}

	now = gtime.TimestampMilli()

	available := lo.Filter(allowed, func(account *model.Account, _ int) bool {
		return account.IsAvailable(now)
	})

	if len(available) == 0 {
		logger.Infof(ctx, "sPool SelectBestAccount apiKey: %s, platform: %s, allowed: %d, no available account", apiKeyId, platform, len(allowed))
		return model.NoSelection(fmt.Sprintf("no available account in pool for platform %s", platform)), nil
	}

	candidates := lo.Filter(available, func(account *model.Account, _ int) bool {
		return account.SupportsModel(m)
	})

	if len(candidates) == 0 {
		selection := model.NoSelection(fmt.Sprintf("no available account in pool supports model %s", m))
		selection.ModelFiltered = true
		return selection, nil
	}

	strategy := permissions[0].SelectionStrategy
	account := s.pick(apiKeyId, sessionHash, strategy, candidates)

	if sessionHash != "" {
		if err = s.sessionCache.Set(ctx, sessionKey(apiKeyId, platform, sessionHash), account.Id, config.Cfg.Router.PoolSessionTTL*time.Second); err != nil {
			logger.Error(ctx, err)
		}
	}

	logger.Infof(ctx, "sPool SelectBestAccount apiKey: %s, platform: %s, strategy: %s, account: %s", apiKeyId, platform, strategy, account.Id)

	return model.NewSelection(account, consts.SELECTION_SOURCE_POOL), nil
}

// 会话映射的账号仍可用且仍在权限内时复用, 否则移除映射
func (s *sPool) sessionAccount(ctx context.Context, apiKeyId, platform, sessionHash, requestedModel string, permissions []*model.ApiKeyAccountPoolPermission) (*model.Account, error) {

	key := sessionKey(apiKeyId, platform, sessionHash)

	value := s.sessionCache.GetVal(ctx, key)
	if value == nil {
		return nil, nil
	}

	account, err := s.account.GetAvailable(ctx, value.(string))
	if err != nil {
		return nil, err
	}

	now := gtime.TimestampMilli()

	if account != nil && account.SupportsModel(requestedModel) && lo.SomeBy(permissions, func(permission *model.ApiKeyAccountPoolPermission) bool {
		return permission.Covers(account, platform, now)
	}) {
		return account, nil
	}

	if err = s.sessionCache.Remove(ctx, key); err != nil {
		logger.Error(ctx, err)
	}

	return nil, nil
}

// 权限范围内的账号, 每个账号池只查询一次, 按优先级与权重排序
func (s *sPool) allowedAccounts(ctx context.Context, permissions []*model.ApiKeyAccountPoolPermission, platform string) ([]*model.Account, error) {

	byPool := lo.GroupBy(permissions, func(permission *model.ApiKeyAccountPoolPermission) string {
		return permission.PoolGroup
	})

	allowed := make([]*model.Account, 0)

	for _, poolGroup := range lo.Uniq(lo.Map(permissions, func(permission *model.ApiKeyAccountPoolPermission, _ int) string {
		return permission.PoolGroup
	})) {

		accounts, err := s.store.FindAccounts(ctx, &model.AccountQuery{
			Platforms:   []string{platform},
			PoolGroup:   poolGroup,
			OnlyEnabled: true,
		})
		if err != nil {
			logger.Error(ctx, err)
			return nil, err
		}

		allowed = append(allowed, lo.Filter(accounts, func(account *model.Account, _ int) bool {
			return lo.SomeBy(byPool[poolGroup], func(permission *model.ApiKeyAccountPoolPermission) bool {
				return permission.AllowsAccount(account.Id)
			})
		})...)
	}

	allowed = lo.UniqBy(allowed, func(account *model.Account) string {
		return account.Id
	})

	slices.SortStableFunc(allowed, func(a, b *model.Account) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(b.Weight, a.Weight),
		)
	})

	return allowed, nil
}

func (s *sPool) pick(apiKeyId, sessionHash string, strategy model.PoolStrategy, accounts []*model.Account) *model.Account {

	switch strategy {
	case model.PoolRoundRobin:
		roundRobin := s.cursors.GetOrSetFuncLock(apiKeyId, func() any {
			return lb.NewRoundRobin()
		}).(*lb.RoundRobin)
		return accounts[roundRobin.Index(len(accounts))]
	case model.PoolRandom:
		return accounts[lb.PickRandom(len(accounts))]
	case model.PoolPerformance:
		return slices.MinFunc(accounts, func(a, b *model.Account) int {
			return cmp.Or(
				cmp.Compare(b.Weight, a.Weight),
				cmp.Compare(a.UsageCount, b.UsageCount),
				cmp.Compare(a.Priority, b.Priority),
			)
		})
	case model.PoolLeastUsed:
		return slices.MinFunc(accounts, func(a, b *model.Account) int {
			return cmp.Or(
				cmp.Compare(a.UsageCount, b.UsageCount),
				cmp.Compare(a.Priority, b.Priority),
				cmp.Compare(b.Weight, a.Weight),
			)
		})
	case model.PoolWeighted:
		return accounts[lb.PickWeight(lo.Map(accounts, func(account *model.Account, _ int) float64 {
			return float64(max(account.Weight, 1))
		}))]
	case model.PoolConsistentHash:
		if sessionHash != "" {
			return accounts[xxhash.Sum64String(sessionHash)%uint64(len(accounts))]
		}
	}

	return slices.MinFunc(accounts, func(a, b *model.Account) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(b.Weight, a.Weight),
			cmp.Compare(a.UsageCount, b.UsageCount),
		)
	})
}

// 获取密钥当前生效的账号池权限, 指定平台时按平台过滤, 按优先级与账号池排序
func (s *sPool) GetEffectivePermissions(ctx context.Context, apiKeyId string, platform ...string) ([]*model.ApiKeyAccountPoolPermission, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sPool GetEffectivePermissions time: %d", gtime.TimestampMilli()-now)
	}()

	permissions, err := s.permissions(ctx, apiKeyId)
	if err != nil {
		return nil, err
	}

	effective := lo.Filter(permissions, func(permission *model.ApiKeyAccountPoolPermission, _ int) bool {
		return permission.IsEffective(now) && (len(platform) == 0 || permission.AllowsPlatform(platform[0]))
	})

	slices.SortStableFunc(effective, func(a, b *model.ApiKeyAccountPoolPermission) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			strings.Compare(a.PoolGroup, b.PoolGroup),
		)
	})

	return effective, nil
}

func (s *sPool) permissions(ctx context.Context, apiKeyId string) ([]*model.ApiKeyAccountPoolPermission, error) {

	ttl := config.Cfg.Router.PermissionCacheTTL * time.Second

	if ttl > 0 {
		if value := s.permissionCache.GetVal(ctx, apiKeyId); value != nil {
			return lo.Map(value.([]*model.ApiKeyAccountPoolPermission), func(permission *model.ApiKeyAccountPoolPermission, _ int) *model.ApiKeyAccountPoolPermission {
				return permission.Clone()
			}), nil
		}
	}

	permissions, err := s.store.FindPermissions(ctx, apiKeyId)
	if err != nil {
		logger.Error(ctx, err)
		return nil, err
	}

	if ttl > 0 {
		cached := lo.Map(permissions, func(permission *model.ApiKeyAccountPoolPermission, _ int) *model.ApiKeyAccountPoolPermission {
			return permission.Clone()
		})
		if err = s.permissionCache.Set(ctx, apiKeyId, cached, ttl); err != nil {
			logger.Error(ctx, err)
		}
	}

	return permissions, nil
}

// 密钥存在生效的账号池权限
func (s *sPool) HasEffectivePermission(ctx context.Context, apiKeyId string, platform ...string) (bool, error) {

	permissions, err := s.GetEffectivePermissions(ctx, apiKeyId, platform...)
	if err != nil {
		return false, err
	}

	return len(permissions) > 0, nil
}

// 校验密钥的账号池权限配置
func (s *sPool) ValidatePermissions(ctx context.Context, apiKeyId string) ([]*model.PermissionIssue, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sPool ValidatePermissions time: %d", gtime.TimestampMilli()-now)
	}()

	permissions, err := s.permissions(ctx, apiKeyId)
	if err != nil {
		return nil, err
	}

	issues := make([]*model.PermissionIssue, 0)

	for _, permission := range permissions {

		if !permission.IsEnabled {
			continue
		}

		accounts, err := s.store.FindAccounts(ctx, &model.AccountQuery{PoolGroup: permission.PoolGroup})
		if err != nil {
			logger.Error(ctx, err)
			return nil, err
		}

		ids := lo.Map(accounts, func(account *model.Account, _ int) string {
			return account.Id
		})

		if len(accounts) == 0 {
			issues = append(issues, &model.PermissionIssue{
				PermissionId: permission.Id,
				PoolGroup:    permission.PoolGroup,
				Problem:      consts.PERMISSION_ISSUE_EMPTY_POOL,
			})
			continue
		}

		if outside, _ := lo.Difference(permission.AllowedAccountIds, ids); len(outside) > 0 {
			issues = append(issues, &model.PermissionIssue{
				PermissionId: permission.Id,
				PoolGroup:    permission.PoolGroup,
				Problem:      consts.PERMISSION_ISSUE_ACCOUNT_OUTSIDE_POOL,
				AccountIds:   outside,
			})
		}

		if !lo.SomeBy(accounts, func(account *model.Account) bool {
			return account.IsAvailable(now) && permission.AllowsAccount(account.Id)
		}) {
			issues = append(issues, &model.PermissionIssue{
				PermissionId: permission.Id,
				PoolGroup:    permission.PoolGroup,
				Problem:      consts.PERMISSION_ISSUE_ALL_UNAVAILABLE,
				AccountIds:   ids,
			})
		}
	}

	if len(issues) > 0 {
		logger.Warningf(ctx, "sPool ValidatePermissions apiKey: %s issues: %d", apiKeyId, len(issues))
	}

	return issues, nil
}

// 移除密钥的权限缓存, 轮询游标与会话映射
func (s *sPool) RemoveCache(ctx context.Context, apiKeyId string) {

	if err := s.permissionCache.Remove(ctx, apiKeyId); err != nil {
		logger.Error(ctx, err)
	}

	s.cursors.Remove(apiKeyId)

	s.removeSessions(ctx, func(key, _ string) bool {
		return strings.HasPrefix(key, apiKeyId+":")
	})
}

// 移除指向账号的会话映射
func (s *sPool) EvictAccount(ctx context.Context, accountId string) int {

	removed := s.removeSessions(ctx, func(_, value string) bool {
		return value == accountId
	})

	if removed > 0 {
		logger.Infof(ctx, "sPool EvictAccount account: %s, sessions: %d", accountId, removed)
	}

	return removed
}

func (s *sPool) removeSessions(ctx context.Context, match func(key, value string) bool) int {

	data, err := s.sessionCache.Data(ctx)
	if err != nil {
		logger.Error(ctx, err)
		return 0
	}

	keys := make([]any, 0)
	for key, value := range data {
		k, _ := key.(string)
		v, _ := value.(string)
		if match(k, v) {
			keys = append(keys, key)
		}
	}

	if len(keys) > 0 {
		if err = s.sessionCache.Remove(ctx, keys...); err != nil {
			logger.Error(ctx, err)
		}
	}

	return len(keys)
}
