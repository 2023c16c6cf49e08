package scheduler

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/errors"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/logger"
)

// Options 调度依赖, Group与Pool为空时不启用对应策略
type Options struct {
	Account  service.IAccount
	Affinity service.IAffinity
	Legacy   service.ILegacy
	OAuth    service.IOAuth
	Group    service.IGroup
	Pool     service.IPool
}

type step func(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error)

type sScheduler struct {
	opts        Options
	legacy      []step
	withGroup   []step
	withPool    []step
	intelligent []step
}

func New(opts Options) service.IScheduler {

	s := &sScheduler{opts: opts}

	s.legacy = []step{s.legacyStep}
	s.withGroup = []step{s.legacyStep}
	s.withPool = []step{s.legacyStep}
	s.intelligent = []step{s.legacyStep}

	if opts.Group != nil {
		s.withGroup = append([]step{s.groupStep}, s.withGroup...)
		s.intelligent = append([]step{s.groupStep}, s.intelligent...)
	}

	if opts.Pool != nil {
		s.withPool = append([]step{s.poolStep}, s.withPool...)
		s.intelligent = append([]step{s.poolStep}, s.intelligent...)
	}

	return s
}

// 固定绑定选择
func (s *sScheduler) SelectAccount(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Account, error) {
	return s.account(s.run(ctx, "SelectAccount", s.legacy, apiKey, sessionHash, requestedModel))
}

// 分组优先选择
func (s *sScheduler) SelectAccountWithGroup(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Account, error) {
	return s.account(s.run(ctx, "SelectAccountWithGroup", s.withGroup, apiKey, sessionHash, requestedModel))
}

// 账号池权限优先选择
func (s *sScheduler) SelectAccountWithPoolPermission(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Account, error) {
	return s.account(s.run(ctx, "SelectAccountWithPoolPermission", s.withPool, apiKey, sessionHash, requestedModel))
}

// 智能选择: 账号池权限, 分组, 固定绑定, 不占用分组连接
func (s *sScheduler) SelectAccountIntelligent(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Account, error) {
	return s.account(s.run(ctx, "SelectAccountIntelligent", s.intelligent, apiKey, sessionHash, requestedModel))
}

// 智能选择并返回选择来源, 分组命中时占用连接, 由RecordSuccess/RecordFailure释放
func (s *sScheduler) Route(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	selection, err := s.run(ctx, "Route", s.intelligent, apiKey, sessionHash, requestedModel)
	if err != nil {
		return nil, err
	}

	if selection.GroupId != "" {
		if err = s.opts.Group.AcquireConnection(ctx, selection.ApiKeyId, selection.GroupId); err != nil {
			logger.Error(ctx, err)
		}
	}

	return selection, nil
}

func (s *sScheduler) account(selection *model.Selection, err error) (*model.Account, error) {

	if err != nil {
		return nil, err
	}

	return selection.Account, nil
}

func (s *sScheduler) run(ctx context.Context, name string, steps []step, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sScheduler %s time: %d", name, gtime.TimestampMilli()-now)
	}()

	if apiKey == nil {
		return nil, errors.ERR_INVALID_API_KEY
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modelFiltered := false

	for _, step := range steps {

		selection, err := step(ctx, apiKey, sessionHash, requestedModel)
		if err != nil {
			logger.Errorf(ctx, "sScheduler %s apiKey: %s, error: %v", name, apiKey.Id, err)
			return nil, err
		}

		if selection.Found() {
			logger.Infof(ctx, "sScheduler %s apiKey: %s, account: %s, source: %s", name, apiKey.Id, selection.Account.Id, selection.Source)
			return selection, nil
		}

		if selection != nil {
			modelFiltered = modelFiltered || selection.ModelFiltered
			logger.Debugf(ctx, "sScheduler %s apiKey: %s, miss: %s", name, apiKey.Id, selection.Reason)
		}
	}

	if modelFiltered {
		return nil, errors.NoAvailableAccount(apiKey.GetService(), requestedModel)
	}

	return nil, errors.NoAvailableAccount(apiKey.GetService(), "")
}

func (s *sScheduler) legacyStep(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {
	return s.opts.Legacy.Select(ctx, apiKey, sessionHash, requestedModel)
}

// 账号池权限, 按服务可用平台依次尝试
func (s *sScheduler) poolStep(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	ok, err := s.opts.Pool.HasEffectivePermission(ctx, apiKey.Id)
	if err != nil {
		logger.Errorf(ctx, "sScheduler poolStep apiKey: %s, error: %v", apiKey.Id, err)
		return model.NoSelection("pool permission unavailable"), nil
	}

	if !ok {
		return model.NoSelection("no effective pool permission"), nil
	}

	modelFiltered := false

	for _, platform := range apiKey.Platforms() {

		selection, err := s.opts.Pool.SelectBestAccount(ctx, apiKey.Id, platform, sessionHash, requestedModel)
		if err != nil {
			logger.Errorf(ctx, "sScheduler poolStep apiKey: %s, platform: %s, error: %v", apiKey.Id, platform, err)
			continue
		}

		if !selection.Found() {
			modelFiltered = modelFiltered || selection.ModelFiltered
			continue
		}

		account, err := s.revalidate(ctx, selection.Account.Id, requestedModel)
		if err != nil {
			return nil, err
		}

		if account != nil {
			selection.Account = account
			return selection, nil
		}
	}

	selection := model.NoSelection(fmt.Sprintf("no available pool account for service %s", apiKey.GetService()))
	selection.ModelFiltered = modelFiltered

	return selection, nil
}

// 分组按ID升序尝试, 单个分组异常时继续下一个
func (s *sScheduler) groupStep(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	if !apiKey.HasGroups() {
		return model.NoSelection("api key is not group managed"), nil
	}

	groupIds := slices.Clone(apiKey.GroupIds)
	slices.Sort(groupIds)

	modelFiltered := false

	for _, groupId := range groupIds {

		selection, err := s.selectFromGroup(ctx, apiKey, groupId, requestedModel)
		if err != nil {
			logger.Errorf(ctx, "sScheduler groupStep apiKey: %s, group: %s, error: %v", apiKey.Id, groupId, err)
			continue
		}

		if selection.Found() {
			return selection, nil
		}

		modelFiltered = modelFiltered || selection.ModelFiltered
	}

	selection := model.NoSelection(fmt.Sprintf("no available group member for api key %s", apiKey.Id))
	selection.ModelFiltered = modelFiltered

	return selection, nil
}

func (s *sScheduler) selectFromGroup(ctx context.Context, apiKey *model.ApiKey, groupId, requestedModel string) (*model.Selection, error) {

	mapping, err := s.opts.Group.SelectBestApiKeyFromGroup(ctx, groupId)
	if err != nil {
		return nil, err
	}

	failed := make([]string, 0)
	modelFiltered := false

	for mapping != nil {

		account, filtered, err := s.memberAccount(ctx, apiKey, mapping.ApiKey, requestedModel)
		if err != nil {
			return nil, err
		}

		modelFiltered = modelFiltered || filtered

		if account != nil {

			if err = s.opts.Group.RecordUsage(ctx, groupId); err != nil {
				logger.Error(ctx, err)
			}

			selection := model.NewSelection(account, consts.SELECTION_SOURCE_GROUP)
			selection.GroupId = groupId
			selection.ApiKeyId = mapping.ApiKeyId

			return selection, nil
		}

		logger.Infof(ctx, "sScheduler selectFromGroup group: %s, member: %s has no available account", groupId, mapping.ApiKeyId)

		failed = append(failed, mapping.ApiKeyId)
		mapping = s.opts.Group.PerformFailover(ctx, groupId, failed...)
	}

	selection := model.NoSelection(fmt.Sprintf("no available member in group %s", groupId))
	selection.ModelFiltered = modelFiltered

	return selection, nil
}

// 成员密钥绑定的账号, 平台需属于请求服务, filtered表示存在仅因模型不支持被排除的账号
func (s *sScheduler) memberAccount(ctx context.Context, apiKey, member *model.ApiKey, requestedModel string) (account *model.Account, filtered bool, err error) {

	if member == nil {
		return nil, false, nil
	}

	for _, id := range member.BindingIds() {

		if account, err = s.opts.Account.GetAvailable(ctx, id); err != nil {
			return nil, false, err
		}

		if account == nil || !apiKey.AllowsPlatform(account.Platform) {
			continue
		}

		if !account.SupportsModel(requestedModel) {
			filtered = true
			continue
		}

		account, err = s.touch(ctx, account)

		return account, filtered, err
	}

	return nil, filtered, nil
}

// 返回前重新读取并校验账号可用
func (s *sScheduler) revalidate(ctx context.Context, id, requestedModel string) (*model.Account, error) {

	account, err := s.opts.Account.GetAvailable(ctx, id)
	if err != nil {
		return nil, err
	}

	if account == nil || !account.SupportsModel(requestedModel) {
		logger.Infof(ctx, "sScheduler revalidate account: %s no longer available", id)
		return nil, nil
	}

	return s.touch(ctx, account)
}

func (s *sScheduler) touch(ctx context.Context, account *model.Account) (*model.Account, error) {

	if err := s.opts.Account.Touch(ctx, account.Id); err != nil {
		return nil, err
	}

	return account, nil
}

// 获取账号可用凭证
func (s *sScheduler) GetValidAccessToken(ctx context.Context, account *model.Account) (string, error) {
	return s.opts.OAuth.GetValidAccessToken(ctx, account)
}

// 上游调用成功, 更新分组成员统计并释放连接
func (s *sScheduler) RecordSuccess(ctx context.Context, apiKeyId, groupId string, cost float64, responseTime int64) error {

	if s.opts.Group == nil || groupId == "" {
		return nil
	}

	if err := s.opts.Group.RecordSuccess(ctx, apiKeyId, groupId, cost, responseTime); err != nil {
		return err
	}

	return s.opts.Group.ReleaseConnection(ctx, apiKeyId, groupId)
}

// 上游调用失败, 累计成员失败并释放连接
func (s *sScheduler) RecordFailure(ctx context.Context, apiKeyId, groupId string, err error) error {

	if err != nil {
		logger.Warningf(ctx, "sScheduler RecordFailure apiKey: %s, group: %s, error: %v", apiKeyId, groupId, err)
	}

	if s.opts.Group == nil || groupId == "" {
		return nil
	}

	if err := s.opts.Group.HandleApiKeyFailure(ctx, apiKeyId, groupId); err != nil {
		return err
	}

	return s.opts.Group.ReleaseConnection(ctx, apiKeyId, groupId)
}

// 标记账号限流, 并移除指向该账号的会话粘性
func (s *sScheduler) MarkRateLimited(ctx context.Context, accountId string, duration time.Duration) error {

	if err := s.opts.Account.MarkRateLimited(ctx, accountId, duration); err != nil {
		return err
	}

	s.evictAccount(ctx, accountId)

	return nil
}

func (s *sScheduler) evictAccount(ctx context.Context, accountId string) {

	s.opts.Affinity.EvictAccount(ctx, accountId)

	if s.opts.Pool != nil {
		s.opts.Pool.EvictAccount(ctx, accountId)
	}
}
