package legacy

import (
	"context"
	"fmt"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/logger"
)

type sLegacy struct {
	account  service.IAccount
	affinity service.IAffinity
}

func New(account service.IAccount, affinity service.IAffinity) service.ILegacy {
	return &sLegacy{
		account:  account,
		affinity: affinity,
	}
}

// 固定绑定选择: 绑定账号, 会话粘性, 评分最优
func (s *sLegacy) Select(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sLegacy Select time: %d", gtime.TimestampMilli()-now)
	}()

	selection, err := s.selectAccount(ctx, apiKey, sessionHash, requestedModel)
	if err != nil || !selection.Found() {
		return selection, err
	}

	if sessionHash != "" && selection.Source != consts.SELECTION_SOURCE_AFFINITY {
		s.affinity.Set(ctx, sessionHash, selection.Account.Id)
	}

	if err = s.account.Touch(ctx, selection.Account.Id); err != nil {
		return nil, err
	}

	logger.Infof(ctx, "sLegacy Select apiKey: %s, account: %s, source: %s", apiKey.Id, selection.Account.Id, selection.Source)

	return selection, nil
}

func (s *sLegacy) selectAccount(ctx context.Context, apiKey *model.ApiKey, sessionHash, requestedModel string) (*model.Selection, error) {

	for _, id := range apiKey.BindingIds() {

		account, err := s.account.GetAvailable(ctx, id)
		if err != nil {
			return nil, err
		}

		if account != nil && apiKey.AllowsPlatform(account.Platform) {
			return model.NewSelection(account, consts.SELECTION_SOURCE_LEGACY_BINDING), nil
		}
	}

	if sessionHash != "" {
		if id := s.affinity.Get(ctx, sessionHash); id != "" {

			account, err := s.account.GetAvailable(ctx, id)
			if err != nil {
				return nil, err
			}

			if account != nil && apiKey.AllowsPlatform(account.Platform) && account.SupportsModel(requestedModel) {
				return model.NewSelection(account, consts.SELECTION_SOURCE_AFFINITY), nil
			}

			logger.Infof(ctx, "sLegacy Select session: %s stale account: %s", sessionHash, id)
			s.affinity.Delete(ctx, sessionHash)
		}
	}

	accounts, err := s.account.GetByPlatforms(ctx, apiKey.Platforms())
	if err != nil {
		return nil, err
	}

	now := gtime.TimestampMilli()

	available := make([]*model.Account, 0, len(accounts))
	for _, account := range accounts {
		if account.IsAvailable(now) {
			available = append(available, account)
		}
	}

	if len(available) == 0 {
		return model.NoSelection(fmt.Sprintf("no available %s account", apiKey.GetService())), nil
	}

	candidates := make([]*model.Account, 0, len(available))
	for _, account := range available {
		if account.SupportsModel(requestedModel) {
			candidates = append(candidates, account)
		}
	}

	if len(candidates) == 0 {
		selection := model.NoSelection(fmt.Sprintf("no available %s account supports model %s", apiKey.GetService(), requestedModel))
		selection.ModelFiltered = true
		return selection, nil
	}

	return model.NewSelection(pickLowest(candidates, now), consts.SELECTION_SOURCE_LEGACY_SCORE), nil
}
