package scheduler

import (
	"context"
	"strings"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/os/gtime"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/model"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/samber/lo"
)

// 变更订阅, 清理进程内缓存
func (s *sScheduler) Subscribe(ctx context.Context, channel, msg string) error {

	now := gtime.TimestampMilli()
	defer func() {
		logger.Debugf(ctx, "sScheduler Subscribe time: %d", gtime.TimestampMilli()-now)
	}()

	message := new(model.SubMessage)
	if err := gjson.Unmarshal([]byte(msg), &message); err != nil {
		logger.Errorf(ctx, "sScheduler Subscribe channel: %s, msg: %s, error: %v", channel, msg, err)
		return err
	}

	logger.Infof(ctx, "sScheduler Subscribe channel: %s, action: %s, id: %s", channel, message.Action, message.Id)

	switch strings.TrimPrefix(channel, config.Cfg.Core.ChannelPrefix) {
	case consts.CHANGE_CHANNEL_ACCOUNT:
		if message.Action != consts.ACTION_CREATE {
			s.evictAccount(ctx, message.Id)
		}
	case consts.CHANGE_CHANNEL_GROUP:
		if s.opts.Group != nil {
			s.opts.Group.RemoveCache(ctx, message.Id)
		}
	case consts.CHANGE_CHANNEL_PERMISSION:
		if s.opts.Pool != nil {
			for _, apiKeyId := range permissionApiKeyIds(message) {
				s.opts.Pool.RemoveCache(ctx, apiKeyId)
			}
		}
	default:
		logger.Warningf(ctx, "sScheduler Subscribe unknown channel: %s", channel)
	}

	return nil
}

// 权限变更涉及的密钥ID, 数据中未携带时按消息ID处理
func permissionApiKeyIds(message *model.SubMessage) []string {

	ids := make([]string, 0, 2)

	for _, data := range []any{message.OldData, message.NewData} {
		if data == nil {
			continue
		}
		if id := gjson.New(data).Get("api_key_id").String(); id != "" {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 && message.Id != "" {
		ids = append(ids, message.Id)
	}

	return lo.Uniq(ids)
}
