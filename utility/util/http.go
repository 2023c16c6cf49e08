package util

import (
	"context"
	"net/http"
	"time"

	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/utility/logger"
)

// HttpPostJson 请求体与响应体可能包含凭证, 日志只记录地址与状态
func HttpPostJson(ctx context.Context, url string, header map[string]string, data, result interface{}, proxyURL ...string) error {

	client := g.Client().Timeout(config.Cfg.Http.Timeout * time.Second)

	if header != nil {
		client.SetHeaderMap(header)
	}

	if len(proxyURL) > 0 && proxyURL[0] != "" {
		client.SetProxy(proxyURL[0])
	} else if config.Cfg.Http.ProxyUrl != "" {
		client.SetProxy(config.Cfg.Http.ProxyUrl)
	}

	response, err := client.ContentJson().Post(ctx, url, data)
	if err != nil {
		logger.Errorf(ctx, "HttpPostJson url: %s, error: %v", url, err)
		return err
	}

	defer func() {
		if err := response.Close(); err != nil {
			logger.Error(ctx, err)
		}
	}()

	bytes := response.ReadAll()
	logger.Infof(ctx, "HttpPostJson url: %s, status: %d, length: %d", url, response.StatusCode, len(bytes))

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return gerror.Newf("HttpPostJson url: %s, unexpected status: %d", url, response.StatusCode)
	}

	if len(bytes) > 0 {
		if err = gjson.Unmarshal(bytes, result); err != nil {
			logger.Error(ctx, err)
			return err
		}
	}

	return nil
}
