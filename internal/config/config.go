package config

import (
	"context"

	"github.com/gogf/gf/v2/container/gvar"
	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gcfg"
	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/os/gfsnotify"
	"github.com/iimeta/fastrelay/internal/model/common"
	"github.com/iimeta/fastrelay/utility/logger"
)

var Cfg = Default()

func init() {

	ctx := gctx.New()

	file, _ := gcfg.NewAdapterFile()
	path, _ := file.GetFilePath()

	// 无配置文件时使用默认配置
	if path == "" {
		return
	}

	if err := Load(ctx); err != nil {
		logger.Errorf(ctx, "解析配置文件 %s 错误: %v", path, err)
	}

	// 监听配置文件变化, 热加载
	_, _ = gfsnotify.Add(path, func(event *gfsnotify.Event) {
		ctx := gctx.New()
		if err := Load(ctx); err != nil {
			logger.Errorf(ctx, "热加载 解析配置文件 %s 错误: %v", path, err)
		} else {
			logger.Infof(ctx, "热加载 配置文件 %s 成功", path)
		}
	})
}

// 配置信息
type Config struct {
	Store  *common.Store  `json:"store"`
	Core   *common.Core   `json:"core"`
	Http   *common.Http   `json:"http"`
	Router *common.Router `json:"router"`
	OAuth  *common.OAuth  `json:"oauth"`
	Health *common.Health `json:"health"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Store: &common.Store{
			Driver: "mongodb",
		},
		Core: &common.Core{},
		Http: &common.Http{
			Timeout: 60,
		},
		Router: &common.Router{
			AffinityTTL:        1800,
			AffinitySlidingTTL: 900,
			PoolSessionCap:     10000,
			PoolSessionTTL:     3600,
			PermissionCacheTTL: 0,
			GroupCacheTTL:      0,
			FailureThreshold:   3,
			FailureCeiling:     5,
			SuspendSeconds:     300,
			MinSuccessRate:     0.5,
			MinSampleRequests:  10,
		},
		OAuth: &common.OAuth{
			ClaudeTokenUrl: "https://console.anthropic.com/v1/oauth/token",
			ClaudeClientId: "9d1c250a-e61b-44d9-88ed-5944d1962f5e",
			RefreshWindow:  60,
			LockTTL:        30,
		},
		Health: &common.Health{
			Open: true,
			Cron: "0 * * * * *",
		},
	}
}

// Load 以默认配置为底, 配置文件覆盖, 整体替换
func Load(ctx context.Context) error {

	data, err := gcfg.Instance().Data(ctx)
	if err != nil {
		return err
	}

	cfg := Default()
	if len(data) > 0 {
		if err = gjson.Unmarshal(gjson.MustEncode(data), &cfg); err != nil {
			return err
		}
	}

	Cfg = cfg

	logger.Infof(ctx, "加载配置成功, 当前配置信息: %s", gjson.MustEncodeString(Cfg))

	return nil
}

func Get(ctx context.Context, pattern string, def ...interface{}) (*gvar.Var, error) {

	value, err := g.Cfg().Get(ctx, pattern, def...)
	if err != nil {
		return nil, err
	}

	return value, nil
}

func GetString(ctx context.Context, pattern string, def ...interface{}) string {

	value, err := Get(ctx, pattern, def...)
	if err != nil {
		logger.Error(ctx, err)
		return ""
	}

	return value.String()
}
