package cmd

import (
	"context"
	"net/http"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/net/ghttp"
	"github.com/gogf/gf/v2/os/gcmd"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/consts"
	"github.com/iimeta/fastrelay/internal/controller/health"
	"github.com/iimeta/fastrelay/internal/errors"
	"github.com/iimeta/fastrelay/internal/logic/account"
	"github.com/iimeta/fastrelay/internal/logic/affinity"
	"github.com/iimeta/fastrelay/internal/logic/group"
	healthLogic "github.com/iimeta/fastrelay/internal/logic/health"
	"github.com/iimeta/fastrelay/internal/logic/legacy"
	"github.com/iimeta/fastrelay/internal/logic/oauth"
	"github.com/iimeta/fastrelay/internal/logic/pool"
	"github.com/iimeta/fastrelay/internal/logic/scheduler"
	"github.com/iimeta/fastrelay/internal/logic/store"
	"github.com/iimeta/fastrelay/internal/service"
	"github.com/iimeta/fastrelay/utility/db"
	"github.com/iimeta/fastrelay/utility/logger"
	"github.com/iimeta/fastrelay/utility/redis"
)

var (
	Main = gcmd.Command{
		Name:  "main",
		Usage: "main",
		Brief: "start fastrelay",
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {

			useRedis, err := redis.Init(ctx)
			if err != nil {
				return err
			}

			if err = register(ctx, useRedis); err != nil {
				return err
			}

			if useRedis {
				if err = subscribe(ctx); err != nil {
					return err
				}
			}

			if err = service.Health().Start(ctx); err != nil {
				return err
			}

			s := g.Server()

			s.BindHookHandler("/*", ghttp.HookBeforeServe, beforeServeHook)

			s.Group("/", func(r *ghttp.RouterGroup) {
				r.Middleware(middlewareHandlerResponse)
				r.Bind(
					health.NewV1(),
				)
			})

			s.Run()

			db.Close(ctx)

			return nil
		},
	}
)

// 按存储驱动初始化并注册服务
func register(ctx context.Context, useRedis bool) error {

	var storeService service.IStore

	switch config.Cfg.Store.Driver {
	case consts.STORE_DRIVER_MEMORY:
		storeService = store.NewMemory()
	case consts.STORE_DRIVER_MONGODB:
		if err := db.Init(ctx); err != nil {
			return err
		}
		storeService = store.NewMongo()
	default:
		return gerror.Newf("unknown store driver: %s", config.Cfg.Store.Driver)
	}

	service.RegisterStore(storeService)
	service.RegisterAccount(account.New(storeService))
	service.RegisterAffinity(affinity.New())
	service.RegisterLegacy(legacy.New(service.Account(), service.Affinity()))
	service.RegisterGroup(group.New(storeService))
	service.RegisterPool(pool.New(storeService, service.Account()))
	service.RegisterOAuth(oauth.New(storeService, useRedis))
	service.RegisterHealth(healthLogic.New(service.Account(), service.Group()))

	service.RegisterScheduler(scheduler.New(scheduler.Options{
		Account:  service.Account(),
		Affinity: service.Affinity(),
		Legacy:   service.Legacy(),
		OAuth:    service.OAuth(),
		Group:    service.Group(),
		Pool:     service.Pool(),
	}))

	logger.Infof(ctx, "register services, store: %s, redis: %t", config.Cfg.Store.Driver, useRedis)

	return nil
}

func beforeServeHook(r *ghttp.Request) {
	logger.Debugf(r.GetCtx(), "beforeServeHook [isFile: %t] URI: %s", r.IsFileRequest(), r.RequestURI)
	r.Response.CORSDefault()
}

func middlewareHandlerResponse(r *ghttp.Request) {

	r.Middleware.Next()

	if r.Response.BufferLength() > 0 {
		return
	}

	if err := r.GetError(); err != nil {
		e := errors.Error(r.GetCtx(), err)
		r.Response.ClearBuffer()
		r.Response.WriteStatus(e.Status())
		r.Response.WriteJson(e)
		return
	}

	if r.Response.Status > 0 && r.Response.Status != http.StatusOK {
		e := errors.Error(r.GetCtx(), errors.ERR_NOT_FOUND)
		r.Response.WriteStatus(e.Status())
		r.Response.WriteJson(e)
		return
	}

	r.Response.WriteJson(r.GetHandlerResponse())
}
