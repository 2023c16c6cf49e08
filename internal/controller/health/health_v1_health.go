package health

import (
	"context"

	"github.com/iimeta/fastrelay/api/health/v1"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/internal/service"
)

func (c *ControllerV1) Health(ctx context.Context, req *v1.HealthReq) (res *v1.HealthRes, err error) {

	res = &v1.HealthRes{
		Status:   "ok",
		Store:    config.Cfg.Store.Driver,
		Sessions: service.Affinity().Size(ctx),
	}

	return
}
