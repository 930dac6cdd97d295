package registry

import (
	"github.com/paysynclabs/paysync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("provider.registry",
	fx.Provide(Provide),
)

func Provide(cfg config.Config, log *zap.Logger) *Registry {
	r := New()
	Initialize(r, cfg, log)
	return r
}
