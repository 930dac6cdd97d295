package user

import (
	"github.com/paysynclabs/paysync/internal/user/repository"
	"github.com/paysynclabs/paysync/internal/user/service"
	"go.uber.org/fx"
)

var Module = fx.Module("user.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewResolver),
)
