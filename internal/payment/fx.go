package payment

import (
	"github.com/paysynclabs/paysync/internal/payment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.repository",
	fx.Provide(repository.New),
)
