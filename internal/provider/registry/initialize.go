package registry

import (
	"github.com/paysynclabs/paysync/internal/config"
	"github.com/paysynclabs/paysync/internal/provider/adapters/creem"
	"github.com/paysynclabs/paysync/internal/provider/adapters/lemonsqueezy"
	"github.com/paysynclabs/paysync/internal/provider/adapters/polar"
	"go.uber.org/zap"
)

// Initialize constructs and registers one adapter per enabled feature
// flag. It is idempotent: a second call is a no-op. Adapters configure
// independently, so construction fans out and joins before the registry
// is handed to any caller.
func Initialize(r *Registry, cfg config.Config, log *zap.Logger) {
	if !r.markInitialized() {
		return
	}
	log = log.Named("provider.registry")

	type builder struct {
		enabled bool
		build   func()
	}

	builders := []builder{
		{cfg.LemonSqueezy.Enabled, func() {
			r.Register(lemonsqueezy.New(cfg.LemonSqueezy, cfg.ProviderTimeout, log))
		}},
		{cfg.Polar.Enabled, func() {
			r.Register(polar.New(cfg.Polar, cfg.ProviderTimeout, log))
		}},
		{cfg.Creem.Enabled, func() {
			r.Register(creem.New(cfg.Creem, cfg.ProviderTimeout, log))
		}},
	}

	for _, b := range builders {
		if b.enabled {
			b.build()
		}
	}

	log.Info("payment providers initialized",
		zap.Int("registered", r.Count()),
		zap.Int("enabled", r.EnabledCount()),
	)
}

// KnownProviderID reports whether id names a supported adapter,
// whether or not its feature flag registered it. Webhook ingress for a
// known-but-disabled provider is acknowledged and dropped rather than
// rejected as unknown.
func KnownProviderID(id string) bool {
	switch id {
	case lemonsqueezy.ProviderID, polar.ProviderID, creem.ProviderID:
		return true
	}
	return false
}
