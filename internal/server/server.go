package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paysynclabs/paysync/internal/config"
	importerdomain "github.com/paysynclabs/paysync/internal/importer/domain"
	"github.com/paysynclabs/paysync/internal/provider/registry"
	"github.com/paysynclabs/paysync/internal/ratelimit"
	userdomain "github.com/paysynclabs/paysync/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	Registry  *registry.Registry
	Importer  importerdomain.Service
	UserRepo  userdomain.Repository
	Limiter   *ratelimit.Limiter
}

type Server struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	registry *registry.Registry
	importer importerdomain.Service
	userRepo userdomain.Repository
	limiter  *ratelimit.Limiter
}

func New(p Params) *Server {
	return &Server{
		db:       p.DB,
		log:      p.Log.Named("server"),
		cfg:      p.Cfg,
		registry: p.Registry,
		importer: p.Importer,
		userRepo: p.UserRepo,
		limiter:  p.Limiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.RegisterRoutes(engine)
	return engine
}

func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
