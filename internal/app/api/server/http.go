package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/entitlement/docs"
	"github.com/fatflowers/entitlement/internal/app/api/handlers"
	mw "github.com/fatflowers/entitlement/internal/app/api/middleware"
	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/membership"
	"github.com/fatflowers/entitlement/internal/app/service/payment"
	"github.com/fatflowers/entitlement/internal/app/service/points"
	cfgpkg "github.com/fatflowers/entitlement/pkg/config"
	"github.com/fatflowers/entitlement/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config,
	payMgr payment.Manager, pts *points.Service, mem *membership.Service, feat *feature.Service) {
	// Prometheus metrics: request metrics on the engine, scrape endpoint on its own port
	if cfg != nil && cfg.MetricsAddr != "" {
		r.Use(metrics.GinMiddleware())
		metrics.Serve(cfg.MetricsAddr, log)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Gateway callback is authenticated by its signature, not a user token
	callback := r.Group("/api/v1/payment")
	callback.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterCallbackRoutes(callback, payMgr)

	// Protected group using auth middleware
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg))

	handlers.RegisterPaymentRoutes(apiV1.Group("/payment"), payMgr)
	handlers.RegisterAssetsRoutes(apiV1.Group("/assets"), pts, mem, feat)
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), payMgr, feat)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
