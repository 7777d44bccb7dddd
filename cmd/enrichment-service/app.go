package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"moderator/internal/config"
	"moderator/internal/constants"
	"moderator/internal/enrichmentstub"
	"moderator/internal/logger"
	"moderator/pkg/bootstrap"
	"moderator/pkg/health"
	"moderator/pkg/logging"
	"moderator/pkg/metrics"
	"moderator/pkg/middleware"
	"moderator/pkg/ratelimit"
	"moderator/pkg/tracing"
)

type App struct {
	Config         *config.Config
	Logger         logger.Logger
	redis          *redis.Client
	limiter        *ratelimit.Limiter
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceNameEnrichment)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterStubMetrics()

	rdb, err := bootstrap.InitRedis(ctx, a.Config.Database.Redis, a.Logger)
	if err != nil {
		initCtx := logging.WithServiceName(ctx, constants.ServiceNameEnrichment)
		a.Logger.WarnwCtx(initCtx, "Redis unavailable, enrichment cache disabled", "error", err)
	}
	a.redis = rdb

	if a.Config.Stub.RateLimit.Enabled {
		a.limiter = ratelimit.New(ratelimit.FromConfig(a.Config.Stub.RateLimit))
	}

	a.initHTTPServer()
	return nil
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)

	var cache redis.UniversalClient
	if a.redis != nil {
		cache = a.redis
	}
	svc := enrichmentstub.NewService(a.Config.Stub, cache, a.Logger)
	handler := enrichmentstub.NewHandler(svc, a.Logger)

	healthRegistry := health.NewCheckerRegistry()
	if a.redis != nil {
		healthRegistry.RegisterOptional(health.NewRedisChecker(a.redis))
	}

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(a.Logger),
		middleware.RequestIDMiddleware(),
		tracing.GinMiddleware(constants.ServiceNameEnrichment),
		middleware.LoggerMiddleware(a.Logger),
	)

	router.GET("/health", handler.Health)
	router.GET("/health/details", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("")
	if a.limiter != nil {
		api.Use(a.limiter.Middleware())
	}
	handler.RegisterRoutes(api)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.limiter != nil {
		g.Go(func() error {
			return a.limiter.Run(gCtx)
		})
	}

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceNameEnrichment)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down enrichment service")

	var errs []error
	errs = append(errs, bootstrap.ShutdownRedis(a.redis)...)

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	a.Logger.InfowCtx(shutdownCtx, "Application exited successfully")
	return nil
}
