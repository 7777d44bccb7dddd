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
	"moderator/internal/decision"
	"moderator/internal/enrichment"
	"moderator/internal/enrichment/provider"
	"moderator/internal/idempotency"
	"moderator/internal/logger"
	"moderator/internal/moderation"
	"moderator/internal/routing"
	"moderator/pkg/bootstrap"
	"moderator/pkg/health"
	"moderator/pkg/logging"
	"moderator/pkg/metrics"
	"moderator/pkg/middleware"
	"moderator/pkg/tracing"
)

const healthProbeID = "__health_probe__"

type App struct {
	*bootstrap.Base
	redis          *redis.Client
	store          idempotency.Store
	router         *routing.Router
	service        *moderation.Service
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceNameModeration)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterModerationMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	rdb, err := bootstrap.InitRedis(ctx, a.Config.Database.Redis, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.redis = rdb

	if err := a.initStore(); err != nil {
		return fmt.Errorf("failed to initialize idempotency store: %w", err)
	}

	if err := a.InitBroker(constants.ServiceNameModeration); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initService()
	a.initHTTPServer()

	return nil
}

func (a *App) initStore() error {
	var client redis.UniversalClient
	if a.redis != nil {
		client = a.redis
	}

	store, err := idempotency.New(a.Config.Idempotency, client, a.Logger)
	if err != nil {
		return err
	}
	a.store = store

	initCtx := logging.WithServiceName(context.Background(), constants.ServiceNameModeration)
	a.Logger.InfowCtx(initCtx, "Idempotency store ready",
		"type", a.Config.Idempotency.Type,
		"processed_ids", store.Count(),
	)
	metrics.SetIdempotencyProcessedIDs(store.Count())
	return nil
}

func (a *App) initService() {
	var p provider.Provider = provider.NewAPIProvider(a.Config.Enrichment.BaseURL, nil)
	p = provider.WrapWithCircuitBreaker(p, "enrichment-api", a.Config.CircuitBreaker)

	gateway := enrichment.NewGateway(p, a.Config.Enrichment, a.Logger)

	kafkaCfg := a.Config.Broker.Kafka
	a.router = routing.NewRouter(a.Producer, kafkaCfg.ApprovedTopic, kafkaCfg.ReviewTopic, a.Logger)
	a.service = moderation.NewService(a.store, gateway, decision.NewEngine(), a.router, a.Logger)
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewFuncChecker("idempotency_store", func(ctx context.Context) error {
		_, err := a.store.IsProcessed(ctx, healthProbeID)
		return err
	}))
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	// The pipeline falls back when enrichment is down, so it only degrades.
	healthRegistry.RegisterOptional(health.NewHTTPChecker(
		"enrichment",
		a.Config.Enrichment.BaseURL+a.Config.Enrichment.HealthPath,
		nil,
	))

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(a.Logger),
		middleware.RequestIDMiddleware(),
		tracing.GinMiddleware(constants.ServiceNameModeration),
	)
	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
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
	}

	appealsTopic := a.Config.Broker.Kafka.AppealsTopic
	if appealsTopic == "" {
		appealsTopic = constants.DefaultAppealsTopic
	}

	g.Go(func() error {
		consumeCtx := logging.WithServiceName(gCtx, constants.ServiceNameModeration)
		a.Logger.InfowCtx(consumeCtx, "Consuming appeals", "topic", appealsTopic)
		return a.Consumer.Consume(gCtx, appealsTopic, a.service.Handle)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceNameModeration)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down moderation service")

	drain := func(ctx context.Context) []error {
		if a.router == nil {
			return nil
		}
		if err := a.router.Close(ctx); err != nil {
			return []error{fmt.Errorf("router drain error: %w", err)}
		}
		return nil
	}

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.store != nil {
			if err := a.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("idempotency store close error: %w", err))
			}
		}

		errs = append(errs, bootstrap.ShutdownRedis(a.redis)...)

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer shutdown error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(ctx, drain, additionalShutdown)
}
