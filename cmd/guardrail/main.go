package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/coachly/guardrail/pkg/api"
	"github.com/coachly/guardrail/pkg/audit"
	"github.com/coachly/guardrail/pkg/authz"
	"github.com/coachly/guardrail/pkg/bootstrap"
	"github.com/coachly/guardrail/pkg/config"
	"github.com/coachly/guardrail/pkg/features"
	"github.com/coachly/guardrail/pkg/middleware"
	"github.com/coachly/guardrail/pkg/observability"
	"github.com/coachly/guardrail/pkg/principal"
	"github.com/coachly/guardrail/pkg/storage/postgres"
	"github.com/coachly/guardrail/pkg/tenancy"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.TracingEnabled,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Insecure:       cfg.Observability.OTLPInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database ready")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
	}

	// Stores
	tenantStore := tenancy.NewStore(db)
	principalStore := principal.NewStore(db)

	// Feature registry: file-backed when configured, database otherwise
	var (
		featureRegistry features.Registry
		featureAdm      api.FeatureAdmin
	)
	if cfg.Features.FilePath != "" {
		fileRegistry, err := features.NewFileRegistry(cfg.Features.FilePath, logger)
		if err != nil {
			log.Fatalf("Failed to load feature definitions: %v", err)
		}
		defer fileRegistry.Close()
		featureRegistry = fileRegistry
	} else {
		storeRegistry := features.NewStoreRegistry(db, cfg.Features.CacheSize, cfg.Features.CacheTTL)
		featureRegistry = storeRegistry
		featureAdm = storeRegistry
	}

	evaluator := authz.NewEvaluator(features.NewGate(featureRegistry), metrics)

	// Audit trail: async best-effort queue over the database sink, with an
	// optional file sink fanned out alongside it
	dbAudit, err := audit.NewDBLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	var auditSink audit.Logger = dbAudit
	if cfg.Audit.FilePath != "" {
		fileAudit, err := audit.NewFileLogger(cfg.Audit.FilePath)
		if err != nil {
			log.Fatalf("Failed to open audit log file: %v", err)
		}
		auditSink = audit.NewMultiLogger(dbAudit, fileAudit)
	}
	recorder := audit.NewBestEffort(auditSink, cfg.Audit.QueueSize, logger, metrics)

	coordinator := bootstrap.NewCoordinator(
		bootstrap.NewSQLIdentitySource(db),
		principalStore,
		tenantStore,
		recorder,
		logger,
		metrics,
		bootstrap.Config{
			SuperAdminSlug: cfg.Bootstrap.SuperAdminSlug,
			DefaultSlug:    cfg.Bootstrap.DefaultSlug,
		},
	)

	// Resolver chain: store, optionally OIDC claims on top, optionally
	// cached in redis
	var resolver principal.Resolver = principal.NewStoreResolver(principalStore)
	if cfg.OIDC.IssuerURL != "" {
		resolver, err = principal.NewOIDCResolver(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID, resolver)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC resolver: %v", err)
		}
	}
	if redisClient != nil {
		resolver = principal.NewCachedResolver(resolver, redisClient, cfg.Redis.TTL, metrics)
	}

	health := observability.NewHealthChecker(db, redisClient)
	authn := middleware.NewAuthenticator(resolver, logger)

	server := api.NewServer(
		evaluator,
		coordinator,
		principalStore,
		featureAdm,
		recorder,
		health,
		metrics,
		logger,
		authn,
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(server.Handler(), "guardrail"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	stopStats := make(chan struct{})
	go metrics.CollectDBStats(db, 15*time.Second, stopStats)

	var reconciler *bootstrap.Reconciler
	if cfg.Bootstrap.ReconcileSchedule != "" {
		reconciler = bootstrap.NewReconciler(coordinator, logger, cfg.Bootstrap.ReconcileSchedule, cfg.Bootstrap.ReconcileTimeout)
		if err := reconciler.Start(); err != nil {
			log.Fatalf("Failed to start orphan reconciler: %v", err)
		}
	}

	sm := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(context.Context) error {
		close(stopStats)
		if reconciler != nil {
			reconciler.Stop()
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(context.Context) error { return recorder.Close() })
	if tp != nil {
		sm.RegisterShutdownFunc(tp.Shutdown)
	}
	if redisClient != nil {
		sm.RegisterShutdownFunc(func(context.Context) error { return redisClient.Close() })
	}
	sm.RegisterShutdownFunc(func(context.Context) error { return db.Close() })

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("guardrail listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	if err := sm.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown finished with errors")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
