package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/andes-erp/andes-erp/internal/app"
	"github.com/andes-erp/andes-erp/internal/asistente"
	"github.com/andes-erp/andes-erp/internal/auth"
	"github.com/andes-erp/andes-erp/internal/observability"
	"github.com/andes-erp/andes-erp/internal/platform/cache"
	"github.com/andes-erp/andes-erp/internal/platform/db"
	"github.com/andes-erp/andes-erp/internal/productos"
	"github.com/andes-erp/andes-erp/internal/quota"
	"github.com/andes-erp/andes-erp/internal/rbac"
	"github.com/andes-erp/andes-erp/internal/shared"
	"github.com/andes-erp/andes-erp/internal/users"
	"github.com/andes-erp/andes-erp/internal/ventas"
	"github.com/andes-erp/andes-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "andes_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	registry := shared.NewPermissionRegistry()

	rbacService := rbac.NewService(dbpool)
	provider := rbac.NewProvider(rbacService, cfg.BypassRole)
	if err := rbacService.Seed(ctx, cfg.BypassRole, registry.All()); err != nil {
		logger.Error("seed permissions", slog.Any("error", err))
		os.Exit(1)
	}
	if err := provider.Reload(ctx); err != nil {
		logger.Error("load policy engine", slog.Any("error", err))
		os.Exit(1)
	}

	quotaRepo := quota.NewRepository(dbpool)
	quotaRecorder := quota.NewRecorder(dbpool)
	quotaGate := quota.NewGate()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)
	builder := auth.NewPrincipalBuilder(authRepo, rbacService, quotaRepo)
	authMiddleware := auth.Middleware{
		Provider: provider,
		Builder:  builder,
		Logger:   logger,
		Metrics:  metrics,
	}
	guard := rbac.PermissionGuard(authMiddleware.RequirePermission)

	rolesHandler := rbac.NewHandler(logger, rbacService, provider, guard)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, registry, guard)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)), provider, guard, metrics)
	productosHandler := productos.NewHandler(logger, productos.NewService(productos.NewRepository(dbpool)), provider, guard, metrics)
	ventasHandler := ventas.NewHandler(logger,
		ventas.NewService(ventas.NewRepository(dbpool), idempotencyStore, auditLogger),
		provider, guard, metrics)
	asistenteHandler := asistente.NewHandler(logger,
		asistente.NewService(asistente.EchoResponder{}, quotaRecorder, auditLogger, cfg.AssistantCostDecimal()),
		quotaGate, guard, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		ProductosHandler:   productosHandler,
		VentasHandler:      ventasHandler,
		AsistenteHandler:   asistenteHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
