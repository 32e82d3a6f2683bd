package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emprestai/emprestai-go/internal/config"
	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/handler"
	"github.com/emprestai/emprestai-go/internal/infra/cache"
	"github.com/emprestai/emprestai-go/internal/infra/client"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/infra/postgres"
	"github.com/emprestai/emprestai-go/internal/infra/resilience"
	"github.com/emprestai/emprestai-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Int("db_max_conns", cfg.DBMaxConns),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	ctx := context.Background()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "emprestai-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Storage ---
	// The database may still be starting; retry the initial connect.
	var store *postgres.Store
	err = resilience.RetryWithBackoff(ctx, resilienceCfg, func() error {
		var connErr error
		store, connErr = postgres.New(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns), logger)
		return connErr
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if err := bootstrapSuperAdmin(ctx, store, cfg, logger); err != nil {
		logger.Fatal("failed to bootstrap super admin", zap.Error(err))
	}

	// --- External clients ---
	cb := resilience.NewCircuitBreaker("viacep")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cepClient := client.NewCepClient(httpClient, cfg.ViaCepURL, cb, resilienceCfg)
	cepCache := cache.New[*domain.CepResult](cfg.CacheTTL)

	// --- Services ---
	authSvc := service.NewAuthService(store, store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	svcs := handler.Services{
		Auth:      authSvc,
		Clients:   service.NewClientService(store, logger),
		Loans:     service.NewLoanService(store, metrics, logger),
		Accounts:  service.NewAccountService(store, logger),
		Users:     service.NewUserService(store, logger),
		Tenants:   service.NewTenantService(store, store, logger),
		Dashboard: service.NewDashboardService(store, logger),
		Lookup:    service.NewLookupService(cepClient, cepCache, metrics, logger),
		Metrics:   metrics,
		DB:        store,
	}

	// --- Router ---
	origins := strings.Split(cfg.AllowedOrigins, ",")
	router := handler.NewRouter(svcs, origins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// bootstrapSuperAdmin creates the tenant-less platform operator account on
// first start. A no-op when credentials are unset or the user already exists.
func bootstrapSuperAdmin(ctx context.Context, store *postgres.Store, cfg *config.Config, logger *zap.Logger) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		return nil
	}

	existing, err := store.GetUserByEmail(ctx, cfg.SuperAdminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdminPassword), 12)
	if err != nil {
		return err
	}

	_, err = store.CreateUser(ctx, &domain.User{
		FirstName:    "Super",
		LastName:     "Admin",
		Email:        cfg.SuperAdminEmail,
		Role:         domain.RoleSuperAdmin,
		PasswordHash: string(hash),
	}, nil)
	if err != nil {
		return err
	}

	logger.Info("super admin bootstrapped", zap.String("email", cfg.SuperAdminEmail))
	return nil
}
