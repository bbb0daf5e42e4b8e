package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
	"github.com/aryan0dhankhar/gymdesk/internal/handler"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/backend"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/memory"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/postgres"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/gymdesk/internal/infrastructure/supabase"
	"github.com/aryan0dhankhar/gymdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/gymdesk/internal/reliability/retry"
	"github.com/aryan0dhankhar/gymdesk/internal/repository"
	"github.com/aryan0dhankhar/gymdesk/internal/security"
	"github.com/aryan0dhankhar/gymdesk/internal/security/audit"
	"github.com/aryan0dhankhar/gymdesk/internal/security/auth"
	"github.com/aryan0dhankhar/gymdesk/internal/security/middleware"
	"github.com/aryan0dhankhar/gymdesk/internal/security/ratelimit"
	"github.com/aryan0dhankhar/gymdesk/internal/service"
	"github.com/aryan0dhankhar/gymdesk/internal/validation"
	"github.com/aryan0dhankhar/gymdesk/internal/worker"
	"github.com/aryan0dhankhar/gymdesk/pkg/cache"
	"github.com/aryan0dhankhar/gymdesk/pkg/config"
)

const maxBodyBytes = 1 << 20

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	format := "json"
	if !cfg.IsProduction() {
		format = "text"
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: format})
	log.Info("starting gymdesk server",
		slog.String("environment", cfg.Environment),
		slog.String("backend", cfg.BackendDriver),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, tracing.Options{
		ServiceName: "gymdesk",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// 4. Backends: the public one runs reads under the caller's session, the
	// privileged one serves authorized writes and the sweeper only.
	public, admin, closeBackends, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackends()

	// 5. View cache
	viewCache, checks, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()
	checks = append([]handler.Check{
		{Name: "backend", Pinger: public},
		{Name: "admin_backend", Pinger: admin, Optional: true},
	}, checks...)

	// 6. Repositories
	profiles := repository.NewProfileRepository(public, log)
	gyms := repository.NewGymRepository(public, log)
	redemptions := repository.NewRedemptionRepository(public, log)

	adminProfiles := repository.NewProfileRepository(admin, log)
	adminGyms := repository.NewGymRepository(admin, log)
	adminStaff := repository.NewStaffRepository(admin, log)
	adminRewards := repository.NewRewardRepository(admin, log)
	adminRedemptions := repository.NewRedemptionRepository(admin, log)

	// 7. Security
	tokenManager := auth.NewTokenManager(cfg.SupabaseJWTSecret, "", "")
	events := auth.NewEvents(log)
	auditLog := audit.NewLogger(log)
	resolver := security.NewProfileResolver(profiles, viewCache, cfg.ViewCacheTTL, log)
	unwatch := resolver.Watch(events)
	defer unwatch()
	lookup := security.NewOwnershipLookup(gyms, redemptions, log)
	gate := security.NewGate(resolver, lookup, auditLog, log)
	rateLimiter := ratelimit.NewLimiter(cfg.MutationRatePerMinute, cfg.MutationRateBurst)
	defer rateLimiter.Stop()

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("load input schemas: %w", err)
	}

	// 8. Services
	deps := service.Deps{
		Authorizer: security.NewMutationAuthorizer(resolver, lookup, auditLog, log),
		Ownership:  lookup,
		Validator:  validator,
		Cache:      viewCache,
		Audit:      auditLog,
		Events:     events,
		Logger:     log,
	}
	views := service.NewViewService(service.ViewRepositories{
		Gyms:        gyms,
		Branding:    repository.NewBrandingRepository(public, log),
		Staff:       repository.NewStaffRepository(public, log),
		Rewards:     repository.NewRewardRepository(public, log),
		Redemptions: redemptions,
		Analytics:   repository.NewAnalyticsRepository(public, log),
	}, viewCache, cfg.ViewCacheTTL, log)

	// 9. Handlers
	mux := http.NewServeMux()
	handler.Register(mux,
		middleware.NewGatekeeper(gate, cfg.LoginPath, log),
		handler.NewPageHandler(views, log),
		handler.NewMutationHandler(
			service.NewBrandingService(deps, repository.NewBrandingRepository(admin, log)),
			service.NewLeaderboardService(deps, adminGyms, adminRewards),
			service.NewStaffService(deps, adminStaff, adminProfiles, cfg.InvitationTTL),
			service.NewRedemptionService(deps, adminRedemptions),
			log,
		),
		handler.NewHealthHandler(checks, log),
	)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Middleware runs in the listed order
	root := middleware.Chain(mux,
		middleware.Recover(log),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizeInputs(log),
		middleware.LimitBody(maxBodyBytes),
		middleware.ValidateJSONContentType(log),
		middleware.Session(tokenManager, log),
		middleware.RateLimit(rateLimiter, log),
	)

	// 10. Invitation expiry sweep
	sweeper, err := worker.NewInvitationSweeper(adminStaff, cfg.InvitationSweepSchedule, log)
	if err != nil {
		return err
	}
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 11. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(root, "gymdesk"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("mutation_rate_per_minute", cfg.MutationRatePerMinute),
		slog.Bool("shared_cache", cfg.RedisURL != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
	return nil
}

// openBackends builds the public and privileged backends for the configured
// driver. The privileged backend is lazy: a missing credential degrades writes
// to backend_unavailable instead of failing startup.
func openBackends(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Backend, domain.Backend, func(), error) {
	noop := func() {}

	switch cfg.BackendDriver {
	case config.DriverSupabase:
		sbCfg := supabase.Config{
			URL:                cfg.SupabaseURL,
			Key:                cfg.SupabaseAnonKey,
			ForwardSession:     true,
			BreakerMaxFailures: cfg.BreakerMaxFailures,
			BreakerTimeout:     cfg.BreakerTimeout,
		}
		client, err := supabase.NewClient("public", sbCfg, log)
		if err != nil {
			return nil, nil, noop, err
		}
		if _, err := retry.Do(ctx, nil, log, "supabase ping", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, client.Ping(ctx)
		}); err != nil {
			return nil, nil, noop, fmt.Errorf("connect to supabase: %w", err)
		}

		adminCfg := sbCfg
		adminCfg.Key = cfg.SupabaseServiceRoleKey
		admin := backend.NewLazy(func() (domain.Backend, error) {
			c, err := supabase.NewAdminClient(adminCfg, log)
			if err != nil {
				return nil, err
			}
			return c, nil
		})
		if cfg.SupabaseServiceRoleKey == "" {
			log.Warn("SUPABASE_SERVICE_ROLE_KEY not set: writes will report backend_unavailable")
		}
		return backend.Instrument(cfg.BackendDriver, client), backend.Instrument(cfg.BackendDriver+"_admin", admin), noop, nil

	case config.DriverPostgres:
		store, err := retry.Do(ctx, nil, log, "postgres connect", func(ctx context.Context) (*postgres.Store, error) {
			return postgres.Open(ctx, postgres.Config{DSN: cfg.DatabaseURL}, log)
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connect to postgres: %w", err)
		}

		admin := backend.NewLazy(func() (domain.Backend, error) {
			if cfg.ServiceDatabaseURL == "" {
				return nil, errors.New("SERVICE_DATABASE_URL not set")
			}
			openCtx, openCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer openCancel()
			s, err := postgres.Open(openCtx, postgres.Config{DSN: cfg.ServiceDatabaseURL}, log)
			if err != nil {
				return nil, err
			}
			return s, nil
		})
		closeAll := func() {
			store.Close()
			admin.Close()
		}
		return backend.Instrument(cfg.BackendDriver, store), backend.Instrument(cfg.BackendDriver+"_admin", admin), closeAll, nil

	case config.DriverMemory:
		log.Warn("using the in-memory backend: data is lost on restart")
		store := memory.New()
		return backend.Instrument(cfg.BackendDriver, store), backend.Instrument(cfg.BackendDriver+"_admin", store), noop, nil
	}
	return nil, nil, noop, fmt.Errorf("unknown backend driver %q", cfg.BackendDriver)
}

// openCache connects the shared Redis cache when configured and falls back to
// the in-process cache otherwise
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, []handler.Check, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set: using the in-process view cache")
		return cache.NewMemory(4096, cfg.ViewCacheTTL), nil, func() {}, nil
	}
	client, err := retry.Do(ctx, nil, log, "redis connect", func(ctx context.Context) (*redis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, log)
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}
	return client, []handler.Check{{Name: "cache", Pinger: client}}, closeFn, nil
}
