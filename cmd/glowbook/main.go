package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glowbook/glowbook/internal/appointment"
	"github.com/glowbook/glowbook/internal/audit"
	"github.com/glowbook/glowbook/internal/auth"
	"github.com/glowbook/glowbook/internal/platform/cache"
	"github.com/glowbook/glowbook/internal/platform/config"
	"github.com/glowbook/glowbook/internal/platform/database"
	"github.com/glowbook/glowbook/internal/platform/metrics"
	"github.com/glowbook/glowbook/internal/platform/server"
	"github.com/glowbook/glowbook/internal/platform/telemetry"
	"github.com/glowbook/glowbook/internal/rbac"
	"github.com/glowbook/glowbook/internal/review"
	"github.com/glowbook/glowbook/internal/role"
	"github.com/glowbook/glowbook/internal/salon"
	"github.com/glowbook/glowbook/internal/scope"
	"github.com/glowbook/glowbook/internal/tenant"
	"github.com/glowbook/glowbook/internal/user"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// devUserID is the principal behind "Bearer dev". It parses as a UUID so
// audit events attribute dev-mode actions.
const devUserID = "00000000-0000-4000-8000-000000000001"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	slog.Info("glowbook starting", "port", cfg.Server.Port, "production", cfg.Server.Production)

	// Role hierarchy and route table are fixed for the life of the process;
	// a bad requirement stops startup instead of denying at request time.
	hierarchy := role.Default()
	routes, err := rbac.NewRouteTable(hierarchy, rbac.DefaultRoutes())
	if err != nil {
		return fmt.Errorf("building route table: %w", err)
	}
	logger.Debug("route table loaded", "operations", routes.Operations())
	guard := rbac.NewGuard(hierarchy, rbac.WithLogger(logger))
	resolver := scope.NewResolver(hierarchy)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, redisClient, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	// Audit
	auditStore := audit.NewStore()
	auditLogger := audit.NewAsyncLogger(pool, auditStore, audit.LoggerConfig{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	}, audit.WithDropCounter(m.AuditDropped()))
	defer auditLogger.Close()

	// Auth
	signingKey := cfg.Auth.JWT.SigningKey
	if signingKey == "" {
		signingKey, err = randomKey()
		if err != nil {
			return err
		}
		slog.Warn("no signing key configured, tokens will not survive a restart")
	}
	tokenSvc := auth.NewTokenService(signingKey, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.ExpiryHours, cfg.Auth.JWT.RefreshExpiryHours)
	authHandler := auth.NewHandler(auth.HandlerConfig{
		TokenSvc: tokenSvc,
		Store:    auth.NewStore(pool),
	})

	var devPrincipal *auth.Principal
	if cfg.Auth.DevMode {
		slog.Warn("running in dev mode, authentication bypassed with 'Bearer dev'")
		devPrincipal = &auth.Principal{
			UserID:    devUserID,
			Roles:     []role.Role{role.Admin},
			TokenType: "access",
		}
	}

	// Resources. The salon cache backs both salon reads and the booking
	// path; with no Redis it passes straight through to Postgres.
	salons := salon.NewCachedRepository(
		salon.NewStore(pool),
		cache.NewJSON(redisClient, "salon", cfg.Redis.SalonTTL, m),
	)
	users := user.NewStore(pool)
	appointments := appointment.NewStore(pool)

	srv := server.New(cfg.Server.Addr(), server.Dependencies{
		DB:                 pool,
		Auth:               tokenSvc,
		AuthHandler:        authHandler,
		Guard:              guard,
		Routes:             routes,
		TenantHandler:      tenant.NewHandler(tenant.NewStore(pool), auditLogger),
		SalonHandler:       salon.NewHandler(salon.NewService(salons, resolver, auditLogger)),
		UserHandler:        user.NewHandler(user.NewService(users, hierarchy, auditLogger)),
		AppointmentHandler: appointment.NewHandler(appointment.NewService(appointments, salons, users, hierarchy, auditLogger)),
		ReviewHandler:      review.NewHandler(review.NewService(review.NewStore(pool), appointments, resolver, auditLogger)),
		AuditHandler:       audit.NewHandler(pool, auditStore, resolver),
		RBACAuditLogger:    auditLogger,
		Metrics:            m,
		DevMode:            cfg.Auth.DevMode,
		DevPrincipal:       devPrincipal,
		Logger:             logger,
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimit: server.RateLimit{
			Requests:     cfg.Server.RateLimit.Requests,
			AuthRequests: cfg.Server.RateLimit.AuthRequests,
			Window:       cfg.Server.RateLimit.Window,
		},
		Production: cfg.Server.Production,
		TrustProxy: cfg.Server.TrustProxy,
	})

	slog.Info("server ready", "addr", cfg.Server.Addr(), "dev_mode", cfg.Auth.DevMode, "cache", redisClient != nil)
	return srv.Start(ctx)
}

// connect opens Postgres and Redis concurrently. Postgres is required and
// migrated before use; Redis is optional and a failure only disables the
// cache.
func connect(ctx context.Context, cfg *config.Config) (*database.Pool, *redis.Client, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("database.url is required")
	}

	var (
		pool        *database.Pool
		redisClient *redis.Client
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		connectCtx, cancel := context.WithTimeout(gctx, 30*time.Second)
		defer cancel()

		slog.Info("connecting to database")
		p, err := database.Connect(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		migrationsURL := fmt.Sprintf("file://%s", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, migrationsURL); err != nil {
			p.Close()
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("migrations complete")
		pool = p
		return nil
	})
	g.Go(func() error {
		if cfg.Redis.Addr == "" {
			slog.Info("redis not configured, salon cache disabled")
			return nil
		}
		c, err := cache.New(gctx, cfg.Redis.Addr)
		if err != nil {
			slog.Warn("redis unavailable, salon cache disabled", "addr", cfg.Redis.Addr, "error", err)
			return nil
		}
		redisClient = c
		return nil
	})

	if err := g.Wait(); err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, nil, err
	}
	return pool, redisClient, nil
}

func randomKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
