package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentwise/api/internal/audit"
	"github.com/rentwise/api/internal/config"
	"github.com/rentwise/api/internal/database"
	"github.com/rentwise/api/internal/handler"
	"github.com/rentwise/api/internal/jobs"
	"github.com/rentwise/api/internal/middleware"
	"github.com/rentwise/api/internal/objectstore"
	"github.com/rentwise/api/internal/registry"
	"github.com/rentwise/api/internal/repository"
	"github.com/rentwise/api/internal/service"
	"github.com/rentwise/api/pkg/jwt"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize JWT verification; the private key is only needed by tooling
	jwtService, err := jwt.NewService(jwt.Config{
		PublicKeyPath: cfg.JWT.PublicKeyPath,
		Issuer:        cfg.JWT.Issuer,
		Algorithm:     cfg.JWT.Algorithm,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	genericRepo := repository.NewGenericRepository(db)
	listingRepo := repository.NewListingRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	communityRepo := repository.NewCommunityRepository(db)

	// Audit log: Postgres when configured, otherwise the main database
	var auditSink audit.Sink = audit.NewSurrealSink(db)
	if cfg.Audit.DatabaseURL != "" {
		pgSink, err := audit.NewPostgresSink(ctx, cfg.Audit.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect audit database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pgSink.Close()
		auditSink = pgSink
		slog.Info("audit events routed to postgres")
	}
	auditWriter := jobs.NewAuditWriter(auditSink, cfg.Audit.QueueSize)
	auditWriter.Start()

	// Optional image object store
	var imageStore service.ImageStore
	if cfg.MediaEnabled() {
		store, err := objectstore.Connect(ctx, cfg.Media.MongoURI, cfg.Media.MongoDatabase)
		if err != nil {
			slog.Error("failed to connect image store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(closeCtx)
		}()
		imageStore = store
		slog.Info("image store enabled", slog.String("database", cfg.Media.MongoDatabase))
	} else {
		slog.Warn("MONGO_URI not set, image upload disabled")
	}

	// Initialize services
	cityCache := service.NewCityStateCache(communityRepo)

	genericService := service.NewGenericService(service.GenericServiceConfig{
		Registry:      registry.New(),
		Repo:          genericRepo,
		Subscriptions: accountRepo,
		Audit:         auditWriter,
	})

	listingService := service.NewListingService(service.ListingServiceConfig{
		Repo:  listingRepo,
		Audit: auditWriter,
	})

	communityService := service.NewCommunityService(service.CommunityServiceConfig{
		Repo:   communityRepo,
		Cities: cityCache,
	})

	accountService := service.NewAccountService(service.AccountServiceConfig{
		Repo:         accountRepo,
		BuildVersion: cfg.Server.BuildVersion,
	})

	mediaService := service.NewMediaService(service.MediaServiceConfig{
		Store:         imageStore,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		MaxBytes:      cfg.Media.MaxUploadBytes,
		Audit:         auditWriter,
	})

	// Background jobs
	var cityRefresher *jobs.CityCacheRefresher
	if cfg.Community.CacheRefreshInterval > 0 {
		cityRefresher = jobs.NewCityCacheRefresher(cityCache, cfg.Community.CacheRefreshInterval)
		cityRefresher.Start()
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Window:    cfg.RateLimit.Window,
		Public:    middleware.RateLimitPolicy(cfg.RateLimit.Public),
		Authed:    middleware.RateLimitPolicy(cfg.RateLimit.Authed),
		Community: middleware.RateLimitPolicy(cfg.RateLimit.Community),
	})
	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		slog.Error("invalid trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Community.TokenHash == "" {
		slog.Warn("COMMUNITY_TOKEN_HASH not set, community endpoints will reject every request")
	}

	// Create router
	mux := http.NewServeMux()
	routes := &handler.Routes{
		Health:       handler.NewHealthHandler(db, cfg.Server.BuildVersion).WithAudit(auditWriter),
		Generic:      handler.NewGenericHandler(genericService),
		Listing:      handler.NewListingHandler(listingService),
		Community:    handler.NewCommunityHandler(communityService),
		Account:      handler.NewAccountHandler(accountService),
		Media:        handler.NewMediaHandler(mediaService),
		Auth:         middleware.Auth(jwtService),
		OptionalAuth: middleware.OptionalAuth(jwtService),
		SharedSecret: middleware.SharedSecret(cfg.Community.TokenHash),
		RateLimiter:  rateLimiter,
	}
	routes.Register(mux)

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.ClientIP(trustedProxies),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("version", cfg.Server.BuildVersion),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	rateLimiter.Stop()
	if cityRefresher != nil {
		cityRefresher.Stop()
	}
	auditWriter.Stop(shutdownCtx)

	slog.Info("server exited")
}
