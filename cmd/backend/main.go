// Package main provides the entry point for the LinkHub service.
//
//	@title			LinkHub API
//	@version		1.0.0
//	@description	Multi-link pages, shielded redirects and visit analytics.
//
//	@contact.name	LinkHub Support
//	@contact.email	support@linkhub.dev
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/auth"
	"LinkHub-Backend/internal/classifier"
	"LinkHub-Backend/internal/config"
	"LinkHub-Backend/internal/database"
	"LinkHub-Backend/internal/geo"
	httpHandler "LinkHub-Backend/internal/handler/http"
	"LinkHub-Backend/internal/repository"
	"LinkHub-Backend/internal/repository/gormstore"
	"LinkHub-Backend/internal/repository/memory"
	"LinkHub-Backend/internal/service"
	"LinkHub-Backend/internal/shield"
	"LinkHub-Backend/pkg/logger"
	"LinkHub-Backend/pkg/useragent"
	"context"
	"errors"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "LinkHub-Backend/docs" // Import swagger docs
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting LinkHub service", zap.String("env", cfg.Env), zap.String("db_driver", cfg.Database.Driver))

	storage, closeStorage := mustOpenStorage(cfg, log)
	defer closeStorage()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		log.Fatal("invalid analytics timezone", zap.Error(err))
	}

	// User-Agent parser: внешний regexes.yaml, иначе встроенные правила
	uaParser := useragent.NewDefaultParser(log)
	if cfg.Shield.RegexesPath != "" {
		p, err := useragent.NewParser(cfg.Shield.RegexesPath, log)
		if err != nil {
			log.Warn("failed to load User-Agent regexes, using defaults", zap.Error(err))
		} else {
			uaParser = p
		}
	}
	visitClassifier := classifier.New(uaParser, cfg.Shield.BotMinElapsed)

	resolver := shield.NewResolver(shield.Config{
		DomainPool:       cfg.Shield.DomainPool,
		RotationStrategy: cfg.Shield.RotationStrategy,
		RotationWindow:   cfg.Shield.RotationWindow,
		AdaptiveVariants: cfg.Shield.AdaptiveVariants,
		AdaptivePolicy:   cfg.Shield.AdaptivePolicy,
		AdaptiveWindow:   cfg.Shield.AdaptiveWindow,
		Location:         loc,
	}, log)

	// Analytics: запись событий в фоне и агрегация по запросу
	var countries analytics.CountryLookup
	if cfg.Geo.Enabled {
		countries = geo.NewService(cfg.Geo.Endpoint, cfg.Geo.Timeout, cfg.Geo.CacheTTL, log)
	}
	processor := analytics.NewProcessor(storage, countries, log, analytics.ProcessorConfig{
		WorkerCount:     cfg.Analytics.Workers,
		BufferSize:      cfg.Analytics.BufferSize,
		RetryAttempts:   cfg.Analytics.RetryAttempts,
		RetryDelay:      cfg.Analytics.RetryDelay,
		ShutdownTimeout: cfg.Analytics.ShutdownTimeout,
	})
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start analytics processor", zap.Error(err))
	}
	defer func() {
		if err := processor.Stop(); err != nil {
			log.Error("failed to stop analytics processor", zap.Error(err))
		}
	}()

	analyticsService, err := analytics.NewService(storage, analytics.NewAggregator(loc, cfg.Analytics.TopN), cfg.Analytics.CacheSize, log)
	if err != nil {
		log.Fatal("failed to create analytics service", zap.Error(err))
	}

	plans := service.NewPlanService(storage, log)
	links := service.NewLinkService(storage, plans, service.NewSlugAllocator(storage, cfg.Links.MaxSlugAttempts), log)
	folders := service.NewFolderService(storage, plans, links, log)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey: []byte(cfg.Auth.JWTSecret),
		Issuer:    cfg.Auth.Issuer,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	authMiddleware := auth.NewMiddleware(jwtService, cfg.HTTPServer.AllowedOrigins, log)

	limiter := httpHandler.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL, log)
	if err := limiter.SetTrustedProxies(cfg.RateLimit.TrustedProxies); err != nil {
		log.Fatal("invalid rate limit configuration", zap.Error(err))
	}
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go limiter.CleanupLoop(stopCleanup)

	httpAPIServer := httpHandler.NewServer(httpHandler.Deps{
		Storage:          storage,
		Links:            links,
		Folders:          folders,
		Plans:            plans,
		Analytics:        analyticsService,
		Processor:        processor,
		Classifier:       visitClassifier,
		Resolver:         resolver,
		Auth:             authMiddleware,
		Limiter:          limiter,
		BaseURL:          cfg.Links.BaseURL,
		DomainPool:       cfg.Shield.DomainPool,
		QRSize:           cfg.Links.QRSize,
		DefaultRangeDays: cfg.Analytics.DefaultRangeDays,
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpAPIServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", server.Addr), zap.String("base_url", cfg.Links.BaseURL))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down LinkHub service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}
}

// mustOpenStorage opens the configured storage backend. The returned func releases it.
func mustOpenStorage(cfg *config.Config, log *zap.Logger) (repository.Storage, func()) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), func() {}
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	closeDB := func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		log.Info("running database migrations (auto_migrate: true)")
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	if cfg.Database.SeedData {
		log.Info("seeding database with initial data (seed_data: true)")
		if err := database.SeedData(db, log); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	} else {
		log.Info("skipping database seeding (seed_data: false)")
	}

	return gormstore.New(db, log), closeDB
}
