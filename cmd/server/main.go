package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"posledger/internal/cache"
	"posledger/internal/config"
	"posledger/internal/httpapi"
	"posledger/internal/logging"
	"posledger/internal/metrics"
	"posledger/internal/service"
	"posledger/internal/store"
	"posledger/internal/store/memory"
	pgstore "posledger/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid logging configuration: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := validateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	location, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				logger.Fatal("schema migration failed", zap.Error(err))
			}
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres", zap.Bool("auto_migrate", cfg.AutoMigrate))
	} else {
		repo = memory.NewSeeded()
		logger.Info("repository: in-memory (seeded)")
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop report cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = redisCache.Close()
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("report cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("report cache: noop")
	}

	m := metrics.New()
	svc := service.New(repo, service.Options{
		ReportCache: reportCache,
		ReportTTL:   cfg.ReportCacheTTL(),
		Location:    location,
		Logger:      logger.Named("service"),
		Metrics:     m,
	})
	api := httpapi.New(svc, httpapi.Options{
		Logger:             logger.Named("http"),
		Metrics:            m,
		AllowedOrigin:      cfg.AllowedOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("sale ledger listening", zap.String("addr", cfg.Address()), zap.String("report_timezone", location.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateConfig(cfg config.Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must be set")
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be >= 0, got %d", cfg.RedisDB)
	}
	if cfg.ReportCacheTTLSeconds < 1 {
		return fmt.Errorf("REPORT_CACHE_TTL_SECONDS must be >= 1, got %d", cfg.ReportCacheTTLSeconds)
	}
	if cfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0, got %d", cfg.RateLimitPerMinute)
	}
	if strings.TrimSpace(cfg.AllowedOrigin) == "*" && cfg.DatabaseURL != "" {
		return errors.New("ALLOWED_ORIGIN=* is only allowed with the in-memory store")
	}
	if cfg.DatabaseURL != "" && !strings.HasPrefix(cfg.DatabaseURL, "postgres://") && !strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		return errors.New("DATABASE_URL must be a postgres:// URL")
	}
	return nil
}
