package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"account-api/internal/cache"
	"account-api/internal/config"
	apphttp "account-api/internal/http"
	"account-api/internal/metrics"
	"account-api/internal/repository"
	"account-api/internal/repository/postgres"
	"account-api/internal/repository/sqlite"
	"account-api/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, userRepo, err := buildRepository(cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	userService := service.NewUserService(userRepo, logger, cfg.Auth.JWTSecret)

	store := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	limiter := apphttp.NewClientLimiter(
		cfg.RateLimit.Max,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
	)

	m := metrics.New()
	m.RegisterCacheStats(store.Stats)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %ds", cfg.Cache.SweepSeconds), func() {
		if n := store.DeleteExpired(); n > 0 {
			logger.Debugf("cache sweep removed %d expired entries", n)
		}
	}); err != nil {
		logger.Fatalf("schedule cache sweep: %v", err)
	}
	if _, err := scheduler.AddFunc("@every 10m", func() {
		limiter.Prune(time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute)
	}); err != nil {
		logger.Fatalf("schedule limiter prune: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Config{
		JWTSecret:   cfg.Auth.JWTSecret,
		Environment: cfg.Environment,
		CacheTTL:    time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		Logger:      logger,
	}, userService, store, limiter, m)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildRepository(cfg config.Config, logger *logrus.Logger) (*sql.DB, repository.UserRepository, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite database at %s", cfg.Database.Path)
		return db, sqlite.NewUserRepository(db), nil
	case "postgres":
		db, err := postgres.Open(cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using postgres database %s at %s:%d",
			cfg.Database.Name, cfg.Database.Host, cfg.Database.Port)
		return db, postgres.NewUserRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
