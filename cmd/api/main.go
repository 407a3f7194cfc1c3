package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"eventcheckin/internal/attendance"
	"eventcheckin/internal/config"
	"eventcheckin/internal/httpapi"
	"eventcheckin/internal/httpmiddleware"
	"eventcheckin/internal/logger"
	"eventcheckin/internal/qr"
	"eventcheckin/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync()

	if err := runHTTP(cfg, lg); err != nil {
		lg.Fatal("http server failed", "error", err)
	}
}

func runHTTP(cfg config.App, lg *logger.Logger) error {
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	var limiter httpmiddleware.Limiter
	var redisHealth httpapi.HealthChecker
	if redisClient != nil {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
		redisHealth = redisClient
		lg.Info("redis configured", "addr", cfg.RedisAddr)
	} else {
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
		lg.Info("redis not configured (REDIS_ADDR not set), using in-process rate limiter")
	}

	repo := attendance.NewRepository(db)
	activities := attendance.NewActivityService(repo, qr.Encoder{}, cfg.SignInURL, lg)
	checkins := attendance.NewService(repo)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.RequestLogger(lg, "/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.RateLimit(limiter, lg))

	httpapi.New(activities, checkins, lg, db, redisHealth).Register(r)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", "addr", srv.Addr, "driver", db.Driver, "public_base_url", cfg.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		lg.Info("shutting down server", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server forced shutdown", "error", err)
	}

	lg.Info("server exited")
	return nil
}
