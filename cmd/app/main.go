// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-code-service/internal/config"
	"clinic-code-service/internal/domain/ports/adapter"
	pg "clinic-code-service/internal/infra/db/postgres"
	"clinic-code-service/internal/infra/i18n"
	"clinic-code-service/internal/infra/logging"
	"clinic-code-service/internal/infra/metrics"
	"clinic-code-service/internal/infra/ratelimit"
	red "clinic-code-service/internal/infra/redis"
	"clinic-code-service/internal/infra/web"
	"clinic-code-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no secure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Rate limiter (redis when configured, in-memory otherwise) ----
	var limiter adapter.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.RateLimit.Window, cfg.RateLimit.MaxAttempts)
		logger.Info().Msg("using redis rate limiter")
	} else {
		mem := ratelimit.NewMemoryLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxAttempts)
		go mem.Run(ctx, cfg.RateLimit.Window)
		limiter = mem
		logger.Warn().Msg("redis.url not set; using process-local rate limiter")
	}

	// ---- Repositories ----
	codeRepo := pg.NewHospitalCodeRepo(pool)
	usageRepo := pg.NewCodeUsageRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Translations ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("translation catalog load failed")
	}

	// ---- Use cases ----
	verifyUC := usecase.NewVerificationUseCase(codeRepo, limiter, translator, logger)
	lifecycleUC := usecase.NewLifecycleUseCase(codeRepo, usageRepo, txManager, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, "", cfg.Auth.SessionTTL)
	srv := web.NewServer(verifyUC, lifecycleUC, auth, translator, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
