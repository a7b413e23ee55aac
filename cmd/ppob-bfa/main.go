package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/config"
	"github.com/boddenberg/ppob-bfa-go/internal/flow"
	"github.com/boddenberg/ppob-bfa-go/internal/handler"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/client"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/credential"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/ppob-bfa-go/internal/port"
	"github.com/boddenberg/ppob-bfa-go/internal/service"

	"go.uber.org/zap"
)

// credentialTTL bounds how long an idle persisted token survives.
const credentialTTL = 24 * time.Hour

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("ppob_api_url", cfg.PPOBAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("redis_credentials", cfg.RedisAddr != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "ppob-bfa")
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
	cb := resilience.NewCircuitBreaker("ppob-api", client.IsBreakerSuccess)
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)
	checks := []handler.HealthCheck{handler.BreakerCheck("ppob-api", cb)}

	// --- Credentials ---
	newCreds := func(string) port.CredentialStore { return credential.NewMemory() }
	if cfg.RedisAddr != "" {
		rdb, err := credential.NewRedisClient(context.Background(), credential.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Timeout:  cfg.RedisTimeout,
		})
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()

		newCreds = func(sessionID string) port.CredentialStore {
			return credential.NewRedis(rdb, sessionID, credentialTTL)
		}
		checks = append(checks, handler.RedisCheck(rdb))
		logger.Info("session tokens persisted in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, session tokens are lost on restart")
	}

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	newAPI := func(creds port.CredentialStore) service.SessionAPI {
		return client.NewPPOBClient(httpClient, cfg.PPOBAPIURL, creds, cb, resilienceCfg, bulkhead, metrics, logger)
	}

	// --- Sessions ---
	sessions := service.NewSessions(newCreds, newAPI, cfg.SessionTTL, service.ContainerOptions{
		Limits:               flow.Limits{MinTopUp: cfg.MinTopUp, MaxTopUp: cfg.MaxTopUp},
		HistoryPageSize:      cfg.HistoryPageSize,
		MaxProfileImageBytes: cfg.MaxProfileImageBytes,
	}, metrics, logger)
	defer sessions.Close()

	// --- Router ---
	router := handler.NewRouter(sessions, checks, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// confirm waits for the upstream submission; /v1/events streams
		WriteTimeout: 0,
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
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
