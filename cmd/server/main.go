package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	certhandler "attest/internal/certificate/handler"
	"attest/internal/certificate/ledger"
	certmetrics "attest/internal/certificate/metrics"
	certservice "attest/internal/certificate/service"
	recordstore "attest/internal/certificate/store/record"
	identityhandler "attest/internal/identity/handler"
	identitymetrics "attest/internal/identity/metrics"
	identityservice "attest/internal/identity/service"
	holderstore "attest/internal/identity/store/holder"
	issuerstore "attest/internal/identity/store/issuer"
	sessionstore "attest/internal/identity/store/session"
	"attest/internal/platform/config"
	"attest/internal/platform/database"
	"attest/internal/platform/health"
	"attest/internal/platform/logger"
	"attest/internal/platform/redis"
	request "attest/pkg/platform/middleware/request"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing attest",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"ledger", ledgerMode(cfg),
	)

	pool, err := database.New(database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    database.DefaultConfig().MaxOpenConns,
		MaxIdleConns:    database.DefaultConfig().MaxIdleConns,
		ConnMaxLifetime: database.DefaultConfig().ConnMaxLifetime,
	})
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck // shutdown path

	redisClient, err := redis.NewClient(redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown path
	}

	var (
		issuers  identityservice.IssuerStore
		holders  identityservice.HolderStore
		sessions identityservice.SessionStore
		records  certservice.RecordStore
	)
	if pool != nil {
		issuers = issuerstore.NewPostgres(pool.DB())
		holders = holderstore.NewPostgres(pool.DB())
		sessions = sessionstore.NewPostgres(pool.DB())
		records = recordstore.NewPostgres(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		issuers = issuerstore.NewInMemory()
		holders = holderstore.NewInMemory()
		sessions = sessionstore.NewInMemory()
		records = recordstore.NewInMemory()
	}
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient)
	}

	var gw ledger.Gateway
	if cfg.LedgerURL != "" {
		gw = ledger.NewHTTPClient(cfg.LedgerURL, cfg.LedgerAPIKey, cfg.LedgerSubmitTimeout,
			ledger.WithLogger(log))
	} else {
		log.Warn("LEDGER_URL not set, using in-process ledger")
		gw = ledger.NewInMemory()
	}

	identity := identityservice.New(issuers, holders, sessions,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identitymetrics.New()),
		identityservice.WithSessionTTL(cfg.SessionTTL),
	)
	certs := certservice.New(records, gw, issuers, holders,
		certservice.WithLogger(log),
		certservice.WithMetrics(certmetrics.New()),
		certservice.WithLedgerTimeouts(cfg.LedgerSubmitTimeout, cfg.LedgerQueryTimeout),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		})
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	identityhandler.New(identity, log).Register(r)
	certhandler.New(certs, log).Register(r, identity)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func ledgerMode(cfg config.Server) string {
	if cfg.LedgerURL != "" {
		return "bridge"
	}
	return "in-process"
}
