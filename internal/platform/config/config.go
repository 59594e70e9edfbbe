package config

import (
	"os"
	"time"
)

// Server captures process level configuration for the certificate service.
type Server struct {
	Addr        string
	Environment string

	// DatabaseURL selects the PostgreSQL stores when set; in-memory otherwise.
	DatabaseURL string

	// RedisAddr selects the Redis session store when set.
	RedisAddr     string
	RedisPassword string

	// LedgerURL points at the ledger bridge; empty selects the in-process
	// development ledger.
	LedgerURL    string
	LedgerAPIKey string

	SessionTTL          time.Duration
	LedgerSubmitTimeout time.Duration
	LedgerQueryTimeout  time.Duration
}

const (
	defaultSessionTTL = 24 * time.Hour
	// Issuance waits longer than verification: a submit blocks the caller,
	// while a verification-time query only degrades the verdict.
	defaultSubmitTimeout = 30 * time.Second
	defaultQueryTimeout  = 5 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                envOr("ATTEST_ADDR", ":8080"),
		Environment:         envOr("ATTEST_ENV", "development"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		LedgerURL:           os.Getenv("LEDGER_URL"),
		LedgerAPIKey:        os.Getenv("LEDGER_API_KEY"),
		SessionTTL:          durationOr("SESSION_TTL", defaultSessionTTL),
		LedgerSubmitTimeout: durationOr("LEDGER_SUBMIT_TIMEOUT", defaultSubmitTimeout),
		LedgerQueryTimeout:  durationOr("LEDGER_QUERY_TIMEOUT", defaultQueryTimeout),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
