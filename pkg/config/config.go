package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration.
type Config struct {
	Port        string
	LogLevel    string
	DatabaseURL string

	// EvaluationTimeout bounds a single checkAccess call end to end
	// (spec.md §5): attribute resolution, policy evaluation, and the
	// audit write all race this deadline.
	EvaluationTimeout time.Duration

	// AuditContextCap is the maximum number of evaluated-policy entries
	// recorded in an access log's context before it is marked truncated
	// (spec.md §4.8).
	AuditContextCap int

	// CacheTTL bounds how long a resolved attribute set may be served
	// from cache before a fresh store read is required (spec.md §4.3).
	CacheTTL time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://abac@localhost:5432/abac?sslmode=disable"
	}

	evalTimeout := 500 * time.Millisecond
	if raw := os.Getenv("EVALUATION_TIMEOUT_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			evalTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	auditCap := 64
	if raw := os.Getenv("AUDIT_CONTEXT_CAP"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			auditCap = n
		}
	}

	cacheTTL := 60 * time.Second
	if raw := os.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		if s, err := strconv.Atoi(raw); err == nil && s > 0 {
			cacheTTL = time.Duration(s) * time.Second
		}
	}

	return &Config{
		Port:              port,
		LogLevel:          logLevel,
		DatabaseURL:       dbURL,
		EvaluationTimeout: evalTimeout,
		AuditContextCap:   auditCap,
		CacheTTL:          cacheTTL,
	}
}
