package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abacsys/decision-service/pkg/cache"
	"github.com/abacsys/decision-service/pkg/config"
	"github.com/abacsys/decision-service/pkg/observability"
	"github.com/abacsys/decision-service/pkg/pdp"
)

func runServeCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	profile := fs.String("profile", "default", "evaluation profile name (profiles/profile_<name>.yaml)")
	profilesDir := fs.String("profiles-dir", "pkg/config/profiles", "directory containing profile_*.yaml files")
	if args != nil {
		if err := fs.Parse(args); err != nil {
			return 2
		}
	}

	logger := slog.Default().With("component", "abacd")
	cfg := config.Load()

	evalProfile, err := config.LoadProfile(*profilesDir, *profile)
	if err != nil {
		logger.Warn("evaluation profile unavailable, using Config env defaults", "profile", *profile, "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, resolveDBURL(""))
	if err != nil {
		fmt.Fprintf(stderr, "abacd: store setup failed: %v\n", err)
		return 1
	}
	defer st.db.Close()

	if st.dev {
		logger.Info("no DATABASE_URL set, running against in-process SQLite", "file", "abacd.db")
	}

	cacheTTL := cfg.CacheTTL
	if evalProfile != nil {
		cacheTTL = evalProfile.CacheTTL()
	}

	attrStore := st.attributes
	polStore := st.policies
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		polStore = cache.NewCachedPolicyStore(polStore, cache.NewRedisCache(rdb, "abac:policy:"), cacheTTL)
		attrStore = cache.NewCachedAttributeStore(attrStore, cache.NewRedisCache(rdb, "abac:attr:"), cacheTTL)
		logger.Info("policy/attribute reads cached via redis", "addr", redisAddr, "ttl", cacheTTL)
	} else {
		mem := cache.NewMemoryCache()
		polStore = cache.NewCachedPolicyStore(polStore, mem, cacheTTL)
		attrStore = cache.NewCachedAttributeStore(attrStore, mem, cacheTTL)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.Enabled = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
	if obsCfg.Enabled {
		obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	provider, err := observability.New(ctx, obsCfg)
	if err != nil {
		fmt.Fprintf(stderr, "abacd: observability init failed: %v\n", err)
		return 1
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	evalTimeout := cfg.EvaluationTimeout
	auditCap := cfg.AuditContextCap
	if evalProfile != nil {
		evalTimeout = evalProfile.EvaluationTimeout()
		auditCap = evalProfile.AuditContextCap
	}

	facade := &pdp.Facade{
		Policies:          polStore,
		Attributes:        attrStore,
		Resources:         st.resources,
		Audit:             st.audit,
		Observability:     provider,
		EvaluationTimeout: evalTimeout,
		AuditContextCap:   auditCap,
	}

	mux := http.NewServeMux()
	mux.Handle("/access/evaluate", newRateLimited(newEvaluateHandler(facade)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("abacd listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	return 0
}
