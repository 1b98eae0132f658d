package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/abacsys/decision-service/pkg/config"
)

// runDoctorCmd checks that configuration resolves and the configured
// store backend is reachable. Opening the stores runs each store's
// idempotent schema Init (CREATE TABLE IF NOT EXISTS), so a missing
// schema is created as a side effect.
func runDoctorCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	fmt.Fprintf(stdout, "port: %s\n", cfg.Port)
	fmt.Fprintf(stdout, "log level: %s\n", cfg.LogLevel)
	fmt.Fprintf(stdout, "evaluation timeout: %s\n", cfg.EvaluationTimeout)
	fmt.Fprintf(stdout, "audit context cap: %d\n", cfg.AuditContextCap)
	fmt.Fprintf(stdout, "cache ttl: %s\n", cfg.CacheTTL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := openStores(ctx, resolveDBURL(""))
	if err != nil {
		fmt.Fprintf(stderr, "store: unreachable: %v\n", err)
		return 1
	}
	defer st.db.Close()

	if st.dev {
		fmt.Fprintln(stdout, "store: ok (dev sqlite)")
	} else {
		fmt.Fprintln(stdout, "store: ok (postgres)")
	}
	return 0
}
