package main

import (
	"net/http"
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// newRateLimited wraps next in a per-process token-bucket limiter
// (SPEC_FULL.md §B): an ambient resilience concern in front of the
// optional POST /access/evaluate endpoint, not a core PDE behavior.
// Rate is configurable via RATE_LIMIT_RPS (default 200) with a burst
// equal to the rate.
func newRateLimited(next http.Handler) http.Handler {
	rps := 200.0
	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			rps = v
		}
	}
	limiter := rate.NewLimiter(rate.Limit(rps), int(rps))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
