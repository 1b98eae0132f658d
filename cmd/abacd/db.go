package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/abacsys/decision-service/pkg/attribute"
	"github.com/abacsys/decision-service/pkg/audit"
	"github.com/abacsys/decision-service/pkg/policy"
	"github.com/abacsys/decision-service/pkg/resource"
)

// resolveDBURL prefers an explicit override (a --database-url flag) and
// otherwise looks at the raw DATABASE_URL environment variable
// directly rather than config.Config's defaulted field, so an operator
// who leaves DATABASE_URL unset gets the dev SQLite fallback instead of
// config.Load's hardcoded local-Postgres default.
func resolveDBURL(override string) string {
	if override != "" {
		return override
	}
	return os.Getenv("DATABASE_URL")
}

// stores bundles the four storage backends the facade and the
// operational subcommands both need, so every command shares one
// connection-and-wiring path instead of repeating it.
type stores struct {
	db         *sql.DB
	dev        bool
	attributes attribute.Store
	policies   policy.Store
	resources  resource.Store
	audit      interface {
		audit.Writer
		audit.Reader
	}
}

// openStores connects to dbURL. An empty dbURL falls back to an
// in-process SQLite database (dev mode) instead of failing, mirroring
// the teacher's "Lite Mode" fallback for environments with no
// DATABASE_URL configured.
func openStores(ctx context.Context, dbURL string) (*stores, error) {
	if dbURL == "" {
		db, err := sql.Open("sqlite", "file:abacd.db?cache=shared&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite dev db: %w", err)
		}
		return newSQLiteStores(ctx, db)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newPostgresStores(ctx, db)
}

func newPostgresStores(ctx context.Context, db *sql.DB) (*stores, error) {
	attrStore := attribute.NewPostgresStore(db)
	polStore := policy.NewPostgresStore(db)
	resStore := resource.NewPostgresStore(db)
	auditStore := audit.NewPostgresStore(db)

	for _, init := range []func(context.Context) error{attrStore.Init, polStore.Init, resStore.Init, auditStore.Init} {
		if err := init(ctx); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &stores{db: db, attributes: attrStore, policies: polStore, resources: resStore, audit: auditStore}, nil
}

func newSQLiteStores(ctx context.Context, db *sql.DB) (*stores, error) {
	attrStore := attribute.NewSQLiteStore(db)
	polStore := policy.NewSQLiteStore(db)
	resStore := resource.NewSQLiteStore(db)
	auditStore := audit.NewSQLiteStore(db)

	for _, init := range []func(context.Context) error{attrStore.Init, polStore.Init, resStore.Init, auditStore.Init} {
		if err := init(ctx); err != nil {
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return &stores{db: db, dev: true, attributes: attrStore, policies: polStore, resources: resStore, audit: auditStore}, nil
}
