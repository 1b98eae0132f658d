package resource

import (
	"context"
	"database/sql"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/model"
)

// PostgresStore is a lib/pq backed Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// pgSchema creates a minimal resources relation: the PDE only ever
// needs id/is_deleted (spec.md §6.4); any other columns belong to the
// surrounding admin surface and are added by its own migrations.
const pgSchema = `
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	is_deleted BOOLEAN NOT NULL DEFAULT false
);
`

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pgSchema)
	return err
}

func (s *PostgresStore) Exists(ctx context.Context, id model.ID) (bool, error) {
	var isDeleted bool
	err := s.db.QueryRowContext(ctx, `SELECT is_deleted FROM resources WHERE id = $1`, id).Scan(&isDeleted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, abacerr.Wrap(abacerr.StoreUnavailable, "query resource existence", err)
	}
	return !isDeleted, nil
}
