package resource

import (
	"context"
	"database/sql"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/model"
)

// SQLiteStore is a modernc.org/sqlite backed Store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS resources (
	id TEXT PRIMARY KEY,
	is_deleted BOOLEAN NOT NULL DEFAULT 0
);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) Exists(ctx context.Context, id model.ID) (bool, error) {
	var isDeleted bool
	err := s.db.QueryRowContext(ctx, `SELECT is_deleted FROM resources WHERE id = ?`, id.String()).Scan(&isDeleted)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, abacerr.Wrap(abacerr.StoreUnavailable, "query resource existence", err)
	}
	return !isDeleted, nil
}
