package attribute

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/attrtype"
	"github.com/abacsys/decision-service/pkg/model"
)

// PostgresStore is a lib/pq backed Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS attribute_schemas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	key TEXT UNIQUE NOT NULL,
	type TEXT NOT NULL,
	description TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS subject_attributes (
	id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	attribute_id TEXT NOT NULL REFERENCES attribute_schemas(id),
	value TEXT NOT NULL,
	valid_from TIMESTAMPTZ,
	valid_to TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_subject_attributes_subject ON subject_attributes(subject_id);

CREATE TABLE IF NOT EXISTS resource_attributes (
	id TEXT PRIMARY KEY,
	resource_id TEXT NOT NULL,
	attribute_id TEXT NOT NULL REFERENCES attribute_schemas(id),
	value TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_resource_attributes_resource ON resource_attributes(resource_id);
`

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pgSchema)
	return err
}

func (s *PostgresStore) GetSchemaByKey(ctx context.Context, key string) (Schema, error) {
	query := `SELECT id, name, key, type, description, created_at, updated_at, is_deleted
		FROM attribute_schemas WHERE key = $1 AND is_deleted = false`
	row := s.db.QueryRowContext(ctx, query, key)

	var sc Schema
	var desc sql.NullString
	var typ string
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Key, &typ, &desc, &sc.CreatedAt, &sc.UpdatedAt, &sc.IsDeleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Schema{}, abacerr.New(abacerr.ConditionMalformed, "no attribute schema registered for key \""+key+"\"")
		}
		return Schema{}, abacerr.Wrap(abacerr.StoreUnavailable, "query attribute schema", err)
	}
	sc.Type = attrtype.Type(typ)
	sc.Description = desc.String
	return sc, nil
}

func (s *PostgresStore) GetActiveSubjectAttributes(ctx context.Context, subjectID model.ID, evalTime time.Time) (map[string]SubjectAttribute, error) {
	query := `SELECT sa.id, sa.subject_id, sa.attribute_id, sa.value, sa.valid_from, sa.valid_to,
			sa.created_at, sa.updated_at, sa.is_deleted, sch.key
		FROM subject_attributes sa
		JOIN attribute_schemas sch ON sch.id = sa.attribute_id
		WHERE sa.subject_id = $1 AND sa.is_deleted = false AND sch.is_deleted = false
			AND (sa.valid_from IS NULL OR sa.valid_from <= $2)
			AND (sa.valid_to IS NULL OR sa.valid_to >= $2)`
	rows, err := s.db.QueryContext(ctx, query, subjectID, evalTime)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query subject attributes", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]SubjectAttribute)
	for rows.Next() {
		var a SubjectAttribute
		var key string
		var validFrom, validTo sql.NullTime
		if err := rows.Scan(&a.ID, &a.SubjectID, &a.AttributeID, &a.Value, &validFrom, &validTo,
			&a.CreatedAt, &a.UpdatedAt, &a.IsDeleted, &key); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan subject attribute", err)
		}
		if validFrom.Valid {
			t := validFrom.Time
			a.ValidFrom = &t
		}
		if validTo.Valid {
			t := validTo.Time
			a.ValidTo = &t
		}
		out[key] = a
	}
	if err := rows.Err(); err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "iterate subject attributes", err)
	}
	return out, nil
}

func (s *PostgresStore) GetResourceAttributes(ctx context.Context, resourceID model.ID) (map[string]ResourceAttribute, error) {
	query := `SELECT ra.id, ra.resource_id, ra.attribute_id, ra.value, ra.created_at, ra.updated_at, ra.is_deleted, sch.key
		FROM resource_attributes ra
		JOIN attribute_schemas sch ON sch.id = ra.attribute_id
		WHERE ra.resource_id = $1 AND ra.is_deleted = false AND sch.is_deleted = false`
	rows, err := s.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query resource attributes", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]ResourceAttribute)
	for rows.Next() {
		var a ResourceAttribute
		var key string
		if err := rows.Scan(&a.ID, &a.ResourceID, &a.AttributeID, &a.Value, &a.CreatedAt, &a.UpdatedAt, &a.IsDeleted, &key); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan resource attribute", err)
		}
		out[key] = a
	}
	if err := rows.Err(); err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "iterate resource attributes", err)
	}
	return out, nil
}
