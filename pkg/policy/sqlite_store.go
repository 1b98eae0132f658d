package policy

import (
	"context"
	"database/sql"
	"errors"

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
CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	code TEXT UNIQUE NOT NULL,
	description TEXT,
	created_at DATETIME NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS policies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	effect TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	is_deleted BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS policy_conditions (
	id TEXT PRIMARY KEY,
	policy_id TEXT NOT NULL REFERENCES policies(id),
	category TEXT NOT NULL,
	key TEXT NOT NULL,
	operator TEXT NOT NULL,
	expected_value TEXT NOT NULL,
	ord INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_policy_conditions_policy ON policy_conditions(policy_id);

CREATE TABLE IF NOT EXISTS policy_actions (
	id TEXT PRIMARY KEY,
	policy_id TEXT NOT NULL REFERENCES policies(id),
	action_id TEXT NOT NULL REFERENCES actions(id)
);
CREATE INDEX IF NOT EXISTS idx_policy_actions_policy ON policy_actions(policy_id);
CREATE INDEX IF NOT EXISTS idx_policy_actions_action ON policy_actions(action_id);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) GetActionByCode(ctx context.Context, code string) (Action, error) {
	query := `SELECT id, code, description, created_at, is_deleted FROM actions WHERE code = ? AND is_deleted = 0`
	row := s.db.QueryRowContext(ctx, query, code)

	var a Action
	var desc sql.NullString
	if err := row.Scan(&a.ID, &a.Code, &desc, &a.CreatedAt, &a.IsDeleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Action{}, abacerr.New(abacerr.ResourceNotFound, "no action registered for code \""+code+"\"")
		}
		return Action{}, abacerr.Wrap(abacerr.StoreUnavailable, "query action", err)
	}
	a.Description = desc.String
	return a, nil
}

func (s *SQLiteStore) ListApplicablePolicies(ctx context.Context, actionID model.ID) ([]Policy, error) {
	query := `SELECT p.id, p.name, p.description, p.effect, p.priority, p.is_active, p.created_at, p.updated_at, p.is_deleted
		FROM policies p
		JOIN policy_actions pa ON pa.policy_id = p.id
		JOIN actions a ON a.id = pa.action_id
		WHERE pa.action_id = ? AND p.is_active = 1 AND p.is_deleted = 0 AND a.is_deleted = 0
		ORDER BY p.priority DESC, p.id ASC`
	rows, err := s.db.QueryContext(ctx, query, actionID.String())
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query applicable policies", err)
	}
	defer func() { _ = rows.Close() }()

	var policies []Policy
	for rows.Next() {
		var p Policy
		var desc sql.NullString
		var effect string
		if err := rows.Scan(&p.ID, &p.Name, &desc, &effect, &p.Priority, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan policy", err)
		}
		p.Description = desc.String
		p.Effect = model.Effect(effect)
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "iterate applicable policies", err)
	}

	for i := range policies {
		conds, err := s.conditionsFor(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
		policies[i].Conditions = conds

		codes, err := s.actionCodesFor(ctx, policies[i].ID)
		if err != nil {
			return nil, err
		}
		policies[i].ActionCodes = codes
	}
	return policies, nil
}

func (s *SQLiteStore) GetPolicy(ctx context.Context, id model.ID) (Policy, error) {
	query := `SELECT id, name, description, effect, priority, is_active, created_at, updated_at, is_deleted
		FROM policies WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var p Policy
	var desc sql.NullString
	var effect string
	if err := row.Scan(&p.ID, &p.Name, &desc, &effect, &p.Priority, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.IsDeleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Policy{}, abacerr.New(abacerr.ResourceNotFound, "no policy with id "+id.String())
		}
		return Policy{}, abacerr.Wrap(abacerr.StoreUnavailable, "query policy", err)
	}
	p.Description = desc.String
	p.Effect = model.Effect(effect)

	conds, err := s.conditionsFor(ctx, p.ID)
	if err != nil {
		return Policy{}, err
	}
	p.Conditions = conds

	codes, err := s.actionCodesFor(ctx, p.ID)
	if err != nil {
		return Policy{}, err
	}
	p.ActionCodes = codes
	return p, nil
}

func (s *SQLiteStore) conditionsFor(ctx context.Context, policyID model.ID) ([]Condition, error) {
	query := `SELECT id, policy_id, category, key, operator, expected_value, ord
		FROM policy_conditions WHERE policy_id = ? ORDER BY ord ASC`
	rows, err := s.db.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query policy conditions", err)
	}
	defer func() { _ = rows.Close() }()

	conds := make([]Condition, 0)
	for rows.Next() {
		var c Condition
		var category, operator string
		if err := rows.Scan(&c.ID, &c.PolicyID, &category, &c.Key, &operator, &c.ExpectedValue, &c.Order); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan policy condition", err)
		}
		c.Category = model.AttributeCategory(category)
		c.Operator = model.Operator(operator)
		conds = append(conds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "iterate policy conditions", err)
	}
	return conds, nil
}

func (s *SQLiteStore) actionCodesFor(ctx context.Context, policyID model.ID) ([]string, error) {
	query := `SELECT a.code FROM policy_actions pa JOIN actions a ON a.id = pa.action_id WHERE pa.policy_id = ?`
	rows, err := s.db.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query policy action codes", err)
	}
	defer func() { _ = rows.Close() }()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan policy action code", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "iterate policy action codes", err)
	}
	return codes, nil
}
