package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/model"
)

// PostgresStore is a lib/pq backed Writer and Reader.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS access_logs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	subject_id TEXT NOT NULL,
	resource_id TEXT,
	action_id TEXT,
	policy_id TEXT,
	result TEXT NOT NULL,
	reason TEXT,
	context_json TEXT,
	ip_address TEXT,
	is_deleted BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_access_logs_created_at ON access_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_access_logs_subject ON access_logs(subject_id);
CREATE INDEX IF NOT EXISTS idx_access_logs_resource ON access_logs(resource_id);
CREATE INDEX IF NOT EXISTS idx_access_logs_action ON access_logs(action_id);
CREATE INDEX IF NOT EXISTS idx_access_logs_result ON access_logs(result);
`

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, pgSchema)
	return err
}

// Append implements Writer. spec.md §3 invariant 2 (a Permit row must
// carry a non-null policyId) is the caller's responsibility — the
// combiner never latches Permit without a deciding policy, so this
// layer trusts the value it is given rather than re-validating it.
func (s *PostgresStore) Append(ctx context.Context, log AccessLog) (model.ID, error) {
	id := log.ID
	if id == (model.ID{}) {
		id = uuid.New()
	}

	query := `INSERT INTO access_logs
		(id, created_at, subject_id, resource_id, action_id, policy_id, result, reason, context_json, ip_address, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)`

	_, err := s.db.ExecContext(ctx, query,
		id, log.CreatedAt, log.SubjectID,
		nullableID(log.ResourceID), nullableID(log.ActionID), nullableID(log.PolicyID),
		string(log.Result), log.Reason, log.ContextJSON, log.IPAddress)
	if err != nil {
		return model.ID{}, abacerr.Wrap(abacerr.AuditWriteError, "insert access log", err)
	}
	return id, nil
}

func nullableID(id *model.ID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

const accessLogColumns = `id, created_at, subject_id, resource_id, action_id, policy_id, result, reason, context_json, ip_address, is_deleted`

func scanAccessLog(row interface{ Scan(dest ...any) error }) (AccessLog, error) {
	var (
		l                                   AccessLog
		idStr, subjectStr                   string
		resourceID, actionID, policyID, ip  sql.NullString
		reason, contextJSON                 sql.NullString
	)
	if err := row.Scan(&idStr, &l.CreatedAt, &subjectStr, &resourceID, &actionID, &policyID,
		&l.Result, &reason, &contextJSON, &ip, &l.IsDeleted); err != nil {
		return AccessLog{}, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return AccessLog{}, fmt.Errorf("audit: invalid access log id %q: %w", idStr, err)
	}
	l.ID = id
	subjectID, err := uuid.Parse(subjectStr)
	if err != nil {
		return AccessLog{}, fmt.Errorf("audit: invalid subject id %q: %w", subjectStr, err)
	}
	l.SubjectID = subjectID
	l.Reason = reason.String
	l.ContextJSON = contextJSON.String
	l.IPAddress = ip.String
	if p, ok := parseNullableID(resourceID); ok {
		l.ResourceID = p
	}
	if p, ok := parseNullableID(actionID); ok {
		l.ActionID = p
	}
	if p, ok := parseNullableID(policyID); ok {
		l.PolicyID = p
	}
	return l, nil
}

func parseNullableID(ns sql.NullString) (*model.ID, bool) {
	if !ns.Valid {
		return nil, false
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// buildFilter renders filter as a WHERE clause (sans the leading
// "WHERE") and its positional arguments, starting placeholders at
// startAt (1-indexed, matching lib/pq's $N convention).
func buildFilter(filter Filter, startAt int) (string, []any) {
	clauses := []string{"is_deleted = false"}
	var args []any
	n := startAt

	add := func(clause string, arg any) {
		clauses = append(clauses, fmt.Sprintf(clause, n))
		args = append(args, arg)
		n++
	}

	if filter.SubjectID != nil {
		add("subject_id = $%d", *filter.SubjectID)
	}
	if filter.ResourceID != nil {
		add("resource_id = $%d", *filter.ResourceID)
	}
	if filter.ActionID != nil {
		add("action_id = $%d", *filter.ActionID)
	}
	if filter.Result != nil {
		add("result = $%d", string(*filter.Result))
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}
	return strings.Join(clauses, " AND "), args
}

func sortColumn(f SortField) string {
	switch f {
	case SortResult:
		return "result"
	case SortSubjectID:
		return "subject_id"
	case SortResourceID:
		return "resource_id"
	case SortActionID:
		return "action_id"
	default:
		return "created_at"
	}
}

func orderBy(s Sort) string {
	field := s.Field
	if !field.Valid() {
		field = SortCreatedAt
	}
	dir := s.Direction
	if dir != Ascending {
		dir = Descending
	}
	// id ASC as a deterministic tiebreaker, mirroring C2's ordering
	// discipline (spec.md §4.2).
	return fmt.Sprintf("%s %s, id ASC", sortColumn(field), dir)
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter, sort Sort, page Page) ([]AccessLog, int64, error) {
	where, args := buildFilter(filter, 1)
	p := page.Normalize()

	var total int64
	countQuery := "SELECT COUNT(*) FROM access_logs WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, abacerr.Wrap(abacerr.StoreUnavailable, "count access logs", err)
	}

	listArgs := append(append([]any{}, args...), p.Size, p.Offset())
	listQuery := fmt.Sprintf(`SELECT %s FROM access_logs WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		accessLogColumns, where, orderBy(sort), len(args)+1, len(args)+2)

	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, abacerr.Wrap(abacerr.StoreUnavailable, "query access logs", err)
	}
	defer func() { _ = rows.Close() }()

	var out []AccessLog
	for rows.Next() {
		l, err := scanAccessLog(rows)
		if err != nil {
			return nil, 0, abacerr.Wrap(abacerr.StoreUnavailable, "scan access log", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, abacerr.Wrap(abacerr.StoreUnavailable, "iterate access logs", err)
	}
	return out, total, nil
}

func (s *PostgresStore) Statistics(ctx context.Context, r TimeRange) (Statistics, error) {
	filter := Filter{From: r.From, To: r.To}
	where, args := buildFilter(filter, 1)

	query := fmt.Sprintf(`SELECT result, COUNT(*) FROM access_logs WHERE %s GROUP BY result`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Statistics{}, abacerr.Wrap(abacerr.StoreUnavailable, "query statistics", err)
	}
	defer func() { _ = rows.Close() }()

	var stats Statistics
	for rows.Next() {
		var result string
		var count int64
		if err := rows.Scan(&result, &count); err != nil {
			return Statistics{}, abacerr.Wrap(abacerr.StoreUnavailable, "scan statistics", err)
		}
		switch model.Result(result) {
		case model.ResultPermit:
			stats.Permits = count
		case model.ResultDeny:
			stats.Denies = count
		case model.ResultError:
			stats.Errors = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Statistics{}, abacerr.Wrap(abacerr.StoreUnavailable, "iterate statistics", err)
	}
	if stats.Total > 0 {
		stats.PermitRate = float64(stats.Permits) / float64(stats.Total)
		stats.DenyRate = float64(stats.Denies) / float64(stats.Total)
		stats.ErrorRate = float64(stats.Errors) / float64(stats.Total)
	}
	return stats, nil
}

func (s *PostgresStore) TopResources(ctx context.Context, n int, r TimeRange) ([]ResourceCount, error) {
	n = clampN(n)
	filter := Filter{From: r.From, To: r.To}
	where, args := buildFilter(filter, 1)
	where += " AND resource_id IS NOT NULL"

	query := fmt.Sprintf(`SELECT resource_id, COUNT(*) AS c FROM access_logs WHERE %s
		GROUP BY resource_id ORDER BY c DESC, resource_id ASC LIMIT $%d`, where, len(args)+1)
	rows, err := s.db.QueryContext(ctx, query, append(args, n)...)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query top resources", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ResourceCount
	for rows.Next() {
		var idStr string
		var count int64
		if err := rows.Scan(&idStr, &count); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan top resource", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		out = append(out, ResourceCount{ResourceID: id, Count: count})
	}
	return out, rows.Err()
}

func (s *PostgresStore) TopSubjects(ctx context.Context, n int, r TimeRange) ([]SubjectCount, error) {
	n = clampN(n)
	filter := Filter{From: r.From, To: r.To}
	where, args := buildFilter(filter, 1)

	query := fmt.Sprintf(`SELECT subject_id, COUNT(*) AS c FROM access_logs WHERE %s
		GROUP BY subject_id ORDER BY c DESC, subject_id ASC LIMIT $%d`, where, len(args)+1)
	rows, err := s.db.QueryContext(ctx, query, append(args, n)...)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query top subjects", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SubjectCount
	for rows.Next() {
		var idStr string
		var count int64
		if err := rows.Scan(&idStr, &count); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan top subject", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		out = append(out, SubjectCount{SubjectID: id, Count: count})
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeniesByPolicy(ctx context.Context, r TimeRange) ([]PolicyDenyCount, error) {
	deny := model.ResultDeny
	filter := Filter{Result: &deny, From: r.From, To: r.To}
	where, args := buildFilter(filter, 1)

	query := fmt.Sprintf(`SELECT policy_id, COUNT(*) AS c FROM access_logs WHERE %s
		GROUP BY policy_id ORDER BY c DESC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, abacerr.Wrap(abacerr.StoreUnavailable, "query denies by policy", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PolicyDenyCount
	for rows.Next() {
		var idStr sql.NullString
		var count int64
		if err := rows.Scan(&idStr, &count); err != nil {
			return nil, abacerr.Wrap(abacerr.StoreUnavailable, "scan denies by policy", err)
		}
		var id model.ID
		if idStr.Valid {
			if parsed, err := uuid.Parse(idStr.String); err == nil {
				id = parsed
			}
		}
		out = append(out, PolicyDenyCount{PolicyID: id, Count: count})
	}
	return out, rows.Err()
}
