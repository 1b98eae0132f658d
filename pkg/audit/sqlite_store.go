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

// SQLiteStore is a modernc.org/sqlite backed Writer and Reader, used
// for local development and store unit tests that want a real engine
// (cmd/abacd falls back to it when DATABASE_URL is unset).
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS access_logs (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	subject_id TEXT NOT NULL,
	resource_id TEXT,
	action_id TEXT,
	policy_id TEXT,
	result TEXT NOT NULL,
	reason TEXT,
	context_json TEXT,
	ip_address TEXT,
	is_deleted BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_access_logs_created_at ON access_logs(created_at);
CREATE INDEX IF NOT EXISTS idx_access_logs_subject ON access_logs(subject_id);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, log AccessLog) (model.ID, error) {
	id := log.ID
	if id == (model.ID{}) {
		id = uuid.New()
	}
	query := `INSERT INTO access_logs
		(id, created_at, subject_id, resource_id, action_id, policy_id, result, reason, context_json, ip_address, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`
	_, err := s.db.ExecContext(ctx, query,
		id.String(), log.CreatedAt, log.SubjectID.String(),
		nullableIDString(log.ResourceID), nullableIDString(log.ActionID), nullableIDString(log.PolicyID),
		string(log.Result), log.Reason, log.ContextJSON, log.IPAddress)
	if err != nil {
		return model.ID{}, abacerr.Wrap(abacerr.AuditWriteError, "insert access log", err)
	}
	return id, nil
}

func nullableIDString(id *model.ID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func sqliteBuildFilter(filter Filter) (string, []any) {
	clauses := []string{"is_deleted = 0"}
	var args []any

	if filter.SubjectID != nil {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, filter.SubjectID.String())
	}
	if filter.ResourceID != nil {
		clauses = append(clauses, "resource_id = ?")
		args = append(args, filter.ResourceID.String())
	}
	if filter.ActionID != nil {
		clauses = append(clauses, "action_id = ?")
		args = append(args, filter.ActionID.String())
	}
	if filter.Result != nil {
		clauses = append(clauses, "result = ?")
		args = append(args, string(*filter.Result))
	}
	if filter.From != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, *filter.To)
	}
	return strings.Join(clauses, " AND "), args
}

func (s *SQLiteStore) Query(ctx context.Context, filter Filter, sort Sort, page Page) ([]AccessLog, int64, error) {
	where, args := sqliteBuildFilter(filter)
	p := page.Normalize()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM access_logs WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, abacerr.Wrap(abacerr.StoreUnavailable, "count access logs", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM access_logs WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		accessLogColumns, where, orderBy(sort))
	listArgs := append(append([]any{}, args...), p.Size, p.Offset())
	rows, err := s.db.QueryContext(ctx, query, listArgs...)
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
	return out, total, rows.Err()
}

func (s *SQLiteStore) Statistics(ctx context.Context, r TimeRange) (Statistics, error) {
	where, args := sqliteBuildFilter(Filter{From: r.From, To: r.To})
	rows, err := s.db.QueryContext(ctx, "SELECT result, COUNT(*) FROM access_logs WHERE "+where+" GROUP BY result", args...)
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

func (s *SQLiteStore) TopResources(ctx context.Context, n int, r TimeRange) ([]ResourceCount, error) {
	n = clampN(n)
	where, args := sqliteBuildFilter(Filter{From: r.From, To: r.To})
	where += " AND resource_id IS NOT NULL"
	query := fmt.Sprintf(`SELECT resource_id, COUNT(*) AS c FROM access_logs WHERE %s
		GROUP BY resource_id ORDER BY c DESC, resource_id ASC LIMIT ?`, where)
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
		if id, err := uuid.Parse(idStr); err == nil {
			out = append(out, ResourceCount{ResourceID: id, Count: count})
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) TopSubjects(ctx context.Context, n int, r TimeRange) ([]SubjectCount, error) {
	n = clampN(n)
	where, args := sqliteBuildFilter(Filter{From: r.From, To: r.To})
	query := fmt.Sprintf(`SELECT subject_id, COUNT(*) AS c FROM access_logs WHERE %s
		GROUP BY subject_id ORDER BY c DESC, subject_id ASC LIMIT ?`, where)
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
		if id, err := uuid.Parse(idStr); err == nil {
			out = append(out, SubjectCount{SubjectID: id, Count: count})
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeniesByPolicy(ctx context.Context, r TimeRange) ([]PolicyDenyCount, error) {
	deny := model.ResultDeny
	where, args := sqliteBuildFilter(Filter{Result: &deny, From: r.From, To: r.To})
	query := fmt.Sprintf(`SELECT policy_id, COUNT(*) AS c FROM access_logs WHERE %s GROUP BY policy_id ORDER BY c DESC`, where)
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
