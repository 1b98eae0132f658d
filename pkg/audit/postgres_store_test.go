package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abacsys/decision-service/pkg/model"
)

func TestPostgresStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	policyID := uuid.New()
	subjectID := uuid.New()

	mock.ExpectExec(`INSERT INTO access_logs`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), subjectID.String(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			policyID.String(), "Permit", "Applies(Permit)", "{}", "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Append(context.Background(), AccessLog{
		SubjectID:   subjectID,
		PolicyID:    &policyID,
		Result:      model.ResultPermit,
		Reason:      "Applies(Permit)",
		ContextJSON: "{}",
		IPAddress:   "10.0.0.1",
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Query_Pagination(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	subjectID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM access_logs WHERE`).
		WithArgs(subjectID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rows := sqlmock.NewRows([]string{
		"id", "created_at", "subject_id", "resource_id", "action_id", "policy_id",
		"result", "reason", "context_json", "ip_address", "is_deleted",
	}).AddRow(uuid.New().String(), time.Now(), subjectID.String(), nil, nil, nil,
		"Deny", "No applicable policy", "{}", "", false)

	mock.ExpectQuery(`SELECT .* FROM access_logs WHERE .* ORDER BY .* LIMIT \$2 OFFSET \$3`).
		WithArgs(subjectID.String(), 50, 0).
		WillReturnRows(rows)

	subj := subjectID
	out, total, err := store.Query(context.Background(), Filter{SubjectID: &subj}, Sort{}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, out, 1)
	assert.Equal(t, model.ResultDeny, out[0].Result)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Statistics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	rows := sqlmock.NewRows([]string{"result", "count"}).
		AddRow("Permit", 7).
		AddRow("Deny", 3).
		AddRow("Error", 1)
	mock.ExpectQuery(`SELECT result, COUNT\(\*\) FROM access_logs WHERE`).WillReturnRows(rows)

	stats, err := store.Statistics(context.Background(), TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(11), stats.Total)
	assert.Equal(t, int64(7), stats.Permits)
	assert.InDelta(t, 7.0/11.0, stats.PermitRate, 0.0001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderBy_DefaultsToCreatedAtDescending(t *testing.T) {
	assert.Equal(t, "created_at DESC, id ASC", orderBy(Sort{}))
	assert.Equal(t, "result ASC, id ASC", orderBy(Sort{Field: SortResult, Direction: Ascending}))
}
