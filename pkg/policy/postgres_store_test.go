package policy

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

func TestPostgresStore_ListApplicablePolicies(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	policyID := uuid.New()
	actionID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs(actionID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "effect", "priority", "is_active", "created_at", "updated_at", "is_deleted",
		}).AddRow(policyID.String(), "finance read", nil, "Permit", 10, true, now, now, false))

	mock.ExpectQuery("SELECT id, policy_id, category").
		WithArgs(policyID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "policy_id", "category", "key", "operator", "expected_value", "ord"}).
			AddRow(uuid.New().String(), policyID.String(), "Subject", "department", "Equals", "Finance", 0))

	mock.ExpectQuery("SELECT a.code FROM policy_actions").
		WithArgs(policyID).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("document.read"))

	policies, err := store.ListApplicablePolicies(context.Background(), actionID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, model.Permit, policies[0].Effect)
	assert.Len(t, policies[0].Conditions, 1)
	assert.Equal(t, []string{"document.read"}, policies[0].ActionCodes)
}

func TestPostgresStore_GetActionByCode_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	mock.ExpectQuery("SELECT id, code, description").
		WithArgs("unknown.action").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "description", "created_at", "is_deleted"}))

	_, err = store.GetActionByCode(context.Background(), "unknown.action")
	assert.Error(t, err)
}
