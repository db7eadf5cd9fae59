package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"taskboard/models"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, models.ErrNotFound},
		{"duplicate proposal", &pq.Error{Code: "23505", Constraint: constraintProposalOrderExecutor}, models.ErrDuplicateProposal},
		{"second accepted proposal", &pq.Error{Code: "23505", Constraint: constraintAcceptedPerOrder}, models.ErrInvalidState},
		{"unique username", &pq.Error{Code: "23505", Constraint: "users_username_key"}, models.ErrConflict},
		{"missing reference", &pq.Error{Code: "23503"}, models.ErrValidation},
		{"check violation", &pq.Error{Code: "23514", Message: "budget"}, models.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, mapErr(tt.err), tt.want)
		})
	}

	require.NoError(t, mapErr(nil))

	other := errors.New("connection reset")
	require.Equal(t, other, mapErr(other))
}

func TestPaginate(t *testing.T) {
	query, _, err := paginate(psql.Select("*").From("orders"), models.Page{Limit: 20, Offset: 40}).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM orders LIMIT 20 OFFSET 40", query)

	query, _, err = paginate(psql.Select("*").From("orders"), models.Page{}).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM orders", query)
}

func TestTransitionQuery(t *testing.T) {
	query, args, err := transitionQuery(7, map[string]interface{}{"status": models.OrderCancelled},
		models.OrderOpen, models.OrderInProgress).ToSql()
	require.NoError(t, err)
	require.Equal(t,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3,$4) RETURNING *",
		query)
	require.Equal(t, []interface{}{models.OrderCancelled, int64(7), models.OrderOpen, models.OrderInProgress}, args)

	query, args, err = transitionQuery(7, map[string]interface{}{"status": models.OrderCompleted}, models.OrderInProgress).ToSql()
	require.NoError(t, err)
	require.Equal(t, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3) RETURNING *", query)
	require.Equal(t, []interface{}{models.OrderCompleted, int64(7), models.OrderInProgress}, args)
}

func TestRejectPendingQuery(t *testing.T) {
	query, args, err := rejectPendingQuery(3).ToSql()
	require.NoError(t, err)
	require.Equal(t, "UPDATE proposals SET status = $1, updated_at = NOW() WHERE order_id = $2 AND status = $3", query)
	require.Equal(t, []interface{}{models.ProposalRejected, int64(3), models.ProposalPending}, args)
}
