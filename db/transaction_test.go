package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_NestedRollback(t *testing.T) {
	handle, mock := newMockHandle(t, "")
	mock.ExpectBegin()
	mock.ExpectRollback()

	// Two begins share one real transaction
	assert.Equal(t, 1, handle.Begin())
	assert.Equal(t, 2, handle.Begin())

	// Inner rollback is bookkeeping only: the real transaction stays active
	assert.Equal(t, 1, handle.Rollback())
	assert.True(t, handle.InTransaction())

	// Outermost unwind issues the one real rollback
	assert.Equal(t, 0, handle.Rollback())
	assert.False(t, handle.InTransaction())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_NestedCommit(t *testing.T) {
	handle, mock := newMockHandle(t, "")
	mock.ExpectBegin()
	mock.ExpectCommit()

	handle.Begin()
	handle.Begin()
	assert.Equal(t, 1, handle.Commit())
	assert.True(t, handle.InTransaction())
	assert.Equal(t, 0, handle.Commit())
	assert.False(t, handle.InTransaction())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_UnbalancedCallsClampAtZero(t *testing.T) {
	handle, mock := newMockHandle(t, "")

	// No begin ever happened: no driver calls, depth clamps at zero
	assert.Equal(t, 0, handle.Rollback())
	assert.Equal(t, 0, handle.Commit())
	assert.Equal(t, 0, handle.TransactionDepth())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_StatementsRunInsideTransaction(t *testing.T) {
	handle, mock := newMockHandle(t, "")
	mock.ExpectBegin()
	mock.ExpectPrepare("UPDATE member SET nick_name = ?").
		ExpectExec().
		WithArgs("neo").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	handle.Begin()
	_, err := handle.RunExec("UPDATE member SET nick_name = ?", "neo")
	require.NoError(t, err)
	handle.Commit()

	require.NoError(t, mock.ExpectationsWereMet())
}
