package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom_MatchesPrefixRewriterOutput(t *testing.T) {
	handle, _ := newMockHandle(t, "xe_")

	sqlText, _, err := handle.From("member").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `xe_member` AS `member`", sqlText)
}

func TestQueryDataset(t *testing.T) {
	handle, mock := newMockHandle(t, "xe_")

	ds := handle.From("member").
		Select("member_srl", "nick_name").
		Where(goqu.C("member_srl").Eq(10))

	sqlText, params, err := ds.Prepared(true).ToSQL()
	require.NoError(t, err)
	require.Len(t, params, 1)

	mock.ExpectPrepare(sqlText).
		ExpectQuery().
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"member_srl", "nick_name"}).AddRow(10, "neo"))

	rows, err := handle.QueryDataset(ds)
	require.NoError(t, err)
	rows.Finalize()

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecBuilder(t *testing.T) {
	handle, mock := newMockHandle(t, "xe_")

	ds := handle.InsertInto("member").Rows(goqu.Record{"nick_name": "neo"})

	sqlText, _, err := ds.ToSQL()
	require.NoError(t, err)

	mock.ExpectExec(sqlText).WillReturnResult(sqlmock.NewResult(7, 1))

	_, err = handle.ExecBuilder(ds)
	require.NoError(t, err)

	id, err := handle.LastInsertID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}
