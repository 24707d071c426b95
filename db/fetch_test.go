package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func queryRows(t *testing.T, fixture *sqlmock.Rows) *Rows {
	t.Helper()

	handle, mock := newMockHandle(t, "")
	mock.ExpectQuery("SELECT * FROM member").WillReturnRows(fixture)

	rows, err := handle.RunQuery("SELECT * FROM member")
	require.NoError(t, err)
	return rows
}

func TestFetchRows_ReverseIndexing(t *testing.T) {
	fixture := sqlmock.NewRows([]string{"member_srl", "nick_name"}).
		AddRow(41, "alpha").
		AddRow(42, "beta").
		AddRow(43, "gamma")

	data, err := fetchRows(queryRows(t, fixture), 5)
	require.NoError(t, err)

	set, ok := data.(*RowSet)
	require.True(t, ok)
	require.Equal(t, 3, set.Len())
	require.Equal(t, []int{5, 4, 3}, set.Indexes())
	require.Equal(t, "alpha", set.Get(5)["nick_name"])
	require.Equal(t, "gamma", set.Get(3)["nick_name"])
}

func TestFetchRows_ForwardIndexing(t *testing.T) {
	fixture := sqlmock.NewRows([]string{"member_srl"}).
		AddRow(1).
		AddRow(2).
		AddRow(3)

	data, err := fetchRows(queryRows(t, fixture), 0)
	require.NoError(t, err)

	set, ok := data.(*RowSet)
	require.True(t, ok)
	require.Equal(t, []int{0, 1, 2}, set.Indexes())
}

func TestFetchRows_SingleRowUnwrapped(t *testing.T) {
	fixture := sqlmock.NewRows([]string{"member_srl", "nick_name"}).
		AddRow(10, "solo")

	data, err := fetchRows(queryRows(t, fixture), 0)
	require.NoError(t, err)

	rec, ok := data.(Record)
	require.True(t, ok, "single forward-fetched row should unwrap to a Record")
	require.Equal(t, "solo", rec["nick_name"])
	require.Equal(t, int64(10), rec["member_srl"])
}

func TestFetchRows_SingleRowWithStartIndexStaysKeyed(t *testing.T) {
	fixture := sqlmock.NewRows([]string{"member_srl"}).
		AddRow(10)

	data, err := fetchRows(queryRows(t, fixture), 1)
	require.NoError(t, err)

	set, ok := data.(*RowSet)
	require.True(t, ok)
	require.Equal(t, []int{1}, set.Indexes())
}

func TestFetchRows_ByteSlicesBecomeStrings(t *testing.T) {
	fixture := sqlmock.NewRows([]string{"nick_name"}).
		AddRow([]byte("raw")).
		AddRow([]byte("bytes"))

	data, err := fetchRows(queryRows(t, fixture), 0)
	require.NoError(t, err)

	set := data.(*RowSet)
	require.Equal(t, "raw", set.Get(0)["nick_name"])
	require.Equal(t, "bytes", set.Get(1)["nick_name"])
}
