package db

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// Query-builder helpers for callers that do not go through declared
// templates. Datasets are created against the handle's dialect with the
// configured table prefix already applied and the bare name as alias, so
// builder output matches what the prefix rewriter produces.

func (h *Handle) dialect() goqu.DialectWrapper {
	return goqu.Dialect(h.conf.Engine)
}

// From returns a SELECT dataset over a prefixed, aliased table.
func (h *Handle) From(table string) *goqu.SelectDataset {
	return h.dialect().From(goqu.T(h.conf.Prefix + table).As(table))
}

// InsertInto returns an INSERT dataset over a prefixed table.
func (h *Handle) InsertInto(table string) *goqu.InsertDataset {
	return h.dialect().Insert(goqu.T(h.conf.Prefix + table))
}

// UpdateTable returns an UPDATE dataset over a prefixed table.
func (h *Handle) UpdateTable(table string) *goqu.UpdateDataset {
	return h.dialect().Update(goqu.T(h.conf.Prefix + table))
}

// DeleteFrom returns a DELETE dataset over a prefixed table.
func (h *Handle) DeleteFrom(table string) *goqu.DeleteDataset {
	return h.dialect().Delete(goqu.T(h.conf.Prefix + table))
}

// QueryDataset builds and executes a SELECT dataset as a prepared statement.
func (h *Handle) QueryDataset(ds *goqu.SelectDataset) (*Rows, error) {
	sqlText, params, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, QueryBuildError{Err: err}
	}

	if len(params) > 0 {
		stmt, err := h.prepare(sqlText, "")
		if err != nil {
			return nil, err
		}
		defer stmt.Close()
		return stmt.Query(params...)
	}

	stmt := &Statement{h: h, sqlText: sqlText}
	return stmt.Query()
}

// sqlBuilder is satisfied by goqu's insert/update/delete datasets.
type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

// ExecBuilder builds and executes a DML dataset.
func (h *Handle) ExecBuilder(b sqlBuilder) (sql.Result, error) {
	sqlText, params, err := b.ToSQL()
	if err != nil {
		return nil, QueryBuildError{Err: err}
	}

	stmt := &Statement{h: h, sqlText: sqlText}
	return stmt.Exec(params...)
}
