package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/puzpuzpuz/xsync/v3"

	_ "github.com/mattn/go-sqlite3"

	"github.com/karstdb/karst/cfg"
)

// sqlConn is the execution surface shared by *sql.DB and *sql.Tx. Statements
// run against the open transaction when one is active.
type sqlConn interface {
	Prepare(query string) (*sql.Stmt, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Handle owns one live driver connection for a logical connection type,
// along with its settings, last-statement state, and transaction ledger.
// Handles are created lazily by the Registry and live for the process
// lifetime. A handle is not safe for concurrent use; callers are expected to
// use one handle per request flow, matching the layer's synchronous model.
type Handle struct {
	conf cfg.ConnectionConfig
	reg  *Registry
	db   *sql.DB

	// transaction ledger
	tx    *sql.Tx
	depth int

	lastErr    ErrorState
	lastResult sql.Result

	elapsedLast  time.Duration // most recent statement
	elapsedQuery time.Duration // cumulative statement-only time
	elapsedTotal time.Duration // cumulative end-to-end template execution time

	executed *xsync.Counter
	failed   *xsync.Counter
}

func openHandle(conf cfg.ConnectionConfig, reg *Registry) (*Handle, error) {
	dsn, err := buildDSN(conf)
	if err != nil {
		return nil, ConnectionError{Type: conf.Type, Err: err}
	}

	sqlDB, err := sql.Open(conf.Engine, dsn)
	if err != nil {
		return nil, ConnectionError{Type: conf.Type, Err: err}
	}

	// Exactly one live driver connection per logical type
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, ConnectionError{Type: conf.Type, Err: err}
	}

	return &Handle{
		conf:     conf,
		reg:      reg,
		db:       sqlDB,
		executed: xsync.NewCounter(),
		failed:   xsync.NewCounter(),
	}, nil
}

func buildDSN(conf cfg.ConnectionConfig) (string, error) {
	switch conf.Engine {
	case cfg.EngineMySQL:
		mc := mysql.NewConfig()
		mc.User = conf.User
		mc.Passwd = conf.Pass
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", conf.Host, conf.Port)
		mc.DBName = conf.Database
		if conf.Charset != "" {
			mc.Params = map[string]string{"charset": conf.Charset}
		}
		return mc.FormatDSN(), nil
	case cfg.EngineSQLite:
		return conf.Database, nil
	default:
		return "", fmt.Errorf("unknown engine: %s", conf.Engine)
	}
}

// conn returns the current execution surface: the open transaction when one
// is active, the base connection otherwise.
func (h *Handle) conn() sqlConn {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

// Config returns the connection's immutable configuration.
func (h *Handle) Config() cfg.ConnectionConfig {
	return h.conf
}

// Prefix returns the configured table prefix, possibly empty.
func (h *Handle) Prefix() string {
	return h.conf.Prefix
}

// Prepare applies prefix rewriting and compiles a statement without
// executing it. Driver errors are raised to the caller after updating the
// handle's error state.
func (h *Handle) Prepare(sqlText string) (*Statement, error) {
	return h.prepare(RewritePrefix(h.conf.Prefix, sqlText), "")
}

func (h *Handle) prepare(rewritten, ident string) (*Statement, error) {
	stmt, err := h.conn().Prepare(rewritten)
	if err != nil {
		h.setError(driverErrorCode(err), err.Error())
		return nil, QueryExecutionError{Query: rewritten, Err: err}
	}
	return &Statement{h: h, sqlText: rewritten, ident: ident, stmt: stmt}, nil
}

// RunQuery applies prefix rewriting and executes sqlText. With parameters
// the statement is prepared and executed bound; without parameters the
// literal string runs directly. The returned cursor must be drained or
// finalized before the handle is reused.
func (h *Handle) RunQuery(sqlText string, params ...any) (*Rows, error) {
	rewritten := RewritePrefix(h.conf.Prefix, sqlText)
	if len(params) > 0 {
		stmt, err := h.prepare(rewritten, "")
		if err != nil {
			return nil, err
		}
		defer stmt.Close()
		return stmt.Query(params...)
	}

	stmt := &Statement{h: h, sqlText: rewritten}
	return stmt.Query()
}

// RunExec is the DML counterpart of RunQuery. The result is also retained as
// the handle's last statement for LastInsertID/AffectedRows.
func (h *Handle) RunExec(sqlText string, params ...any) (sql.Result, error) {
	rewritten := RewritePrefix(h.conf.Prefix, sqlText)
	if len(params) > 0 {
		stmt, err := h.prepare(rewritten, "")
		if err != nil {
			return nil, err
		}
		defer stmt.Close()
		return stmt.Exec(params...)
	}

	stmt := &Statement{h: h, sqlText: rewritten}
	return stmt.Exec()
}

// RunRawQuery executes sqlText without prefix rewriting or parameter
// binding. Used for maintenance statements (sequence table, SHOW CHARACTER
// SET and friends).
func (h *Handle) RunRawQuery(sqlText string) (*Rows, error) {
	stmt := &Statement{h: h, sqlText: sqlText}
	return stmt.Query()
}

func (h *Handle) runRawExec(sqlText string) (sql.Result, error) {
	stmt := &Statement{h: h, sqlText: sqlText}
	return stmt.Exec()
}

// LastInsertID returns the insert id of the most recently executed
// statement.
func (h *Handle) LastInsertID() (int64, error) {
	if h.lastResult == nil {
		return 0, fmt.Errorf("no statement has been executed")
	}
	return h.lastResult.LastInsertId()
}

// AffectedRows returns the affected row count of the most recently executed
// statement.
func (h *Handle) AffectedRows() (int64, error) {
	if h.lastResult == nil {
		return 0, fmt.Errorf("no statement has been executed")
	}
	return h.lastResult.RowsAffected()
}

// IsError reports whether the last statement left an error behind. Like
// Error, this is a legacy-compatible snapshot, not the source of truth.
func (h *Handle) IsError() bool {
	return h.lastErr.Code != 0 || h.lastErr.Message != ""
}

// Error returns the last-error snapshot.
func (h *Handle) Error() ErrorState {
	return h.lastErr
}

func (h *Handle) setError(code int, message string) {
	h.lastErr = ErrorState{Code: code, Message: message}
}

func (h *Handle) clearError() {
	h.lastErr = ErrorState{}
}

// ElapsedLast returns the duration of the most recent statement.
func (h *Handle) ElapsedLast() time.Duration {
	return h.elapsedLast
}

// ElapsedQueryTotal returns the cumulative statement-only execution time.
func (h *Handle) ElapsedQueryTotal() time.Duration {
	return h.elapsedQuery
}

// ElapsedTotal returns the cumulative end-to-end time of template
// executions, including compilation and count passes.
func (h *Handle) ElapsedTotal() time.Duration {
	return h.elapsedTotal
}

// ExecutedStatements returns the number of statements this handle has run.
func (h *Handle) ExecutedStatements() int64 {
	return h.executed.Value()
}

// FailedStatements returns the number of statements that ended in a driver
// error.
func (h *Handle) FailedStatements() int64 {
	return h.failed.Value()
}

// Close releases the underlying driver connection. Handles normally live for
// the process lifetime; Close exists for tests and controlled shutdown.
func (h *Handle) Close() error {
	return h.db.Close()
}
