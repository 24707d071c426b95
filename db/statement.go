package db

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/karstdb/karst/telemetry"
)

// Statement wraps a single statement execution with timing and error
// capture. The epilogue (elapsed accounting, counters, query log) runs on
// both the success and failure paths.
type Statement struct {
	h       *Handle
	sqlText string
	ident   string // query identifier for template-driven calls, empty for ad-hoc
	stmt    *sql.Stmt
}

// SQL returns the final (rewritten) statement text.
func (s *Statement) SQL() string {
	return s.sqlText
}

// Close releases the prepared statement, if any.
func (s *Statement) Close() error {
	if s.stmt != nil {
		return s.stmt.Close()
	}
	return nil
}

// Query executes the statement and returns a live cursor. On success the
// handle's error state is cleared; on driver error it is set and a typed
// execution error is returned.
func (s *Statement) Query(params ...any) (*Rows, error) {
	start := time.Now()
	raw, err := s.query(params...)
	s.finish(start, err)

	if err != nil {
		s.h.setError(driverErrorCode(err), err.Error())
		return nil, QueryExecutionError{Query: s.sqlText, Err: err}
	}

	s.h.clearError()
	return &Rows{raw}, nil
}

func (s *Statement) query(params ...any) (*sql.Rows, error) {
	if s.stmt != nil {
		return s.stmt.Query(params...)
	}
	return s.h.conn().Query(s.sqlText, params...)
}

// Exec executes a DML statement. The result is retained on the handle for
// LastInsertID/AffectedRows.
func (s *Statement) Exec(params ...any) (sql.Result, error) {
	start := time.Now()
	res, err := s.exec(params...)
	s.finish(start, err)

	if err != nil {
		s.h.setError(driverErrorCode(err), err.Error())
		return nil, QueryExecutionError{Query: s.sqlText, Err: err}
	}

	s.h.clearError()
	s.h.lastResult = res
	return res, nil
}

func (s *Statement) exec(params ...any) (sql.Result, error) {
	if s.stmt != nil {
		return s.stmt.Exec(params...)
	}
	return s.h.conn().Exec(s.sqlText, params...)
}

// finish is the always-runs epilogue: elapsed accounting, counters, metrics,
// and the query log when diagnostics are enabled for this identifier.
func (s *Statement) finish(start time.Time, err error) {
	elapsed := time.Since(start)
	s.h.elapsedLast = elapsed
	s.h.elapsedQuery += elapsed
	s.h.executed.Inc()

	status := "success"
	if err != nil {
		s.h.failed.Inc()
		status = "error"
	}
	telemetry.QueriesTotal.With(s.h.conf.Type, status).Inc()
	telemetry.QueryDurationSeconds.Observe(elapsed.Seconds())

	if s.h.reg != nil && s.h.reg.logEnabled(s.ident) {
		entry := QueryLogEntry{
			Ident:   s.ident,
			Query:   s.sqlText,
			Elapsed: elapsed,
		}
		if err != nil {
			entry.Err = err.Error()
		}
		s.h.reg.queryLog.AddQueryLog(entry)
	}
}

// Rows is a thin cursor wrapper whose Finalize absorbs close errors.
type Rows struct {
	*sql.Rows
}

// Finalize closes the cursor, logging instead of returning close errors.
func (r *Rows) Finalize() {
	err := r.Close()
	if err != nil {
		log.Error().Err(err).Msg("Unable to close result set")
	}
}
