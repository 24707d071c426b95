package db

import (
	"github.com/rs/zerolog/log"

	"github.com/karstdb/karst/telemetry"
)

// The transaction ledger tracks nested Begin/Commit/Rollback calls against
// one real driver transaction. Only the 0→1 transition issues a real BEGIN
// and only the 1→0 transition issues a real COMMIT/ROLLBACK; inner calls are
// bookkeeping only. Driver-level failures are logged, never raised, and the
// depth bookkeeping proceeds regardless.

// Begin starts the real transaction when none is active, increments the
// nesting depth, and returns the new depth.
func (h *Handle) Begin() int {
	if h.tx == nil {
		tx, err := h.db.Begin()
		if err != nil {
			log.Warn().Err(err).Str("type", h.conf.Type).Msg("Failed to begin transaction")
			telemetry.TransactionsTotal.With("begin", "error").Inc()
		} else {
			h.tx = tx
			log.Debug().Str("type", h.conf.Type).Msg("Transaction started")
			telemetry.TransactionsTotal.With("begin", "success").Inc()
		}
	}

	h.depth++
	return h.depth
}

// Commit issues the real commit only on the outermost unwind, decrements the
// depth, and returns the new depth. Unbalanced calls clamp at zero instead
// of going negative.
func (h *Handle) Commit() int {
	if h.tx != nil && h.depth == 1 {
		if err := h.tx.Commit(); err != nil {
			log.Warn().Err(err).Str("type", h.conf.Type).Msg("Failed to commit transaction")
			telemetry.TransactionsTotal.With("commit", "error").Inc()
		} else {
			log.Debug().Str("type", h.conf.Type).Msg("Transaction committed")
			telemetry.TransactionsTotal.With("commit", "success").Inc()
		}
		h.tx = nil
	}

	if h.depth == 0 {
		log.Warn().Str("type", h.conf.Type).Msg("Commit called without a matching begin")
		return 0
	}

	h.depth--
	return h.depth
}

// Rollback issues the real rollback only on the outermost unwind, decrements
// the depth, and returns the new depth. A rollback nested inside other
// operations does not abort sibling work; it only takes effect when it is
// the call that brings the depth to zero.
func (h *Handle) Rollback() int {
	if h.tx != nil && h.depth == 1 {
		if err := h.tx.Rollback(); err != nil {
			log.Warn().Err(err).Str("type", h.conf.Type).Msg("Failed to roll back transaction")
			telemetry.TransactionsTotal.With("rollback", "error").Inc()
		} else {
			log.Debug().Str("type", h.conf.Type).Msg("Transaction rolled back")
			telemetry.TransactionsTotal.With("rollback", "success").Inc()
		}
		h.tx = nil
	}

	if h.depth == 0 {
		log.Warn().Str("type", h.conf.Type).Msg("Rollback called without a matching begin")
		return 0
	}

	h.depth--
	return h.depth
}

// InTransaction reports whether the real driver transaction is active.
func (h *Handle) InTransaction() bool {
	return h.tx != nil
}

// TransactionDepth returns the current nesting depth.
func (h *Handle) TransactionDepth() int {
	return h.depth
}
