package db

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// QueryLogEntry is one diagnostic record: the rendered SQL and how long it
// took, plus the failure message when the statement errored.
type QueryLogEntry struct {
	Ident   string
	Query   string
	Elapsed time.Duration
	Err     string
}

// QueryLogger receives one entry per instrumented statement execution.
type QueryLogger interface {
	AddQueryLog(entry QueryLogEntry)
}

// zerologQueryLog is the default sink: entries go to the debug log.
type zerologQueryLog struct{}

func (zerologQueryLog) AddQueryLog(entry QueryLogEntry) {
	event := log.Debug().
		Str("query", entry.Query).
		Dur("elapsed", entry.Elapsed)
	if entry.Ident != "" {
		event = event.Str("ident", entry.Ident)
	}
	if entry.Err != "" {
		event = event.Str("error", entry.Err)
	}
	event.Msg("Query executed")
}

// MemoryQueryLog retains the most recent entries for debug surfaces.
type MemoryQueryLog struct {
	mu      sync.Mutex
	limit   int
	entries []QueryLogEntry
}

// NewMemoryQueryLog creates a sink holding up to limit entries.
func NewMemoryQueryLog(limit int) *MemoryQueryLog {
	if limit < 1 {
		limit = 1
	}
	return &MemoryQueryLog{limit: limit}
}

func (m *MemoryQueryLog) AddQueryLog(entry QueryLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (m *MemoryQueryLog) Entries() []QueryLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]QueryLogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
