package db

import (
	"fmt"
	"strings"
)

// sequenceFlushInterval controls how often old sequence rows are pruned.
const sequenceFlushInterval = 10000

// NextSequence returns the next value from the connection's sequence table
// (`<prefix>sequence`). The table is an auto-increment counter: each call
// inserts a row and reads the generated id. Every sequenceFlushInterval-th
// value prunes the rows below it.
func (h *Handle) NextSequence() (int64, error) {
	table := h.conf.Prefix + "sequence"

	res, err := h.runRawExec(fmt.Sprintf("INSERT INTO `%s` (seq) VALUES (NULL)", table))
	if err != nil {
		return 0, err
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, QueryExecutionError{Err: err}
	}

	if seq%sequenceFlushInterval == 0 {
		if _, err := h.runRawExec(fmt.Sprintf("DELETE FROM `%s` WHERE seq < %d", table, seq)); err != nil {
			// Pruning is best-effort; the sequence value is already valid
			return seq, nil
		}
	}

	return seq, nil
}

// BestSupportedCharset probes the server for the preferred character set,
// favoring utf8mb4 over utf8. The probe fetches with a starting index of 1,
// so with both charsets present the preferred row lands at index 1.
func (h *Handle) BestSupportedCharset() (string, error) {
	rows, err := h.RunRawQuery("SHOW CHARACTER SET WHERE Charset IN ('utf8mb4', 'utf8') ORDER BY Charset DESC")
	if err != nil {
		return "", err
	}

	data, err := fetchRows(rows, 1)
	if err != nil {
		return "", QueryExecutionError{Err: err}
	}

	switch v := data.(type) {
	case *RowSet:
		if v.Len() == 0 {
			return "", fmt.Errorf("no supported character set reported")
		}
		rec := v.Get(1)
		if rec == nil {
			rec = v.Get(v.Indexes()[0])
		}
		return charsetFrom(rec)
	case Record:
		return charsetFrom(v)
	default:
		return "", fmt.Errorf("unexpected charset probe result")
	}
}

func charsetFrom(rec Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("no supported character set reported")
	}
	if cs, ok := rec["Charset"].(string); ok && cs != "" {
		return cs, nil
	}
	return "", fmt.Errorf("charset column missing from probe result")
}

// Quote escapes a string literal for direct interpolation, MySQL style.
// Prefer bound parameters; this exists for the rare maintenance statement
// that cannot use them.
func (h *Handle) Quote(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`"`, `\"`,
		"\x00", `\0`,
		"\n", `\n`,
		"\r", `\r`,
		"\x1a", `\Z`,
	)
	return replacer.Replace(s)
}
