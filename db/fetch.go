package db

import (
	"fmt"
)

// Record is one materialized row keyed by column name.
type Record map[string]any

// RowSet is an ordered, indexed collection of records. Indexes preserve
// cursor order; for paginated results they count down from the row's
// position in the full result set.
type RowSet struct {
	indexes []int
	rows    map[int]Record
}

// NewRowSet returns an empty row set.
func NewRowSet() *RowSet {
	return &RowSet{rows: make(map[int]Record)}
}

func (rs *RowSet) add(index int, rec Record) {
	rs.indexes = append(rs.indexes, index)
	rs.rows[index] = rec
}

// Len returns the number of rows.
func (rs *RowSet) Len() int {
	return len(rs.indexes)
}

// Indexes returns the row ordinals in cursor order.
func (rs *RowSet) Indexes() []int {
	return rs.indexes
}

// Get returns the record stored at an ordinal, or nil.
func (rs *RowSet) Get(index int) Record {
	return rs.rows[index]
}

// Each visits rows in cursor order.
func (rs *RowSet) Each(fn func(index int, rec Record) bool) {
	for _, index := range rs.indexes {
		if !fn(index, rs.rows[index]) {
			return
		}
	}
}

// fetchRows materializes a cursor. With lastIndex zero, rows are numbered
// 0, 1, 2, … in cursor order. With a non-zero lastIndex the first row gets
// that ordinal and later rows count down, so ordinals correspond to each
// row's position from the end of the unpaginated result. The cursor is
// always released. When no starting index was given and exactly one row came
// back, that single record is returned directly instead of a one-entry set.
func fetchRows(rows *Rows, lastIndex int) (any, error) {
	defer rows.Finalize()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	set := NewRowSet()
	index := lastIndex

	values := make([]any, len(cols))
	scanTargets := make([]any, len(cols))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			rec[col] = normalizeValue(values[i])
		}

		set.add(index, rec)
		if lastIndex == 0 {
			index++
		} else {
			index--
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if lastIndex == 0 && set.Len() == 1 {
		return set.Get(set.indexes[0]), nil
	}
	return set, nil
}

// normalizeValue converts driver byte slices into strings so records compare
// and marshal predictably.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
