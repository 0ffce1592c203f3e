package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cell holds one table value. After cleaning a cell is a string,
// a decimal.Decimal, a time.Time, or nil.
type Cell any

// Row maps canonical column names to cell values.
type Row map[string]Cell

// Table is an in-memory spreadsheet: an ordered header plus rows keyed by
// column name. Loaders produce all-string cells; the cleaner replaces them
// with typed values.
type Table struct {
	Columns []string
	Rows    []Row
}

// Str returns the cell as a string, or "" when absent or non-string.
func (r Row) Str(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Decimal returns the cell as a decimal, or zero when absent or non-numeric.
func (r Row) Decimal(col string) decimal.Decimal {
	if v, ok := r[col].(decimal.Decimal); ok {
		return v
	}
	return decimal.Zero
}

// Time returns the cell as a time, or the zero time when absent.
func (r Row) Time(col string) time.Time {
	if v, ok := r[col].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Fingerprint joins the row's cells in column order into a single string
// used for duplicate-row detection.
func (r Row) Fingerprint(columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, cellString(r[col]))
	}
	return strings.Join(parts, "|")
}

func cellString(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return ""
	}
}

// DropDuplicates removes rows whose full cell content repeats an earlier
// row, preserving first occurrences in order.
func (t *Table) DropDuplicates() {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		fp := row.Fingerprint(t.Columns)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
}

// HasColumn reports whether the table header contains col.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}
