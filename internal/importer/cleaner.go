package importer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Cleaner turns a raw all-string table into the typed, canonical form the
// comparator and mapper work on. Required-column validation happens in the
// loader before cleaning; the cleaner assumes the columns it touches exist
// whenever the source carried them.
type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// statDroppedColumns are carried by some statement exports but never used.
var statDroppedColumns = []string{
	"unnamed_1",
	ColBrokerName,
	"broker_sunuid",
	ColPartnerAddress,
}

// CleanStat normalizes a statement table in place.
func (c *Cleaner) CleanStat(t *Table) {
	NormalizeColumns(t)
	dropEmptyRows(t)
	t.DropDuplicates()
	dropColumns(t, statDroppedColumns)

	for _, col := range []string{ColAmountClaimed, ColAmountReimbursed} {
		if t.HasColumn(col) {
			coerceNumericColumn(t, col)
		}
	}

	cleanTextCells(t)
	upperTextCells(t)

	for _, col := range []string{ColPaymentDate, ColIncidentDate} {
		if t.HasColumn(col) {
			_ = ConvertDateColumn(t, col, "02/01/2006")
		}
	}

	dropRowsWithoutClaimID(t)
}

// CleanRecap normalizes a recap table in place.
func (c *Cleaner) CleanRecap(t *Table) {
	NormalizeColumns(t)
	dropEmptyRows(t)
	t.DropDuplicates()

	cleanTextCells(t)

	for _, col := range []string{ColAmountClaimed, ColAmountReimbursed} {
		if t.HasColumn(col) {
			coerceNumericColumn(t, col)
		}
	}

	upperTextCells(t)

	if t.HasColumn(ColPaymentDate) {
		_ = ConvertDateColumn(t, ColPaymentDate, "02-01-2006")
	}

	dropRowsWithoutClaimID(t)
}

func dropEmptyRows(t *Table) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		empty := true
		for _, col := range t.Columns {
			if s, ok := row[col].(string); ok && strings.TrimSpace(s) != "" {
				empty = false
				break
			}
			if row[col] != nil {
				if _, isStr := row[col].(string); !isStr {
					empty = false
					break
				}
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

func dropColumns(t *Table, cols []string) {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if _, ok := drop[c]; ok {
			for _, row := range t.Rows {
				delete(row, c)
			}
			continue
		}
		kept = append(kept, c)
	}
	t.Columns = kept
}

// coerceNumericColumn converts cells to decimals: comma decimal separators
// become points, lone dash or en-dash placeholders become zero, and anything
// that still fails to parse becomes zero.
func coerceNumericColumn(t *Table, col string) {
	for _, row := range t.Rows {
		s, ok := row[col].(string)
		if !ok {
			if _, isDec := row[col].(decimal.Decimal); !isDec {
				row[col] = decimal.Zero
			}
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "-" || s == "–" {
			row[col] = decimal.Zero
			continue
		}
		s = strings.ReplaceAll(s, ",", ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			row[col] = decimal.Zero
			continue
		}
		row[col] = d
	}
}

// cleanTextCells trims string cells and collapses internal whitespace runs
// to a single space.
func cleanTextCells(t *Table) {
	for _, row := range t.Rows {
		for col, v := range row {
			if s, ok := v.(string); ok {
				row[col] = innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
			}
		}
	}
}

func upperTextCells(t *Table) {
	for _, row := range t.Rows {
		for col, v := range row {
			if s, ok := v.(string); ok {
				row[col] = strings.ToUpper(s)
			}
		}
	}
}

func dropRowsWithoutClaimID(t *Table) {
	if !t.HasColumn(ColClaimID) {
		return
	}
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if strings.TrimSpace(row.Str(ColClaimID)) == "" {
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
}
