package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from this epoch.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Day-first layouts tried in order when no explicit layout is given.
var fallbackLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"02/01/06",
}

// ParseDate converts a raw cell into a date. Numeric values are treated as
// spreadsheet serial day counts; strings go through layout, when given, then
// the day-first fallback chain.
func ParseDate(raw string, layout string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return FromSerial(serial), nil
	}

	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, l := range fallbackLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// Layouts tried by ParseFlexible before falling back to generic parsing.
var flexibleLayouts = []string{
	"01/02/2006",
	"2006-01-02",
}

// ParseFlexible is the lenient chain used for reference-data dates: explicit
// layouts first, then generic day-first parsing, then spreadsheet serials.
// The first attempt that succeeds wins.
func ParseFlexible(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, l := range flexibleLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	for _, l := range fallbackLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return FromSerial(serial), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// FromSerial converts a spreadsheet serial day count to a UTC date.
func FromSerial(serial float64) time.Time {
	days := int(serial)
	frac := serial - float64(days)
	t := serialEpoch.AddDate(0, 0, days)
	if frac > 0 {
		t = t.Add(time.Duration(frac * float64(24*time.Hour)))
	}
	return t
}

// ConvertDateColumn parses every cell of a date column in place. Cells that
// cannot be parsed become nil, matching coercion of invalid dates to null.
func ConvertDateColumn(t *Table, col string, layout string) error {
	if !t.HasColumn(col) {
		return fmt.Errorf("column %q does not exist", col)
	}
	for _, row := range t.Rows {
		switch v := row[col].(type) {
		case time.Time:
			// already typed
		case string:
			parsed, err := ParseDate(v, layout)
			if err != nil {
				row[col] = nil
				continue
			}
			row[col] = parsed
		default:
			row[col] = nil
		}
	}
	return nil
}
