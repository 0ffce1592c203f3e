package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetNonConformities = "Non Conformites"
	sheetFilteredStat    = "Statistiques Filtrees"
	sheetFilteredRecap   = "Recapitulatif Filtre"
)

// ReportWriter renders the non-conformity workbook attached to a session
// that finished with discrepancies.
type ReportWriter struct{}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Write builds an xlsx workbook holding the non-conforming rows plus the
// statement and recap detail rows restricted to those claim identifiers.
func (w *ReportWriter) Write(nonConforming, stat, recap *Table) ([]byte, error) {
	ids := make(map[string]struct{}, len(nonConforming.Rows))
	for _, row := range nonConforming.Rows {
		ids[row.Str(ColClaimID)] = struct{}{}
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetNonConformities)
	if err := writeSheet(f, sheetNonConformities, nonConforming); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetFilteredStat); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetFilteredStat, filterByClaimIDs(stat, ids)); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetFilteredRecap); err != nil {
		return nil, err
	}
	if err := writeSheet(f, sheetFilteredRecap, filterByClaimIDs(recap, ids)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFileName derives the workbook object name from a timestamp.
func ReportFileName(at time.Time) string {
	return fmt.Sprintf("rapports_sinistres_%s.xlsx", at.Format("20060102_150405"))
}

func filterByClaimIDs(t *Table, ids map[string]struct{}) *Table {
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		key := strings.ToUpper(strings.TrimSpace(row.Str(ColClaimID)))
		if _, ok := ids[key]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}

	for i, row := range t.Rows {
		cells := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = exportCell(row[col])
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &cells); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i, sheet, err)
		}
	}
	return nil
}

func exportCell(c Cell) any {
	switch v := c.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		f, _ := v.Float64()
		return f
	case time.Time:
		return v.Format("2006-01-02")
	default:
		return v
	}
}
