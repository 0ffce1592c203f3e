package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are not xlsx, xls or csv.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file contains no rows")
)

// MissingColumnsError reports required headers absent from an uploaded file.
type MissingColumnsError struct {
	FileName string
	Missing  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("file %s is missing required columns: %s", e.FileName, strings.Join(e.Missing, ", "))
}

// Loader reads spreadsheet files into raw all-string tables. The first row
// is the header; every cell keeps its source text untouched.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses content according to the file name's extension.
func (l *Loader) Load(fileName string, content []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return l.loadXLSX(content)
	case ".xls":
		return l.loadXLS(content)
	case ".csv":
		return l.loadCSV(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
}

// LoadValidated parses the file and checks its raw headers against the
// required set before returning.
func (l *Loader) LoadValidated(fileName string, content []byte, required []string) (*Table, error) {
	t, err := l.Load(fileName, content)
	if err != nil {
		return nil, err
	}
	if missing := MissingHeaders(t.Columns, required); len(missing) > 0 {
		return nil, &MissingColumnsError{FileName: fileName, Missing: missing}
	}
	return t, nil
}

func (l *Loader) loadXLSX(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return tableFromRows(rows)
}

func (l *Loader) loadXLS(content []byte) (*Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyFile
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return tableFromRows(rows)
}

func (l *Loader) loadCSV(content []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, record)
	}
	return tableFromRows(rows)
}

func tableFromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := &Table{Columns: header}
	for _, raw := range rows[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = raw[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
