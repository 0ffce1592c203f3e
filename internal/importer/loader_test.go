package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", addr, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoad_CSV(t *testing.T) {
	content := []byte("reglementId,totalmttreclame\ncl1,100\ncl2,200\n")

	table, err := NewLoader().Load("recap.csv", content)
	require.NoError(t, err)

	assert.Equal(t, []string{"reglementId", "totalmttreclame"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "cl1", table.Rows[0].Str("reglementId"))
	assert.Equal(t, "200", table.Rows[1].Str("totalmttreclame"))
}

func TestLoad_CSVShortRowsPadded(t *testing.T) {
	content := []byte("a,b,c\n1,2\n")

	table, err := NewLoader().Load("f.csv", content)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0].Str("c"))
}

func TestLoad_XLSX(t *testing.T) {
	content := buildXLSX(t, [][]any{
		{"reglementId", "totalmttreclame"},
		{"cl1", 100},
	})

	table, err := NewLoader().Load("recap.xlsx", content)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "cl1", table.Rows[0].Str("reglementId"))
	assert.Equal(t, "100", table.Rows[0].Str("totalmttreclame"))
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := NewLoader().Load("claims.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_EmptyCSV(t *testing.T) {
	_, err := NewLoader().Load("empty.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadValidated_MissingColumns(t *testing.T) {
	header := strings.Join(RecapRequiredHeaders[:10], ",")
	content := []byte(header + "\n")

	_, err := NewLoader().LoadValidated("recap.csv", content, RecapRequiredHeaders)
	require.Error(t, err)

	var missingErr *MissingColumnsError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, RecapRequiredHeaders[10:], missingErr.Missing)
}

func TestLoadValidated_AllHeadersPresent(t *testing.T) {
	content := []byte(strings.Join(RecapRequiredHeaders, ",") +
		"\ncl1,15-03-2024,JD,CHQ,,P1,JD,ACME,POL,100,80,INV,note\n")

	table, err := NewLoader().LoadValidated("recap.csv", content, RecapRequiredHeaders)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
}
