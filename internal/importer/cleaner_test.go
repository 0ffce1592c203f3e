package importer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newRawTable(columns []string, rows ...[]string) *Table {
	t := &Table{Columns: append([]string{}, columns...)}
	for _, raw := range rows {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(raw) {
				row[col] = raw[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ============================================================================
// TEST SUITE 1: COLUMN NORMALIZATION
// ============================================================================

func TestNormalizeColumnName_Synonyms(t *testing.T) {
	assert.Equal(t, ColClaimID, NormalizeColumnName("Numero de sinistre"))
	assert.Equal(t, ColClaimID, NormalizeColumnName("reglementId"))
	assert.Equal(t, ColPaymentDate, NormalizeColumnName("Date de règlement"))
	assert.Equal(t, ColAmountClaimed, NormalizeColumnName("Montant facturé"))
	assert.Equal(t, ColAmountClaimed, NormalizeColumnName("totalmttreclame"))
	assert.Equal(t, ColAmountReimbursed, NormalizeColumnName("totalmttrembourse"))
	assert.Equal(t, ColPaymentMethod, NormalizeColumnName("N°cheque/Autre_Moyent_de_payement"))
	assert.Equal(t, ColMainInsured, NormalizeColumnName("Assurés_principal"))
	assert.Equal(t, ColPolicyNumber, NormalizeColumnName("N°_police"))
}

func TestNormalizeColumnName_FallsThroughToNormalizedForm(t *testing.T) {
	assert.Equal(t, "acte_contrate_assure", NormalizeColumnName("Acte_Contraté_Assuré"))
	assert.Equal(t, "some_unknown_header", NormalizeColumnName("  Some - Unknown   Header "))
}

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "eeeac", StripAccents("éèêàç"))
	assert.Equal(t, "Assures principal", StripAccents("Assurés principal"))
}

// ============================================================================
// TEST SUITE 2: STAT CLEANING
// ============================================================================

func TestCleanStat_TypesAndFilters(t *testing.T) {
	table := newRawTable(
		[]string{"Numero de sinistre", "Date de règlement", "Montant facturé", "Montant remboursé", "Nom bénéficiaire"},
		[]string{"cl1", "15/03/2024", "120,50", "100", "  jean   dupont "},
		[]string{"cl2", "20/03/2024", "–", "-", "alice"},
		[]string{"", "21/03/2024", "10", "10", "dropped, no claim id"},
		[]string{"", "", "", "", ""},
	)

	NewCleaner().CleanStat(table)

	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, "CL1", first.Str(ColClaimID))
	assert.Equal(t, "JEAN DUPONT", first.Str(ColBeneficiaryName))
	assert.True(t, first.Decimal(ColAmountClaimed).Equal(decimal.RequireFromString("120.5")))
	assert.True(t, first.Decimal(ColAmountReimbursed).Equal(decimal.NewFromInt(100)))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), first.Time(ColPaymentDate))

	second := table.Rows[1]
	assert.True(t, second.Decimal(ColAmountClaimed).IsZero())
	assert.True(t, second.Decimal(ColAmountReimbursed).IsZero())
}

func TestCleanStat_UnparseableAmountsBecomeZero(t *testing.T) {
	table := newRawTable(
		[]string{"Numero de sinistre", "Montant facturé", "Montant remboursé"},
		[]string{"cl1", "1 234,56", "abc"},
	)

	NewCleaner().CleanStat(table)

	require.Len(t, table.Rows, 1)
	assert.True(t, table.Rows[0].Decimal(ColAmountClaimed).IsZero())
	assert.True(t, table.Rows[0].Decimal(ColAmountReimbursed).IsZero())
}

func TestCleanStat_DropsDuplicateRows(t *testing.T) {
	table := newRawTable(
		[]string{"Numero de sinistre", "Montant facturé"},
		[]string{"cl1", "10"},
		[]string{"cl1", "10"},
		[]string{"cl1", "20"},
	)

	NewCleaner().CleanStat(table)

	assert.Len(t, table.Rows, 2)
}

func TestCleanStat_DropsIrrelevantColumns(t *testing.T) {
	table := newRawTable(
		[]string{"Numero de sinistre", "Broker Name", "Adresse du Partenaire"},
		[]string{"cl1", "AXA", "Rue 12"},
	)

	NewCleaner().CleanStat(table)

	assert.False(t, table.HasColumn(ColBrokerName))
	assert.False(t, table.HasColumn(ColPartnerAddress))
	assert.True(t, table.HasColumn(ColClaimID))
}

func TestCleanStat_UnparseableDateBecomesNil(t *testing.T) {
	table := newRawTable(
		[]string{"Numero de sinistre", "Date de règlement"},
		[]string{"cl1", "not a date"},
	)

	NewCleaner().CleanStat(table)

	require.Len(t, table.Rows, 1)
	assert.Nil(t, table.Rows[0][ColPaymentDate])
}

// ============================================================================
// TEST SUITE 3: RECAP CLEANING
// ============================================================================

func TestCleanRecap_TypesAndFilters(t *testing.T) {
	table := newRawTable(
		[]string{"reglementId", "date_reglement", "totalmttreclame", "totalmttrembourse", "Employeur"},
		[]string{"cl1", "15-03-2024", "99,99", "80", "acme sarl"},
		[]string{" ", "16-03-2024", "1", "1", "missing claim id"},
	)

	NewCleaner().CleanRecap(table)

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "CL1", row.Str(ColClaimID))
	assert.Equal(t, "ACME SARL", row.Str(ColEmployerName))
	assert.True(t, row.Decimal(ColAmountClaimed).Equal(decimal.RequireFromString("99.99")))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), row.Time(ColPaymentDate))
}

// ============================================================================
// TEST SUITE 4: HEADER VALIDATION
// ============================================================================

func TestMissingHeaders(t *testing.T) {
	have := append([]string{}, StatRequiredHeaders...)
	assert.Empty(t, MissingHeaders(have, StatRequiredHeaders))

	short := have[:len(have)-2]
	missing := MissingHeaders(short, StatRequiredHeaders)
	assert.Len(t, missing, 2)
	assert.Contains(t, missing, "Numero de Facture")
	assert.Contains(t, missing, "Modifié par")
}
