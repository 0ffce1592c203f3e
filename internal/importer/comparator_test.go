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

func statRow(claimID string, paymentDate time.Time, claimed, reimbursed int64) Row {
	return Row{
		ColClaimID:          claimID,
		ColBeneficiaryName:  "JEAN DUPONT",
		ColMainInsured:      "JEAN DUPONT",
		ColPartnerName:      "CLINIQUE DU SUD",
		ColPolicyNumber:     "POL-1",
		ColIncidentDate:     paymentDate.AddDate(0, 0, -3),
		ColPaymentDate:      paymentDate,
		ColInsuredStatus:    "A",
		ColClaimStatus:      "A",
		ColAmountClaimed:    decimal.NewFromInt(claimed),
		ColAmountReimbursed: decimal.NewFromInt(reimbursed),
		ColActName:          "CONSULTATION",
		ColActCategory:      "SOINS",
		ColActFamily:        "AMBULATOIRE",
	}
}

func recapRow(claimID string, paymentDate time.Time, claimed, reimbursed int64) Row {
	return Row{
		ColClaimID:          claimID,
		ColPaymentDate:      paymentDate,
		ColBeneficiaryName:  "JEAN DUPONT",
		ColMainInsured:      "JEAN DUPONT",
		ColPartnerName:      "CLINIQUE DU SUD",
		ColEmployerName:     "ACME SARL",
		ColPolicyNumber:     "POL-1",
		ColPaymentMethod:    "CHQ-9",
		ColAmountClaimed:    decimal.NewFromInt(claimed),
		ColAmountReimbursed: decimal.NewFromInt(reimbursed),
		ColInvoiceNumber:    "INV-1",
		ColNote:             "",
	}
}

func statTable(rows ...Row) *Table {
	cols := []string{
		ColClaimID, ColBeneficiaryName, ColMainInsured, ColPartnerName,
		ColPolicyNumber, ColIncidentDate, ColPaymentDate, ColInsuredStatus,
		ColClaimStatus, ColAmountClaimed, ColAmountReimbursed,
		ColActName, ColActCategory, ColActFamily,
	}
	return &Table{Columns: cols, Rows: rows}
}

func recapTable(rows ...Row) *Table {
	cols := []string{
		ColClaimID, ColPaymentDate, ColBeneficiaryName, ColMainInsured,
		ColPartnerName, ColEmployerName, ColPolicyNumber, ColPaymentMethod,
		ColAmountClaimed, ColAmountReimbursed, ColInvoiceNumber, ColNote,
	}
	return &Table{Columns: cols, Rows: rows}
}

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

// ============================================================================
// TEST SUITE 1: DATE RANGES
// ============================================================================

func TestCommonDateRange_Overlap(t *testing.T) {
	a := DateRange{Min: day, Max: day.AddDate(0, 0, 10)}
	b := DateRange{Min: day.AddDate(0, 0, 5), Max: day.AddDate(0, 0, 20)}

	common, ok := CommonDateRange(a, b)
	require.True(t, ok)
	assert.Equal(t, day.AddDate(0, 0, 5), common.Min)
	assert.Equal(t, day.AddDate(0, 0, 10), common.Max)
}

func TestCommonDateRange_Disjoint(t *testing.T) {
	a := DateRange{Min: day, Max: day.AddDate(0, 0, 2)}
	b := DateRange{Min: day.AddDate(0, 0, 5), Max: day.AddDate(0, 0, 9)}

	_, ok := CommonDateRange(a, b)
	assert.False(t, ok)
}

func TestCommonRange_NoOverlapFails(t *testing.T) {
	stat := statTable(statRow("CL1", day, 100, 80))
	recap := recapTable(recapRow("CL1", day.AddDate(0, 1, 0), 100, 80))

	_, err := NewComparator().CommonRange(stat, recap)
	assert.ErrorIs(t, err, ErrNoCommonRange)
}

// ============================================================================
// TEST SUITE 2: GROUPING
// ============================================================================

func TestGroupStatByClaim_SumsAndConcatenates(t *testing.T) {
	r1 := statRow("CL1", day, 60, 40)
	r2 := statRow("CL1", day, 40, 40)
	r2[ColActName] = "RADIO"

	grouped, err := GroupStatByClaim(statTable(r1, r2))
	require.NoError(t, err)
	require.Len(t, grouped.Rows, 1)

	row := grouped.Rows[0]
	assert.True(t, row.Decimal(ColAmountClaimed).Equal(decimal.NewFromInt(100)))
	assert.True(t, row.Decimal(ColAmountReimbursed).Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "CONSULTATION, RADIO", row.Str(ColActName))
}

func TestGroupStatByClaim_CaseCollisionIsDuplicate(t *testing.T) {
	_, err := GroupStatByClaim(statTable(statRow("cl1", day, 10, 5), statRow("CL1", day, 10, 5)))
	assert.Error(t, err)
}

// ============================================================================
// TEST SUITE 3: CONFORMITY
// ============================================================================

func TestCompare_ExactMatchIsConforming(t *testing.T) {
	comparator := NewComparator()
	stat := statTable(statRow("CL1", day, 100, 80))
	recap := recapTable(recapRow("cl1", day, 100, 80))

	common, err := comparator.CommonRange(stat, recap)
	require.NoError(t, err)

	comparison, err := comparator.Compare(stat, recap, common)
	require.NoError(t, err)
	require.Len(t, comparison.Rows, 1)
	assert.Equal(t, ConformityOK, comparison.Rows[0].Str(ColConformity))
	assert.Equal(t, "CL1", comparison.Rows[0].Str(ColClaimID))
}

func TestCompare_ToleranceBoundary(t *testing.T) {
	comparator := NewComparator()
	common := DateRange{Min: day, Max: day}

	// Delta of 4 stays inside the tolerance.
	comparison, err := comparator.Compare(
		statTable(statRow("CL1", day, 104, 80)),
		recapTable(recapRow("CL1", day, 100, 80)),
		common,
	)
	require.NoError(t, err)
	assert.Equal(t, ConformityOK, comparison.Rows[0].Str(ColConformity))

	// Delta of exactly 5 is out.
	comparison, err = comparator.Compare(
		statTable(statRow("CL2", day, 105, 80)),
		recapTable(recapRow("CL2", day, 100, 80)),
		common,
	)
	require.NoError(t, err)
	assert.Equal(t, ConformityKO, comparison.Rows[0].Str(ColConformity))
}

func TestCompare_UnmatchedRecapRowIsDropped(t *testing.T) {
	comparator := NewComparator()
	common := DateRange{Min: day, Max: day}

	comparison, err := comparator.Compare(
		statTable(statRow("CL1", day, 100, 80)),
		recapTable(recapRow("CL1", day, 100, 80), recapRow("CL9", day, 50, 40)),
		common,
	)
	require.NoError(t, err)
	assert.Len(t, comparison.Rows, 1)
}

func TestSplitConformity_ExactEqualRowsAreReclaimed(t *testing.T) {
	comparator := NewComparator()
	row := Row{
		ColClaimID:               "CL1",
		ColAmountClaimed:         decimal.NewFromInt(100),
		ColAmountClaimedRecap:    decimal.NewFromInt(100),
		ColAmountReimbursed:      decimal.NewFromInt(80),
		ColAmountReimbursedRecap: decimal.NewFromInt(80),
		ColBilledAmountDiff:      decimal.Zero,
		ColReimbursedAmountDiff:  decimal.Zero,
		ColConformity:            ConformityKO,
	}
	comparison := &Table{Columns: []string{ColClaimID, ColConformity}, Rows: []Row{row}}

	nonConforming, conforming := comparator.SplitConformity(comparison)
	assert.Empty(t, nonConforming.Rows)
	require.Len(t, conforming.Rows, 1)
	assert.Equal(t, "CL1", conforming.Rows[0].Str(ColClaimID))
}

func TestSplitConformity_SplitsAndAnnotates(t *testing.T) {
	comparator := NewComparator()
	common := DateRange{Min: day, Max: day}

	// 200 vs 180 is out of tolerance on the billed side only.
	comparison, err := comparator.Compare(
		statTable(statRow("CL1", day, 200, 80), statRow("CL2", day, 100, 80)),
		recapTable(recapRow("CL1", day, 180, 80), recapRow("CL2", day, 100, 80)),
		common,
	)
	require.NoError(t, err)

	nonConforming, conforming := comparator.SplitConformity(comparison)
	require.Len(t, nonConforming.Rows, 1)
	require.Len(t, conforming.Rows, 1)
	assert.Equal(t, "CL1", nonConforming.Rows[0].Str(ColClaimID))
	assert.Equal(t, "Statement billed amount greater than recap billed amount.", nonConforming.Rows[0].Str(ColObservation))
}

func TestSplitConformity_ObservationFallback(t *testing.T) {
	assert.Equal(t, "Non-conforming due to discrepancies.",
		GenerateObservation(decimal.NewFromInt(10), decimal.NewFromInt(10)))
	assert.Equal(t, "Billed and reimbursed amounts both out of range.",
		GenerateObservation(decimal.NewFromInt(10), decimal.NewFromInt(-10)))
}

// ============================================================================
// TEST SUITE 4: EXPORT
// ============================================================================

func TestConformingDetailRows(t *testing.T) {
	comparator := NewComparator()
	stat := statTable(
		statRow("CL1", day, 60, 40),
		statRow("CL1", day, 40, 40),
		statRow("CL2", day, 500, 10),
	)
	conforming := &Table{Columns: []string{ColClaimID}, Rows: []Row{{ColClaimID: "CL1"}}}

	out := comparator.ConformingDetailRows(stat, DateRange{Min: day, Max: day}, conforming)
	assert.Len(t, out.Rows, 2)
}
