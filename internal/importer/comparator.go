package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoCommonRange is returned when the two files share no settlement dates.
var ErrNoCommonRange = errors.New("no common date range between the two files")

// conformityTolerance is the absolute currency-unit tolerance: a delta whose
// absolute value is strictly below it is conforming. Exactly 5 is not.
var conformityTolerance = decimal.NewFromInt(5)

const (
	ConformityOK = "Conforme"
	ConformityKO = "Non conforme"
)

// DateRange is a closed interval of settlement dates.
type DateRange struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Min) && !t.After(r.Max)
}

// Comparator joins cleaned statement and recap tables and classifies each
// matched claim as conforming or not.
type Comparator struct{}

func NewComparator() *Comparator {
	return &Comparator{}
}

// TableDateRange scans a date column and returns its min/max. The second
// return is false when the table is empty or holds no parseable dates.
func TableDateRange(t *Table, col string) (DateRange, bool, error) {
	if len(t.Rows) == 0 {
		return DateRange{}, false, nil
	}
	if !t.HasColumn(col) {
		return DateRange{}, false, fmt.Errorf("column %q does not exist", col)
	}

	var r DateRange
	found := false
	for _, row := range t.Rows {
		d, ok := row[col].(time.Time)
		if !ok {
			continue
		}
		if !found {
			r = DateRange{Min: d, Max: d}
			found = true
			continue
		}
		if d.Before(r.Min) {
			r.Min = d
		}
		if d.After(r.Max) {
			r.Max = d
		}
	}
	return r, found, nil
}

// CommonDateRange intersects two ranges, returning false when they are
// disjoint.
func CommonDateRange(a, b DateRange) (DateRange, bool) {
	common := DateRange{Min: a.Min, Max: a.Max}
	if b.Min.After(common.Min) {
		common.Min = b.Min
	}
	if b.Max.Before(common.Max) {
		common.Max = b.Max
	}
	if common.Min.After(common.Max) {
		return DateRange{}, false
	}
	return common, true
}

// CommonRange computes the payment-date overlap of the two cleaned tables.
func (c *Comparator) CommonRange(stat, recap *Table) (DateRange, error) {
	statRange, statOK, err := TableDateRange(stat, ColPaymentDate)
	if err != nil {
		return DateRange{}, err
	}
	recapRange, recapOK, err := TableDateRange(recap, ColPaymentDate)
	if err != nil {
		return DateRange{}, err
	}
	if !statOK || !recapOK {
		return DateRange{}, ErrNoCommonRange
	}
	common, ok := CommonDateRange(statRange, recapRange)
	if !ok {
		return DateRange{}, ErrNoCommonRange
	}
	return common, nil
}

// FilterByDateRange returns the rows whose date column falls inside r.
func FilterByDateRange(t *Table, col string, r DateRange) *Table {
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		d, ok := row[col].(time.Time)
		if !ok {
			continue
		}
		if r.Contains(d) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// statGroupColumns is the header of the aggregated statement table.
var statGroupColumns = []string{
	ColClaimID,
	ColBeneficiaryName,
	ColMainInsured,
	ColPartnerName,
	ColIncidentDate,
	ColInsuredStatus,
	ColClaimStatus,
	ColAmountClaimed,
	ColAmountReimbursed,
	ColActName,
	ColActCategory,
	ColActFamily,
}

// GroupStatByClaim aggregates statement detail rows per claim identifier:
// amounts are summed, descriptive fields take their first value, and act
// labels are concatenated over unique values. Claim identifiers are
// upper-cased before grouping; two identifiers differing only in case are a
// duplicate and abort the comparison.
func GroupStatByClaim(t *Table) (*Table, error) {
	required := []string{
		ColClaimID, ColBeneficiaryName, ColMainInsured, ColPolicyNumber,
		ColPartnerName, ColIncidentDate, ColPaymentDate, ColClaimStatus,
		ColAmountClaimed, ColAmountReimbursed,
	}
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("columns missing from statement table: %s", strings.Join(missing, ", "))
	}

	type group struct {
		row      Row
		actNames []string
		actCats  []string
		actFams  []string
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range t.Rows {
		key := strings.TrimSpace(row.Str(ColClaimID))
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{row: Row{
				ColClaimID:          strings.ToUpper(key),
				ColBeneficiaryName:  row[ColBeneficiaryName],
				ColMainInsured:      row[ColMainInsured],
				ColPartnerName:      row[ColPartnerName],
				ColIncidentDate:     row[ColIncidentDate],
				ColInsuredStatus:    row[ColInsuredStatus],
				ColClaimStatus:      row[ColClaimStatus],
				ColAmountClaimed:    decimal.Zero,
				ColAmountReimbursed: decimal.Zero,
			}}
			groups[key] = g
			order = append(order, key)
		}
		g.row[ColAmountClaimed] = g.row.Decimal(ColAmountClaimed).Add(row.Decimal(ColAmountClaimed))
		g.row[ColAmountReimbursed] = g.row.Decimal(ColAmountReimbursed).Add(row.Decimal(ColAmountReimbursed))
		g.actNames = appendUnique(g.actNames, row.Str(ColActName))
		g.actCats = appendUnique(g.actCats, row.Str(ColActCategory))
		g.actFams = appendUnique(g.actFams, row.Str(ColActFamily))
	}

	out := &Table{Columns: statGroupColumns}
	upperSeen := make(map[string]string, len(order))
	for _, key := range order {
		upper := strings.ToUpper(key)
		if prev, dup := upperSeen[upper]; dup {
			return nil, fmt.Errorf("duplicate claim identifiers after grouping: %q and %q", prev, key)
		}
		upperSeen[upper] = key

		g := groups[key]
		g.row[ColActName] = strings.Join(g.actNames, ", ")
		g.row[ColActCategory] = strings.Join(g.actCats, ", ")
		g.row[ColActFamily] = strings.Join(g.actFams, ", ")
		out.Rows = append(out.Rows, g.row)
	}
	return out, nil
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Compare filters both tables to the common payment-date range, aggregates
// the statement side per claim, and inner-joins against the recap rows.
// Joined rows carry the amount deltas and a conformity verdict.
func (c *Comparator) Compare(stat, recap *Table, common DateRange) (*Table, error) {
	filteredStat := FilterByDateRange(stat, ColPaymentDate, common)
	filteredRecap := FilterByDateRange(recap, ColPaymentDate, common)

	grouped, err := GroupStatByClaim(filteredStat)
	if err != nil {
		return nil, err
	}

	byClaim := make(map[string]Row, len(grouped.Rows))
	for _, row := range grouped.Rows {
		byClaim[row.Str(ColClaimID)] = row
	}

	columns := append([]string{}, statGroupColumns...)
	columns = append(columns,
		ColEmployerName, ColPolicyNumber, ColPaymentMethod,
		ColAmountClaimedRecap, ColAmountReimbursedRecap,
		ColInvoiceNumber, ColNote,
		ColBilledAmountDiff, ColReimbursedAmountDiff, ColConformity,
	)

	out := &Table{Columns: columns}
	for _, recapRow := range filteredRecap.Rows {
		key := strings.ToUpper(strings.TrimSpace(recapRow.Str(ColClaimID)))
		statRow, ok := byClaim[key]
		if !ok {
			continue
		}

		merged := make(Row, len(columns))
		for _, col := range statGroupColumns {
			merged[col] = statRow[col]
		}
		merged[ColEmployerName] = recapRow[ColEmployerName]
		merged[ColPolicyNumber] = recapRow[ColPolicyNumber]
		merged[ColPaymentMethod] = recapRow[ColPaymentMethod]
		merged[ColAmountClaimedRecap] = recapRow.Decimal(ColAmountClaimed)
		merged[ColAmountReimbursedRecap] = recapRow.Decimal(ColAmountReimbursed)
		merged[ColInvoiceNumber] = recapRow[ColInvoiceNumber]
		merged[ColNote] = recapRow[ColNote]

		billedDiff := statRow.Decimal(ColAmountClaimed).Sub(recapRow.Decimal(ColAmountClaimed))
		reimbDiff := statRow.Decimal(ColAmountReimbursed).Sub(recapRow.Decimal(ColAmountReimbursed))
		merged[ColBilledAmountDiff] = billedDiff
		merged[ColReimbursedAmountDiff] = reimbDiff
		merged[ColConformity] = classifyConformity(billedDiff, reimbDiff)

		out.Rows = append(out.Rows, merged)
	}
	return out, nil
}

func classifyConformity(billedDiff, reimbDiff decimal.Decimal) string {
	if billedDiff.Abs().LessThan(conformityTolerance) && reimbDiff.Abs().LessThan(conformityTolerance) {
		return ConformityOK
	}
	return ConformityKO
}

// SplitConformity separates the comparison into non-conforming and
// conforming buckets. Rows flagged non-conforming whose amounts are exactly
// equal on both sides are reclaimed into the conforming bucket; the
// remaining non-conformities get an observation describing the discrepancy.
func (c *Comparator) SplitConformity(comparison *Table) (nonConforming, conforming *Table) {
	nonConforming = &Table{Columns: append(append([]string{}, comparison.Columns...), ColObservation)}
	conforming = &Table{Columns: comparison.Columns}

	seenConform := make(map[string]struct{})
	for _, row := range comparison.Rows {
		if row.Str(ColConformity) == ConformityOK {
			if _, dup := seenConform[row.Str(ColClaimID)]; dup {
				continue
			}
			seenConform[row.Str(ColClaimID)] = struct{}{}
			conforming.Rows = append(conforming.Rows, row)
			continue
		}

		exactMatch := row.Decimal(ColAmountClaimed).Equal(row.Decimal(ColAmountClaimedRecap)) &&
			row.Decimal(ColAmountReimbursed).Equal(row.Decimal(ColAmountReimbursedRecap))
		if exactMatch {
			if _, dup := seenConform[row.Str(ColClaimID)]; dup {
				continue
			}
			seenConform[row.Str(ColClaimID)] = struct{}{}
			conforming.Rows = append(conforming.Rows, row)
			continue
		}

		row[ColObservation] = GenerateObservation(row.Decimal(ColBilledAmountDiff), row.Decimal(ColReimbursedAmountDiff))
		nonConforming.Rows = append(nonConforming.Rows, row)
	}
	return nonConforming, conforming
}

// GenerateObservation explains which side of a non-conforming row is out of
// range.
func GenerateObservation(billedDiff, reimbDiff decimal.Decimal) string {
	var observations []string

	switch {
	case billedDiff.IsPositive() && reimbDiff.IsZero():
		observations = append(observations, "Statement billed amount greater than recap billed amount.")
	case billedDiff.IsNegative() && reimbDiff.IsZero():
		observations = append(observations, "Statement billed amount less than recap billed amount.")
	}
	switch {
	case reimbDiff.IsPositive() && billedDiff.IsZero():
		observations = append(observations, "Statement reimbursed amount greater than recap reimbursed amount.")
	case reimbDiff.IsNegative() && billedDiff.IsZero():
		observations = append(observations, "Statement reimbursed amount less than recap reimbursed amount.")
	}
	if (billedDiff.IsPositive() && reimbDiff.IsNegative()) || (billedDiff.IsNegative() && reimbDiff.IsPositive()) {
		observations = append(observations, "Billed and reimbursed amounts both out of range.")
	}

	if len(observations) == 0 {
		return "Non-conforming due to discrepancies."
	}
	return strings.Join(observations, "; ")
}

// ConformingDetailRows returns the subset of the original statement detail
// rows, restricted to the common range, whose claim identifier landed in the
// conforming bucket.
func (c *Comparator) ConformingDetailRows(stat *Table, common DateRange, conforming *Table) *Table {
	ids := make(map[string]struct{}, len(conforming.Rows))
	for _, row := range conforming.Rows {
		ids[row.Str(ColClaimID)] = struct{}{}
	}

	filtered := FilterByDateRange(stat, ColPaymentDate, common)
	out := &Table{Columns: filtered.Columns}
	for _, row := range filtered.Rows {
		key := strings.ToUpper(strings.TrimSpace(row.Str(ColClaimID)))
		if _, ok := ids[key]; ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
