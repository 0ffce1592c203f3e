package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"claims-service/internal/importer"
	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MapperStore is the persistence surface the mapper drives. Every method is
// idempotent on its natural key so re-imports never duplicate reference
// data.
type MapperStore interface {
	FindCountryByName(ctx context.Context, name string) (*models.Country, error)
	GetOrCreateCategory(ctx context.Context, label string) (*models.ActCategory, error)
	GetOrCreateFamily(ctx context.Context, label string, categoryID uuid.UUID) (*models.ActFamily, error)
	GetOrCreateAct(ctx context.Context, label string, familyID uuid.UUID) (*models.Act, error)
	GetOrCreatePartner(ctx context.Context, name string, countryID uuid.UUID) (*models.Partner, error)
	GetOrCreatePaymentMethod(ctx context.Context, paymentNumber string, emissionDate time.Time, providerID uuid.UUID) (*models.PaymentMethod, error)
	GetOrCreateOperator(ctx context.Context, name string, countryID uuid.UUID) (*models.Operator, error)
	GetOrCreateClient(ctx context.Context, name string, countryID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Client, error)
	GetOrCreatePolicy(ctx context.Context, policyNumber string, clientID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Policy, error)
	GetOrCreateInsured(ctx context.Context, name string, role models.InsuredRole, primaryID *uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Insured, bool, error)
	LinkInsuredEmployer(ctx context.Context, link models.InsuredEmployer) error
	GetOrCreateInvoice(ctx context.Context, invoiceNumber string, claimed, reimbursed decimal.Decimal, providerID, insuredID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Invoice, error)
	UpsertClaim(ctx context.Context, claim *models.Claim) (*models.Claim, error)
}

// MapContext carries the tenancy and provenance of one mapping run.
type MapContext struct {
	SessionID uuid.UUID
	FileID    uuid.UUID
	CountryID uuid.UUID
	RunLog    *importer.RunLog
}

// MapResult summarizes what one mapping run wrote.
type MapResult struct {
	InsuredCreated  int
	ClaimsCreated   int
	TotalClaimed    decimal.Decimal
	TotalReimbursed decimal.Decimal
	Errors          []string
}

// MapperService walks the conforming statement rows in four passes and
// writes the relational graph. Row-level failures are collected and never
// stop the batch; an unresolvable importing country aborts it.
type MapperService struct {
	store  MapperStore
	logger *slog.Logger
}

func NewMapperService(store MapperStore) *MapperService {
	return &MapperService{
		store:  store,
		logger: slog.Default().With("component", "mapper"),
	}
}

// MapTable runs all four passes over the cleaned, conforming statement rows.
func (s *MapperService) MapTable(ctx context.Context, table *importer.Table, mc MapContext) (*MapResult, error) {
	if mc.CountryID == uuid.Nil {
		return nil, fmt.Errorf("cannot map rows without an importing country: %w", ErrCountryUnresolved)
	}
	if mc.RunLog == nil {
		mc.RunLog = importer.NewRunLog(mc.SessionID.String())
	}

	result := &MapResult{
		TotalClaimed:    decimal.Zero,
		TotalReimbursed: decimal.Zero,
	}
	insuredByName := make(map[string]*models.Insured)

	s.runReferencePass(ctx, table, mc, result)
	s.runPrimaryInsuredPass(ctx, table, mc, result, insuredByName)
	s.runDependentInsuredPass(ctx, table, mc, result, insuredByName)
	s.runClaimPass(ctx, table, mc, result, insuredByName)

	mc.RunLog.Info("mapping finished",
		"insured_created", result.InsuredCreated,
		"claims_created", result.ClaimsCreated,
		"errors", len(result.Errors),
	)
	return result, nil
}

// runReferencePass creates the act taxonomy, partners, payment methods,
// operators, clients and policies for every row.
func (s *MapperService) runReferencePass(ctx context.Context, table *importer.Table, mc MapContext, result *MapResult) {
	mc.RunLog.StepStart(1, "reference data")
	errsBefore := len(result.Errors)

	for i, row := range table.Rows {
		if err := s.mapRowReferences(ctx, row, mc); err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(1, i, err))
		}
	}

	mc.RunLog.StepEnd(1, "reference data", len(result.Errors)-errsBefore)
}

func (s *MapperService) mapRowReferences(ctx context.Context, row importer.Row, mc MapContext) error {
	category, err := s.store.GetOrCreateCategory(ctx, labelOrBlank(row.Str(importer.ColActCategory)))
	if err != nil {
		return err
	}
	family, err := s.store.GetOrCreateFamily(ctx, labelOrBlank(row.Str(importer.ColActFamily)), category.ID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetOrCreateAct(ctx, labelOrBlank(row.Str(importer.ColActName)), family.ID); err != nil {
		return err
	}

	partner, err := s.resolvePartner(ctx, row, mc)
	if err != nil {
		return err
	}

	emissionDate, err := resolveDate(row[importer.ColPaymentDate])
	if err != nil {
		return fmt.Errorf("payment method emission date: %w", err)
	}
	if _, err := s.store.GetOrCreatePaymentMethod(ctx, strings.TrimSpace(row.Str(importer.ColPaymentMethod)), emissionDate, partner.ID); err != nil {
		return err
	}

	if _, err := s.store.GetOrCreateOperator(ctx, labelOrBlank(row.Str(importer.ColModifiedBy)), mc.CountryID); err != nil {
		return err
	}

	client, err := s.store.GetOrCreateClient(ctx, labelOrBlank(row.Str(importer.ColEmployerName)), mc.CountryID, &mc.FileID, &mc.SessionID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetOrCreatePolicy(ctx, labelOrBlank(row.Str(importer.ColPolicyNumber)), client.ID, &mc.FileID, &mc.SessionID); err != nil {
		return err
	}
	return nil
}

// resolvePartner finds the partner's country by the row's country string,
// falling back to the importing country when the string does not resolve.
func (s *MapperService) resolvePartner(ctx context.Context, row importer.Row, mc MapContext) (*models.Partner, error) {
	countryID := mc.CountryID
	if name := strings.TrimSpace(row.Str(importer.ColPartnerCountry)); name != "" {
		country, err := s.store.FindCountryByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if country != nil {
			countryID = country.ID
		}
	}
	return s.store.GetOrCreatePartner(ctx, labelOrBlank(row.Str(importer.ColPartnerName)), countryID)
}

// runPrimaryInsuredPass creates every insured whose status is primary and
// links them to their employer and policy.
func (s *MapperService) runPrimaryInsuredPass(ctx context.Context, table *importer.Table, mc MapContext, result *MapResult, insuredByName map[string]*models.Insured) {
	mc.RunLog.StepStart(2, "primary insured")
	errsBefore := len(result.Errors)

	for i, row := range table.Rows {
		if models.RoleForStatusCode(row.Str(importer.ColInsuredStatus)) != models.RolePrimary {
			continue
		}
		name := normalizeName(row.Str(importer.ColBeneficiaryName))
		if name == "" {
			result.Errors = append(result.Errors, mc.RunLog.RowError(2, i, fmt.Errorf("primary insured has no name")))
			continue
		}

		insured, created, err := s.store.GetOrCreateInsured(ctx, name, models.RolePrimary, nil, &mc.FileID, &mc.SessionID)
		if err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(2, i, err))
			continue
		}
		insuredByName[name] = insured
		if created {
			result.InsuredCreated++
		}

		if err := s.linkEmployer(ctx, row, mc, insured, models.RolePrimary, nil); err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(2, i, err))
		}
	}

	mc.RunLog.StepEnd(2, "primary insured", len(result.Errors)-errsBefore)
}

// runDependentInsuredPass creates spouses and children, auto-creating a
// missing primary from the main-insured column first.
func (s *MapperService) runDependentInsuredPass(ctx context.Context, table *importer.Table, mc MapContext, result *MapResult, insuredByName map[string]*models.Insured) {
	mc.RunLog.StepStart(3, "dependent insured")
	errsBefore := len(result.Errors)

	for i, row := range table.Rows {
		role := models.RoleForStatusCode(row.Str(importer.ColInsuredStatus))
		if role != models.RoleSpouse && role != models.RoleChild {
			continue
		}

		primaryName := normalizeName(row.Str(importer.ColMainInsured))
		if primaryName == "" {
			mc.RunLog.Warn("dependent row has no main insured name, skipping",
				"row", i,
				"dependent", row.Str(importer.ColBeneficiaryName),
			)
			continue
		}

		primary, ok := insuredByName[primaryName]
		if !ok {
			mc.RunLog.Warn("main insured missing, creating automatically",
				"main_insured", primaryName,
				"dependent", row.Str(importer.ColBeneficiaryName),
			)
			created := false
			var err error
			primary, created, err = s.store.GetOrCreateInsured(ctx, primaryName, models.RolePrimary, nil, &mc.FileID, &mc.SessionID)
			if err != nil {
				result.Errors = append(result.Errors, mc.RunLog.RowError(3, i, err))
				continue
			}
			insuredByName[primaryName] = primary
			if created {
				result.InsuredCreated++
			}
		}

		name := normalizeName(row.Str(importer.ColBeneficiaryName))
		insured, created, err := s.store.GetOrCreateInsured(ctx, name, role, &primary.ID, &mc.FileID, &mc.SessionID)
		if err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(3, i, err))
			continue
		}
		insuredByName[name] = insured
		if created {
			result.InsuredCreated++
		}

		if err := s.linkEmployer(ctx, row, mc, insured, role, &primary.ID); err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(3, i, err))
		}
	}

	mc.RunLog.StepEnd(3, "dependent insured", len(result.Errors)-errsBefore)
}

func (s *MapperService) linkEmployer(ctx context.Context, row importer.Row, mc MapContext, insured *models.Insured, role models.InsuredRole, primaryID *uuid.UUID) error {
	client, err := s.store.GetOrCreateClient(ctx, labelOrBlank(row.Str(importer.ColEmployerName)), mc.CountryID, &mc.FileID, &mc.SessionID)
	if err != nil {
		return err
	}
	policy, err := s.store.GetOrCreatePolicy(ctx, labelOrBlank(row.Str(importer.ColPolicyNumber)), client.ID, &mc.FileID, &mc.SessionID)
	if err != nil {
		return err
	}
	return s.store.LinkInsuredEmployer(ctx, models.InsuredEmployer{
		InsuredID:           insured.ID,
		EmployerID:          client.ID,
		PolicyID:            policy.ID,
		Role:                role,
		PrimaryInsuredRefID: primaryID,
		ImportSessionID:     &mc.SessionID,
	})
}

// runClaimPass creates invoices and upserts claims for every row.
func (s *MapperService) runClaimPass(ctx context.Context, table *importer.Table, mc MapContext, result *MapResult, insuredByName map[string]*models.Insured) {
	mc.RunLog.StepStart(4, "claims and invoices")
	errsBefore := len(result.Errors)

	for i, row := range table.Rows {
		if err := s.mapRowClaim(ctx, row, mc, result, insuredByName); err != nil {
			result.Errors = append(result.Errors, mc.RunLog.RowError(4, i, err))
		}
	}

	mc.RunLog.StepEnd(4, "claims and invoices", len(result.Errors)-errsBefore)
}

func (s *MapperService) mapRowClaim(ctx context.Context, row importer.Row, mc MapContext, result *MapResult, insuredByName map[string]*models.Insured) error {
	name := normalizeName(row.Str(importer.ColBeneficiaryName))
	insured, ok := insuredByName[name]
	if !ok {
		return fmt.Errorf("no insured found for %q", name)
	}

	provider, err := s.resolvePartner(ctx, row, mc)
	if err != nil {
		return err
	}

	claimed := row.Decimal(importer.ColAmountClaimed)
	reimbursed := row.Decimal(importer.ColAmountReimbursed)
	invoice, err := s.store.GetOrCreateInvoice(ctx,
		normalizeInvoiceNumber(row[importer.ColInvoiceNumber]),
		claimed, reimbursed, provider.ID, insured.ID, &mc.FileID, &mc.SessionID,
	)
	if err != nil {
		return err
	}

	category, err := s.store.GetOrCreateCategory(ctx, labelOrBlank(row.Str(importer.ColActCategory)))
	if err != nil {
		return err
	}
	family, err := s.store.GetOrCreateFamily(ctx, labelOrBlank(row.Str(importer.ColActFamily)), category.ID)
	if err != nil {
		return err
	}
	act, err := s.store.GetOrCreateAct(ctx, labelOrBlank(row.Str(importer.ColActName)), family.ID)
	if err != nil {
		return err
	}
	operator, err := s.store.GetOrCreateOperator(ctx, labelOrBlank(row.Str(importer.ColModifiedBy)), mc.CountryID)
	if err != nil {
		return err
	}
	client, err := s.store.GetOrCreateClient(ctx, labelOrBlank(row.Str(importer.ColEmployerName)), mc.CountryID, &mc.FileID, &mc.SessionID)
	if err != nil {
		return err
	}
	policy, err := s.store.GetOrCreatePolicy(ctx, labelOrBlank(row.Str(importer.ColPolicyNumber)), client.ID, &mc.FileID, &mc.SessionID)
	if err != nil {
		return err
	}

	claimDate, err := resolveDate(row[importer.ColPaymentDate])
	if err != nil {
		return fmt.Errorf("claim date: %w", err)
	}
	settlementDate, err := resolveDate(row[importer.ColIncidentDate])
	if err != nil {
		return fmt.Errorf("settlement date: %w", err)
	}

	status := reduceStatus(row.Str(importer.ColClaimStatus))
	claim := &models.Claim{
		ID:              strings.TrimSpace(row.Str(importer.ColClaimID)),
		Status:          &status,
		ClaimDate:       claimDate,
		SettlementDate:  settlementDate,
		InvoiceID:       &invoice.ID,
		ActID:           &act.ID,
		OperatorID:      &operator.ID,
		InsuredID:       &insured.ID,
		PartnerID:       &provider.ID,
		PolicyID:        &policy.ID,
		FileID:          &mc.FileID,
		ImportSessionID: &mc.SessionID,
	}

	if _, err := s.store.UpsertClaim(ctx, claim); err != nil {
		return err
	}

	result.ClaimsCreated++
	result.TotalClaimed = result.TotalClaimed.Add(claimed)
	result.TotalReimbursed = result.TotalReimbursed.Add(reimbursed)
	return nil
}

// labelOrBlank trims and upper-cases a label, substituting a single space
// for empty values so natural-key lookups stay well defined.
func labelOrBlank(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return " "
	}
	return s
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// reduceStatus keeps the first character of the status code, or a blank
// placeholder when the cell is empty.
func reduceStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return " "
	}
	return s[:1]
}

// normalizeInvoiceNumber renders the invoice cell as an upper-cased string.
// Numeric cells with an integer value lose their decimal part.
func normalizeInvoiceNumber(c importer.Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		if v.IsInteger() {
			return v.StringFixed(0)
		}
		return strings.ToUpper(v.String())
	case string:
		return strings.ToUpper(strings.TrimSpace(v))
	default:
		return ""
	}
}

// resolveDate accepts the cell shapes a date can arrive in after cleaning.
func resolveDate(c importer.Cell) (time.Time, error) {
	switch v := c.(type) {
	case time.Time:
		return v, nil
	case string:
		return importer.ParseFlexible(v)
	case decimal.Decimal:
		f, _ := v.Float64()
		return importer.FromSerial(f), nil
	case nil:
		return time.Time{}, fmt.Errorf("missing date value")
	default:
		return time.Time{}, fmt.Errorf("unrecognized date type %T", c)
	}
}
