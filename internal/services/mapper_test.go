package services

import (
	"context"
	"testing"
	"time"

	"claims-service/internal/importer"
	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// fakeStore is an in-memory MapperStore keyed the same way the repositories
// key their tables.
type fakeStore struct {
	countries  map[string]*models.Country
	categories map[string]*models.ActCategory
	families   map[string]*models.ActFamily
	acts       map[string]*models.Act
	partners   map[string]*models.Partner
	payments   map[string]*models.PaymentMethod
	operators  map[string]*models.Operator
	clients    map[string]*models.Client
	policies   map[string]*models.Policy
	insured    map[string]*models.Insured
	links      map[string]models.InsuredEmployer
	invoices   map[string]*models.Invoice
	claims     map[string]*models.Claim
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		countries:  make(map[string]*models.Country),
		categories: make(map[string]*models.ActCategory),
		families:   make(map[string]*models.ActFamily),
		acts:       make(map[string]*models.Act),
		partners:   make(map[string]*models.Partner),
		payments:   make(map[string]*models.PaymentMethod),
		operators:  make(map[string]*models.Operator),
		clients:    make(map[string]*models.Client),
		policies:   make(map[string]*models.Policy),
		insured:    make(map[string]*models.Insured),
		links:      make(map[string]models.InsuredEmployer),
		invoices:   make(map[string]*models.Invoice),
		claims:     make(map[string]*models.Claim),
	}
}

func (f *fakeStore) addCountry(name string) *models.Country {
	c := &models.Country{ID: uuid.New(), Name: name}
	f.countries[name] = c
	return c
}

func (f *fakeStore) FindCountryByName(_ context.Context, name string) (*models.Country, error) {
	for n, c := range f.countries {
		if n == name {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetOrCreateCategory(_ context.Context, label string) (*models.ActCategory, error) {
	if c, ok := f.categories[label]; ok {
		return c, nil
	}
	c := &models.ActCategory{ID: uuid.New(), Label: label}
	f.categories[label] = c
	return c, nil
}

func (f *fakeStore) GetOrCreateFamily(_ context.Context, label string, categoryID uuid.UUID) (*models.ActFamily, error) {
	key := label + "|" + categoryID.String()
	if fam, ok := f.families[key]; ok {
		return fam, nil
	}
	fam := &models.ActFamily{ID: uuid.New(), Label: label, CategoryID: categoryID}
	f.families[key] = fam
	return fam, nil
}

func (f *fakeStore) GetOrCreateAct(_ context.Context, label string, familyID uuid.UUID) (*models.Act, error) {
	key := label + "|" + familyID.String()
	if a, ok := f.acts[key]; ok {
		return a, nil
	}
	a := &models.Act{ID: uuid.New(), Label: label, FamilyID: familyID}
	f.acts[key] = a
	return a, nil
}

func (f *fakeStore) GetOrCreatePartner(_ context.Context, name string, countryID uuid.UUID) (*models.Partner, error) {
	key := name + "|" + countryID.String()
	if p, ok := f.partners[key]; ok {
		return p, nil
	}
	p := &models.Partner{ID: uuid.New(), Name: name, CountryID: countryID}
	f.partners[key] = p
	return p, nil
}

func (f *fakeStore) GetOrCreatePaymentMethod(_ context.Context, paymentNumber string, emissionDate time.Time, providerID uuid.UUID) (*models.PaymentMethod, error) {
	key := paymentNumber + "|" + providerID.String()
	if p, ok := f.payments[key]; ok {
		return p, nil
	}
	p := &models.PaymentMethod{ID: uuid.New(), PaymentNumber: paymentNumber, EmissionDate: emissionDate, ProviderID: providerID}
	f.payments[key] = p
	return p, nil
}

func (f *fakeStore) GetOrCreateOperator(_ context.Context, name string, countryID uuid.UUID) (*models.Operator, error) {
	key := name + "|" + countryID.String()
	if o, ok := f.operators[key]; ok {
		return o, nil
	}
	o := &models.Operator{ID: uuid.New(), Name: name, CountryID: countryID}
	f.operators[key] = o
	return o, nil
}

func (f *fakeStore) GetOrCreateClient(_ context.Context, name string, countryID uuid.UUID, _, _ *uuid.UUID) (*models.Client, error) {
	key := name + "|" + countryID.String()
	if c, ok := f.clients[key]; ok {
		return c, nil
	}
	c := &models.Client{ID: uuid.New(), Name: name, CountryID: countryID}
	f.clients[key] = c
	return c, nil
}

func (f *fakeStore) GetOrCreatePolicy(_ context.Context, policyNumber string, clientID uuid.UUID, _, _ *uuid.UUID) (*models.Policy, error) {
	key := policyNumber + "|" + clientID.String()
	if p, ok := f.policies[key]; ok {
		return p, nil
	}
	p := &models.Policy{ID: uuid.New(), PolicyNumber: policyNumber, ClientID: clientID}
	f.policies[key] = p
	return p, nil
}

func (f *fakeStore) GetOrCreateInsured(_ context.Context, name string, role models.InsuredRole, primaryID *uuid.UUID, _, _ *uuid.UUID) (*models.Insured, bool, error) {
	if i, ok := f.insured[name]; ok {
		return i, false, nil
	}
	i := &models.Insured{
		ID:               uuid.New(),
		Name:             name,
		IsPrimaryInsured: role == models.RolePrimary,
		IsSpouse:         role == models.RoleSpouse,
		IsChild:          role == models.RoleChild,
		PrimaryInsuredID: primaryID,
	}
	f.insured[name] = i
	return i, true, nil
}

func (f *fakeStore) LinkInsuredEmployer(_ context.Context, link models.InsuredEmployer) error {
	key := link.InsuredID.String() + "|" + link.EmployerID.String() + "|" + link.PolicyID.String()
	if _, ok := f.links[key]; !ok {
		f.links[key] = link
	}
	return nil
}

func (f *fakeStore) GetOrCreateInvoice(_ context.Context, invoiceNumber string, claimed, reimbursed decimal.Decimal, providerID, insuredID uuid.UUID, _, _ *uuid.UUID) (*models.Invoice, error) {
	key := invoiceNumber + "|" + providerID.String() + "|" + insuredID.String()
	if i, ok := f.invoices[key]; ok {
		return i, nil
	}
	i := &models.Invoice{
		ID:               uuid.New(),
		InvoiceNumber:    invoiceNumber,
		ClaimedAmount:    claimed,
		ReimbursedAmount: reimbursed,
		ProviderID:       providerID,
		InsuredID:        insuredID,
	}
	f.invoices[key] = i
	return i, nil
}

func (f *fakeStore) UpsertClaim(_ context.Context, claim *models.Claim) (*models.Claim, error) {
	stored := *claim
	f.claims[claim.ID] = &stored
	return &stored, nil
}

var mapDay = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func mapperRow(claimID, beneficiary, status, mainInsured string) importer.Row {
	return importer.Row{
		importer.ColClaimID:          claimID,
		importer.ColBeneficiaryName:  beneficiary,
		importer.ColMainInsured:      mainInsured,
		importer.ColInsuredStatus:    status,
		importer.ColClaimStatus:      "A",
		importer.ColPartnerName:      "CLINIQUE DU SUD",
		importer.ColPartnerCountry:   "SENEGAL",
		importer.ColEmployerName:     "ACME SARL",
		importer.ColPolicyNumber:     "POL-1",
		importer.ColPaymentMethod:    "CHQ-9",
		importer.ColPaymentDate:      mapDay,
		importer.ColIncidentDate:     mapDay.AddDate(0, 0, -3),
		importer.ColActCategory:      "SOINS",
		importer.ColActFamily:        "AMBULATOIRE",
		importer.ColActName:          "CONSULTATION",
		importer.ColModifiedBy:       "AGENT 1",
		importer.ColInvoiceNumber:    "INV-1",
		importer.ColAmountClaimed:    decimal.NewFromInt(100),
		importer.ColAmountReimbursed: decimal.NewFromInt(80),
	}
}

func mapperTable(rows ...importer.Row) *importer.Table {
	return &importer.Table{
		Columns: []string{
			importer.ColClaimID, importer.ColBeneficiaryName, importer.ColMainInsured,
			importer.ColInsuredStatus, importer.ColClaimStatus, importer.ColPartnerName,
			importer.ColPartnerCountry, importer.ColEmployerName, importer.ColPolicyNumber,
			importer.ColPaymentMethod, importer.ColPaymentDate, importer.ColIncidentDate,
			importer.ColActCategory, importer.ColActFamily, importer.ColActName,
			importer.ColModifiedBy, importer.ColInvoiceNumber,
			importer.ColAmountClaimed, importer.ColAmountReimbursed,
		},
		Rows: rows,
	}
}

func newMapContext() MapContext {
	return MapContext{
		SessionID: uuid.New(),
		FileID:    uuid.New(),
		CountryID: uuid.New(),
	}
}

// ============================================================================
// TEST SUITE 1: FULL MAPPING RUN
// ============================================================================

func TestMapTable_SinglePrimaryRow(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)

	result, err := service.MapTable(context.Background(), mapperTable(
		mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT"),
	), newMapContext())
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.InsuredCreated)
	assert.Equal(t, 1, result.ClaimsCreated)
	assert.True(t, result.TotalClaimed.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.TotalReimbursed.Equal(decimal.NewFromInt(80)))

	require.Contains(t, store.claims, "CL1")
	claim := store.claims["CL1"]
	require.NotNil(t, claim.Status)
	assert.Equal(t, "A", *claim.Status)
	assert.Equal(t, mapDay, claim.ClaimDate)

	insured := store.insured["JEAN DUPONT"]
	require.NotNil(t, insured)
	assert.True(t, insured.IsPrimaryInsured)
	assert.Len(t, store.links, 1)
}

func TestMapTable_DependentCreatesMissingPrimary(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)

	result, err := service.MapTable(context.Background(), mapperTable(
		mapperRow("CL2", "MARIE DUPONT", "C", "JEAN DUPONT"),
	), newMapContext())
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	// The missing primary is auto-created, then the spouse.
	assert.Equal(t, 2, result.InsuredCreated)

	primary := store.insured["JEAN DUPONT"]
	require.NotNil(t, primary)
	assert.True(t, primary.IsPrimaryInsured)

	spouse := store.insured["MARIE DUPONT"]
	require.NotNil(t, spouse)
	assert.True(t, spouse.IsSpouse)
	require.NotNil(t, spouse.PrimaryInsuredID)
	assert.Equal(t, primary.ID, *spouse.PrimaryInsuredID)
}

func TestMapTable_DependentWithoutPrincipalIsSkipped(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)

	result, err := service.MapTable(context.Background(), mapperTable(
		mapperRow("CL3", "PAUL DUPONT", "E", ""),
	), newMapContext())
	require.NoError(t, err)

	// Skipped with a warning only; step 3 collects no error and creates
	// nothing, step 4 then reports the unresolved insured.
	assert.Nil(t, store.insured["PAUL DUPONT"])
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "[STEP 4")
}

func TestMapTable_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)
	mc := newMapContext()
	table := mapperTable(mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT"))

	first, err := service.MapTable(context.Background(), table, mc)
	require.NoError(t, err)
	second, err := service.MapTable(context.Background(), table, mc)
	require.NoError(t, err)

	assert.Equal(t, 1, first.InsuredCreated)
	assert.Equal(t, 0, second.InsuredCreated)
	assert.Len(t, store.clients, 1)
	assert.Len(t, store.policies, 1)
	assert.Len(t, store.partners, 1)
	assert.Len(t, store.claims, 1)
}

func TestMapTable_UnknownPartnerCountryFallsBack(t *testing.T) {
	store := newFakeStore()
	service := NewMapperService(store)
	mc := newMapContext()

	row := mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT")
	row[importer.ColPartnerCountry] = "ATLANTIS"

	result, err := service.MapTable(context.Background(), mapperTable(row), mc)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	partner := store.partners["CLINIQUE DU SUD|"+mc.CountryID.String()]
	require.NotNil(t, partner)
	assert.Equal(t, mc.CountryID, partner.CountryID)
}

func TestMapTable_MissingCountryAborts(t *testing.T) {
	service := NewMapperService(newFakeStore())

	_, err := service.MapTable(context.Background(), mapperTable(), MapContext{
		SessionID: uuid.New(),
		FileID:    uuid.New(),
	})
	assert.Error(t, err)
}

// ============================================================================
// TEST SUITE 2: ROW ERROR ACCUMULATION
// ============================================================================

func TestMapTable_RowWithoutInsuredIsCollected(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)

	good := mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT")
	// Unknown status code: no insured pass picks this row up, so the claim
	// pass cannot resolve the beneficiary.
	orphan := mapperRow("CL2", "INCONNU", "X", "")

	result, err := service.MapTable(context.Background(), mapperTable(good, orphan), newMapContext())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ClaimsCreated)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "[STEP 4 - row 1]")
	assert.Contains(t, store.claims, "CL1")
	assert.NotContains(t, store.claims, "CL2")
}

func TestMapTable_ClaimUpsertOverwrites(t *testing.T) {
	store := newFakeStore()
	store.addCountry("SENEGAL")
	service := NewMapperService(store)
	mc := newMapContext()

	first := mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT")
	_, err := service.MapTable(context.Background(), mapperTable(first), mc)
	require.NoError(t, err)

	second := mapperRow("CL1", "JEAN DUPONT", "A", "JEAN DUPONT")
	second[importer.ColClaimStatus] = "R"
	_, err = service.MapTable(context.Background(), mapperTable(second), mc)
	require.NoError(t, err)

	require.Len(t, store.claims, 1)
	assert.Equal(t, "R", *store.claims["CL1"].Status)
}

// ============================================================================
// TEST SUITE 3: VALUE NORMALIZATION
// ============================================================================

func TestReduceStatus(t *testing.T) {
	assert.Equal(t, "A", reduceStatus("ACCEPTE"))
	assert.Equal(t, "R", reduceStatus("R"))
	assert.Equal(t, " ", reduceStatus("   "))
}

func TestNormalizeInvoiceNumber(t *testing.T) {
	assert.Equal(t, "", normalizeInvoiceNumber(nil))
	assert.Equal(t, "123", normalizeInvoiceNumber(decimal.NewFromInt(123)))
	assert.Equal(t, "123.5", normalizeInvoiceNumber(decimal.RequireFromString("123.5")))
	assert.Equal(t, "INV-9", normalizeInvoiceNumber(" inv-9 "))
}

func TestLabelOrBlank(t *testing.T) {
	assert.Equal(t, "SOINS", labelOrBlank(" soins "))
	assert.Equal(t, " ", labelOrBlank(""))
}
