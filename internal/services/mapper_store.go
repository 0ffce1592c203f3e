package services

import (
	"context"
	"time"

	"claims-service/internal/models"
	"claims-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryMapperStore implements MapperStore on top of the PostgreSQL
// repositories.
type RepositoryMapperStore struct {
	countries *repository.CountryRepository
	acts      *repository.ActRepository
	partners  *repository.PartnerRepository
	clients   *repository.ClientRepository
	insured   *repository.InsuredRepository
	claims    *repository.ClaimRepository
}

func NewRepositoryMapperStore(
	countries *repository.CountryRepository,
	acts *repository.ActRepository,
	partners *repository.PartnerRepository,
	clients *repository.ClientRepository,
	insured *repository.InsuredRepository,
	claims *repository.ClaimRepository,
) *RepositoryMapperStore {
	return &RepositoryMapperStore{
		countries: countries,
		acts:      acts,
		partners:  partners,
		clients:   clients,
		insured:   insured,
		claims:    claims,
	}
}

func (s *RepositoryMapperStore) FindCountryByName(ctx context.Context, name string) (*models.Country, error) {
	return s.countries.FindByName(ctx, name)
}

func (s *RepositoryMapperStore) GetOrCreateCategory(ctx context.Context, label string) (*models.ActCategory, error) {
	return s.acts.GetOrCreateCategory(ctx, label)
}

func (s *RepositoryMapperStore) GetOrCreateFamily(ctx context.Context, label string, categoryID uuid.UUID) (*models.ActFamily, error) {
	return s.acts.GetOrCreateFamily(ctx, label, categoryID)
}

func (s *RepositoryMapperStore) GetOrCreateAct(ctx context.Context, label string, familyID uuid.UUID) (*models.Act, error) {
	return s.acts.GetOrCreateAct(ctx, label, familyID)
}

func (s *RepositoryMapperStore) GetOrCreatePartner(ctx context.Context, name string, countryID uuid.UUID) (*models.Partner, error) {
	return s.partners.GetOrCreate(ctx, name, countryID)
}

func (s *RepositoryMapperStore) GetOrCreatePaymentMethod(ctx context.Context, paymentNumber string, emissionDate time.Time, providerID uuid.UUID) (*models.PaymentMethod, error) {
	return s.partners.GetOrCreatePaymentMethod(ctx, paymentNumber, emissionDate, providerID)
}

func (s *RepositoryMapperStore) GetOrCreateOperator(ctx context.Context, name string, countryID uuid.UUID) (*models.Operator, error) {
	return s.partners.GetOrCreateOperator(ctx, name, countryID)
}

func (s *RepositoryMapperStore) GetOrCreateClient(ctx context.Context, name string, countryID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Client, error) {
	return s.clients.GetOrCreate(ctx, name, countryID, fileID, sessionID)
}

func (s *RepositoryMapperStore) GetOrCreatePolicy(ctx context.Context, policyNumber string, clientID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Policy, error) {
	return s.clients.GetOrCreatePolicy(ctx, policyNumber, clientID, fileID, sessionID)
}

func (s *RepositoryMapperStore) GetOrCreateInsured(ctx context.Context, name string, role models.InsuredRole, primaryID *uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Insured, bool, error) {
	return s.insured.GetOrCreate(ctx, name, role, primaryID, fileID, sessionID)
}

func (s *RepositoryMapperStore) LinkInsuredEmployer(ctx context.Context, link models.InsuredEmployer) error {
	return s.insured.LinkEmployer(ctx, link)
}

func (s *RepositoryMapperStore) GetOrCreateInvoice(ctx context.Context, invoiceNumber string, claimed, reimbursed decimal.Decimal, providerID, insuredID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Invoice, error) {
	return s.claims.GetOrCreateInvoice(ctx, invoiceNumber, claimed, reimbursed, providerID, insuredID, fileID, sessionID)
}

func (s *RepositoryMapperStore) UpsertClaim(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	return s.claims.Upsert(ctx, claim)
}
