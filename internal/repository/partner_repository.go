package repository

import (
	"context"
	"fmt"
	"time"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PartnerRepository struct {
	db *sqlx.DB
}

func NewPartnerRepository(db *sqlx.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// GetOrCreate resolves a partner by (name, country).
func (r *PartnerRepository) GetOrCreate(ctx context.Context, name string, countryID uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	query := `
		INSERT INTO partners (name, country_id)
		VALUES ($1, $2)
		ON CONFLICT (name, country_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, country_id, contact, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &partner, query, name, countryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create partner: %w", err)
	}
	return &partner, nil
}

// GetOrCreatePaymentMethod resolves a payment method by (number, provider).
// The emission date only applies on first creation.
func (r *PartnerRepository) GetOrCreatePaymentMethod(ctx context.Context, paymentNumber string, emissionDate time.Time, providerID uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	query := `
		INSERT INTO payment_methods (payment_number, emission_date, provider_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (payment_number, provider_id) DO UPDATE SET payment_number = EXCLUDED.payment_number
		RETURNING id, payment_number, emission_date, provider_id, created_at
	`

	err := r.db.GetContext(ctx, &method, query, paymentNumber, emissionDate, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create payment method: %w", err)
	}
	return &method, nil
}

// GetOrCreateOperator resolves an operator by (name, country).
func (r *PartnerRepository) GetOrCreateOperator(ctx context.Context, name string, countryID uuid.UUID) (*models.Operator, error) {
	var operator models.Operator
	query := `
		INSERT INTO operators (name, country_id)
		VALUES ($1, $2)
		ON CONFLICT (name, country_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, country_id, created_at
	`

	err := r.db.GetContext(ctx, &operator, query, name, countryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create operator: %w", err)
	}
	return &operator, nil
}

// CountByCountry returns the number of partners registered for a country.
func (r *PartnerRepository) CountByCountry(ctx context.Context, countryID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM partners WHERE country_id = $1`

	err := r.db.GetContext(ctx, &count, query, countryID)
	if err != nil {
		return 0, fmt.Errorf("failed to count partners: %w", err)
	}
	return count, nil
}
