package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CountryRepository struct {
	db *sqlx.DB
}

func NewCountryRepository(db *sqlx.DB) *CountryRepository {
	return &CountryRepository{db: db}
}

// GetByID retrieves a country by its ID
func (r *CountryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	var country models.Country
	query := `SELECT id, name, code, created_at FROM countries WHERE id = $1`

	err := r.db.GetContext(ctx, &country, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get country by id: %w", err)
	}
	return &country, nil
}

// FindByName retrieves a country by name, case-insensitively. Returns nil
// without error when no country matches.
func (r *CountryRepository) FindByName(ctx context.Context, name string) (*models.Country, error) {
	var country models.Country
	query := `SELECT id, name, code, created_at FROM countries WHERE LOWER(name) = LOWER($1) LIMIT 1`

	err := r.db.GetContext(ctx, &country, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find country by name: %w", err)
	}
	return &country, nil
}

// GetAll retrieves all countries ordered by name
func (r *CountryRepository) GetAll(ctx context.Context) ([]models.Country, error) {
	var countries []models.Country
	query := `SELECT id, name, code, created_at FROM countries ORDER BY name`

	err := r.db.SelectContext(ctx, &countries, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get countries: %w", err)
	}
	return countries, nil
}
