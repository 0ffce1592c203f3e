package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ActRepository manages the act taxonomy: categories, families and acts.
// All lookups are get-or-create on the natural key so re-imports stay
// idempotent.
type ActRepository struct {
	db *sqlx.DB
}

func NewActRepository(db *sqlx.DB) *ActRepository {
	return &ActRepository{db: db}
}

// GetOrCreateCategory resolves a category by label, creating it if absent.
func (r *ActRepository) GetOrCreateCategory(ctx context.Context, label string) (*models.ActCategory, error) {
	var category models.ActCategory
	query := `
		INSERT INTO act_categories (label)
		VALUES ($1)
		ON CONFLICT (label) DO UPDATE SET updated_at = NOW()
		RETURNING id, label, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &category, query, label)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create act category: %w", err)
	}
	return &category, nil
}

// GetOrCreateFamily resolves a family by label within a category.
func (r *ActRepository) GetOrCreateFamily(ctx context.Context, label string, categoryID uuid.UUID) (*models.ActFamily, error) {
	var family models.ActFamily
	query := `
		INSERT INTO act_families (label, category_id)
		VALUES ($1, $2)
		ON CONFLICT (label, category_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, label, category_id, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &family, query, label, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create act family: %w", err)
	}
	return &family, nil
}

// GetOrCreateAct resolves an act by label within a family.
func (r *ActRepository) GetOrCreateAct(ctx context.Context, label string, familyID uuid.UUID) (*models.Act, error) {
	var act models.Act
	query := `
		INSERT INTO acts (label, family_id)
		VALUES ($1, $2)
		ON CONFLICT (label, family_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, label, family_id, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &act, query, label, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create act: %w", err)
	}
	return &act, nil
}
