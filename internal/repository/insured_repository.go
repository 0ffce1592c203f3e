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

// ErrDependentWithoutPrimary is returned when a dependent link is requested
// without a primary insured reference.
var ErrDependentWithoutPrimary = errors.New("dependent insured requires a primary insured reference")

// ErrPrimaryWithPrimaryRef is returned when a primary link carries a
// reference to another primary insured.
var ErrPrimaryWithPrimaryRef = errors.New("primary insured must not reference another primary insured")

type InsuredRepository struct {
	db *sqlx.DB
}

func NewInsuredRepository(db *sqlx.DB) *InsuredRepository {
	return &InsuredRepository{db: db}
}

const insuredColumns = `id, name, birth_date, card_number, is_primary_insured, is_spouse, is_child,
	       primary_insured_id, file_id, import_session_id, created_at, updated_at`

// GetByName retrieves an insured person by exact name. Returns nil without
// error when absent.
func (r *InsuredRepository) GetByName(ctx context.Context, name string) (*models.Insured, error) {
	var insured models.Insured
	query := fmt.Sprintf(`SELECT %s FROM insured WHERE name = $1`, insuredColumns)

	err := r.db.GetContext(ctx, &insured, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insured by name: %w", err)
	}
	return &insured, nil
}

// GetOrCreate resolves an insured person by name. The role flags and the
// primary reference only apply on first creation; the created flag reports
// whether a new row was inserted.
func (r *InsuredRepository) GetOrCreate(ctx context.Context, name string, role models.InsuredRole, primaryID *uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Insured, bool, error) {
	if role == models.RolePrimary && primaryID != nil {
		return nil, false, ErrPrimaryWithPrimaryRef
	}

	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	var insured models.Insured
	query := fmt.Sprintf(`
		INSERT INTO insured (name, is_primary_insured, is_spouse, is_child, primary_insured_id, file_id, import_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		RETURNING %s
	`, insuredColumns)

	err = r.db.GetContext(ctx, &insured, query,
		name,
		role == models.RolePrimary,
		role == models.RoleSpouse,
		role == models.RoleChild,
		primaryID, fileID, sessionID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get or create insured: %w", err)
	}
	return &insured, true, nil
}

// LinkEmployer records the (insured, employer, policy) affiliation. The role
// invariants are enforced before touching the database: a dependent must
// reference its primary insured, a primary must not.
func (r *InsuredRepository) LinkEmployer(ctx context.Context, link models.InsuredEmployer) error {
	if link.Role == models.RolePrimary && link.PrimaryInsuredRefID != nil {
		return ErrPrimaryWithPrimaryRef
	}
	if link.Role != models.RolePrimary && link.PrimaryInsuredRefID == nil {
		return ErrDependentWithoutPrimary
	}

	query := `
		INSERT INTO insured_employers (insured_id, employer_id, policy_id, role, primary_insured_ref_id, start_date, end_date, import_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (insured_id, employer_id, policy_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		link.InsuredID, link.EmployerID, link.PolicyID, link.Role,
		link.PrimaryInsuredRefID, link.StartDate, link.EndDate, link.ImportSessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to link insured to employer: %w", err)
	}
	return nil
}

// CountAll returns the number of insured persons.
func (r *InsuredRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM insured`)
	if err != nil {
		return 0, fmt.Errorf("failed to count insured: %w", err)
	}
	return count, nil
}
