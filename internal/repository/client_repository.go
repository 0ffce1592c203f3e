package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ClientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetOrCreate resolves an employer client by (name, country), stamping the
// originating file and session on creation.
func (r *ClientRepository) GetOrCreate(ctx context.Context, name string, countryID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Client, error) {
	var client models.Client
	query := `
		INSERT INTO clients (name, country_id, file_id, import_session_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name, country_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, country_id, contact, premium, file_id, import_session_id, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &client, query, name, countryID, fileID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create client: %w", err)
	}
	return &client, nil
}

// GetOrCreatePolicy resolves a policy by (number, client).
func (r *ClientRepository) GetOrCreatePolicy(ctx context.Context, policyNumber string, clientID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Policy, error) {
	var policy models.Policy
	query := `
		INSERT INTO policies (policy_number, client_id, file_id, import_session_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (policy_number, client_id) DO UPDATE SET policy_number = EXCLUDED.policy_number
		RETURNING id, policy_number, client_id, file_id, import_session_id, created_at
	`

	err := r.db.GetContext(ctx, &policy, query, policyNumber, clientID, fileID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create policy: %w", err)
	}
	return &policy, nil
}
