package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, status, claim_date, settlement_date, invoice_id, act_id, operator_id,
	       insured_id, partner_id, policy_id, file_id, import_session_id, created_at, updated_at`

// GetOrCreateInvoice resolves an invoice by (number, provider, insured).
// Amounts only apply on first creation.
func (r *ClaimRepository) GetOrCreateInvoice(ctx context.Context, invoiceNumber string, claimed, reimbursed decimal.Decimal, providerID, insuredID uuid.UUID, fileID, sessionID *uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	query := `
		INSERT INTO invoices (invoice_number, claimed_amount, reimbursed_amount, provider_id, insured_id, file_id, import_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (invoice_number, provider_id, insured_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, invoice_number, claimed_amount, reimbursed_amount, provider_id, insured_id,
		          file_id, import_session_id, created_at, updated_at
	`

	err := r.db.GetContext(ctx, &invoice, query, invoiceNumber, claimed, reimbursed, providerID, insuredID, fileID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create invoice: %w", err)
	}
	return &invoice, nil
}

// Upsert writes a claim with update-or-create semantics: re-importing the
// same claim identifier overwrites every mutable field.
func (r *ClaimRepository) Upsert(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	var out models.Claim
	query := fmt.Sprintf(`
		INSERT INTO claims (id, status, claim_date, settlement_date, invoice_id, act_id, operator_id,
		                    insured_id, partner_id, policy_id, file_id, import_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			claim_date = EXCLUDED.claim_date,
			settlement_date = EXCLUDED.settlement_date,
			invoice_id = EXCLUDED.invoice_id,
			act_id = EXCLUDED.act_id,
			operator_id = EXCLUDED.operator_id,
			insured_id = EXCLUDED.insured_id,
			partner_id = EXCLUDED.partner_id,
			policy_id = EXCLUDED.policy_id,
			file_id = EXCLUDED.file_id,
			import_session_id = EXCLUDED.import_session_id,
			updated_at = NOW()
		RETURNING %s
	`, claimColumns)

	err := r.db.GetContext(ctx, &out, query,
		claim.ID, claim.Status, claim.ClaimDate, claim.SettlementDate,
		claim.InvoiceID, claim.ActID, claim.OperatorID, claim.InsuredID,
		claim.PartnerID, claim.PolicyID, claim.FileID, claim.ImportSessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert claim: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a claim by its identifier
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*models.Claim, error) {
	var claim models.Claim
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE id = $1`, claimColumns)

	err := r.db.GetContext(ctx, &claim, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim by id: %w", err)
	}
	return &claim, nil
}

// GetBySession retrieves the claims written by one import session
func (r *ClaimRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Claim, error) {
	var claims []models.Claim
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE import_session_id = $1 ORDER BY created_at`, claimColumns)

	err := r.db.SelectContext(ctx, &claims, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claims by session: %w", err)
	}
	return claims, nil
}
