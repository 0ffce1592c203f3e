package repository

import (
	"context"
	"fmt"
	"time"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// GetSummary aggregates imported claim volumes for a country over a period.
func (r *DashboardRepository) GetSummary(ctx context.Context, countryID uuid.UUID, startDate, endDate time.Time) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary

	claimsQuery := `
		SELECT COUNT(c.id) AS total_claims,
		       COALESCE(SUM(i.claimed_amount), 0) AS total_claimed_amount,
		       COALESCE(SUM(i.reimbursed_amount), 0) AS total_reimbursed_amount
		FROM claims c
		LEFT JOIN invoices i ON i.id = c.invoice_id
		JOIN import_sessions s ON s.id = c.import_session_id
		WHERE s.country_id = $1
		  AND c.claim_date BETWEEN $2 AND $3
	`
	row := struct {
		TotalClaims           int             `db:"total_claims"`
		TotalClaimedAmount    decimal.Decimal `db:"total_claimed_amount"`
		TotalReimbursedAmount decimal.Decimal `db:"total_reimbursed_amount"`
	}{}
	if err := r.db.GetContext(ctx, &row, claimsQuery, countryID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to aggregate claims: %w", err)
	}

	summary.TotalClaims = row.TotalClaims
	summary.TotalClaimedAmount = row.TotalClaimedAmount
	summary.TotalReimbursedAmount = row.TotalReimbursedAmount

	insuredQuery := `SELECT COUNT(*) FROM insured`
	if err := r.db.GetContext(ctx, &summary.TotalInsured, insuredQuery); err != nil {
		return nil, fmt.Errorf("failed to count insured: %w", err)
	}

	partnersQuery := `SELECT COUNT(*) FROM partners WHERE country_id = $1`
	if err := r.db.GetContext(ctx, &summary.TotalPartners, partnersQuery, countryID); err != nil {
		return nil, fmt.Errorf("failed to count partners: %w", err)
	}

	sessionsQuery := `
		SELECT COUNT(*) FILTER (WHERE status = 'done') AS sessions_done,
		       COUNT(*) FILTER (WHERE status = 'done_with_errors') AS sessions_with_errors,
		       COUNT(*) FILTER (WHERE status = 'error') AS sessions_failed
		FROM import_sessions
		WHERE country_id = $1
		  AND created_at BETWEEN $2 AND $3
	`
	sessions := struct {
		SessionsDone       int `db:"sessions_done"`
		SessionsWithErrors int `db:"sessions_with_errors"`
		SessionsFailed     int `db:"sessions_failed"`
	}{}
	if err := r.db.GetContext(ctx, &sessions, sessionsQuery, countryID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to aggregate sessions: %w", err)
	}

	summary.SessionsDone = sessions.SessionsDone
	summary.SessionsWithErrors = sessions.SessionsWithErrors
	summary.SessionsFailed = sessions.SessionsFailed

	topClients, err := r.topClients(ctx, countryID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summary.TopClients = topClients

	topPartners, err := r.topPartners(ctx, countryID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	summary.TopPartners = topPartners

	return &summary, nil
}

func (r *DashboardRepository) topClients(ctx context.Context, countryID uuid.UUID, startDate, endDate time.Time) ([]models.DashboardBreakdownEntry, error) {
	query := `
		SELECT cl.name AS name,
		       COUNT(c.id) AS claim_count,
		       COALESCE(SUM(i.claimed_amount), 0) AS claimed_amount
		FROM claims c
		JOIN policies p ON p.id = c.policy_id
		JOIN clients cl ON cl.id = p.client_id
		LEFT JOIN invoices i ON i.id = c.invoice_id
		JOIN import_sessions s ON s.id = c.import_session_id
		WHERE s.country_id = $1
		  AND c.claim_date BETWEEN $2 AND $3
		GROUP BY cl.name
		ORDER BY claimed_amount DESC
		LIMIT 5
	`
	entries := []models.DashboardBreakdownEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, countryID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to rank clients: %w", err)
	}
	return entries, nil
}

func (r *DashboardRepository) topPartners(ctx context.Context, countryID uuid.UUID, startDate, endDate time.Time) ([]models.DashboardBreakdownEntry, error) {
	query := `
		SELECT p.name AS name,
		       COUNT(c.id) AS claim_count,
		       COALESCE(SUM(i.claimed_amount), 0) AS claimed_amount
		FROM claims c
		JOIN partners p ON p.id = c.partner_id
		LEFT JOIN invoices i ON i.id = c.invoice_id
		JOIN import_sessions s ON s.id = c.import_session_id
		WHERE s.country_id = $1
		  AND c.claim_date BETWEEN $2 AND $3
		GROUP BY p.name
		ORDER BY claimed_amount DESC
		LIMIT 5
	`
	entries := []models.DashboardBreakdownEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, countryID, startDate, endDate); err != nil {
		return nil, fmt.Errorf("failed to rank partners: %w", err)
	}
	return entries, nil
}
