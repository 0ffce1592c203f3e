package repository

import (
	"context"
	"fmt"

	"claims-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ImportSessionRepository struct {
	db *sqlx.DB
}

func NewImportSessionRepository(db *sqlx.DB) *ImportSessionRepository {
	return &ImportSessionRepository{db: db}
}

const importFileColumns = `id, file_name, file_type, storage_key, size_bytes, content_type, uploaded_by, country_id, created_at`

const importSessionColumns = `id, stat_file_id, recap_file_id, country_id, status, start_date, end_date,
	       matched_count, conforming_count, non_conforming_count,
	       insured_created_count, claims_created_count, row_error_count,
	       total_claimed_amount, total_reimbursed_amount,
	       error_report_key, log_file_key, failure_reason,
	       uploaded_by, created_at, updated_at, completed_at`

// CreateFile records an uploaded spreadsheet
func (r *ImportSessionRepository) CreateFile(ctx context.Context, file *models.ImportFile) (*models.ImportFile, error) {
	var out models.ImportFile
	query := fmt.Sprintf(`
		INSERT INTO import_files (file_name, file_type, storage_key, size_bytes, content_type, uploaded_by, country_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s
	`, importFileColumns)

	err := r.db.GetContext(ctx, &out, query,
		file.FileName, file.FileType, file.StorageKey, file.SizeBytes,
		file.ContentType, file.UploadedBy, file.CountryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create import file: %w", err)
	}
	return &out, nil
}

// CreateSession opens a pending import session over a file pair
func (r *ImportSessionRepository) CreateSession(ctx context.Context, session *models.ImportSession) (*models.ImportSession, error) {
	var out models.ImportSession
	query := fmt.Sprintf(`
		INSERT INTO import_sessions (stat_file_id, recap_file_id, country_id, status, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, importSessionColumns)

	err := r.db.GetContext(ctx, &out, query,
		session.StatFileID, session.RecapFileID, session.CountryID,
		models.ImportStatusPending, session.UploadedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}
	return &out, nil
}

// GetSession retrieves a session by ID
func (r *ImportSessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.ImportSession, error) {
	var session models.ImportSession
	query := fmt.Sprintf(`SELECT %s FROM import_sessions WHERE id = $1`, importSessionColumns)

	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get import session: %w", err)
	}
	return &session, nil
}

// GetFile retrieves an uploaded file record by ID
func (r *ImportSessionRepository) GetFile(ctx context.Context, id uuid.UUID) (*models.ImportFile, error) {
	var file models.ImportFile
	query := fmt.Sprintf(`SELECT %s FROM import_files WHERE id = $1`, importFileColumns)

	err := r.db.GetContext(ctx, &file, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get import file: %w", err)
	}
	return &file, nil
}

// ListSessions retrieves a country's sessions, newest first, with optional
// status filtering and pagination.
func (r *ImportSessionRepository) ListSessions(ctx context.Context, countryID uuid.UUID, status *models.ImportStatus, limit, offset int) ([]models.ImportSession, error) {
	var sessions []models.ImportSession
	query := fmt.Sprintf(`SELECT %s FROM import_sessions WHERE country_id = $1`, importSessionColumns)

	args := []interface{}{countryID}
	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list import sessions: %w", err)
	}
	return sessions, nil
}

// UpdateStatus transitions a session's status, recording the failure reason
// and completion time where relevant.
func (r *ImportSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ImportStatus, failureReason *string) error {
	query := `
		UPDATE import_sessions
		SET status = $2,
		    failure_reason = $3,
		    completed_at = CASE WHEN $2 IN ('done', 'done_with_errors', 'error') THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, failureReason)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("import session %s not found", id)
	}
	return nil
}

// UpdateComparison stores the comparator's outcome on the session
func (r *ImportSessionRepository) UpdateComparison(ctx context.Context, session *models.ImportSession) error {
	query := `
		UPDATE import_sessions
		SET start_date = $2,
		    end_date = $3,
		    matched_count = $4,
		    conforming_count = $5,
		    non_conforming_count = $6,
		    error_report_key = $7,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, session.ID,
		session.StartDate, session.EndDate,
		session.MatchedCount, session.ConformingCount, session.NonConformingCount,
		session.ErrorReportKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update session comparison results: %w", err)
	}
	return nil
}

// UpdateMappingResults stores the mapper's counters and the log location
func (r *ImportSessionRepository) UpdateMappingResults(ctx context.Context, session *models.ImportSession) error {
	query := `
		UPDATE import_sessions
		SET insured_created_count = $2,
		    claims_created_count = $3,
		    row_error_count = $4,
		    total_claimed_amount = $5,
		    total_reimbursed_amount = $6,
		    log_file_key = $7,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, session.ID,
		session.InsuredCreatedCount, session.ClaimsCreatedCount, session.RowErrorCount,
		session.TotalClaimedAmount, session.TotalReimbursedAmount,
		session.LogFileKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update session mapping results: %w", err)
	}
	return nil
}
