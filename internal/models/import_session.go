package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportFile records an uploaded spreadsheet and where its bytes live in
// object storage.
type ImportFile struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileType    FileType  `json:"file_type" db:"file_type"`
	StorageKey  string    `json:"storage_key" db:"storage_key"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	ContentType string    `json:"content_type" db:"content_type"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`
	CountryID   uuid.UUID `json:"country_id" db:"country_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ImportSession tracks one reconciliation run over a statement/recap file
// pair from upload to completion.
type ImportSession struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	StatFileID  uuid.UUID    `json:"stat_file_id" db:"stat_file_id"`
	RecapFileID uuid.UUID    `json:"recap_file_id" db:"recap_file_id"`
	CountryID   uuid.UUID    `json:"country_id" db:"country_id"`
	Status      ImportStatus `json:"status" db:"status"`

	// Settlement date range shared by the two files.
	StartDate *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`

	MatchedCount       int `json:"matched_count" db:"matched_count"`
	ConformingCount    int `json:"conforming_count" db:"conforming_count"`
	NonConformingCount int `json:"non_conforming_count" db:"non_conforming_count"`

	InsuredCreatedCount int `json:"insured_created_count" db:"insured_created_count"`
	ClaimsCreatedCount  int `json:"claims_created_count" db:"claims_created_count"`
	RowErrorCount       int `json:"row_error_count" db:"row_error_count"`

	TotalClaimedAmount    decimal.Decimal `json:"total_claimed_amount" db:"total_claimed_amount"`
	TotalReimbursedAmount decimal.Decimal `json:"total_reimbursed_amount" db:"total_reimbursed_amount"`

	ErrorReportKey *string `json:"error_report_key,omitempty" db:"error_report_key"`
	LogFileKey     *string `json:"log_file_key,omitempty" db:"log_file_key"`
	FailureReason  *string `json:"failure_reason,omitempty" db:"failure_reason"`

	UploadedBy  string     `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// DashboardSummary aggregates claim volumes for a country over a period.
type DashboardSummary struct {
	TotalClaims           int             `json:"total_claims" db:"total_claims"`
	TotalInsured          int             `json:"total_insured" db:"total_insured"`
	TotalPartners         int             `json:"total_partners" db:"total_partners"`
	TotalClaimedAmount    decimal.Decimal `json:"total_claimed_amount" db:"total_claimed_amount"`
	TotalReimbursedAmount decimal.Decimal `json:"total_reimbursed_amount" db:"total_reimbursed_amount"`
	SessionsDone          int             `json:"sessions_done" db:"sessions_done"`
	SessionsWithErrors    int             `json:"sessions_with_errors" db:"sessions_with_errors"`
	SessionsFailed        int             `json:"sessions_failed" db:"sessions_failed"`

	TopClients  []DashboardBreakdownEntry `json:"top_clients" db:"-"`
	TopPartners []DashboardBreakdownEntry `json:"top_partners" db:"-"`
}

// DashboardBreakdownEntry is one row of a per-client or per-partner ranking.
type DashboardBreakdownEntry struct {
	Name          string          `json:"name" db:"name"`
	ClaimCount    int             `json:"claim_count" db:"claim_count"`
	ClaimedAmount decimal.Decimal `json:"claimed_amount" db:"claimed_amount"`
}
