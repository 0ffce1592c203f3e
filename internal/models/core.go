package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================================================
// REFERENCE DATA
// ============================================================================

type Country struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ActCategory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ActFamily struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Label      string    `json:"label" db:"label"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Act struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	FamilyID  uuid.UUID `json:"family_id" db:"family_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Operator struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CountryID uuid.UUID `json:"country_id" db:"country_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ============================================================================
// CLIENTS, POLICIES, PARTNERS
// ============================================================================

type Client struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	CountryID       uuid.UUID        `json:"country_id" db:"country_id"`
	Contact         *string          `json:"contact,omitempty" db:"contact"`
	Premium         *decimal.Decimal `json:"premium,omitempty" db:"premium"`
	FileID          *uuid.UUID       `json:"file_id,omitempty" db:"file_id"`
	ImportSessionID *uuid.UUID       `json:"import_session_id,omitempty" db:"import_session_id"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

type Policy struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	PolicyNumber    string     `json:"policy_number" db:"policy_number"`
	ClientID        uuid.UUID  `json:"client_id" db:"client_id"`
	FileID          *uuid.UUID `json:"file_id,omitempty" db:"file_id"`
	ImportSessionID *uuid.UUID `json:"import_session_id,omitempty" db:"import_session_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Partner struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CountryID uuid.UUID `json:"country_id" db:"country_id"`
	Contact   *string   `json:"contact,omitempty" db:"contact"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type PaymentMethod struct {
	ID            uuid.UUID `json:"id" db:"id"`
	PaymentNumber string    `json:"payment_number" db:"payment_number"`
	EmissionDate  time.Time `json:"emission_date" db:"emission_date"`
	ProviderID    uuid.UUID `json:"provider_id" db:"provider_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ============================================================================
// INSURED PERSONS
// ============================================================================

type Insured struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	BirthDate        *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	CardNumber       *string    `json:"card_number,omitempty" db:"card_number"`
	IsPrimaryInsured bool       `json:"is_primary_insured" db:"is_primary_insured"`
	IsSpouse         bool       `json:"is_spouse" db:"is_spouse"`
	IsChild          bool       `json:"is_child" db:"is_child"`
	PrimaryInsuredID *uuid.UUID `json:"primary_insured_id,omitempty" db:"primary_insured_id"`
	FileID           *uuid.UUID `json:"file_id,omitempty" db:"file_id"`
	ImportSessionID  *uuid.UUID `json:"import_session_id,omitempty" db:"import_session_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// InsuredEmployer links an insured person to an employer (client) under a
// policy. Uniqueness is the (insured, employer, policy) triple. A dependent
// row must reference its primary insured; a primary row must not.
type InsuredEmployer struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	InsuredID           uuid.UUID   `json:"insured_id" db:"insured_id"`
	EmployerID          uuid.UUID   `json:"employer_id" db:"employer_id"`
	PolicyID            uuid.UUID   `json:"policy_id" db:"policy_id"`
	Role                InsuredRole `json:"role" db:"role"`
	PrimaryInsuredRefID *uuid.UUID  `json:"primary_insured_ref_id,omitempty" db:"primary_insured_ref_id"`
	StartDate           *time.Time  `json:"start_date,omitempty" db:"start_date"`
	EndDate             *time.Time  `json:"end_date,omitempty" db:"end_date"`
	ImportSessionID     *uuid.UUID  `json:"import_session_id,omitempty" db:"import_session_id"`
}

// ============================================================================
// INVOICES AND CLAIMS
// ============================================================================

type Invoice struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber    string          `json:"invoice_number" db:"invoice_number"`
	ClaimedAmount    decimal.Decimal `json:"claimed_amount" db:"claimed_amount"`
	ReimbursedAmount decimal.Decimal `json:"reimbursed_amount" db:"reimbursed_amount"`
	ProviderID       uuid.UUID       `json:"provider_id" db:"provider_id"`
	InsuredID        uuid.UUID       `json:"insured_id" db:"insured_id"`
	FileID           *uuid.UUID      `json:"file_id,omitempty" db:"file_id"`
	ImportSessionID  *uuid.UUID      `json:"import_session_id,omitempty" db:"import_session_id"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// Claim is keyed by the claim identifier carried in the source files; the
// identifier is globally unique and re-imports overwrite the mutable fields.
type Claim struct {
	ID              string     `json:"id" db:"id"`
	Status          *string    `json:"status,omitempty" db:"status"`
	ClaimDate       time.Time  `json:"claim_date" db:"claim_date"`
	SettlementDate  time.Time  `json:"settlement_date" db:"settlement_date"`
	InvoiceID       *uuid.UUID `json:"invoice_id,omitempty" db:"invoice_id"`
	ActID           *uuid.UUID `json:"act_id,omitempty" db:"act_id"`
	OperatorID      *uuid.UUID `json:"operator_id,omitempty" db:"operator_id"`
	InsuredID       *uuid.UUID `json:"insured_id,omitempty" db:"insured_id"`
	PartnerID       *uuid.UUID `json:"partner_id,omitempty" db:"partner_id"`
	PolicyID        *uuid.UUID `json:"policy_id,omitempty" db:"policy_id"`
	FileID          *uuid.UUID `json:"file_id,omitempty" db:"file_id"`
	ImportSessionID *uuid.UUID `json:"import_session_id,omitempty" db:"import_session_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}
