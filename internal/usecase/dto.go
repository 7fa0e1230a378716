package usecase

import (
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type FindCandidatesInput struct {
	ClientIdentifier string             `json:"-"`
	Filters          entity.LeadFilters `json:"filters"`
	MaxResults       int                `json:"max_results"`
}

// LeadSummary is what a search exposes about a candidate before conversion.
type LeadSummary struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	JobTitle            string    `json:"job_title,omitempty"`
	FunctionGroup       string    `json:"function_group,omitempty"`
	City                string    `json:"city,omitempty"`
	State               string    `json:"state,omitempty"`
	Country             string    `json:"country,omitempty"`
	CompanyID           string    `json:"company_id"`
	CompanyName         string    `json:"company_name"`
	Industry            string    `json:"industry,omitempty"`
	EmployeeCount       *int      `json:"employee_count,omitempty"`
	TotalTimesContacted int       `json:"total_times_contacted"`
	AddedAt             time.Time `json:"added_at"`
	LeadScore           float64   `json:"lead_score"`
}

type FindCandidatesOutput struct {
	TotalMatches int           `json:"total_matches"`
	Leads        []LeadSummary `json:"leads"`
}

type ConvertLeadsInput struct {
	ClientIdentifier string   `json:"-"`
	LeadIDs          []string `json:"lead_ids"`
}

type SkipReason string

const (
	SkipLeadNotFound        SkipReason = "LeadNotFound"
	SkipAlreadyConverted    SkipReason = "AlreadyConverted"
	SkipCompanyNotEnriched  SkipReason = "CompanyNotEnriched"
	SkipInsufficientCredits SkipReason = "InsufficientCredits"
	SkipAllocationNotFound  SkipReason = "AllocationNotFound"
	SkipConversionFailed    SkipReason = "ConversionFailed"
)

type LeadOutcome struct {
	LeadID    string     `json:"lead_id"`
	Converted bool       `json:"converted"`
	ContactID string     `json:"contact_id,omitempty"`
	Reason    SkipReason `json:"reason,omitempty"`
}

// ConversionReport: Success is false as soon as one lead was skipped, even if
// others converted.
type ConversionReport struct {
	Success           bool              `json:"success"`
	ConvertedCount    int               `json:"converted_count"`
	SkippedCount      int               `json:"skipped_count"`
	Errors            []string          `json:"errors"`
	Outcomes          []LeadOutcome     `json:"outcomes"`
	ConvertedContacts []*entity.Contact `json:"converted_contacts"`
}

type BalanceInput struct {
	ClientIdentifier string
	CreditType       string
	Month            string
}

type BalanceOutput struct {
	ClientID   string            `json:"client_id"`
	CreditType entity.CreditType `json:"credit_type"`
	Month      entity.Month      `json:"month"`
	Used       int               `json:"used"`
	Total      int               `json:"total"`
	Remaining  int               `json:"remaining"`
}

type DebitInput struct {
	ClientIdentifier string `json:"-"`
	CreditType       string `json:"-"`
	Amount           int    `json:"amount"`
	Month            string `json:"month"`
}

type DebitOutput struct {
	ClientID   string            `json:"client_id"`
	CreditType entity.CreditType `json:"credit_type"`
	Month      entity.Month      `json:"month"`
	Debited    int               `json:"debited"`
	Remaining  int               `json:"remaining"`
}

type CreateAllocationInput struct {
	ClientIdentifier string `json:"-"`
	SubscriptionID   string `json:"subscription_id"`
	Month            string `json:"month"`
}
