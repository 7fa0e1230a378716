package usecase

import (
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	DefaultMaxResults     = 100
	MaxResultsLimit       = 1000
	MaxLeadsPerConversion = 500
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateFindCandidatesInput(input FindCandidatesInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.ClientIdentifier) == "" {
		errors = append(errors, ValidationError{"client", "is required"})
	}

	if input.MaxResults < 0 {
		errors = append(errors, ValidationError{"max_results", "must not be negative"})
	} else if input.MaxResults > MaxResultsLimit {
		errors = append(errors, ValidationError{"max_results", fmt.Sprintf("must not exceed %d", MaxResultsLimit)})
	}

	f := input.Filters
	if f.MinEmployeeCount != nil && *f.MinEmployeeCount < 0 {
		errors = append(errors, ValidationError{"min_employee_count", "must not be negative"})
	}
	if f.MaxEmployeeCount != nil && *f.MaxEmployeeCount < 0 {
		errors = append(errors, ValidationError{"max_employee_count", "must not be negative"})
	}
	if lo, hi, ok := f.EmployeeRange(); ok && lo > hi {
		errors = append(errors, ValidationError{"employee_count", "min must not exceed max"})
	}

	return errors
}

func ValidateConvertLeadsInput(input ConvertLeadsInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.ClientIdentifier) == "" {
		errors = append(errors, ValidationError{"client", "is required"})
	}

	if len(input.LeadIDs) == 0 {
		errors = append(errors, ValidationError{"lead_ids", "is required"})
	} else if len(input.LeadIDs) > MaxLeadsPerConversion {
		errors = append(errors, ValidationError{"lead_ids", fmt.Sprintf("must not exceed %d ids", MaxLeadsPerConversion)})
	}
	for i, id := range input.LeadIDs {
		if strings.TrimSpace(id) == "" {
			errors = append(errors, ValidationError{fmt.Sprintf("lead_ids[%d]", i), "must not be blank"})
		}
	}

	return errors
}

func validateCreditFields(identifier, creditType, month string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(identifier) == "" {
		errors = append(errors, ValidationError{"client", "is required"})
	}
	if _, err := entity.ParseCreditType(creditType); err != nil {
		errors = append(errors, ValidationError{"credit_type", "must be one of leads, emails, linkedin, abm"})
	}
	if month != "" {
		if _, err := entity.ParseMonth(month); err != nil {
			errors = append(errors, ValidationError{"month", "must be YYYY-MM"})
		}
	}

	return errors
}

func ValidateBalanceInput(input BalanceInput) []ValidationError {
	return validateCreditFields(input.ClientIdentifier, input.CreditType, input.Month)
}

func ValidateDebitInput(input DebitInput) []ValidationError {
	errors := validateCreditFields(input.ClientIdentifier, input.CreditType, input.Month)
	if input.Amount < 0 {
		errors = append(errors, ValidationError{"amount", "must not be negative"})
	}
	return errors
}

func ValidateCreateAllocationInput(input CreateAllocationInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.ClientIdentifier) == "" {
		errors = append(errors, ValidationError{"client", "is required"})
	}
	if strings.TrimSpace(input.SubscriptionID) == "" {
		errors = append(errors, ValidationError{"subscription_id", "is required"})
	}
	if input.Month != "" {
		if _, err := entity.ParseMonth(input.Month); err != nil {
			errors = append(errors, ValidationError{"month", "must be YYYY-MM"})
		}
	}

	return errors
}
