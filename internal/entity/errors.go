package entity

import (
	"errors"
	"fmt"
)

var (
	ErrClientNotFound          = errors.New("client not found")
	ErrLeadNotFound            = errors.New("lead not found")
	ErrAlreadyConverted        = errors.New("lead already converted")
	ErrCompanyNotEnriched      = errors.New("company not enriched")
	ErrAllocationNotFound      = errors.New("allocation not found")
	ErrAllocationAlreadyExists = errors.New("allocation already exists")
	ErrInsufficientCredits     = errors.New("insufficient credits")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionInactive    = errors.New("subscription is not active")
	ErrTierNotFound            = errors.New("subscription tier not found")
)

// InsufficientCreditsError matches ErrInsufficientCredits with errors.Is.
type InsufficientCreditsError struct {
	CreditType CreditType
	Remaining  int
	Requested  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient %s credits: remaining %d, requested %d", e.CreditType, e.Remaining, e.Requested)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
