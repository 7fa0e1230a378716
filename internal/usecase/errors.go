package usecase

import (
	"errors"
	"strings"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
)

// DomainError is a business-rule rejection the caller can fix.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps an infrastructure failure.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func newValidationError(errs []ValidationError) *DomainError {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
	}
}

func newDatabaseError(msg string, err error) *TechnicalError {
	return &TechnicalError{
		Code:    CodeDatabase,
		Message: msg + ": " + err.Error(),
		Err:     err,
	}
}
