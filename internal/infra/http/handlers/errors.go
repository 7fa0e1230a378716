package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Remaining *int   `json:"remaining,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

var notFoundCodes = []struct {
	err  error
	code string
}{
	{entity.ErrClientNotFound, "CLIENT_NOT_FOUND"},
	{entity.ErrLeadNotFound, "LEAD_NOT_FOUND"},
	{entity.ErrAllocationNotFound, "ALLOCATION_NOT_FOUND"},
	{entity.ErrSubscriptionNotFound, "SUBSCRIPTION_NOT_FOUND"},
	{entity.ErrTierNotFound, "TIER_NOT_FOUND"},
}

// writeUseCaseError maps use case errors onto HTTP statuses. Anything it does
// not recognise is logged and reported as a 500 without internals.
func writeUseCaseError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		domainErr    *usecase.DomainError
		insufficient *entity.InsufficientCreditsError
		technical    *usecase.TechnicalError
	)

	switch {
	case errors.As(err, &domainErr):
		writeErrorResponse(w, http.StatusBadRequest, domainErr.Code, domainErr.Message)
		return
	case errors.As(err, &insufficient):
		remaining, requested := insufficient.Remaining, insufficient.Requested
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Code:      "INSUFFICIENT_CREDITS",
			Message:   insufficient.Error(),
			Remaining: &remaining,
			Requested: &requested,
		})
		return
	case errors.Is(err, entity.ErrAllocationAlreadyExists):
		writeErrorResponse(w, http.StatusConflict, "ALLOCATION_ALREADY_EXISTS", err.Error())
		return
	case errors.Is(err, entity.ErrSubscriptionInactive):
		writeErrorResponse(w, http.StatusConflict, "SUBSCRIPTION_INACTIVE", err.Error())
		return
	}

	for _, nf := range notFoundCodes {
		if errors.Is(err, nf.err) {
			writeErrorResponse(w, http.StatusNotFound, nf.code, err.Error())
			return
		}
	}

	code := "INTERNAL_ERROR"
	if errors.As(err, &technical) {
		code = technical.Code
	}
	logger.Error("request failed", zap.String("code", code), zap.Error(err))
	writeErrorResponse(w, http.StatusInternalServerError, code, "internal error")
}
