package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type CreditLedger interface {
	GetBalance(ctx context.Context, input usecase.BalanceInput) (*usecase.BalanceOutput, error)
	GetAllocation(ctx context.Context, identifier, month string) (*entity.MonthlyAllocation, error)
	Debit(ctx context.Context, input usecase.DebitInput) (*usecase.DebitOutput, error)
}

type AllocationCreator interface {
	Execute(ctx context.Context, input usecase.CreateAllocationInput) (*entity.MonthlyAllocation, error)
}

type CreditHandler struct {
	Ledger  CreditLedger
	Creator AllocationCreator
	Logger  *zap.Logger
}

func NewCreditHandler(ledger CreditLedger, creator AllocationCreator, logger *zap.Logger) *CreditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditHandler{Ledger: ledger, Creator: creator, Logger: logger}
}

// Balance (GET /clients/{identifier}/credits/{creditType}?month=YYYY-MM)
func (h *CreditHandler) Balance(w http.ResponseWriter, r *http.Request) {
	output, err := h.Ledger.GetBalance(r.Context(), usecase.BalanceInput{
		ClientIdentifier: chi.URLParam(r, "identifier"),
		CreditType:       chi.URLParam(r, "creditType"),
		Month:            r.URL.Query().Get("month"),
	})
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Debit (POST /clients/{identifier}/credits/{creditType}/debit)
func (h *CreditHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var input usecase.DebitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	input.ClientIdentifier = chi.URLParam(r, "identifier")
	input.CreditType = chi.URLParam(r, "creditType")

	output, err := h.Ledger.Debit(r.Context(), input)
	if err != nil {
		if errors.Is(err, entity.ErrInsufficientCredits) {
			middleware.RecordDebitRejected(input.CreditType)
		}
		writeUseCaseError(w, h.Logger, err)
		return
	}

	middleware.RecordCreditsDebited(string(output.CreditType), output.Debited)
	writeJSON(w, http.StatusOK, output)
}

// Allocation (GET /clients/{identifier}/allocations?month=YYYY-MM)
func (h *CreditHandler) Allocation(w http.ResponseWriter, r *http.Request) {
	allocation, err := h.Ledger.GetAllocation(r.Context(), chi.URLParam(r, "identifier"), r.URL.Query().Get("month"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, allocation)
}

// CreateAllocation (POST /clients/{identifier}/allocations)
func (h *CreditHandler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateAllocationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	input.ClientIdentifier = chi.URLParam(r, "identifier")

	allocation, err := h.Creator.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	middleware.RecordAllocationCreated("api")
	writeJSON(w, http.StatusCreated, allocation)
}
