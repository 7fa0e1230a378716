package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type LeadSearcher interface {
	Execute(ctx context.Context, input usecase.FindCandidatesInput) (*usecase.FindCandidatesOutput, error)
}

type LeadConverter interface {
	Execute(ctx context.Context, input usecase.ConvertLeadsInput) (*usecase.ConversionReport, error)
}

type LeadHandler struct {
	Searcher    LeadSearcher
	Converter   LeadConverter
	Logger      *zap.Logger
	rateLimiter *RateLimiter
}

// ConvertRateLimit is the default budget of convert calls per IP per minute.
const ConvertRateLimit = 10

func NewLeadHandler(searcher LeadSearcher, converter LeadConverter, limiter *RateLimiter, logger *zap.Logger) *LeadHandler {
	if limiter == nil {
		limiter = NewRateLimiter(ConvertRateLimit, time.Minute)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{
		Searcher:    searcher,
		Converter:   converter,
		Logger:      logger,
		rateLimiter: limiter,
	}
}

// Search (POST /clients/{identifier}/leads/search). An empty body searches
// without filters.
func (h *LeadHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input usecase.FindCandidatesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	input.ClientIdentifier = chi.URLParam(r, "identifier")

	output, err := h.Searcher.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Convert (POST /clients/{identifier}/leads/convert). A partially successful
// batch is still a 200; the report says what was skipped and why.
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later")
		return
	}

	var input usecase.ConvertLeadsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return
	}
	input.ClientIdentifier = chi.URLParam(r, "identifier")

	report, err := h.Converter.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	middleware.RecordLeadsConverted(report.ConvertedCount)
	for _, o := range report.Outcomes {
		if !o.Converted {
			middleware.RecordLeadSkipped(string(o.Reason))
		}
	}

	writeJSON(w, http.StatusOK, report)
}
