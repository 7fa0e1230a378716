package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ClientHandler struct {
	Resolver usecase.ClientResolverInterface
	Logger   *zap.Logger
}

func NewClientHandler(resolver usecase.ClientResolverInterface, logger *zap.Logger) *ClientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientHandler{Resolver: resolver, Logger: logger}
}

// Get (GET /clients/{identifier}) accepts an id, a domain or an email.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	client, err := h.Resolver.Execute(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}
