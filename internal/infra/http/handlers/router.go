package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appmw "github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
)

type RouterConfig struct {
	Client      *ClientHandler
	Lead        *LeadHandler
	Credit      *CreditHandler
	Health      *HealthHandler
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmw.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(appmw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", cfg.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/clients/{identifier}", func(r chi.Router) {
		r.Get("/", cfg.Client.Get)

		r.Post("/leads/search", cfg.Lead.Search)
		r.Post("/leads/convert", cfg.Lead.Convert)

		r.Get("/credits/{creditType}", cfg.Credit.Balance)
		r.Post("/credits/{creditType}/debit", cfg.Credit.Debit)

		r.Get("/allocations", cfg.Credit.Allocation)
		r.Post("/allocations", cfg.Credit.CreateAllocation)
	})

	return r
}
