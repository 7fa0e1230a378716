package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	leadsConverted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leads_converted_total",
			Help: "Total number of leads converted into contacts",
		},
	)

	leadsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_skipped_total",
			Help: "Leads skipped during conversion, by reason",
		},
		[]string{"reason"},
	)

	creditsDebited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_debited_total",
			Help: "Credits debited through the ledger API",
		},
		[]string{"credit_type"},
	)

	debitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_debit_rejections_total",
			Help: "Debits refused for lack of credits",
		},
		[]string{"credit_type"},
	)

	allocationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monthly_allocations_created_total",
			Help: "Monthly allocations created, by trigger",
		},
		[]string{"source"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics labels requests by route pattern so ids in the path do not explode
// label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordLeadsConverted(n int) {
	leadsConverted.Add(float64(n))
}

func RecordLeadSkipped(reason string) {
	leadsSkipped.WithLabelValues(reason).Inc()
}

func RecordCreditsDebited(creditType string, amount int) {
	creditsDebited.WithLabelValues(creditType).Add(float64(amount))
}

func RecordDebitRejected(creditType string) {
	debitRejections.WithLabelValues(creditType).Inc()
}

func RecordAllocationCreated(source string) {
	allocationsCreated.WithLabelValues(source).Inc()
}
