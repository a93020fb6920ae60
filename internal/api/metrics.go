package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Prometheus Metrics ─────────────────────────────────────────────────────

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "HTTP requests served, by method and status class.",
	}, []string{"method", "status"})

	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Checkout attempts by result (ok, insufficient_funds, invalid, error).",
	}, []string{"result"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Successful order status transitions, by target status.",
	}, []string{"to"})

	depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_wallet_deposits_total",
		Help: "Successful wallet deposits.",
	})

	documentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_documents_created_total",
		Help: "Documents uploaded through the workflow.",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter.",
	})
)

// checkoutResult buckets a checkout failure for the counter label.
func checkoutResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// statusRecorder captures the response status for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// countRequests is router middleware feeding httpRequestsTotal.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
