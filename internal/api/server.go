// Package api provides the HTTP facade over the shop and docflow
// services. It is purely a translation layer: decode the request, call
// one service operation, map the result (or domain error) onto HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upland-labs/storefront/internal/app/ledger"
	"github.com/upland-labs/storefront/internal/app/lifecycle"
	"github.com/upland-labs/storefront/internal/app/workflow"
	"github.com/upland-labs/storefront/internal/domain"
	"github.com/upland-labs/storefront/internal/infra/sqlite"
)

// Server is the storefront HTTP API server.
type Server struct {
	store     *sqlite.DB
	ledger    *ledger.Service
	lifecycle *lifecycle.Service
	workflow  *workflow.Service

	metricsEnabled bool
	limiter        *ipRateLimiter
}

// NewServer creates a new API server over the given services.
func NewServer(store *sqlite.DB, lgr *ledger.Service, lc *lifecycle.Service, wf *workflow.Service) *Server {
	return &Server{store: store, ledger: lgr, lifecycle: lc, workflow: wf}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// EnableRateLimit turns on the per-IP request limiter.
func (s *Server) EnableRateLimit(rps float64, burst int) {
	s.limiter = newIPRateLimiter(rps, burst)
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)
	r.Use(countRequests)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	// Health check: reports whether the row store answers.
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := s.store.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "error",
				"db":     "unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"db":     "connected",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleNewSession)

		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleCreateProduct)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Get("/cart/{sessionID}", s.handleGetCart)
		r.Post("/cart", s.handleAddToCart)
		r.Put("/cart", s.handleUpdateCart)
		r.Delete("/cart/{sessionID}", s.handleClearCart)
		r.Delete("/cart/{sessionID}/item/{productID}", s.handleRemoveCartItem)

		r.Get("/wallet/{sessionID}", s.handleGetWallet)
		r.Post("/wallet/add", s.handleAddFunds)

		r.Post("/checkout", s.handleCheckout)

		r.Get("/orders/{sessionID}", s.handleListOrders)
		r.Post("/orders/{orderID}/cancel", s.handleCancelOrder)
		r.Post("/orders/{orderID}/deliver", s.handleDeliverOrder)
		r.Post("/orders/{orderID}/return", s.handleReturnOrder)

		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleCreateDocument)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Post("/documents/{id}/approve", s.handleApproveDocument)
		r.Post("/documents/{id}/reject", s.handleRejectDocument)
		r.Post("/documents/{id}/deliver", s.handleDeliverDocument)
		r.Get("/audit", s.handleAudit)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// failure is the structured error body used where clients branch on a
// machine-readable code (currently only INSUFFICIENT_FUNDS).
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// writeDomainError maps a domain error onto the wire. Unknown errors
// become an opaque 500; internals stay in the log, not the response.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeJSON(w, http.StatusBadRequest, failure{
			Message: "Insufficient funds in wallet",
			Code:    "INSUFFICIENT_FUNDS",
		})
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("api: %v", err)
		http.Error(w, "Server Error", http.StatusInternalServerError)
	}
}

// corsMiddleware adds CORS headers so the browser client can call the
// API from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
