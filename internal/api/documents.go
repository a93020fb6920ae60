package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/app/workflow"
	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Document Workflow Handlers ─────────────────────────────────────────────

// handleListDocuments returns documents newest first, with an optional
// ?status= filter.
// GET /api/documents
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	status := domain.DocumentStatus(r.URL.Query().Get("status"))
	docs, err := s.workflow.List(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleCreateDocument uploads a document: insert, extract, audit — one
// atomic unit.
// POST /api/documents
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title  string          `json:"title"`
		Vendor string          `json:"vendor"`
		Amount decimal.Decimal `json:"amount"`
		Date   *time.Time      `json:"date"`
		Actor  string          `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	in := workflow.CreateInput{
		Title:  input.Title,
		Vendor: input.Vendor,
		Amount: input.Amount,
		Actor:  input.Actor,
	}
	if input.Date != nil {
		in.InvoiceDate = *input.Date
	}

	doc, err := s.workflow.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	documentsCreated.Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      doc.ID,
	})
}

// handleGetDocument returns a document with its extraction record and
// audit trail.
// GET /api/documents/{id}
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	detail, err := s.workflow.Get(r.Context(), id)
	if err == domain.ErrNotFound {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleAudit returns one document's audit trail.
// GET /api/audit?docId=N
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.ParseInt(r.URL.Query().Get("docId"), 10, 64)
	if err != nil || docID <= 0 {
		http.Error(w, "docId required", http.StatusBadRequest)
		return
	}
	entries, err := s.workflow.Audit(r.Context(), docID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// actorFromBody reads the optional {actor} body; an absent or empty body
// falls back to the workflow's default actor.
func actorFromBody(r *http.Request) string {
	var input struct {
		Actor string `json:"actor"`
	}
	// Body is optional for the status endpoints.
	_ = json.NewDecoder(r.Body).Decode(&input)
	return input.Actor
}

func (s *Server) handleDocumentAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64, actor string) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := op(r.Context(), id, actorFromBody(r)); err != nil {
		if err == domain.ErrNotFound {
			http.Error(w, "Document not found", http.StatusNotFound)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/documents/{id}/approve
func (s *Server) handleApproveDocument(w http.ResponseWriter, r *http.Request) {
	s.handleDocumentAction(w, r, s.workflow.Approve)
}

// POST /api/documents/{id}/reject
func (s *Server) handleRejectDocument(w http.ResponseWriter, r *http.Request) {
	s.handleDocumentAction(w, r, s.workflow.Reject)
}

// POST /api/documents/{id}/deliver
func (s *Server) handleDeliverDocument(w http.ResponseWriter, r *http.Request) {
	s.handleDocumentAction(w, r, s.workflow.Deliver)
}
