// Package workflow drives the document approval workflow and its audit
// trail. Status setters are unconditional by default, matching the
// behavior users already rely on; strict mode consults the transition
// table in domain and rejects illegal moves.
package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/upland-labs/storefront/internal/domain"
	"github.com/upland-labs/storefront/internal/infra/sqlite"
)

// Service is the Document Workflow.
type Service struct {
	store     *sqlite.DB
	extractor Extractor
	strict    bool
}

// New creates a workflow service. strict enables the guarded transition
// table; the shipped default is permissive.
func New(store *sqlite.DB, extractor Extractor, strict bool) *Service {
	return &Service{store: store, extractor: extractor, strict: strict}
}

// CreateInput is an uploaded document.
type CreateInput struct {
	Title       string
	Vendor      string
	Amount      decimal.Decimal
	InvoiceDate time.Time
	Actor       string
}

// DocumentDetail is a document joined with its extraction record and
// audit trail for display.
type DocumentDetail struct {
	domain.Document
	Extracted domain.ExtractedFields `json:"extracted"`
	Audit     []domain.AuditLogEntry `json:"audit"`
}

// Create inserts the document in New, runs the extractor, stores the
// extraction record, and appends the UPLOAD audit entry — one
// transaction, so a failed extraction leaves no document behind.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Document, error) {
	if in.Title == "" {
		return domain.Document{}, fmt.Errorf("%w: title required", domain.ErrValidation)
	}

	doc := domain.Document{Title: in.Title, Vendor: in.Vendor, Amount: in.Amount}
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.InsertDocument(ctx, tx, &doc); err != nil {
			return err
		}
		res, err := s.extractor.Extract(ctx, ExtractInput{
			Title:       in.Title,
			Vendor:      in.Vendor,
			Amount:      in.Amount,
			InvoiceDate: in.InvoiceDate,
		})
		if err != nil {
			return fmt.Errorf("extract document %d: %w", doc.ID, err)
		}
		if err := s.store.InsertExtractedFields(ctx, tx, &domain.ExtractedFields{
			DocumentID:    doc.ID,
			InvoiceNumber: res.InvoiceNumber,
			Vendor:        in.Vendor,
			Amount:        in.Amount,
			InvoiceDate:   res.InvoiceDate,
			Confidence:    res.Confidence,
		}); err != nil {
			return err
		}
		return s.store.InsertAuditEntry(ctx, tx, &domain.AuditLogEntry{
			DocumentID: doc.ID,
			Actor:      actorOrDefault(in.Actor),
			Action:     domain.AuditUpload,
			Details:    "Document uploaded successfully",
		})
	})
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// Approve sets the document to Approved.
func (s *Service) Approve(ctx context.Context, id int64, actor string) error {
	return s.setStatus(ctx, id, actor, domain.DocApproved, domain.AuditApprove, "Document approved")
}

// Reject sends the document back to NeedsReview.
func (s *Service) Reject(ctx context.Context, id int64, actor string) error {
	return s.setStatus(ctx, id, actor, domain.DocNeedsReview, domain.AuditReject, "Document rejected, returned to review")
}

// Deliver sets the document to Delivered.
func (s *Service) Deliver(ctx context.Context, id int64, actor string) error {
	return s.setStatus(ctx, id, actor, domain.DocDelivered, domain.AuditDeliver, "Delivered via mock Email/Fax gateway")
}

// setStatus applies one status change plus its audit entry in a single
// transaction. Permissive mode mirrors the original unconditional
// setters; strict mode enforces the transition table.
func (s *Service) setStatus(ctx context.Context, id int64, actor string, status domain.DocumentStatus, action domain.AuditAction, details string) error {
	return s.store.WithTx(ctx, func(tx *sql.Tx) error {
		doc, err := s.store.GetDocumentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if s.strict && !doc.Status.CanTransition(status) {
			return fmt.Errorf("%w: document %d is %s, cannot move to %s",
				domain.ErrInvalidTransition, id, doc.Status, status)
		}
		if _, err := s.store.SetDocumentStatus(ctx, tx, id, status); err != nil {
			return err
		}
		return s.store.InsertAuditEntry(ctx, tx, &domain.AuditLogEntry{
			DocumentID: id,
			Actor:      actorOrDefault(actor),
			Action:     action,
			Details:    details,
		})
	})
}

// Get returns the document with extraction and audit trail attached.
func (s *Service) Get(ctx context.Context, id int64) (DocumentDetail, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return DocumentDetail{}, err
	}
	detail := DocumentDetail{Document: doc}
	// The extraction record is created atomically with the document, but
	// tolerate its absence so a half-migrated store still renders.
	if extracted, err := s.store.GetExtractedFields(ctx, id); err == nil {
		detail.Extracted = extracted
	} else if err != domain.ErrNotFound {
		return DocumentDetail{}, err
	}
	detail.Audit, err = s.store.ListAuditEntries(ctx, id)
	if err != nil {
		return DocumentDetail{}, err
	}
	return detail, nil
}

// List returns documents newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx, status)
}

// Audit returns a document's audit trail, newest first.
func (s *Service) Audit(ctx context.Context, documentID int64) ([]domain.AuditLogEntry, error) {
	return s.store.ListAuditEntries(ctx, documentID)
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return domain.DefaultActor
	}
	return actor
}
