package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Document Workflow Types ────────────────────────────────────────────────

// DocumentStatus is the document workflow state.
type DocumentStatus string

const (
	DocNew         DocumentStatus = "New"
	DocProcessing  DocumentStatus = "Processing"
	DocNeedsReview DocumentStatus = "NeedsReview"
	DocApproved    DocumentStatus = "Approved"
	DocDelivered   DocumentStatus = "Delivered"
)

// docTransitions is the guarded transition table used in strict mode.
// The default (permissive) mode ignores it, matching the long-observed
// behavior of unconditional setters.
var docTransitions = map[DocumentStatus][]DocumentStatus{
	DocNew:         {DocProcessing, DocNeedsReview, DocApproved},
	DocProcessing:  {DocNeedsReview, DocApproved},
	DocNeedsReview: {DocApproved},
	DocApproved:    {DocNeedsReview, DocDelivered},
	DocDelivered:   {},
}

// CanTransition reports whether from → to is legal under the strict
// transition table.
func (from DocumentStatus) CanTransition(to DocumentStatus) bool {
	for _, next := range docTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuditAction tags an audit-log entry.
type AuditAction string

const (
	AuditUpload  AuditAction = "UPLOAD"
	AuditApprove AuditAction = "APPROVE"
	AuditReject  AuditAction = "REJECT"
	AuditDeliver AuditAction = "DELIVER"
)

// DefaultActor is recorded when a workflow request names nobody.
const DefaultActor = "student"

// Document is an uploaded invoice-like record moving through the workflow.
type Document struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Vendor    string          `json:"vendor,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    DocumentStatus  `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// ExtractedFields is the 1:1 extraction result created atomically with
// its document.
type ExtractedFields struct {
	DocumentID    int64           `json:"document_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Vendor        string          `json:"vendor,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	Confidence    float64         `json:"confidence"`
}

// AuditLogEntry is an append-only workflow trail row, ordered by creation.
type AuditLogEntry struct {
	ID         int64       `json:"id"`
	DocumentID int64       `json:"document_id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	Details    string      `json:"details,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
