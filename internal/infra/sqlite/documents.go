package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/upland-labs/storefront/internal/domain"
)

// ─── Document Workflow Operations ───────────────────────────────────────────

// InsertDocument creates a document in the New state and fills in its ID.
func (d *DB) InsertDocument(ctx context.Context, q Queryer, doc *domain.Document) error {
	amountCents, err := domain.CentsFromDecimal(doc.Amount)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, `
		INSERT INTO documents (title, vendor, amount_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.Title, doc.Vendor, amountCents, string(domain.DocNew), now)
	if err != nil {
		return err
	}
	doc.ID, err = res.LastInsertId()
	doc.Status = domain.DocNew
	doc.CreatedAt = now
	return err
}

const documentColumns = `id, title, vendor, amount_cents, status, created_at`

func scanDocument(row *sql.Row) (domain.Document, error) {
	var (
		doc         domain.Document
		amountCents int64
	)
	err := row.Scan(&doc.ID, &doc.Title, &doc.Vendor, &amountCents, &doc.Status, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Document{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Document{}, err
	}
	doc.Amount = domain.DecimalFromCents(amountCents)
	return doc, nil
}

// GetDocument returns one document, or domain.ErrNotFound.
func (d *DB) GetDocument(ctx context.Context, id int64) (domain.Document, error) {
	return scanDocument(d.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
}

// GetDocumentTx is GetDocument against a live transaction.
func (d *DB) GetDocumentTx(ctx context.Context, q Queryer, id int64) (domain.Document, error) {
	return scanDocument(q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
}

// ListDocuments returns documents newest first, optionally filtered by
// status ("" means all).
func (d *DB) ListDocuments(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			doc         domain.Document
			amountCents int64
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Vendor, &amountCents, &doc.Status, &doc.CreatedAt); err != nil {
			return nil, err
		}
		doc.Amount = domain.DecimalFromCents(amountCents)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SetDocumentStatus updates a document's status unconditionally (the
// permissive workflow mode). Returns false when the document is missing.
func (d *DB) SetDocumentStatus(ctx context.Context, q Queryer, id int64, status domain.DocumentStatus) (bool, error) {
	res, err := q.ExecContext(ctx, `UPDATE documents SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertExtractedFields stores the 1:1 extraction record for a document.
func (d *DB) InsertExtractedFields(ctx context.Context, q Queryer, f *domain.ExtractedFields) error {
	amountCents, err := domain.CentsFromDecimal(f.Amount)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO extracted_fields (document_id, invoice_number, vendor, amount_cents, invoice_date, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.DocumentID, f.InvoiceNumber, f.Vendor, amountCents, f.InvoiceDate.UTC(), f.Confidence)
	return err
}

// GetExtractedFields returns a document's extraction record, or
// domain.ErrNotFound.
func (d *DB) GetExtractedFields(ctx context.Context, documentID int64) (domain.ExtractedFields, error) {
	var (
		f           domain.ExtractedFields
		amountCents int64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT document_id, invoice_number, vendor, amount_cents, invoice_date, confidence
		FROM extracted_fields WHERE document_id = ?
	`, documentID).Scan(&f.DocumentID, &f.InvoiceNumber, &f.Vendor, &amountCents, &f.InvoiceDate, &f.Confidence)
	if err == sql.ErrNoRows {
		return domain.ExtractedFields{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	f.Amount = domain.DecimalFromCents(amountCents)
	return f, nil
}

// InsertAuditEntry appends a workflow audit row. Append-only: there is no
// update or delete counterpart.
func (d *DB) InsertAuditEntry(ctx context.Context, q Queryer, e *domain.AuditLogEntry) error {
	now := time.Now().UTC()
	res, err := q.ExecContext(ctx, `
		INSERT INTO audit_log (document_id, actor, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.DocumentID, e.Actor, string(e.Action), e.Details, now)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	e.CreatedAt = now
	return err
}

// ListAuditEntries returns a document's audit trail, newest first.
func (d *DB) ListAuditEntries(ctx context.Context, documentID int64) ([]domain.AuditLogEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, document_id, actor, action, details, created_at
		FROM audit_log
		WHERE document_id = ?
		ORDER BY id DESC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Actor, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
