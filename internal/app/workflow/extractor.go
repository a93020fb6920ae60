package workflow

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Extractor ──────────────────────────────────────────────────────────────
// Field extraction is modeled as a collaborator so a real OCR/IDP client
// can replace the mock without touching the workflow.

// ExtractInput is what the extractor sees of an uploaded document.
type ExtractInput struct {
	Title       string
	Vendor      string
	Amount      decimal.Decimal
	InvoiceDate time.Time
}

// ExtractResult is the synthesized (or recognized) invoice data.
type ExtractResult struct {
	InvoiceNumber string
	InvoiceDate   time.Time
	Confidence    float64
}

// Extractor produces invoice fields for a document.
type Extractor interface {
	Extract(ctx context.Context, in ExtractInput) (ExtractResult, error)
}

// MockExtractor simulates an extraction service: a timestamp-derived
// invoice number and a two-place confidence uniform in [0.70, 0.99).
type MockExtractor struct{}

// Extract implements Extractor.
func (MockExtractor) Extract(_ context.Context, in ExtractInput) (ExtractResult, error) {
	date := in.InvoiceDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	// Floor keeps the rounded value inside [0.70, 0.99).
	confidence := math.Floor((0.70+rand.Float64()*0.29)*100) / 100
	return ExtractResult{
		InvoiceNumber: fmt.Sprintf("INV-%d", time.Now().UnixMilli()),
		InvoiceDate:   date,
		Confidence:    confidence,
	}, nil
}
