package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────

func TestCentsFromDecimal(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"0.01", 1},
		{"20.00", 2000},
		{"40", 4000},
		{"-12.50", -1250},
		{"129.99", 12999},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CentsFromDecimal(decimal.RequireFromString(tt.input))
			if err != nil {
				t.Fatalf("CentsFromDecimal(%s) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("CentsFromDecimal(%s) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCentsFromDecimal_SubCent(t *testing.T) {
	_, err := CentsFromDecimal(decimal.RequireFromString("1.005"))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestDecimalFromCents_RoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 999, 2000, -4550} {
		got, err := CentsFromDecimal(DecimalFromCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Errorf("round trip = %d, want %d", got, cents)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("abc"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseAmount(abc) error = %v, want ErrValidation", err)
	}
	got, err := ParseAmount("50.25")
	if err != nil {
		t.Fatal(err)
	}
	if got != 5025 {
		t.Errorf("ParseAmount(50.25) = %d, want 5025", got)
	}
}

// ─── Cart math ──────────────────────────────────────────────────────────────

func TestCartTotal(t *testing.T) {
	lines := []CartLine{
		{ProductID: 1, Price: decimal.RequireFromString("20.00"), Quantity: 2},
		{ProductID: 2, Price: decimal.RequireFromString("5.50"), Quantity: 3},
	}
	if got := CartTotal(lines); !got.Equal(decimal.RequireFromString("56.50")) {
		t.Errorf("CartTotal = %s, want 56.50", got)
	}
	if got := CartTotal(nil); !got.Equal(decimal.Zero) {
		t.Errorf("CartTotal(nil) = %s, want 0", got)
	}
}

// ─── Order status ───────────────────────────────────────────────────────────

func TestOrderStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
	}{
		{OrderPlaced, false},
		{OrderDelivered, false},
		{OrderCancelled, true},
		{OrderReturned, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		// Returnable is the exact complement: placed orders are
		// deliberately returnable.
		if got := tt.status.Returnable(); got == tt.terminal {
			t.Errorf("%s.Returnable() = %v, want %v", tt.status, got, !tt.terminal)
		}
	}
}

// ─── Document transitions (strict mode table) ───────────────────────────────

func TestDocumentStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to DocumentStatus
		want     bool
	}{
		{DocNew, DocApproved, true},
		{DocNew, DocNeedsReview, true},
		{DocProcessing, DocApproved, true},
		{DocNeedsReview, DocApproved, true},
		{DocApproved, DocDelivered, true},
		{DocApproved, DocNeedsReview, true},
		{DocDelivered, DocApproved, false},
		{DocDelivered, DocNeedsReview, false},
		{DocNew, DocDelivered, false},
		{DocApproved, DocApproved, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
