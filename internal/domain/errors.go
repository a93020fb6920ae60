package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. The HTTP facade
// maps them onto status codes; nothing below it inspects response bodies.

var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means a status precondition was violated
	// (e.g. cancelling an order that is already delivered).
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientFunds means a debit exceeded the wallet balance.
	// The balance is untouched when this is returned.
	ErrInsufficientFunds = errors.New("insufficient funds in wallet")

	// ErrValidation means the input was missing or malformed.
	ErrValidation = errors.New("invalid input")
)
