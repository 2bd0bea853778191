// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates malformed or missing input, rejected before any mutation.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock indicates a product has no unsold license key left.
	ErrOutOfStock = errors.New("out of stock")

	// ErrSignatureMismatch indicates the payment signature failed verification.
	// Always fatal to the checkout attempt; never retried.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidAmount indicates a computed total outside the chargeable bounds.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotEntitled indicates a review attempt without a matching purchase.
	ErrNotEntitled = errors.New("not entitled")

	// ErrAlreadyReviewed indicates a second review by the same user on a product.
	ErrAlreadyReviewed = errors.New("already reviewed")

	// ErrKeySold indicates an admin attempt to delete a key that was already sold.
	ErrKeySold = errors.New("key already sold")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream indicates the payment gateway or another dependency is
	// unavailable. Safe to retry: no core mutation has occurred.
	ErrUpstream = errors.New("upstream failure")
)
