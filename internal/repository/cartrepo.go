package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

// CartRepository persists per-user cart lines. Quantities are always >= 1;
// a line that would reach zero is removed instead.
type CartRepository interface {
	// Get returns the user's cart lines in insertion order.
	Get(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// Add increments an existing line by qty or inserts a new one.
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error

	// SetQuantity replaces a line's quantity, inserting the line if absent.
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error

	// Remove deletes a line. Absent lines are not an error.
	Remove(ctx context.Context, userID, productID uuid.UUID) error

	// Clear deletes all lines of the user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}
