package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

// OrderRepository records completed transactions and the per-user purchase
// history derived from them.
type OrderRepository interface {
	// FulfillOrder runs the fulfillment transaction: allocate one key per
	// purchased unit, write the order and its items, append one purchase
	// entry per key, and clear the user's cart. All-or-nothing: any
	// ErrNotFound or ErrOutOfStock rolls every allocation back.
	FulfillOrder(ctx context.Context, userID uuid.UUID, items []model.CheckoutItem, payment model.PaymentInfo) (*model.Order, error)

	// ListByUser returns the user's orders, newest first, with items.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// ListPurchases returns the user's append-only purchase record.
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]model.PurchaseEntry, error)

	// HasPurchased reports whether the user owns at least one key of the
	// product. Gates review submission.
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)

	// Stats returns the completed-order count and gross revenue (admin dashboard).
	Stats(ctx context.Context) (orders int, revenue float64, err error)
}
