package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

// CartRepo implements CartRepository using PostgreSQL.
type CartRepo struct{ db *DB }

// NewCartRepo constructs a cart repository.
func NewCartRepo(db *DB) *CartRepo { return &CartRepo{db: db} }

// Get returns cart lines in insertion order.
func (r *CartRepo) Get(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	const q = `
SELECT product_id, quantity FROM cart_items WHERE user_id=$1 ORDER BY added_at`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CartItem
	for rows.Next() {
		var it model.CartItem
		if err = rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Add increments an existing line by qty or inserts a new one.
func (r *CartRepo) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1,$2,$3)
ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	_, err := r.db.Pool.Exec(ctx, q, userID, productID, qty)
	return err
}

// SetQuantity replaces the line quantity, inserting the line if absent.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1,$2,$3)
ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	_, err := r.db.Pool.Exec(ctx, q, userID, productID, qty)
	return err
}

// Remove deletes a line; absent lines are not an error.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id=$1 AND product_id=$2`, userID, productID)
	return err
}

// Clear empties the user's cart.
func (r *CartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID)
	return err
}
