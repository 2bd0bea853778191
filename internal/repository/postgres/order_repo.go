package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
)

// OrderRepo implements OrderRepository using PostgreSQL.
type OrderRepo struct{ db *DB }

// NewOrderRepo constructs an order repository.
func NewOrderRepo(db *DB) *OrderRepo { return &OrderRepo{db: db} }

const insertOrderSQL = `
INSERT INTO orders (id, user_id, total_amount, gateway_order_id, gateway_payment_id, signature, status)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

const insertOrderItemSQL = `
INSERT INTO order_items (order_id, product_id, unit_price, key) VALUES ($1,$2,$3,$4)`

const insertPurchaseSQL = `
INSERT INTO purchases (id, user_id, product_id, product_name, key, application_link, tutorial_link)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

// FulfillOrder allocates one key per purchased unit and records the order,
// its items, the purchase entries and the cart wipe in a single transaction.
// A product that vanished or ran out of keys rolls the whole attempt back:
// no key stays sold without a matching purchase entry.
func (r *OrderRepo) FulfillOrder(
	ctx context.Context, userID uuid.UUID, items []model.CheckoutItem, payment model.PaymentInfo,
) (order *model.Order, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	order = &model.Order{
		ID:      orderID,
		UserID:  userID,
		Payment: payment,
		Status:  model.OrderStatusCompleted,
	}

	type purchase struct {
		productID   uuid.UUID
		productName string
		key         model.AllocatedKey
	}
	var purchases []purchase

	const selProduct = `SELECT name, price, discount FROM products WHERE id=$1`
	for _, it := range items {
		var (
			name            string
			price, discount float64
		)
		if err = tx.QueryRow(ctx, selProduct, it.ProductID).Scan(&name, &price, &discount); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = fmt.Errorf("product %s: %w", it.ProductID, errs.ErrNotFound)
			}
			return nil, err
		}
		unit := price - price*(discount/100)

		for range it.Quantity {
			var ak model.AllocatedKey
			if ak, err = allocateKey(ctx, tx, it.ProductID); err != nil {
				if errors.Is(err, errs.ErrOutOfStock) {
					err = fmt.Errorf("%s: %w", name, errs.ErrOutOfStock)
				}
				return nil, err
			}
			order.Items = append(order.Items, model.OrderItem{
				ProductID: it.ProductID,
				UnitPrice: unit,
				Key:       ak.Key,
			})
			order.TotalAmount += unit
			purchases = append(purchases, purchase{productID: it.ProductID, productName: name, key: ak})
		}
	}

	if _, err = tx.Exec(ctx, insertOrderSQL,
		order.ID, userID, order.TotalAmount,
		payment.GatewayOrderID, payment.GatewayPaymentID, payment.Signature,
		order.Status,
	); err != nil {
		return nil, err
	}
	for _, oi := range order.Items {
		if _, err = tx.Exec(ctx, insertOrderItemSQL, order.ID, oi.ProductID, oi.UnitPrice, oi.Key); err != nil {
			return nil, err
		}
	}
	for _, p := range purchases {
		var pid uuid.UUID
		if pid, err = uuid.NewV4(); err != nil {
			return nil, err
		}
		if _, err = tx.Exec(ctx, insertPurchaseSQL,
			pid, userID, p.productID, p.productName,
			p.key.Key, p.key.ApplicationLink, p.key.TutorialLink,
		); err != nil {
			return nil, err
		}
	}
	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first, with their items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	const q = `
SELECT o.id, o.total_amount, o.gateway_order_id, o.gateway_payment_id, o.signature, o.status,
o.created_at, i.product_id, i.unit_price, i.key
FROM orders o
JOIN order_items i ON i.order_id = o.id
WHERE o.user_id=$1
ORDER BY o.created_at DESC, i.id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []model.Order
		idx = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			o  model.Order
			it model.OrderItem
		)
		if err = rows.Scan(&o.ID, &o.TotalAmount, &o.Payment.GatewayOrderID, &o.Payment.GatewayPaymentID,
			&o.Payment.Signature, &o.Status, &o.CreatedAt, &it.ProductID, &it.UnitPrice, &it.Key); err != nil {
			return nil, err
		}
		i, ok := idx[o.ID]
		if !ok {
			o.UserID = userID
			out = append(out, o)
			i = len(out) - 1
			idx[o.ID] = i
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out, rows.Err()
}

// ListPurchases returns the user's purchase record, newest first.
func (r *OrderRepo) ListPurchases(ctx context.Context, userID uuid.UUID) ([]model.PurchaseEntry, error) {
	const q = `
SELECT id, user_id, product_id, product_name, key, application_link, tutorial_link, purchased_at
FROM purchases WHERE user_id=$1 ORDER BY purchased_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PurchaseEntry
	for rows.Next() {
		var e model.PurchaseEntry
		if err = rows.Scan(&e.ID, &e.UserID, &e.ProductID, &e.ProductName, &e.Key,
			&e.ApplicationLink, &e.TutorialLink, &e.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats returns the order count and gross revenue across all users.
func (r *OrderRepo) Stats(ctx context.Context) (int, float64, error) {
	var (
		n   int
		rev float64
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&n, &rev)
	return n, rev, err
}

// HasPurchased reports whether the user owns a key of the product.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id=$1 AND product_id=$2)`, userID, productID).Scan(&ok)
	return ok, err
}
