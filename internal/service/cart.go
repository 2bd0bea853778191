package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// CartView is a cart resolved against the catalog, with derived totals.
// Totals are recomputed on every read, never cached.
type CartView struct {
	Lines      []model.CartLine
	TotalItems int
	TotalPrice float64 // sum of discounted prices × quantities
}

// CartService defines per-user cart operations.
type CartService interface {
	// Get returns the cart with product data and derived totals.
	Get(ctx context.Context, userID uuid.UUID) (*CartView, error)
	// Add puts qty units of a product into the cart. Fails with ErrOutOfStock
	// when the product has no unsold key; performs no mutation then.
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	// Remove deletes the product's line unconditionally.
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	// SetQuantity replaces the line's quantity; qty <= 0 behaves like Remove.
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error
	// MergeOnLogin folds a device-local cart into the server cart, quantities
	// additive by product id, then the caller discards the local copy.
	MergeOnLogin(ctx context.Context, userID uuid.UUID, local []model.CartItem) error
}

type CartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

// NewCartService constructs CartService.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartServiceImpl {
	return &CartServiceImpl{carts: carts, products: products}
}

// Get resolves cart lines against the catalog. Lines whose product was
// deleted since being added are dropped from the view.
func (s *CartServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{}
	for _, it := range items {
		p, err := s.products.Get(ctx, it.ProductID)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, model.CartLine{Product: *p, Quantity: it.Quantity})
		view.TotalItems += it.Quantity
		view.TotalPrice += p.DiscountedPrice() * float64(it.Quantity)
	}
	return view, nil
}

// Add stock-checks the product, then increments or inserts the line.
func (s *CartServiceImpl) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return fmt.Errorf("%w: empty user/product id", errs.ErrValidation)
	}
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be positive", errs.ErrValidation)
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	ok, err := s.products.HasAvailable(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", p.Name, errs.ErrOutOfStock)
	}
	return s.carts.Add(ctx, userID, productID, qty)
}

// Remove deletes the line; removing an absent line is a no-op.
func (s *CartServiceImpl) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return fmt.Errorf("%w: empty user/product id", errs.ErrValidation)
	}
	return s.carts.Remove(ctx, userID, productID)
}

// SetQuantity replaces the line quantity. Zero and negative quantities remove
// the line: a cart never holds a zero-quantity entry.
func (s *CartServiceImpl) SetQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return fmt.Errorf("%w: empty user/product id", errs.ErrValidation)
	}
	if qty <= 0 {
		return s.carts.Remove(ctx, userID, productID)
	}
	return s.carts.SetQuantity(ctx, userID, productID, qty)
}

// MergeOnLogin applies MergeCarts to the stored cart and writes back the
// changed lines, stock-checking each one. Writes are per-line, not atomic:
// a failure partway leaves earlier lines merged.
func (s *CartServiceImpl) MergeOnLogin(ctx context.Context, userID uuid.UUID, local []model.CartItem) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if len(local) == 0 {
		return nil
	}
	remote, err := s.carts.Get(ctx, userID)
	if err != nil {
		return err
	}
	before := make(map[uuid.UUID]int, len(remote))
	for _, it := range remote {
		before[it.ProductID] = it.Quantity
	}
	for _, it := range MergeCarts(local, remote) {
		if before[it.ProductID] == it.Quantity {
			continue
		}
		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return err
		}
		ok, err := s.products.HasAvailable(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", p.Name, errs.ErrOutOfStock)
		}
		if err := s.carts.SetQuantity(ctx, userID, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// MergeCarts combines a device-local cart into the server cart: union by
// product id with quantities added. Remote line order is preserved and new
// local lines append in their original order. Non-positive local quantities
// are dropped. Pure function; its additive rule is the whole merge contract.
func MergeCarts(local, remote []model.CartItem) []model.CartItem {
	out := append([]model.CartItem(nil), remote...)
	idx := make(map[uuid.UUID]int, len(out))
	for i, it := range out {
		idx[it.ProductID] = i
	}
	for _, it := range local {
		if it.Quantity < 1 {
			continue
		}
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
		idx[it.ProductID] = len(out) - 1
	}
	return out
}
