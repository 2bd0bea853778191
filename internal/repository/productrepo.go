// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/model"
)

// Product sort orders accepted by ProductFilter.Sort.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNewest    = "newest"
	SortRating    = "rating"
)

// ProductFilter narrows and orders a catalog listing. Empty category and
// platform mean no constraint.
type ProductFilter struct {
	Category model.Category
	Platform model.Platform
	Featured bool // only featured when true
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Sort     string // one of the Sort* constants; newest when empty
	Page     int    // 1-based
	Limit    int
}

// ProductRepository provides catalog access plus key-pool and review
// operations owned by the product aggregate.
type ProductRepository interface {
	// List returns a filtered, sorted page of products and the unpaged total.
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)

	// Get loads one product with its unsold-key count.
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a product together with its initial key pool.
	Create(ctx context.Context, p *model.Product, keys []model.KeyInput) error

	// Update rewrites the catalog attributes of an existing product.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product and its unsold keys.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListKeys returns the full pool, sold and unsold, in allocation order.
	ListKeys(ctx context.Context, productID uuid.UUID) ([]model.Key, error)

	// AddKeys appends unsold keys to the pool. Key strings are not
	// deduplicated against the existing pool.
	AddKeys(ctx context.Context, productID uuid.UUID, keys []model.KeyInput) error

	// RemoveKey deletes an unsold key. Returns ErrKeySold for a sold key and
	// ErrNotFound when the key does not exist on the product.
	RemoveKey(ctx context.Context, productID, keyID uuid.UUID) error

	// HasAvailable reports whether at least one unsold key exists.
	HasAvailable(ctx context.Context, productID uuid.UUID) (bool, error)

	// Allocate marks the first unsold key sold and returns it with resolved
	// links. The flip is a store-level conditional update: two concurrent
	// calls can never observe the same unsold key. Returns ErrOutOfStock
	// when the pool is exhausted.
	Allocate(ctx context.Context, productID uuid.UUID) (model.AllocatedKey, error)

	// AddReview appends a review and recomputes the product's mean rating in
	// the same transaction. Returns ErrAlreadyReviewed on a duplicate
	// (product, user) pair.
	AddReview(ctx context.Context, rev *model.Review) error

	// ListReviews returns a product's reviews, newest first.
	ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
}
