// Package service contains application services for the storefront core.
package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// CatalogService defines catalog browsing, admin product management and reviews.
type CatalogService interface {
	// ListProducts returns a filtered, sorted page and the unpaged total.
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, int, error)
	// GetProduct returns one product by id.
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// CreateProduct validates and inserts a product with its initial key pool.
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	// UpdateProduct replaces the catalog attributes of an existing product.
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*model.Product, error)
	// DeleteProduct removes a product.
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// ListKeys returns the full key pool, sold and unsold (admin view).
	ListKeys(ctx context.Context, productID uuid.UUID) ([]model.Key, error)
	// AddKeys bulk-appends unsold keys.
	AddKeys(ctx context.Context, productID uuid.UUID, keys []model.KeyInput) error
	// RemoveKey deletes an unsold key; sold keys are refused with ErrKeySold.
	RemoveKey(ctx context.Context, productID, keyID uuid.UUID) error
	// SubmitReview appends a purchase-gated review and refreshes the rating.
	SubmitReview(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) error
	// ListReviews returns a product's reviews, newest first.
	ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error)
}

// ProductInput carries admin-supplied product attributes. Keys is only used
// on create; updates manage the pool through AddKeys/RemoveKey.
type ProductInput struct {
	Name            string
	Description     string
	Price           float64
	ImageURL        string
	Category        model.Category
	Publisher       string
	Platform        model.Platform
	Featured        bool
	Discount        float64
	ApplicationLink string
	TutorialLink    string
	DownloadLink    string
	Keys            []model.KeyInput
}

func (in *ProductInput) validate() error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: empty name", errs.ErrValidation)
	case in.Description == "":
		return fmt.Errorf("%w: empty description", errs.ErrValidation)
	case in.Price < 0:
		return fmt.Errorf("%w: negative price", errs.ErrValidation)
	case !in.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", errs.ErrValidation, in.Category)
	case !in.Platform.Valid():
		return fmt.Errorf("%w: unknown platform %q", errs.ErrValidation, in.Platform)
	case in.Publisher == "":
		return fmt.Errorf("%w: empty publisher", errs.ErrValidation)
	case in.Discount < 0 || in.Discount > 100:
		return fmt.Errorf("%w: discount out of range", errs.ErrValidation)
	}
	for i, k := range in.Keys {
		if k.Key == "" {
			return fmt.Errorf("%w: key[%d] empty", errs.ErrValidation, i)
		}
	}
	return nil
}

type CatalogServiceImpl struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(products repository.ProductRepository, orders repository.OrderRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{products: products, orders: orders}
}

// ListProducts delegates to the repository with bounds on pagination.
func (s *CatalogServiceImpl) ListProducts(ctx context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, 0, fmt.Errorf("%w: min price above max price", errs.ErrValidation)
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return s.products.List(ctx, f)
}

// GetProduct fetches a single product.
func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty product id", errs.ErrValidation)
	}
	return s.products.Get(ctx, id)
}

// CreateProduct validates and stores a new product with its key pool.
func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		ID:              id,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		ImageURL:        in.ImageURL,
		Category:        in.Category,
		Publisher:       in.Publisher,
		Platform:        in.Platform,
		Featured:        in.Featured,
		Discount:        in.Discount,
		ApplicationLink: in.ApplicationLink,
		TutorialLink:    in.TutorialLink,
		DownloadLink:    in.DownloadLink,
	}
	if err := s.products.Create(ctx, p, in.Keys); err != nil {
		return nil, err
	}
	return s.products.Get(ctx, id)
}

// UpdateProduct replaces catalog attributes of an existing product.
func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty product id", errs.ErrValidation)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &model.Product{
		ID:              id,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		ImageURL:        in.ImageURL,
		Category:        in.Category,
		Publisher:       in.Publisher,
		Platform:        in.Platform,
		Featured:        in.Featured,
		Discount:        in.Discount,
		ApplicationLink: in.ApplicationLink,
		TutorialLink:    in.TutorialLink,
		DownloadLink:    in.DownloadLink,
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.products.Get(ctx, id)
}

// DeleteProduct removes a product and its unsold keys.
func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: empty product id", errs.ErrValidation)
	}
	return s.products.Delete(ctx, id)
}

// ListKeys returns the pool in allocation order.
func (s *CatalogServiceImpl) ListKeys(ctx context.Context, productID uuid.UUID) ([]model.Key, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.products.ListKeys(ctx, productID)
}

// AddKeys bulk-appends keys to the pool.
func (s *CatalogServiceImpl) AddKeys(ctx context.Context, productID uuid.UUID, keys []model.KeyInput) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: no keys provided", errs.ErrValidation)
	}
	for i, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("%w: key[%d] empty", errs.ErrValidation, i)
		}
	}
	return s.products.AddKeys(ctx, productID, keys)
}

// RemoveKey deletes an unsold key from the pool.
func (s *CatalogServiceImpl) RemoveKey(ctx context.Context, productID, keyID uuid.UUID) error {
	if productID == uuid.Nil || keyID == uuid.Nil {
		return fmt.Errorf("%w: empty product/key id", errs.ErrValidation)
	}
	return s.products.RemoveKey(ctx, productID, keyID)
}

// SubmitReview appends a review if the user purchased the product and has not
// reviewed it yet. The product's mean rating is refreshed in the same store
// transaction.
func (s *CatalogServiceImpl) SubmitReview(ctx context.Context, userID, productID uuid.UUID, rating int, comment string) error {
	if userID == uuid.Nil || productID == uuid.Nil {
		return fmt.Errorf("%w: empty user/product id", errs.ErrValidation)
	}
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating out of range", errs.ErrValidation)
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return err
	}
	owned, err := s.orders.HasPurchased(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !owned {
		return errs.ErrNotEntitled
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	return s.products.AddReview(ctx, &model.Review{
		ID:        id,
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	})
}

// ListReviews returns a product's reviews.
func (s *CatalogServiceImpl) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty product id", errs.ErrValidation)
	}
	return s.products.ListReviews(ctx, productID)
}
