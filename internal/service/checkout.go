package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/gateway"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// Chargeable bounds in minor currency units (1.00 base unit = 100).
const (
	MinChargeableMinorUnits = 100
	MaxChargeableMinorUnits = 100_000_000
)

// PaymentGateway is the slice of the external gateway the checkout needs.
type PaymentGateway interface {
	// CreateOrder registers a payment order for the minor-unit amount.
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string) (*gateway.Order, error)
}

// CheckoutService orchestrates payment order creation and fulfillment.
type CheckoutService interface {
	// CreatePaymentOrder totals the user's cart at the given tax rate and
	// registers a gateway order. Reserves no inventory.
	CreatePaymentOrder(ctx context.Context, userID uuid.UUID, taxRate float64) (*gateway.Order, error)
	// VerifyAndFulfill checks the payment signature, then allocates one key
	// per purchased unit, records the order and purchase entries and clears
	// the cart, all-or-nothing.
	VerifyAndFulfill(ctx context.Context, userID uuid.UUID, orderRef, paymentRef, signature string, items []model.CheckoutItem) (*model.Order, error)
	// ListOrders returns the user's completed orders, newest first.
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	// ListPurchases returns the user's purchase record, newest first.
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]model.PurchaseEntry, error)
	// HasPurchased reports whether the user owns a key of the product.
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type CheckoutServiceImpl struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	orders   repository.OrderRepository
	gw       PaymentGateway
	secret   []byte
	currency string
}

// NewCheckoutService constructs CheckoutService. The secret is the shared
// gateway key used for both order creation and signature verification.
func NewCheckoutService(
	products repository.ProductRepository,
	carts repository.CartRepository,
	orders repository.OrderRepository,
	gw PaymentGateway,
	secret []byte,
	currency string,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		products: products,
		carts:    carts,
		orders:   orders,
		gw:       gw,
		secret:   secret,
		currency: currency,
	}
}

// MinorUnits converts a base-currency amount to gateway minor units,
// rounding half away from zero.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Signature computes hex(HMAC-SHA256(orderRef + "|" + paymentRef, secret)),
// the gateway's payment-proof scheme.
func Signature(secret []byte, orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// CreatePaymentOrder computes total = Σ(discounted price × qty) × (1+taxRate),
// validates the minor-unit amount bounds and delegates to the gateway. The tax
// rate is injected per call so tests and deployments can substitute rates.
func (s *CheckoutServiceImpl) CreatePaymentOrder(ctx context.Context, userID uuid.UUID, taxRate float64) (*gateway.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if taxRate < 0 {
		return nil, fmt.Errorf("%w: negative tax rate", errs.ErrValidation)
	}
	items, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", errs.ErrValidation)
	}

	var subtotal float64
	for _, it := range items {
		p, err := s.products.Get(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, err)
		}
		subtotal += p.DiscountedPrice() * float64(it.Quantity)
	}

	amount := MinorUnits(subtotal * (1 + taxRate))
	if amount < MinChargeableMinorUnits || amount > MaxChargeableMinorUnits {
		return nil, fmt.Errorf("%w: %d minor units", errs.ErrInvalidAmount, amount)
	}

	receipt := fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), userID)
	ord, err := s.gw.CreateOrder(ctx, amount, s.currency, receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}
	return ord, nil
}

// VerifyAndFulfill recomputes the expected signature locally; a mismatch is
// fatal with no side effects. On a match the whole fulfillment runs as one
// store transaction via the order repository.
func (s *CheckoutServiceImpl) VerifyAndFulfill(
	ctx context.Context, userID uuid.UUID, orderRef, paymentRef, signature string, items []model.CheckoutItem,
) (*model.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	if orderRef == "" || paymentRef == "" || signature == "" {
		return nil, fmt.Errorf("%w: missing payment reference", errs.ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", errs.ErrValidation)
	}
	for i, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: item[%d] empty product id", errs.ErrValidation, i)
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: item[%d] quantity must be positive", errs.ErrValidation, i)
		}
	}

	expected := Signature(s.secret, orderRef, paymentRef)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, errs.ErrSignatureMismatch
	}

	return s.orders.FulfillOrder(ctx, userID, items, model.PaymentInfo{
		GatewayOrderID:   orderRef,
		GatewayPaymentID: paymentRef,
		Signature:        signature,
	})
}

// ListOrders returns the user's orders.
func (s *CheckoutServiceImpl) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.orders.ListByUser(ctx, userID)
}

// ListPurchases returns the user's purchase record.
func (s *CheckoutServiceImpl) ListPurchases(ctx context.Context, userID uuid.UUID) ([]model.PurchaseEntry, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrValidation)
	}
	return s.orders.ListPurchases(ctx, userID)
}

// HasPurchased reports product ownership for the profile and review gating UI.
func (s *CheckoutServiceImpl) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return false, fmt.Errorf("%w: empty user/product id", errs.ErrValidation)
	}
	return s.orders.HasPurchased(ctx, userID, productID)
}
