// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Category is the closed set of product categories.
type Category string

const (
	CategoryESPKeys          Category = "esp-keys"
	CategoryGames            Category = "games"
	CategorySoftware         Category = "software"
	CategoryOperatingSystems Category = "operating-systems"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryESPKeys, CategoryGames, CategorySoftware, CategoryOperatingSystems:
		return true
	}
	return false
}

// Platform is the closed set of product platforms.
type Platform string

const (
	PlatformWindows       Platform = "windows"
	PlatformMac           Platform = "mac"
	PlatformLinux         Platform = "linux"
	PlatformAndroid       Platform = "android"
	PlatformIOS           Platform = "ios"
	PlatformCrossPlatform Platform = "cross-platform"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformWindows, PlatformMac, PlatformLinux, PlatformAndroid, PlatformIOS, PlatformCrossPlatform:
		return true
	}
	return false
}

// Role distinguishes regular customers from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Product is a digital good with its catalog attributes. The key pool and
// reviews are owned by the product but stored and loaded separately.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"` // base currency, before discount
	ImageURL    string    `json:"image_url"`
	Category    Category  `json:"category"`
	Publisher   string    `json:"publisher"`
	Platform    Platform  `json:"platform"`
	Featured    bool      `json:"featured"`
	Discount    float64   `json:"discount"` // percent, [0,100]
	Rating      float64   `json:"rating"`   // mean of review ratings, 0 when none

	// Product-level fallbacks for per-key links.
	ApplicationLink string `json:"application_link"`
	TutorialLink    string `json:"tutorial_link"`
	DownloadLink    string `json:"download_link"`

	KeysAvailable int       `json:"keys_available"` // unsold keys, derived on read
	CreatedAt     time.Time `json:"created_at"`
}

// DiscountedPrice returns the unit price after applying the discount percent.
func (p *Product) DiscountedPrice() float64 {
	return p.Price - p.Price*(p.Discount/100)
}

// Key is one license key in a product's pool. Sold is monotonic: it flips
// false->true exactly once, on allocation, and never reverts.
type Key struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Position  int64     `json:"position"` // allocation order within the pool
	Key       string    `json:"key"`
	Sold      bool      `json:"sold"`
	// Optional per-key overrides; empty means fall back to product links.
	ApplicationLink string    `json:"application_link"`
	TutorialLink    string    `json:"tutorial_link"`
	CreatedAt       time.Time `json:"created_at"`
}

// KeyInput is an admin-supplied key for bulk insertion.
type KeyInput struct {
	Key             string `json:"key"`
	ApplicationLink string `json:"application_link"`
	TutorialLink    string `json:"tutorial_link"`
}

// AllocatedKey is what allocation hands to the buyer: the key string plus
// resolved links (key-specific value if present, else product fallback).
type AllocatedKey struct {
	Key             string `json:"key"`
	ApplicationLink string `json:"application_link"`
	TutorialLink    string `json:"tutorial_link"`
}

// CartItem is one line of a cart: product id and a positive quantity.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartLine is a cart item joined with its product for display and totals.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CheckoutItem is one requested line of a checkout attempt.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// PaymentInfo is the gateway order/payment/signature triple proving payment.
type PaymentInfo struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// OrderItem is one fulfilled unit: the product, the price actually charged
// for the unit (after discount, at purchase time) and the allocated key.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	UnitPrice float64   `json:"unit_price"`
	Key       string    `json:"key"`
}

// Order is the immutable receipt of one completed, payment-verified
// transaction. Failed attempts never produce an Order.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Payment     PaymentInfo `json:"payment"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderStatusCompleted is the only modeled order status.
const OrderStatusCompleted = "completed"

// PurchaseEntry is one row of a user's append-only purchase record. Exactly
// one entry exists per purchased unit.
type PurchaseEntry struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"` // denormalized for profile listing
	Key             string    `json:"key"`
	ApplicationLink string    `json:"application_link"`
	TutorialLink    string    `json:"tutorial_link"`
	PurchasedAt     time.Time `json:"purchased_at"`
}

// Review is a customer review; at most one per (product, user).
type Review struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"` // [1,5]
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a customer or admin account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"` // unique
	Name      string    `json:"name"`
	PwdHash   []byte    `json:"-"` // bcrypt
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Principal is the authenticated caller attached to each request.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the principal may call admin operations.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
