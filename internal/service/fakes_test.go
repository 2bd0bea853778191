package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/gateway"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

type fakeProductRepo struct {
	products  map[uuid.UUID]*model.Product
	available map[uuid.UUID]bool

	listInFilter repository.ProductFilter
	listOut      []model.Product
	listTotal    int
	listErr      error

	createdProduct *model.Product
	createdKeys    []model.KeyInput
	createErr      error

	updatedProduct *model.Product
	updateErr      error

	deletedID uuid.UUID
	deleteErr error

	keysOut []model.Key

	addedKeys  []model.KeyInput
	addKeysErr error

	removedKeyID uuid.UUID
	removeKeyErr error

	allocOut model.AllocatedKey
	allocErr error

	addedReview  *model.Review
	addReviewErr error

	reviewsOut []model.Review
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func (f *fakeProductRepo) List(_ context.Context, flt repository.ProductFilter) ([]model.Product, int, error) {
	f.listInFilter = flt
	return f.listOut, f.listTotal, f.listErr
}

func (f *fakeProductRepo) Get(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product, keys []model.KeyInput) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdProduct = p
	f.createdKeys = append([]model.KeyInput(nil), keys...)
	if f.products == nil {
		f.products = map[uuid.UUID]*model.Product{}
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedProduct = p
	if f.products == nil {
		f.products = map[uuid.UUID]*model.Product{}
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.deletedID = id
	return f.deleteErr
}

func (f *fakeProductRepo) ListKeys(_ context.Context, _ uuid.UUID) ([]model.Key, error) {
	return f.keysOut, nil
}

func (f *fakeProductRepo) AddKeys(_ context.Context, _ uuid.UUID, keys []model.KeyInput) error {
	if f.addKeysErr != nil {
		return f.addKeysErr
	}
	f.addedKeys = append(f.addedKeys, keys...)
	return nil
}

func (f *fakeProductRepo) RemoveKey(_ context.Context, _, keyID uuid.UUID) error {
	if f.removeKeyErr != nil {
		return f.removeKeyErr
	}
	f.removedKeyID = keyID
	return nil
}

func (f *fakeProductRepo) HasAvailable(_ context.Context, productID uuid.UUID) (bool, error) {
	return f.available[productID], nil
}

func (f *fakeProductRepo) Allocate(_ context.Context, _ uuid.UUID) (model.AllocatedKey, error) {
	return f.allocOut, f.allocErr
}

func (f *fakeProductRepo) AddReview(_ context.Context, rev *model.Review) error {
	if f.addReviewErr != nil {
		return f.addReviewErr
	}
	f.addedReview = rev
	return nil
}

func (f *fakeProductRepo) ListReviews(_ context.Context, _ uuid.UUID) ([]model.Review, error) {
	return f.reviewsOut, nil
}

type fakeCartRepo struct {
	items  []model.CartItem
	getErr error

	added    []model.CartItem
	addErr   error
	setCalls []model.CartItem
	setErr   error
	removed  []uuid.UUID
	cleared  bool
}

var _ repository.CartRepository = (*fakeCartRepo)(nil)

func (f *fakeCartRepo) Get(_ context.Context, _ uuid.UUID) ([]model.CartItem, error) {
	return append([]model.CartItem(nil), f.items...), f.getErr
}

func (f *fakeCartRepo) Add(_ context.Context, _, productID uuid.UUID, qty int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, model.CartItem{ProductID: productID, Quantity: qty})
	return nil
}

func (f *fakeCartRepo) SetQuantity(_ context.Context, _, productID uuid.UUID, qty int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, model.CartItem{ProductID: productID, Quantity: qty})
	return nil
}

func (f *fakeCartRepo) Remove(_ context.Context, _, productID uuid.UUID) error {
	f.removed = append(f.removed, productID)
	return nil
}

func (f *fakeCartRepo) Clear(_ context.Context, _ uuid.UUID) error {
	f.cleared = true
	return nil
}

type fakeOrderRepo struct {
	fulfillInUser    uuid.UUID
	fulfillInItems   []model.CheckoutItem
	fulfillInPayment model.PaymentInfo
	fulfillOut       *model.Order
	fulfillErr       error

	ordersOut    []model.Order
	purchasesOut []model.PurchaseEntry

	hasPurchased bool
	hasErr       error

	statsOrders  int
	statsRevenue float64
}

var _ repository.OrderRepository = (*fakeOrderRepo)(nil)

func (f *fakeOrderRepo) FulfillOrder(
	_ context.Context, userID uuid.UUID, items []model.CheckoutItem, payment model.PaymentInfo,
) (*model.Order, error) {
	f.fulfillInUser = userID
	f.fulfillInItems = append([]model.CheckoutItem(nil), items...)
	f.fulfillInPayment = payment
	return f.fulfillOut, f.fulfillErr
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]model.Order, error) {
	return f.ordersOut, nil
}

func (f *fakeOrderRepo) ListPurchases(_ context.Context, _ uuid.UUID) ([]model.PurchaseEntry, error) {
	return f.purchasesOut, nil
}

func (f *fakeOrderRepo) HasPurchased(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.hasPurchased, f.hasErr
}

func (f *fakeOrderRepo) Stats(_ context.Context) (int, float64, error) {
	return f.statsOrders, f.statsRevenue, nil
}

type fakeUserRepo struct {
	created   *model.User
	createErr error
	byEmail   map[string]*model.User
	byID      map[uuid.UUID]*model.User
	listOut   []model.User
	countOut  int
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) { return f.listOut, nil }

func (f *fakeUserRepo) Count(_ context.Context) (int, error) { return f.countOut, nil }

type fakeGateway struct {
	inAmount   int64
	inCurrency string
	inReceipt  string
	out        *gateway.Order
	err        error
}

var _ PaymentGateway = (*fakeGateway)(nil)

func (f *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	f.inAmount, f.inCurrency, f.inReceipt = amount, currency, receipt
	return f.out, f.err
}
