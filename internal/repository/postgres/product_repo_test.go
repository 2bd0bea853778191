package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestProductRepo_Allocate_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	ctx := context.Background()
	productID := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE product_keys AS k`).
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"key", "application_link", "tutorial_link"}).
			AddRow("AAAA-BBBB", "https://apply.example", "https://tutorial.example"))

	ak, err := r.Allocate(ctx, productID)
	require.NoError(t, err)
	require.Equal(t, "AAAA-BBBB", ak.Key)
	require.Equal(t, "https://apply.example", ak.ApplicationLink)
	require.Equal(t, "https://tutorial.example", ak.TutorialLink)
}

func TestProductRepo_Allocate_OutOfStock(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`UPDATE product_keys AS k`).
		WithArgs(productID).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Allocate(context.Background(), productID)
	require.ErrorIs(t, err, errs.ErrOutOfStock)
}

func TestProductRepo_RemoveKey_Unsold_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	keyID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM product_keys WHERE id=\$2 AND product_id=\$1 AND NOT sold`).
		WithArgs(productID, keyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, r.RemoveKey(context.Background(), productID, keyID))
}

func TestProductRepo_RemoveKey_Sold(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	keyID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM product_keys WHERE id=\$2 AND product_id=\$1 AND NOT sold`).
		WithArgs(productID, keyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT sold FROM product_keys WHERE id=\$2 AND product_id=\$1`).
		WithArgs(productID, keyID).
		WillReturnRows(pgxmock.NewRows([]string{"sold"}).AddRow(true))

	err := r.RemoveKey(context.Background(), productID, keyID)
	require.ErrorIs(t, err, errs.ErrKeySold)
}

func TestProductRepo_RemoveKey_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	keyID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM product_keys WHERE id=\$2 AND product_id=\$1 AND NOT sold`).
		WithArgs(productID, keyID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT sold FROM product_keys WHERE id=\$2 AND product_id=\$1`).
		WithArgs(productID, keyID).
		WillReturnError(pgx.ErrNoRows)

	err := r.RemoveKey(context.Background(), productID, keyID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_HasAvailable(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM product_keys WHERE product_id=\$1 AND NOT sold\)`).
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := r.HasAvailable(context.Background(), productID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProductRepo_AddKeys_ProductMissing(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	productID := uuid.Must(uuid.NewV4())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM products WHERE id=\$1\)`).
		WithArgs(productID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := r.AddKeys(context.Background(), productID, []model.KeyInput{{Key: "K-1"}})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_AddReview_RecomputesRating(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	rev := &model.Review{
		ID:        uuid.Must(uuid.NewV4()),
		ProductID: uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Rating:    4,
		Comment:   "solid",
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reviews`).
		WithArgs(rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE products`).
		WithArgs(rev.ProductID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, r.AddReview(context.Background(), rev))
}

func TestProductRepo_AddReview_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	rev := &model.Review{
		ID:        uuid.Must(uuid.NewV4()),
		ProductID: uuid.Must(uuid.NewV4()),
		UserID:    uuid.Must(uuid.NewV4()),
		Rating:    5,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reviews`).
		WithArgs(rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := r.AddReview(context.Background(), rev)
	require.ErrorIs(t, err, errs.ErrAlreadyReviewed)
}

func TestProductRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT .+ FROM products p WHERE p.id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProductRepo_List_FilterAndTotal(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProductRepo(db)

	min := 10.0
	f := repository.ProductFilter{
		Category: model.CategoryGames,
		MinPrice: &min,
		Sort:     repository.SortPriceAsc,
		Limit:    5,
		Page:     2,
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products p`).
		WithArgs("games", min).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT .+ FROM products p WHERE .+ ORDER BY p.price ASC LIMIT 5 OFFSET 5`).
		WithArgs("games", min).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "description", "price", "image_url", "category", "publisher",
			"platform", "featured", "discount", "rating", "application_link", "tutorial_link",
			"download_link", "created_at", "keys_available",
		}).AddRow(
			uuid.Must(uuid.NewV4()), "Game", "A game", 49.0, "", model.CategoryGames, "Acme",
			model.PlatformWindows, false, 0.0, 0.0, "", "", "", time.Now(), 3,
		))

	products, total, err := r.List(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.Len(t, products, 1)
	require.Equal(t, 3, products[0].KeysAvailable)
}
