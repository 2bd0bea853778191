package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestCartRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	p1 := uuid.Must(uuid.NewV4())
	p2 := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT product_id, quantity FROM cart_items WHERE user_id=\$1 ORDER BY added_at`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(p1, 2).
			AddRow(p2, 1))

	items, err := r.Get(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, p1, items[0].ProductID)
	require.Equal(t, 2, items[0].Quantity)
}

func TestCartRepo_Add_Upserts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`ON CONFLICT \(user_id, product_id\) DO UPDATE SET quantity = cart_items.quantity \+ EXCLUDED.quantity`).
		WithArgs(userID, productID, 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.Add(context.Background(), userID, productID, 3))
}

func TestCartRepo_SetQuantity_Replaces(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`ON CONFLICT \(user_id, product_id\) DO UPDATE SET quantity = EXCLUDED.quantity`).
		WithArgs(userID, productID, 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.SetQuantity(context.Background(), userID, productID, 5))
}

func TestCartRepo_Remove_AbsentLineOK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM cart_items WHERE user_id=\$1 AND product_id=\$2`).
		WithArgs(userID, productID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.Remove(context.Background(), userID, productID))
}

func TestCartRepo_Clear(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCartRepo(db)

	userID := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`DELETE FROM cart_items WHERE user_id=\$1`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	require.NoError(t, r.Clear(context.Background(), userID))
}
