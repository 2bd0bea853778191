package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/keymart/keymart/internal/errs"
	"github.com/keymart/keymart/internal/model"
	"github.com/keymart/keymart/internal/repository"
)

// ProductRepo implements ProductRepository using PostgreSQL.
type ProductRepo struct{ db *DB }

// NewProductRepo constructs a product repository.
func NewProductRepo(db *DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `p.id, p.name, p.description, p.price, p.image_url, p.category, p.publisher,
p.platform, p.featured, p.discount, p.rating, p.application_link, p.tutorial_link, p.download_link,
p.created_at,
(SELECT COUNT(*) FROM product_keys k WHERE k.product_id = p.id AND NOT k.sold) AS keys_available`

// allocateKeySQL flips the first unsold key to sold in a single conditional
// statement. SKIP LOCKED makes two concurrent allocations pick distinct rows
// instead of one waiting and re-selling the same key after the other commits.
// The outer NOT sold guard keeps the flip monotonic. Resolved links fall back
// to the product-level values when the key carries none.
const allocateKeySQL = `
UPDATE product_keys AS k
SET sold = TRUE
FROM products AS p
WHERE p.id = k.product_id
  AND k.id = (
      SELECT id FROM product_keys
      WHERE product_id = $1 AND NOT sold
      ORDER BY position
      LIMIT 1
      FOR UPDATE SKIP LOCKED
  )
  AND NOT k.sold
RETURNING k.key,
  COALESCE(NULLIF(k.application_link, ''), p.application_link),
  COALESCE(NULLIF(k.tutorial_link, ''), p.tutorial_link)`

// allocateKey runs the conditional sold-flip on q, which is either the pool
// or an open fulfillment transaction.
func allocateKey(ctx context.Context, q rowQuerier, productID uuid.UUID) (model.AllocatedKey, error) {
	var ak model.AllocatedKey
	err := q.QueryRow(ctx, allocateKeySQL, productID).Scan(&ak.Key, &ak.ApplicationLink, &ak.TutorialLink)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AllocatedKey{}, errs.ErrOutOfStock
	}
	if err != nil {
		return model.AllocatedKey{}, err
	}
	return ak, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Publisher,
		&p.Platform, &p.Featured, &p.Discount, &p.Rating, &p.ApplicationLink, &p.TutorialLink,
		&p.DownloadLink, &p.CreatedAt, &p.KeysAvailable)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns a filtered page of products plus the unpaged total.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Category != "" {
		where = append(where, "p.category = "+arg(string(f.Category)))
	}
	if f.Platform != "" {
		where = append(where, "p.platform = "+arg(string(f.Platform)))
	}
	if f.Featured {
		where = append(where, "p.featured")
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*f.MaxPrice))
	}
	if f.Search != "" {
		ph := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", ph, ph))
	}
	cond := strings.Join(where, " AND ")

	var order string
	switch f.Sort {
	case repository.SortPriceAsc:
		order = "p.price ASC"
	case repository.SortPriceDesc:
		order = "p.price DESC"
	case repository.SortRating:
		order = "p.rating DESC"
	default:
		order = "p.created_at DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM products p WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM products p WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		productColumns, cond, order, limit, (page-1)*limit)
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Get loads a single product with its unsold-key count.
func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	q := "SELECT " + productColumns + " FROM products p WHERE p.id=$1"
	p, err := scanProduct(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	return p, err
}

const insertProductSQL = `
INSERT INTO products (id, name, description, price, image_url, category, publisher, platform,
featured, discount, application_link, tutorial_link, download_link)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

const insertKeySQL = `
INSERT INTO product_keys (id, product_id, key, application_link, tutorial_link)
VALUES ($1,$2,$3,$4,$5)`

// Create inserts a product and its initial key pool in one transaction.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product, keys []model.KeyInput) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	if _, err = tx.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, string(p.Category), p.Publisher,
		string(p.Platform), p.Featured, p.Discount, p.ApplicationLink, p.TutorialLink, p.DownloadLink,
	); err != nil {
		return err
	}
	for _, k := range keys {
		var kid uuid.UUID
		if kid, err = uuid.NewV4(); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, insertKeySQL, kid, p.ID, k.Key, k.ApplicationLink, k.TutorialLink); err != nil {
			return err
		}
	}
	return nil
}

const updateProductSQL = `
UPDATE products SET name=$2, description=$3, price=$4, image_url=$5, category=$6, publisher=$7,
platform=$8, featured=$9, discount=$10, application_link=$11, tutorial_link=$12, download_link=$13
WHERE id=$1`

// Update rewrites catalog attributes. Rating is owned by AddReview.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	tag, err := r.db.Pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, string(p.Category), p.Publisher,
		string(p.Platform), p.Featured, p.Discount, p.ApplicationLink, p.TutorialLink, p.DownloadLink)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a product; keys, reviews and cart lines go with it via FK
// cascade. Order items and purchase entries keep their copied key strings.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListKeys returns the full pool in allocation order.
func (r *ProductRepo) ListKeys(ctx context.Context, productID uuid.UUID) ([]model.Key, error) {
	const q = `
SELECT id, product_id, position, key, sold, application_link, tutorial_link, created_at
FROM product_keys WHERE product_id=$1 ORDER BY position`
	rows, err := r.db.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Key
	for rows.Next() {
		var k model.Key
		if err = rows.Scan(&k.ID, &k.ProductID, &k.Position, &k.Key, &k.Sold,
			&k.ApplicationLink, &k.TutorialLink, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// AddKeys appends unsold keys. Duplicate key strings are accepted as-is.
func (r *ProductRepo) AddKeys(ctx context.Context, productID uuid.UUID, keys []model.KeyInput) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	var exists bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return errs.ErrNotFound
	}
	for _, k := range keys {
		var kid uuid.UUID
		if kid, err = uuid.NewV4(); err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, insertKeySQL, kid, productID, k.Key, k.ApplicationLink, k.TutorialLink); err != nil {
			return err
		}
	}
	return nil
}

// RemoveKey deletes an unsold key. Sold keys back order history and are
// never deleted; attempting it is reported as ErrKeySold.
func (r *ProductRepo) RemoveKey(ctx context.Context, productID, keyID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM product_keys WHERE id=$2 AND product_id=$1 AND NOT sold`, productID, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var sold bool
	err = r.db.Pool.QueryRow(ctx,
		`SELECT sold FROM product_keys WHERE id=$2 AND product_id=$1`, productID, keyID).Scan(&sold)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	if err != nil {
		return err
	}
	if sold {
		return errs.ErrKeySold
	}
	return errs.ErrNotFound
}

// HasAvailable reports whether at least one unsold key exists.
func (r *ProductRepo) HasAvailable(ctx context.Context, productID uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM product_keys WHERE product_id=$1 AND NOT sold)`, productID).Scan(&ok)
	return ok, err
}

// Allocate flips the first unsold key to sold and returns it with resolved links.
func (r *ProductRepo) Allocate(ctx context.Context, productID uuid.UUID) (model.AllocatedKey, error) {
	return allocateKey(ctx, r.db.Pool, productID)
}

const insertReviewSQL = `
INSERT INTO reviews (id, product_id, user_id, rating, comment)
VALUES ($1,$2,$3,$4,$5)`

const recomputeRatingSQL = `
UPDATE products
SET rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE product_id=$1)
WHERE id=$1`

// AddReview appends a review and recomputes the mean rating in one transaction.
func (r *ProductRepo) AddReview(ctx context.Context, rev *model.Review) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
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

	if _, err = tx.Exec(ctx, insertReviewSQL, rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment); err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyReviewed
		}
		return err
	}
	if _, err = tx.Exec(ctx, recomputeRatingSQL, rev.ProductID); err != nil {
		return err
	}
	return nil
}

// ListReviews returns a product's reviews, newest first.
func (r *ProductRepo) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	const q = `
SELECT id, product_id, user_id, rating, comment, created_at
FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err = rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
