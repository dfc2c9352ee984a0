package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

const productCols = `id, title, description, price, images_json, stock, category, sales_count, created_at, updated_at`

type ProductRepo struct{ db sqlx.ExtContext }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{db: tx} }

// Get returns sql.ErrNoRows when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.db, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// DecrementStockAndIncrementSales subtracts qty from stock and adds it to the
// sales count in one conditional statement. When stock is short it leaves the
// row untouched and returns ErrInsufficientStock with the current product.
func (r *ProductRepo) DecrementStockAndIncrementSales(ctx context.Context, id string, qty int) (domain.Product, error) {
	if qty < 1 {
		return domain.Product{}, fmt.Errorf("decrement %s: quantity must be >= 1, got %d", id, qty)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, sales_count = sales_count + ?, updated_at = ?
		WHERE id = ? AND stock >= ?
	`, qty, qty, ts(time.Now()), id, qty)
	if err != nil {
		return domain.Product{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, err
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if n == 0 {
		return p, fmt.Errorf("%w for %s (need %d, have %d)", ErrInsufficientStock, id, qty, p.Stock)
	}
	return p, nil
}

// ListByCategory lists products newest first unless orderBy says otherwise.
// An empty category or "all" lists every product. orderBy must come from
// validate.Sorts.
func (r *ProductRepo) ListByCategory(ctx context.Context, category string, limit int, orderBy string) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if category != "" && category != "all" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	args = append(args, limit)

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+`
		FROM products
		WHERE `+where+`
		ORDER BY `+orderBy+`, id
		LIMIT ?`, args...)
	return out, err
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search ranks products by how many query terms hit the title (weight 2) and
// the description (weight 1); ties go to the better seller.
func (r *ProductRepo) Search(ctx context.Context, text, category string, limit int) ([]domain.Product, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return []domain.Product{}, nil
	}
	if len(terms) > 5 {
		terms = terms[:5]
	}

	var parts []string
	var scoreArgs []any
	for _, t := range terms {
		pat := "%" + likeEscape(t) + "%"
		parts = append(parts,
			`(CASE WHEN LOWER(title) LIKE ? ESCAPE '\' THEN 2 ELSE 0 END)`,
			`(CASE WHEN LOWER(description) LIKE ? ESCAPE '\' THEN 1 ELSE 0 END)`)
		scoreArgs = append(scoreArgs, pat, pat)
	}
	score := "(" + strings.Join(parts, " + ") + ")"

	where := score + ` > 0`
	args := append([]any{}, scoreArgs...)
	if category != "" && category != "all" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	args = append(args, scoreArgs...)
	args = append(args, limit)

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+`
		FROM products
		WHERE `+where+`
		ORDER BY `+score+` DESC, sales_count DESC, created_at DESC
		LIMIT ?`, args...)
	return out, err
}

// ListLowStock returns products with stock below threshold, lowest first.
func (r *ProductRepo) ListLowStock(ctx context.Context, threshold, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+`
		FROM products
		WHERE stock < ?
		ORDER BY stock ASC, LOWER(title)
		LIMIT ?`, threshold, limit)
	return out, err
}

func (r *ProductRepo) TopSelling(ctx context.Context, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+productCols+`
		FROM products
		ORDER BY sales_count DESC, LOWER(title)
		LIMIT ?`, limit)
	return out, err
}

// Create assigns an id when p.ID is empty and resets the sales count.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Images == nil {
		p.Images = domain.Images{}
	}
	now := time.Now().UTC()
	p.SalesCount = 0
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(`+productCols+`)
		VALUES(?,?,?,?,?,?,?,?,?,?)
	`, p.ID, p.Title, p.Description, p.Price, p.Images, p.Stock, p.Category, p.SalesCount, ts(now), ts(now))
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, p.ID)
}

// Update applies an administrative edit. The sales count is never touched.
func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Images == nil {
		p.Images = domain.Images{}
	}
	if _, err := r.Get(ctx, p.ID); err != nil {
		return domain.Product{}, err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, description = ?, price = ?, images_json = ?, stock = ?, category = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Description, p.Price, p.Images, p.Stock, p.Category, ts(time.Now()), p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, p.ID)
}
