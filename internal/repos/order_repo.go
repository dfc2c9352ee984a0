package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const orderCols = `id, payment_reference, total, customer_email, customer_name, payment_status, created_at`

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// WithTx returns a copy of the repo bound to tx.
func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

type orderItemRow struct {
	OrderID string `db:"order_id"`
	domain.OrderItem
}

// Create inserts the order header and its lines. A second order for the same
// payment reference fails with ErrDuplicatePayment; the unique index is the
// barrier, not a prior lookup. Run it on a tx-bound repo so header and lines
// commit together.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	o.CreatedAt = o.CreatedAt.UTC()
	if o.PaymentStatus == "" {
		o.PaymentStatus = domain.PaymentPending
	}

	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, payment_reference, total, customer_email, customer_name, payment_status, created_at)
	  VALUES
	    (?,  ?,                 ?,     ?,              ?,             ?,              ?)
	`, o.ID, o.PaymentReference, o.Total, o.CustomerEmail, o.CustomerName, string(o.PaymentStatus), ts(o.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrDuplicatePayment, o.PaymentReference)
		}
		return domain.Order{}, err
	}

	for i, it := range o.Items {
		if _, err := r.db.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, line, product_id, title, price, quantity, image)
		  VALUES(?, ?, ?, ?, ?, ?, ?)
		`, o.ID, i, it.ProductID, it.Title, it.Price, it.Quantity, it.Image); err != nil {
			return domain.Order{}, err
		}
	}
	return o, nil
}

// Get returns sql.ErrNoRows when the order does not exist.
func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, err
	}
	orders := []domain.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (r *OrderRepo) ByPaymentReference(ctx context.Context, ref string) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderCols+` FROM orders WHERE payment_reference = ?`, ref)
	return o, err
}

// FindRecent returns the newest orders first. An empty status means any.
func (r *OrderRepo) FindRecent(ctx context.Context, limit int, status domain.PaymentStatus) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	where := `1 = 1`
	args := []any{}
	if status != "" {
		where += ` AND payment_status = ?`
		args = append(args, string(status))
	}
	args = append(args, limit)

	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `
		SELECT `+orderCols+`
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC, id
		LIMIT ?`, args...); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	idx := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
		orders[i].Items = []domain.OrderItem{}
	}
	query, args, err := sqlx.In(`
		SELECT order_id, product_id, title, price, quantity, image
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, line`, ids)
	if err != nil {
		return err
	}
	var rows []orderItemRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range rows {
		i := idx[row.OrderID]
		orders[i].Items = append(orders[i].Items, row.OrderItem)
	}
	return nil
}

// AggregateRevenueAndCount sums totals and counts orders with the given
// status, optionally restricted to a half-open date range. Totals are added
// as decimals in Go; SUM over the TEXT column would go through float64.
func (r *OrderRepo) AggregateRevenueAndCount(ctx context.Context, rng *domain.DateRange, status domain.PaymentStatus) (domain.RevenueSummary, error) {
	where := `payment_status = ?`
	args := []any{string(status)}
	if rng != nil {
		where += ` AND created_at >= ? AND created_at < ?`
		args = append(args, ts(rng.From), ts(rng.To))
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT total FROM orders WHERE `+where, args...)
	if err != nil {
		return domain.RevenueSummary{}, err
	}
	defer rows.Close()

	s := domain.RevenueSummary{Revenue: decimal.Zero}
	for rows.Next() {
		var total decimal.Decimal
		if err := rows.Scan(&total); err != nil {
			return domain.RevenueSummary{}, err
		}
		s.Revenue = s.Revenue.Add(total)
		s.Count++
	}
	if err := rows.Err(); err != nil {
		return domain.RevenueSummary{}, err
	}
	return s, nil
}
