package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, like the storefront client expects.
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentSucceeded, PaymentFailed:
		return true
	}
	return false
}

// Images is an ordered list of image references persisted as a JSON array.
type Images []string

func (im Images) Value() (driver.Value, error) {
	if im == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(im))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (im *Images) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*im = Images{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("images: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*im = Images{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	*im = out
	return nil
}

// First returns the primary image or "".
func (im Images) First() string {
	if len(im) == 0 {
		return ""
	}
	return im[0]
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Images      Images          `db:"images_json" json:"images"`
	Stock       int             `db:"stock" json:"stock"`
	Category    string          `db:"category" json:"category"`
	SalesCount  int             `db:"sales_count" json:"salesCount"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// OrderItem is a snapshot of a product line taken when the order was placed.
type OrderItem struct {
	ProductID string          `db:"product_id" json:"productId"`
	Title     string          `db:"title" json:"title"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Image     string          `db:"image" json:"image"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID               string          `db:"id" json:"id"`
	PaymentReference string          `db:"payment_reference" json:"paymentIntentId"`
	Items            []OrderItem     `db:"-" json:"items"`
	Total            decimal.Decimal `db:"total" json:"total"`
	CustomerEmail    string          `db:"customer_email" json:"customerEmail"`
	CustomerName     string          `db:"customer_name" json:"customerName,omitempty"`
	PaymentStatus    PaymentStatus   `db:"payment_status" json:"paymentStatus"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// ItemsTotal sums price × quantity over the order lines.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type Admin struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Hash  string `db:"password_hash" json:"-"`
	Role  string `db:"role" json:"role"`
}

// DateRange is half-open: From <= t < To.
type DateRange struct {
	From time.Time
	To   time.Time
}

type RevenueSummary struct {
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Count   int             `db:"count" json:"count"`
}

type MonthlyTrend struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Analytics struct {
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	MonthlyRevenue      decimal.Decimal `json:"monthlyRevenue"`
	LastMonthRevenue    decimal.Decimal `json:"lastMonthRevenue"`
	TotalOrders         int             `json:"totalOrders"`
	MonthlyOrders       int             `json:"monthlyOrders"`
	BestSellingProducts []Product       `json:"bestSellingProducts"`
	LowStockProducts    []Product       `json:"lowStockProducts"`
	RecentOrders        []Order         `json:"recentOrders"`
	MonthlyTrends       []MonthlyTrend  `json:"monthlyTrends"`
}
