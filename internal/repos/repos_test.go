package repos_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := repos.SeedDemo(ctx, db); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("want 5 demo products, got %d", n)
	}
	p, err := repos.NewProductRepo(db).Get(ctx, "p-headphones")
	if err != nil {
		t.Fatal(err)
	}
	if p.Price.String() != "129.99" || p.Images.First() != "/images/headphones.jpg" {
		t.Fatalf("unexpected seeded product: %+v", p)
	}
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(db)
	if _, err := prods.Create(ctx, domain.Product{
		ID: "p1", Title: "Widget", Price: decimal.NewFromInt(3), Stock: 2, Category: "misc",
	}); err != nil {
		t.Fatal(err)
	}

	p, err := prods.DecrementStockAndIncrementSales(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if p.Stock != 0 || p.SalesCount != 2 {
		t.Fatalf("want stock 0 sales 2, got %d/%d", p.Stock, p.SalesCount)
	}

	p, err = prods.DecrementStockAndIncrementSales(ctx, "p1", 1)
	if !errors.Is(err, repos.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if p.Stock != 0 || p.SalesCount != 2 {
		t.Fatalf("failed decrement must not change the row, got %d/%d", p.Stock, p.SalesCount)
	}

	if _, err := prods.DecrementStockAndIncrementSales(ctx, "ghost", 1); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows for unknown product, got %v", err)
	}
	if _, err := db.Exec(`UPDATE products SET stock = -1 WHERE id = 'p1'`); err == nil {
		t.Fatal("schema must reject negative stock")
	}
}

func TestOrderPaymentReferenceIsUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	orders := repos.NewOrderRepo(db)

	o := domain.Order{
		PaymentReference: "pi_dup",
		Total:            decimal.RequireFromString("9.99"),
		CustomerEmail:    "a@b.co",
		PaymentStatus:    domain.PaymentSucceeded,
		Items: []domain.OrderItem{
			{ProductID: "p1", Title: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 1},
		},
	}
	first, err := orders.Create(ctx, o)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := orders.Create(ctx, o); !errors.Is(err, repos.ErrDuplicatePayment) {
		t.Fatalf("want ErrDuplicatePayment, got %v", err)
	}

	got, err := orders.ByPaymentReference(ctx, "pi_dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != first.ID {
		t.Fatalf("lookup returned %s, want %s", got.ID, first.ID)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(db)
	if _, err := prods.Create(ctx, domain.Product{
		ID: "p1", Title: "Widget", Price: decimal.NewFromInt(1), Stock: 5, Category: "misc",
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := repos.RunInTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := prods.WithTx(tx).DecrementStockAndIncrementSales(ctx, "p1", 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	p, err := prods.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 5 {
		t.Fatalf("rollback lost: stock %d", p.Stock)
	}
}

func TestFindRecentAttachesItemsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	orders := repos.NewOrderRepo(db)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, ref := range []string{"pi_1", "pi_2", "pi_3"} {
		status := domain.PaymentSucceeded
		if ref == "pi_2" {
			status = domain.PaymentFailed
		}
		if _, err := orders.Create(ctx, domain.Order{
			PaymentReference: ref,
			Total:            decimal.NewFromInt(int64(i + 1)),
			CustomerEmail:    "a@b.co",
			PaymentStatus:    status,
			CreatedAt:        base.Add(time.Duration(i) * time.Hour),
			Items: []domain.OrderItem{
				{ProductID: "p1", Title: "One", Price: decimal.NewFromInt(1), Quantity: 1},
				{ProductID: "p2", Title: "Two", Price: decimal.NewFromInt(int64(i)), Quantity: 1},
			},
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := orders.FindRecent(ctx, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].PaymentReference != "pi_3" {
		t.Fatalf("unexpected order list: %+v", all)
	}
	if len(all[0].Items) != 2 || all[0].Items[0].Title != "One" {
		t.Fatalf("items not attached in line order: %+v", all[0].Items)
	}
	if !all[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("created_at round trip: %v", all[0].CreatedAt)
	}

	ok, err := orders.FindRecent(ctx, 10, domain.PaymentSucceeded)
	if err != nil {
		t.Fatal(err)
	}
	if len(ok) != 2 {
		t.Fatalf("want 2 succeeded orders, got %d", len(ok))
	}
}

func TestMoneyIsStoredExactly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(db)
	orders := repos.NewOrderRepo(db)

	// Beyond float64 precision.
	price := decimal.RequireFromString("12345678901234567.89")
	if _, err := prods.Create(ctx, domain.Product{
		ID: "big", Title: "Yacht", Price: price, Stock: 1, Category: "misc",
	}); err != nil {
		t.Fatal(err)
	}
	p, err := prods.Get(ctx, "big")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Price.Equal(price) {
		t.Fatalf("price round trip: got %s want %s", p.Price, price)
	}
	var kind string
	if err := db.Get(&kind, `SELECT typeof(price) FROM products WHERE id = 'big'`); err != nil {
		t.Fatal(err)
	}
	if kind != "text" {
		t.Fatalf("price stored as %s, want text", kind)
	}

	for _, ref := range []string{"pi_1", "pi_2", "pi_3"} {
		if _, err := orders.Create(ctx, domain.Order{
			PaymentReference: ref,
			Total:            decimal.RequireFromString("0.10"),
			CustomerEmail:    "a@b.co",
			PaymentStatus:    domain.PaymentSucceeded,
		}); err != nil {
			t.Fatal(err)
		}
	}
	sum, err := orders.AggregateRevenueAndCount(ctx, nil, domain.PaymentSucceeded)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Revenue.String() != "0.3" || sum.Count != 3 {
		t.Fatalf("want exact 0.3 over 3 orders, got %s over %d", sum.Revenue, sum.Count)
	}

	if _, err := db.Exec(`UPDATE products SET price = '-1' WHERE id = 'big'`); err == nil {
		t.Fatal("schema must reject a negative price")
	}
}

func TestPriceSortIsNumeric(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	prods := repos.NewProductRepo(db)
	for id, price := range map[string]string{"nine": "9.50", "ten": "10.00", "hundred": "100"} {
		if _, err := prods.Create(ctx, domain.Product{
			ID: id, Title: id, Price: decimal.RequireFromString(price), Stock: 1, Category: "misc",
		}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := prods.ListByCategory(ctx, "", 10, validate.Sorts["price"])
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "nine" || list[2].ID != "hundred" {
		t.Fatalf("text ordering leaked into price sort: %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}
