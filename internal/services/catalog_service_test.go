package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/repos"
	"storefront/internal/services"
)

func TestCatalog_SearchRanksTitleOverDescription(t *testing.T) {
	db := newDB(t)
	prods := repos.NewProductRepo(db)
	ctx := context.Background()
	svc := services.NewCatalogService(prods)

	// addProduct puts the title into the description too.
	addProduct(t, db, "lamp", "Desk Lamp", "39.90", 3)
	_, err := db.Exec(`UPDATE products SET title = 'Reading Light', description = 'a lamp for desks' WHERE id = 'lamp'`)
	require.NoError(t, err)
	addProduct(t, db, "lamp2", "Lamp Shade", "9.90", 3)
	addProduct(t, db, "mug", "Mug", "4.00", 3)

	got, err := svc.List(ctx, services.ProductQuery{Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lamp2", got[0].ID)
	assert.Equal(t, "lamp", got[1].ID)

	got, err = svc.List(ctx, services.ProductQuery{Search: "100%"})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "search", ve.Field)
	assert.Nil(t, got)
}

func TestCatalog_ListSortAndCategory(t *testing.T) {
	db := newDB(t)
	svc := services.NewCatalogService(repos.NewProductRepo(db))
	ctx := context.Background()

	addProduct(t, db, "a", "Alpha", "30.00", 1)
	addProduct(t, db, "b", "Bravo", "10.00", 1)
	addProduct(t, db, "c", "Charlie", "20.00", 1)
	_, err := db.Exec(`UPDATE products SET category = 'books' WHERE id = 'c'`)
	require.NoError(t, err)

	got, err := svc.List(ctx, services.ProductQuery{Sort: "price"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})

	got, err = svc.List(ctx, services.ProductQuery{Category: "books"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got, err = svc.List(ctx, services.ProductQuery{Category: "all", Limit: 2, Sort: "title"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)

	_, err = svc.List(ctx, services.ProductQuery{Sort: "stock; DROP TABLE products"})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sort", ve.Field)
}

func TestCatalog_CreateAndUpdate(t *testing.T) {
	db := newDB(t)
	svc := services.NewCatalogService(repos.NewProductRepo(db))
	ctx := context.Background()

	price := decimal.RequireFromString("12.345")
	stock := 4
	p, err := svc.CreateProduct(ctx, services.ProductInput{
		Title:       "  Notebook ",
		Description: "A5 dotted",
		Price:       &price,
		Images:      []string{"/a.jpg", " "},
		Stock:       &stock,
		Category:    "stationery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Notebook", p.Title)
	assert.Equal(t, "12.35", p.Price.StringFixed(2))
	assert.Equal(t, []string{"/a.jpg"}, []string(p.Images))
	assert.Zero(t, p.SalesCount)

	stock = 0
	upd, err := svc.UpdateProduct(ctx, p.ID, services.ProductInput{
		Title: "Notebook", Description: "A5 dotted", Price: &price, Stock: &stock, Category: "stationery",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, upd.Stock)

	_, err = svc.UpdateProduct(ctx, "nope", services.ProductInput{
		Title: "x", Description: "y", Price: &price, Stock: &stock, Category: "z",
	})
	var nf *services.ProductNotFoundError
	require.ErrorAs(t, err, &nf)

	neg := -1
	_, err = svc.CreateProduct(ctx, services.ProductInput{
		Title: "x", Description: "y", Price: &price, Stock: &neg, Category: "z",
	})
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "stock", ve.Field)
}

func TestCatalog_GetProductNotFound(t *testing.T) {
	db := newDB(t)
	svc := services.NewCatalogService(repos.NewProductRepo(db))

	_, err := svc.GetProduct(context.Background(), "ghost")
	var nf *services.ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ProductID)
}
