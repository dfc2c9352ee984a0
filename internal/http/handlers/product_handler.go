package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

type productRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Images      []string         `json:"images"`
	Stock       *int             `json:"stock"`
	Category    string           `json:"category"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Images:      r.Images,
		Stock:       r.Stock,
		Category:    r.Category,
	}
}

// GET /api/products?category=&search=&sort=&limit=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := services.ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Limit:    validate.Limit(c.Query("limit"), services.DefaultListLimit, services.MaxListLimit),
	}
	products, err := h.Catalog.List(c.UserContext(), q)
	if err != nil {
		return respondErr(c, "product.list", err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(products), "products": products})
}

// GET /api/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondErr(c, "product.detail", err)
	}
	return ok(c, fiber.StatusOK, "product", p)
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), req.input())
	if err != nil {
		return respondErr(c, "product.create", err)
	}
	log.Audit(c, "product.create", map[string]any{"product_id": p.ID, "stock": p.Stock, "price": p.Price.String()})
	return ok(c, fiber.StatusCreated, "product", p)
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "Product not found")
	}
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, req.input())
	if err != nil {
		return respondErr(c, "product.update", err)
	}
	log.Audit(c, "product.update", map[string]any{"product_id": p.ID, "stock": p.Stock, "price": p.Price.String()})
	return ok(c, fiber.StatusOK, "product", p)
}
