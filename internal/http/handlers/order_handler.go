package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"
)

const (
	defaultOrderListLimit = 100
	maxOrderListLimit     = 500
)

type OrderHandler struct {
	Checkout *services.CheckoutService
	Repo     *repos.OrderRepo
}

// Price, title and image are what the browser cart held; they are only used
// for audit comparison and never trusted.
type orderLineRequest struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Title     string           `json:"title,omitempty"`
	Image     string           `json:"image,omitempty"`
}

type placeOrderRequest struct {
	Items            []orderLineRequest `json:"items"`
	Total            *decimal.Decimal   `json:"total,omitempty"`
	CustomerEmail    string             `json:"customerEmail"`
	CustomerName     string             `json:"customerName"`
	PaymentReference string             `json:"paymentIntentId"`
}

// POST /api/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	in := services.PlaceOrderInput{
		Lines:            make([]services.CartLine, 0, len(req.Items)),
		CustomerEmail:    req.CustomerEmail,
		CustomerName:     req.CustomerName,
		PaymentReference: req.PaymentReference,
	}
	for _, it := range req.Items {
		in.Lines = append(in.Lines, services.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.Checkout.PlaceOrder(c.UserContext(), in)
	if err != nil {
		var is *services.InsufficientStockError
		if errors.As(err, &is) {
			applog.Info(c, "order.place.stock", map[string]any{
				"product_id": is.ProductID, "requested": is.Requested, "available": is.Available,
			})
		}
		var dp *services.DuplicatePaymentError
		if errors.As(err, &dp) {
			applog.Security(c, "order.place.duplicate", map[string]any{"payment_ref": dp.PaymentReference})
		}
		return respondErr(c, "order.place", err)
	}

	if req.Total != nil && !services.ServerTotalMatches(order, *req.Total) {
		applog.Security(c, "order.total.mismatch", map[string]any{
			"order_id":     order.ID,
			"client_total": req.Total.String(),
			"server_total": order.Total.String(),
		})
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": order.ID,
		"items":    len(order.Items),
		"total":    order.Total.String(),
	})
	return ok(c, fiber.StatusCreated, "order", order)
}

// GET /api/orders?limit=&status=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	limit := validate.Limit(c.Query("limit"), defaultOrderListLimit, maxOrderListLimit)
	status := domain.PaymentStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return fail(c, fiber.StatusBadRequest, "invalid status: must be pending, succeeded or failed")
	}
	orders, err := h.Repo.FindRecent(c.UserContext(), limit, status)
	if err != nil {
		return respondErr(c, "order.list", err)
	}
	return c.JSON(fiber.Map{"success": true, "count": len(orders), "orders": orders})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	o, err := h.Repo.Get(c.UserContext(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		return respondErr(c, "order.get", err)
	}
	return ok(c, fiber.StatusOK, "order", o)
}
