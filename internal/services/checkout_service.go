package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/events"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

const (
	maxCartLines    = 100
	maxLineQuantity = 10000

	defaultPublishTimeout = 2 * time.Second
)

// CartLine is one client-supplied cart entry. Anything else the client holds
// (price, title, stock-at-add-time) is ignored.
type CartLine struct {
	ProductID string
	Quantity  int
}

type PlaceOrderInput struct {
	Lines            []CartLine
	CustomerEmail    string
	CustomerName     string
	PaymentReference string
}

type CheckoutService struct {
	DB     *sqlx.DB
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
	Events events.Publisher
	Now    func() time.Time
	// PublishTimeout bounds the best-effort event publish after commit.
	PublishTimeout time.Duration
}

func NewCheckoutService(db *sqlx.DB, prods *repos.ProductRepo, orders *repos.OrderRepo, pub events.Publisher) *CheckoutService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &CheckoutService{
		DB: db, Prods: prods, Orders: orders, Events: pub,
		Now: time.Now, PublishTimeout: defaultPublishTimeout,
	}
}

func (in PlaceOrderInput) normalize() (PlaceOrderInput, error) {
	if len(in.Lines) == 0 {
		return in, invalid("items", "cart is empty")
	}
	if len(in.Lines) > maxCartLines {
		return in, invalid("items", fmt.Sprintf("at most %d lines per order", maxCartLines))
	}
	in.Lines = append([]CartLine(nil), in.Lines...)
	for i, ln := range in.Lines {
		id, ok := validate.ID(ln.ProductID)
		if !ok {
			return in, invalid("items", fmt.Sprintf("line %d has no valid productId", i+1))
		}
		if ln.Quantity < 1 {
			return in, invalid("items", fmt.Sprintf("line %d quantity must be at least 1", i+1))
		}
		if ln.Quantity > maxLineQuantity {
			return in, invalid("items", fmt.Sprintf("line %d quantity must be at most %d", i+1, maxLineQuantity))
		}
		in.Lines[i].ProductID = id
	}
	if in.CustomerEmail == "" {
		return in, invalid("customerEmail", "required")
	}
	email, ok := validate.Email(in.CustomerEmail)
	if !ok {
		return in, invalid("customerEmail", "not a valid address")
	}
	in.CustomerEmail = email
	if in.CustomerName != "" {
		name, ok := validate.Name(in.CustomerName)
		if !ok {
			return in, invalid("customerName", "too long")
		}
		in.CustomerName = name
	}
	if in.PaymentReference == "" {
		return in, invalid("paymentIntentId", "required")
	}
	ref, ok := validate.PaymentReference(in.PaymentReference)
	if !ok {
		return in, invalid("paymentIntentId", "malformed")
	}
	in.PaymentReference = ref
	return in, nil
}

// PlaceOrder turns a paid cart into an Order. Stock is checked for every line
// before anything is written; the decrements and the order insert then run in
// one transaction, each decrement re-checking stock so concurrent checkouts
// cannot oversell.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	in, err := in.normalize()
	if err != nil {
		return domain.Order{}, err
	}

	if _, err := s.Orders.ByPaymentReference(ctx, in.PaymentReference); err == nil {
		return domain.Order{}, &DuplicatePaymentError{PaymentReference: in.PaymentReference}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, storageErr(err)
	}

	// Validation: snapshot each product once, sum quantities per product.
	snaps := make(map[string]domain.Product, len(in.Lines))
	need := make(map[string]int, len(in.Lines))
	var productOrder []string
	items := make([]domain.OrderItem, 0, len(in.Lines))
	for _, ln := range in.Lines {
		p, seen := snaps[ln.ProductID]
		if !seen {
			p, err = s.Prods.Get(ctx, ln.ProductID)
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Order{}, &ProductNotFoundError{ProductID: ln.ProductID}
			}
			if err != nil {
				return domain.Order{}, storageErr(err)
			}
			snaps[ln.ProductID] = p
			productOrder = append(productOrder, ln.ProductID)
		}
		// Compare against what is left so the running sum cannot overflow.
		if ln.Quantity > p.Stock-need[ln.ProductID] {
			return domain.Order{}, &InsufficientStockError{
				ProductID: p.ID, Title: p.Title, Requested: need[ln.ProductID] + ln.Quantity, Available: p.Stock,
			}
		}
		need[ln.ProductID] += ln.Quantity
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Price:     p.Price,
			Quantity:  ln.Quantity,
			Image:     p.Images.First(),
		})
	}

	order := domain.Order{
		ID:               uuid.NewString(),
		PaymentReference: in.PaymentReference,
		Items:            items,
		CustomerEmail:    in.CustomerEmail,
		CustomerName:     in.CustomerName,
		PaymentStatus:    domain.PaymentSucceeded,
		CreatedAt:        s.Now(),
	}
	order.Total = order.ItemsTotal()

	err = repos.RunInTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods := s.Prods.WithTx(tx)
		for _, id := range productOrder {
			p, err := prods.DecrementStockAndIncrementSales(ctx, id, need[id])
			switch {
			case errors.Is(err, repos.ErrInsufficientStock):
				return &InsufficientStockError{ProductID: id, Title: p.Title, Requested: need[id], Available: p.Stock}
			case errors.Is(err, sql.ErrNoRows):
				return &ProductNotFoundError{ProductID: id}
			case err != nil:
				return err
			}
		}
		created, err := s.Orders.WithTx(tx).Create(ctx, order)
		if errors.Is(err, repos.ErrDuplicatePayment) {
			return &DuplicatePaymentError{PaymentReference: in.PaymentReference}
		}
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return domain.Order{}, classify(err)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.PublishTimeout)
	defer cancel()
	if err := s.Events.PublishOrderPlaced(pubCtx, events.NewOrderPlaced(order)); err != nil {
		applog.Logger().Error().Err(err).Str("order_id", order.ID).Msg("order.event.publish.fail")
	}
	return order, nil
}

// classify keeps domain errors and context cancellation as they are and maps
// driver failures onto the storage error kinds.
func classify(err error) error {
	var (
		ve *ValidationError
		nf *ProductNotFoundError
		is *InsufficientStockError
		dp *DuplicatePaymentError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &is), errors.As(err, &dp):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return storageErr(err)
}

func storageErr(err error) error {
	if repos.IsBusy(err) {
		return fmt.Errorf("%w: %w", ErrStorageConflict, err)
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// ServerTotalMatches reports whether a client-claimed total agrees with the
// server total. Only used for audit logging.
func ServerTotalMatches(order domain.Order, clientTotal decimal.Decimal) bool {
	return order.Total.Round(2).Equal(clientTotal.Round(2))
}
