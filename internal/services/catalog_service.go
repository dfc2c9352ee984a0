package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

type ProductQuery struct {
	Category string
	Search   string
	Sort     string
	Limit    int
}

// List serves the storefront listing. A search term switches to relevance
// ranking; otherwise Sort applies.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Category != "" && q.Category != "all" {
		if _, ok := validate.Category(q.Category); !ok {
			return nil, invalid("category", "unsupported characters")
		}
	}
	if strings.TrimSpace(q.Search) != "" {
		text, ok := validate.Q(q.Search)
		if !ok {
			return nil, invalid("search", "letters, numbers and spaces only")
		}
		return s.Prods.Search(ctx, text, q.Category, q.Limit)
	}
	orderBy, ok := validate.Sort(q.Sort)
	if !ok {
		return nil, invalid("sort", "unknown sort key")
	}
	return s.Prods.ListByCategory(ctx, q.Category, q.Limit, orderBy)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, &ProductNotFoundError{ProductID: id}
	}
	return p, err
}

type ProductInput struct {
	Title       string
	Description string
	Price       *decimal.Decimal
	Images      []string
	Stock       *int
	Category    string
}

func (in ProductInput) toProduct() (domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Product{}, invalid("title", "required")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return domain.Product{}, invalid("description", "required")
	}
	if in.Price == nil {
		return domain.Product{}, invalid("price", "required")
	}
	if in.Price.IsNegative() {
		return domain.Product{}, invalid("price", "cannot be negative")
	}
	if in.Stock == nil {
		return domain.Product{}, invalid("stock", "required")
	}
	if *in.Stock < 0 {
		return domain.Product{}, invalid("stock", "cannot be negative")
	}
	category, ok := validate.Category(in.Category)
	if !ok {
		return domain.Product{}, invalid("category", "required")
	}
	images := domain.Images{}
	for _, im := range in.Images {
		if im = strings.TrimSpace(im); im != "" {
			images = append(images, im)
		}
	}
	return domain.Product{
		Title:       title,
		Description: desc,
		Price:       in.Price.Round(2),
		Images:      images,
		Stock:       *in.Stock,
		Category:    category,
	}, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	p, err := in.toProduct()
	if err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Create(ctx, p)
}

// UpdateProduct applies an administrative edit, including setting stock.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	p, err := in.toProduct()
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = id
	out, err := s.Prods.Update(ctx, p)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, &ProductNotFoundError{ProductID: id}
	}
	return out, err
}
