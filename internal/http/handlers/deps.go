package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	OrderHandler     *OrderHandler
	AnalyticsHandler *AnalyticsHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, pub events.Publisher) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	adminRepo := repos.NewAdminRepo(db)

	authSvc := services.NewAuthService(adminRepo, cfg.TokenTTL)
	catalogSvc := services.NewCatalogService(prodRepo)
	checkoutSvc := services.NewCheckoutService(db, prodRepo, orderRepo, pub)
	analyticsSvc := services.NewAnalyticsService(orderRepo, prodRepo, cfg.LowStockThreshold, cfg.Location())

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		OrderHandler:     &OrderHandler{Checkout: checkoutSvc, Repo: orderRepo},
		AnalyticsHandler: &AnalyticsHandler{Analytics: analyticsSvc},
	}
}
