package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"easybake/internal/backend/repos"
	"easybake/internal/backend/services"
)

// Deps holds the services behind the REST API.
type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Cart    *services.CartService
	Orders  *services.OrderService
	Account *services.AccountService
	Reviews *services.ReviewService
}

func NewDeps(db *sqlx.DB, vat, delivery decimal.Decimal) Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	addrRepo := repos.NewAddressRepo(db)
	wishRepo := repos.NewWishlistRepo(db, prodRepo)
	reviewRepo := repos.NewReviewRepo(db)

	return Deps{
		Auth:    services.NewAuthService(userRepo, cartRepo),
		Catalog: services.NewCatalogService(prodRepo, catRepo),
		Cart:    services.NewCartService(cartRepo, prodRepo, vat),
		Orders:  services.NewOrderService(orderRepo, cartRepo, addrRepo, vat, delivery),
		Account: services.NewAccountService(addrRepo, wishRepo, prodRepo),
		Reviews: services.NewReviewService(reviewRepo, prodRepo, orderRepo),
	}
}
