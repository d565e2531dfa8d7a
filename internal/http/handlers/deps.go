package handlers

import (
	"thriftbazaar/internal/config"
	"thriftbazaar/internal/market"
	"thriftbazaar/internal/repos"
	"thriftbazaar/internal/services"
	"thriftbazaar/internal/storage"
)

// MarketAPI is everything the storefront asks of the marketplace backend.
type MarketAPI interface {
	services.CatalogAPI
	services.AuthAPI
	services.VendorAPI
}

var _ MarketAPI = (*market.Client)(nil)

type Deps struct {
	Auth    *services.AuthService
	Cart    *services.CartService
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Payment *services.PaymentService

	AuthHandler    *AuthHandler
	CatalogHandler *CatalogHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	ContactHandler *ContactHandler
	VendorHandler  *VendorHandler
	APIHandler     *APIHandler
}

func NewDeps(st storage.Store, api MarketAPI, events services.Publisher, cfg config.Config) *Deps {
	cartRepo := repos.NewCartRepo(st)
	orderRepo := repos.NewOrderRepo(st)
	payRepo := repos.NewPaymentRepo(st)
	tokenRepo := repos.NewTokenRepo(st)
	msgRepo := repos.NewMessageRepo(st)

	authSvc := services.NewAuthService(tokenRepo, api)
	catalogSvc := services.NewCatalogService(api)
	cartSvc := services.NewCartService(cartRepo)
	orderSvc := services.NewOrderService(orderRepo, cartSvc, events)
	paySvc := services.NewPaymentService(payRepo, orderSvc, events, cfg.PaymentDelay, cfg.PaymentSuccessRate)
	contactSvc := services.NewContactService(msgRepo)
	vendorSvc := services.NewVendorService(api)

	return &Deps{
		Auth:    authSvc,
		Cart:    cartSvc,
		Catalog: catalogSvc,
		Orders:  orderSvc,
		Payment: paySvc,

		AuthHandler:    &AuthHandler{Auth: authSvc},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		CartHandler:    &CartHandler{Cart: cartSvc, Catalog: catalogSvc},
		OrderHandler:   &OrderHandler{Cart: cartSvc, Order: orderSvc, Payment: paySvc},
		ContactHandler: &ContactHandler{Contact: contactSvc, Catalog: catalogSvc},
		VendorHandler:  &VendorHandler{Vendor: vendorSvc},
		APIHandler: &APIHandler{
			Auth: authSvc, Cart: cartSvc, Catalog: catalogSvc, Order: orderSvc, Payment: paySvc,
		},
	}
}
