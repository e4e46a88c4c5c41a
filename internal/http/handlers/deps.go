package handlers

import (
	"github.com/jmoiron/sqlx"

	"coffeehub/internal/config"
	"coffeehub/internal/notify"
	"coffeehub/internal/payments"
	"coffeehub/internal/repos"
	"coffeehub/internal/services"
)

type Deps struct {
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	WebhookHandler  *WebhookHandler
	OrderHandler    *OrderHandler
	AdminHandler    *AdminHandler

	Auth *services.AuthService
}

func NewDeps(db *sqlx.DB, cfg config.Config, pay payments.Client) *Deps {
	prodRepo := repos.NewProductRepo(db)
	variantRepo := repos.NewVariantRepo(db)
	userRepo := repos.NewUserRepo(db)
	sessionRepo := repos.NewSessionRepo(db)
	sessionCart := repos.NewSessionCartRepo(db)
	persistentCart := repos.NewPersistentCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, variantRepo)
	cartSvc := services.NewCartService(sessionCart, persistentCart, variantRepo)
	reconcileSvc := services.NewReconcileService(cartSvc, sessionRepo)
	checkoutSvc := services.NewCheckoutService(pay, sessionRepo, cfg.Currency)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, variantRepo, userRepo, sessionRepo, cartSvc, notify.LogNotifier{})
	authSvc := &services.AuthService{Users: userRepo, Reconcile: reconcileSvc}

	return &Deps{
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Reconcile: reconcileSvc},
		CheckoutHandler: &CheckoutHandler{Cart: cartSvc, Checkout: checkoutSvc, Orders: orderSvc, Users: userRepo, Sessions: sessionRepo, PublicKey: cfg.StripePublicKey},
		WebhookHandler:  &WebhookHandler{Secret: cfg.StripeWHSecret, Orders: orderSvc, Payments: pay},
		OrderHandler:    &OrderHandler{Orders: orderRepo},
		AdminHandler:    &AdminHandler{Orders: orderRepo, Variants: variantRepo},
		Auth:            authSvc,
	}
}
