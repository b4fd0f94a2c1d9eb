package handlers

import (
	"github.com/jmoiron/sqlx"

	"neurocart/internal/cache"
	"neurocart/internal/config"
	"neurocart/internal/jobs"
	"neurocart/internal/repos"
	"neurocart/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Coupons *services.CouponService

	AuthHandler     *AuthHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	CouponHandler   *CouponHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, c cache.Cache, q jobs.Enqueuer) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	checkoutRepo := repos.NewCheckoutRepo(db)

	authSvc := services.NewAuthService(userRepo, q, cfg.SessionTTL)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, c, cfg.ProductsCacheTTL)
	invSvc := services.NewInventoryService(invRepo, catalogSvc)
	reviewSvc := services.NewReviewService(reviewRepo, prodRepo, catalogSvc)
	couponSvc := services.NewCouponService(couponRepo, cfg.WelcomeCouponAmount, cfg.WelcomeCouponTTL)
	checkoutSvc := services.NewCheckoutService(db, prodRepo, couponRepo, orderRepo, checkoutRepo)
	orderSvc := services.NewOrderService(db, prodRepo, orderRepo)

	return &Deps{
		Auth:            authSvc,
		Coupons:         couponSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc, Orders: orderSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Reviews: reviewSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc},
		CouponHandler:   &CouponHandler{Coupons: couponSvc},
		AdminHandler:    &AdminHandler{Catalog: catalogSvc, Inv: invSvc, Order: orderSvc},
	}
}
