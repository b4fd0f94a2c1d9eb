package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"neurocart/internal/cache"
	"neurocart/internal/domain"
	"neurocart/internal/jobs"
	"neurocart/internal/repos"
	"neurocart/internal/services"
)

type env struct {
	db        *sqlx.DB
	users     *repos.UserRepo
	prods     *repos.ProductRepo
	coupons   *repos.CouponRepo
	orders    *repos.OrderRepo
	checkouts *repos.CheckoutRepo

	queue     *jobs.MemoryQueue
	cache     *cache.Memory
	auth      *services.AuthService
	catalog   *services.CatalogService
	couponSvc *services.CouponService
	checkout  *services.CheckoutService
	orderSvc  *services.OrderService
	reviews   *services.ReviewService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		db:        db,
		users:     repos.NewUserRepo(db),
		prods:     repos.NewProductRepo(db),
		coupons:   repos.NewCouponRepo(db),
		orders:    repos.NewOrderRepo(db),
		checkouts: repos.NewCheckoutRepo(db),
		queue:     jobs.NewMemoryQueue(),
		cache:     cache.NewMemory(),
	}
	e.auth = services.NewAuthService(e.users, e.queue, time.Hour)
	e.auth.Cost = bcrypt.MinCost
	e.catalog = services.NewCatalogService(repos.NewCategoryRepo(db), e.prods, e.cache, 5*time.Minute)
	e.couponSvc = services.NewCouponService(e.coupons, decimal.NewFromInt(5000), 30*24*time.Hour)
	e.checkout = services.NewCheckoutService(db, e.prods, e.coupons, e.orders, e.checkouts)
	e.orderSvc = services.NewOrderService(db, e.prods, e.orders)
	e.reviews = services.NewReviewService(repos.NewReviewRepo(db), e.prods, e.catalog)
	return e
}

func (e *env) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.test", Hash: "x", Role: domain.RoleUser}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) product(t *testing.T, name, price string) domain.Product {
	t.Helper()
	p := domain.Product{ID: uuid.NewString(), Name: name, Price: decimal.RequireFromString(price), Quantity: 5, Category: domain.CategoryElectronics}
	require.NoError(t, e.prods.Create(context.Background(), p))
	return p
}

func (e *env) coupon(t *testing.T, code, amount string, expires time.Time, active bool, owner string) domain.Coupon {
	t.Helper()
	c := domain.Coupon{ID: uuid.NewString(), UserID: owner, Code: code, Amount: decimal.RequireFromString(amount), ExpiresAt: expires, IsActive: active}
	require.NoError(t, e.coupons.Create(context.Background(), c))
	return c
}

func (e *env) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

func checkoutInput(coupon string, items ...services.ItemInput) services.CheckoutInput {
	return services.CheckoutInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.test",
		Address: "1 Analytical Way", Country: "UK", State: "London", ZipCode: "N1",
		CardName: "A LOVELACE", CardNumber: "4111111111111111", Expiration: "12/30", CVV: "123",
		Coupon: coupon, Items: items,
	}
}
