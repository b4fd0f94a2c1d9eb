package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocart/internal/domain"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mkUser(t *testing.T, db *sqlx.DB, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.NewString(), Username: name, Email: name + "@example.test", Hash: "x", Role: domain.RoleUser}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u))
	return u
}

func mkProduct(t *testing.T, db *sqlx.DB, name, price string) domain.Product {
	t.Helper()
	p := domain.Product{
		ID: uuid.NewString(), Name: name, Price: decimal.RequireFromString(price),
		Quantity: 10, Category: domain.CategoryElectronics,
	}
	require.NoError(t, NewProductRepo(db).Create(context.Background(), p))
	return p
}

func TestCouponRedeemIsSingleUse(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCouponRepo(db)
	now := time.Now()

	c := domain.Coupon{ID: uuid.NewString(), Code: "SAVE500", Amount: decimal.NewFromInt(500), ExpiresAt: now.Add(time.Hour), IsActive: true}
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.Redeem(ctx, c.ID, now))
	require.ErrorIs(t, repo.Redeem(ctx, c.ID, now), domain.ErrCouponUnusable)

	got, err := repo.ByCode(ctx, "SAVE500")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(500)))
	assert.Empty(t, got.UserID)
}

func TestCouponRedeemRejectsExpired(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCouponRepo(db)
	now := time.Now()

	c := domain.Coupon{ID: uuid.NewString(), Code: "OLD", Amount: decimal.NewFromInt(5), ExpiresAt: now.Add(-time.Minute), IsActive: true}
	require.NoError(t, repo.Create(ctx, c))
	require.ErrorIs(t, repo.Redeem(ctx, c.ID, now), domain.ErrCouponUnusable)
}

func TestCouponUniqueness(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCouponRepo(db)
	u := mkUser(t, db, "alice")
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.Create(ctx, domain.Coupon{ID: uuid.NewString(), UserID: u.ID, Code: "A1", Amount: decimal.NewFromInt(1), ExpiresAt: exp, IsActive: true}))
	err := repo.Create(ctx, domain.Coupon{ID: uuid.NewString(), UserID: u.ID, Code: "A2", Amount: decimal.NewFromInt(1), ExpiresAt: exp, IsActive: true})
	require.ErrorIs(t, err, domain.ErrConflict, "one coupon per user")
	err = repo.Create(ctx, domain.Coupon{ID: uuid.NewString(), Code: "A1", Amount: decimal.NewFromInt(1), ExpiresAt: exp, IsActive: true})
	require.ErrorIs(t, err, domain.ErrConflict, "codes are unique")

	mine, err := repo.ByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", mine.Code)

	_, err = repo.ByCode(ctx, "NOPE")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateExpired(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewCouponRepo(db)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, domain.Coupon{ID: uuid.NewString(), Code: "PAST", Amount: decimal.NewFromInt(1), ExpiresAt: now.Add(-time.Hour), IsActive: true}))
	require.NoError(t, repo.Create(ctx, domain.Coupon{ID: uuid.NewString(), Code: "FUTURE", Amount: decimal.NewFromInt(1), ExpiresAt: now.Add(time.Hour), IsActive: true}))

	n, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	past, _ := repo.ByCode(ctx, "PAST")
	future, _ := repo.ByCode(ctx, "FUTURE")
	assert.False(t, past.IsActive)
	assert.True(t, future.IsActive)
}

func TestProductRatingAndReviews(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := mkProduct(t, db, "Laptop", "1000.00")
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	reviews := NewReviewRepo(db)

	got, err := NewProductRepo(db).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)

	require.NoError(t, reviews.Create(ctx, domain.Review{ID: uuid.NewString(), ProductID: p.ID, UserID: alice.ID, Rate: 5, CreatedAt: time.Now()}))
	require.NoError(t, reviews.Create(ctx, domain.Review{ID: uuid.NewString(), ProductID: p.ID, UserID: bob.ID, Rate: 4, CreatedAt: time.Now()}))
	err = reviews.Create(ctx, domain.Review{ID: uuid.NewString(), ProductID: p.ID, UserID: bob.ID, Rate: 1, CreatedAt: time.Now()})
	require.ErrorIs(t, err, domain.ErrDuplicateReview)

	got, err = NewProductRepo(db).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got.Rating, 0.0001)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1000)))

	list, err := reviews.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestProductListFilters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mkProduct(t, db, "Mechanical Keyboard", "80")
	mkProduct(t, db, "Mouse", "20")
	repo := NewProductRepo(db)

	all, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := repo.List(ctx, ProductFilter{Query: "keyb"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Mechanical Keyboard", hits[0].Name)

	none, err := repo.List(ctx, ProductFilter{Category: domain.CategoryGaming})
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := NewCategoryRepo(db).Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 2, counts[0].Products)
}

func TestSessionExpiry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	u := mkUser(t, db, "carol")
	now := time.Now()

	require.NoError(t, users.CreateSession(ctx, "tok-live", u.ID, now.Add(time.Hour)))
	require.NoError(t, users.CreateSession(ctx, "tok-dead", u.ID, now.Add(-time.Hour)))

	got, err := users.SessionUser(ctx, "tok-live", now)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)

	_, err = users.SessionUser(ctx, "tok-dead", now)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	n, err := users.PurgeSessions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.ErrorIs(t, users.Create(ctx, &domain.User{ID: uuid.NewString(), Username: "carol", Email: "other@example.test", Hash: "x", Role: domain.RoleUser}), domain.ErrDuplicateUser)
}

func TestOrderStatusCAS(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := mkUser(t, db, "dave")
	p := mkProduct(t, db, "Cable", "5.00")
	orders := NewOrderRepo(db)

	o := domain.Order{
		ID: uuid.NewString(), UserID: u.ID, Amount: decimal.NewFromInt(10), Status: domain.OrderPending, CreatedAt: time.Now(),
		Items: []domain.OrderItem{{ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price, Quantity: 2}},
	}
	require.NoError(t, orders.Create(ctx, o))

	require.NoError(t, orders.UpdateStatus(ctx, o.ID, domain.OrderPending, domain.OrderConfirmed))
	require.ErrorIs(t, orders.UpdateStatus(ctx, o.ID, domain.OrderPending, domain.OrderCancelled), domain.ErrStatusMismatch)

	got, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, err = orders.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	opt := SeedOptions{AdminEmail: "root@example.test", AdminPassword: "s3cret!", DemoProducts: true}
	require.NoError(t, Seed(ctx, db, opt))
	require.NoError(t, Seed(ctx, db, opt))

	admin, err := NewUserRepo(db).ByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	all, err := NewProductRepo(db).List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
