package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
	"neurocart/internal/services"
)

func TestProductListIsCachedUntilWrite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.product(t, "Keyboard", "50")

	list, err := e.catalog.ListProducts(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, cached, _ := e.cache.Get(ctx, services.ProductsListKey)
	require.True(t, cached)

	// a write behind the service's back is not visible until invalidation
	e.product(t, "Mouse", "20")
	list, _ = e.catalog.ListProducts(ctx, repos.ProductFilter{})
	assert.Len(t, list, 1)

	created, err := e.catalog.CreateProduct(ctx, services.ProductInput{Name: "Webcam", Price: "35.00", Quantity: 3, Category: "electronics"})
	require.NoError(t, err)
	list, _ = e.catalog.ListProducts(ctx, repos.ProductFilter{})
	assert.Len(t, list, 3)

	updated, err := e.catalog.UpdateProduct(ctx, created.ID, services.ProductInput{Name: "Webcam HD", Price: "39.90", Quantity: 3, Category: "electronics"})
	require.NoError(t, err)
	assert.Equal(t, "Webcam HD", updated.Name)
	_, cached, _ = e.cache.Get(ctx, services.ProductsListKey)
	assert.False(t, cached, "update drops the cached list")

	_, err = e.catalog.UpdateProduct(ctx, "missing", services.ProductInput{Name: "x", Price: "1", Category: "other"})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestFilteredListBypassesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.product(t, "Gamepad", "40")

	got, err := e.catalog.ListProducts(ctx, repos.ProductFilter{Query: "pad"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	_, cached, _ := e.cache.Get(ctx, services.ProductsListKey)
	assert.False(t, cached)
}

func TestInventorySetQtyInvalidatesList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Router", "80")
	inv := services.NewInventoryService(repos.NewInventoryRepo(e.db), e.catalog)

	_, err := e.catalog.ListProducts(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	require.NoError(t, inv.SetQty(ctx, p.ID, 1))
	_, cached, _ := e.cache.Get(ctx, services.ProductsListKey)
	assert.False(t, cached)

	low, err := inv.Low(ctx, 2)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "LOW_STOCK", services.Availability(low[0].Quantity))
	assert.Equal(t, "OUT_OF_STOCK", services.Availability(0))
	assert.Equal(t, "IN_STOCK", services.Availability(9))

	require.ErrorIs(t, inv.SetQty(ctx, p.ID, -1), domain.ErrInvalid)
	require.ErrorIs(t, inv.SetQty(ctx, "missing", 1), domain.ErrProductNotFound)
}

func TestReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "kim")
	p := e.product(t, "Speaker", "60")

	_, err := e.reviews.Create(ctx, u.ID, p.ID, services.ReviewInput{Rate: 6})
	require.ErrorIs(t, err, domain.ErrBadRating)
	_, err = e.reviews.Create(ctx, u.ID, "ghost", services.ReviewInput{Rate: 3})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = e.reviews.Create(ctx, u.ID, p.ID, services.ReviewInput{Rate: 4, Comment: "solid"})
	require.NoError(t, err)
	_, err = e.reviews.Create(ctx, u.ID, p.ID, services.ReviewInput{Rate: 5})
	require.ErrorIs(t, err, domain.ErrDuplicateReview)

	list, err := e.reviews.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kim", list[0].Username)
}

func TestReviewRefreshesCachedRating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "lee")
	p := e.product(t, "Speaker", "60")

	list, err := e.catalog.ListProducts(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].Rating)

	_, err = e.reviews.Create(ctx, u.ID, p.ID, services.ReviewInput{Rate: 4})
	require.NoError(t, err)
	_, cached, _ := e.cache.Get(ctx, services.ProductsListKey)
	assert.False(t, cached, "a new review drops the cached list")

	list, err = e.catalog.ListProducts(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, list[0].Rating, 0.001)
}
