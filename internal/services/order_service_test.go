package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocart/internal/domain"
	"neurocart/internal/services"
)

func TestDirectOrderIsPendingAndPricedServerSide(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "leo")
	p := e.product(t, "SSD", "89.99")

	o, err := e.orderSvc.Create(ctx, u.ID, services.OrderInput{Items: []services.ItemInput{{ProductID: p.ID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.True(t, o.Amount.Equal(decimal.RequireFromString("179.98")))

	mine, err := e.orderSvc.ListForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Items, 1)
	assert.Equal(t, "SSD", mine[0].Items[0].ProductName)
}

func TestOrderVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "mia")
	other := e.user(t, "ned")
	p := e.product(t, "Fan", "15")
	o, err := e.orderSvc.Create(ctx, owner.ID, services.OrderInput{Items: []services.ItemInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = e.orderSvc.Get(ctx, o.ID, owner)
	require.NoError(t, err)
	_, err = e.orderSvc.Get(ctx, o.ID, &domain.User{ID: "root", Role: domain.RoleAdmin})
	require.NoError(t, err)
	_, err = e.orderSvc.Get(ctx, o.ID, other)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.user(t, "olga")
	p := e.product(t, "Lamp", "25")
	o, err := e.orderSvc.Create(ctx, u.ID, services.OrderInput{Items: []services.ItemInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = e.orderSvc.Transition(ctx, o.ID, domain.OrderDelivered)
	require.ErrorIs(t, err, domain.ErrBadStatus)

	for _, next := range []domain.OrderStatus{domain.OrderConfirmed, domain.OrderShipped, domain.OrderDelivered} {
		got, err := e.orderSvc.Transition(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	_, err = e.orderSvc.Transition(ctx, o.ID, domain.OrderCancelled)
	require.ErrorIs(t, err, domain.ErrBadStatus, "delivered is terminal")
}
