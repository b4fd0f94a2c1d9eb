package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
)

type OrderService struct {
	DB     *sqlx.DB
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
	Now    Clock
}

func NewOrderService(db *sqlx.DB, prods *repos.ProductRepo, orders *repos.OrderRepo) *OrderService {
	return &OrderService{DB: db, Prods: prods, Orders: orders, Now: time.Now}
}

type OrderInput struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create records a pending order priced server-side, without a checkout or coupon.
func (s *OrderService) Create(ctx context.Context, userID string, in OrderInput) (domain.Order, error) {
	var o domain.Order
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		lines, total, err := priceLines(ctx, s.Prods.WithTx(tx), in.Items)
		if err != nil {
			return err
		}
		o = domain.Order{
			ID: uuid.NewString(), UserID: userID, Amount: total,
			Status: domain.OrderPending, CreatedAt: s.Now().UTC(), Items: lines,
		}
		return s.Orders.WithTx(tx).Create(ctx, o)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

// Get returns an order visible to u: its owner or an admin. Others get not found.
func (s *OrderService) Get(ctx context.Context, id string, u *domain.User) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return o, err
	}
	if !u.IsAdmin() && (u == nil || o.UserID != u.ID) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

// Transition moves an order to next if the lifecycle allows it from its current status.
func (s *OrderService) Transition(ctx context.Context, id string, next domain.OrderStatus) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return o, err
	}
	if !o.Status.CanTransition(next) {
		return o, domain.ErrBadStatus
	}
	if err := s.Orders.UpdateStatus(ctx, id, o.Status, next); err != nil {
		return o, err
	}
	o.Status = next
	return o, nil
}
