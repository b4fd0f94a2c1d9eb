package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
)

type ItemInput struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=1000"`
}

type CheckoutInput struct {
	FirstName  string      `json:"first_name" validate:"required,max=100"`
	LastName   string      `json:"last_name" validate:"required,max=100"`
	Email      string      `json:"email" validate:"required,email,max=254"`
	Address    string      `json:"address" validate:"required,max=255"`
	Apartment  string      `json:"apartment" validate:"max=100"`
	Country    string      `json:"country" validate:"required,max=100"`
	State      string      `json:"state" validate:"required,max=100"`
	ZipCode    string      `json:"zip_code" validate:"required,max=20"`
	CardName   string      `json:"card_name" validate:"required,max=100"`
	CardNumber string      `json:"card_number" validate:"required,numeric,min=12,max=19"`
	Expiration string      `json:"expiration" validate:"required,cardexp"`
	CVV        string      `json:"cvv" validate:"required,numeric,min=3,max=4"`
	Coupon     string      `json:"coupon" validate:"omitempty,alphanum,max=32"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

type CheckoutService struct {
	DB        *sqlx.DB
	Prods     *repos.ProductRepo
	Coupons   *repos.CouponRepo
	Orders    *repos.OrderRepo
	Checkouts *repos.CheckoutRepo
	Now       Clock
}

func NewCheckoutService(db *sqlx.DB, prods *repos.ProductRepo, coupons *repos.CouponRepo, orders *repos.OrderRepo, checkouts *repos.CheckoutRepo) *CheckoutService {
	return &CheckoutService{DB: db, Prods: prods, Coupons: coupons, Orders: orders, Checkouts: checkouts, Now: time.Now}
}

// priceLines resolves items against current prices and returns the order lines with their
// total. Every product must exist and every quantity must be positive.
func priceLines(ctx context.Context, prods *repos.ProductRepo, items []ItemInput) ([]domain.OrderItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, domain.ErrEmptyItems
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, decimal.Zero, domain.ErrBadQuantity
		}
		ids = append(ids, it.ProductID)
	}
	byID, err := prods.ByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	lines := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, decimal.Zero, domain.ErrProductNotFound
		}
		line := domain.OrderItem{ProductID: p.ID, ProductName: p.Name, UnitPrice: p.Price, Quantity: it.Quantity}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}
	return lines, total, nil
}

// Place persists the checkout and converts it into a confirmed order in one transaction.
// With a coupon, the order amount is total − coupon.amount and the coupon is consumed; two
// racing checkouts on one coupon produce exactly one order.
func (s *CheckoutService) Place(ctx context.Context, userID string, in CheckoutInput) (domain.Checkout, domain.Order, error) {
	now := s.Now().UTC()
	var (
		co    domain.Checkout
		order domain.Order
	)

	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		prods, coupons := s.Prods.WithTx(tx), s.Coupons.WithTx(tx)

		lines, total, err := priceLines(ctx, prods, in.Items)
		if err != nil {
			return err
		}

		var coupon *domain.Coupon
		if code := strings.ToUpper(strings.TrimSpace(in.Coupon)); code != "" {
			c, err := coupons.ByCode(ctx, code)
			if err != nil {
				return err
			}
			if err := checkCoupon(c, userID, total, now); err != nil {
				return err
			}
			coupon = &c
		}

		co = domain.Checkout{
			ID: uuid.NewString(), UserID: userID,
			FirstName: in.FirstName, LastName: in.LastName, Email: in.Email,
			Address: in.Address, Apartment: in.Apartment, Country: in.Country, State: in.State, ZipCode: in.ZipCode,
			CardName: in.CardName, CardLast4: last4(in.CardNumber), Expiration: in.Expiration,
			CreatedAt: now,
		}
		for _, it := range in.Items {
			co.Items = append(co.Items, domain.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if coupon != nil {
			co.CouponCode = coupon.Code
		}
		if err := s.Checkouts.WithTx(tx).Create(ctx, co); err != nil {
			return err
		}

		amount := total
		if coupon != nil {
			if err := coupons.Redeem(ctx, coupon.ID, now); err != nil {
				return err
			}
			amount = total.Sub(coupon.Amount)
		}

		order = domain.Order{
			ID: uuid.NewString(), UserID: userID, Amount: amount,
			Status: domain.OrderConfirmed, CreatedAt: now, Items: lines,
		}
		if err := s.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		if err := s.Checkouts.WithTx(tx).SetOrder(ctx, co.ID, order.ID); err != nil {
			return err
		}
		co.OrderID = order.ID
		return nil
	})
	if err != nil {
		return domain.Checkout{}, domain.Order{}, err
	}
	return co, order, nil
}

// List returns the caller's checkouts, or everyone's for an admin.
func (s *CheckoutService) List(ctx context.Context, u *domain.User) ([]domain.Checkout, error) {
	if u.IsAdmin() {
		return s.Checkouts.List(ctx, "")
	}
	return s.Checkouts.List(ctx, u.ID)
}

func last4(card string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, card)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
