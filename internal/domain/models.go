package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryGaming      Category = "gaming"
	CategoryDigital     Category = "digital_goods"
	CategoryDIY         Category = "diy"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryGaming, CategoryDigital, CategoryDIY, CategoryOther:
		return true
	}
	return false
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Category    Category        `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Rating      float64         `db:"rating" json:"rating"` // average of reviews, 0 when none
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"-"`
	Username  string    `json:"user"`
	Rate      int       `json:"rate"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created"`
}

// Coupon is a single-use flat discount. UserID is empty for unbound coupons.
type Coupon struct {
	ID        string          `json:"-"`
	UserID    string          `json:"-"`
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
	ExpiresAt time.Time       `json:"expires_at"`
	IsActive  bool            `json:"is_active"`
}

// Usable reports whether the coupon may still be redeemed at now.
func (c Coupon) Usable(now time.Time) bool {
	return c.IsActive && now.Before(c.ExpiresAt)
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Checkout struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Email      string         `json:"email"`
	Address    string         `json:"address"`
	Apartment  string         `json:"apartment,omitempty"`
	Country    string         `json:"country"`
	State      string         `json:"state"`
	ZipCode    string         `json:"zip_code"`
	CardName   string         `json:"card_name"`
	CardLast4  string         `json:"card_last4"`
	Expiration string         `json:"expiration"`
	CouponCode string         `json:"coupon,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	OrderID    string         `json:"order_id,omitempty"`
	Items      []CheckoutItem `json:"items"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order in status s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user"`
	Amount    decimal.Decimal `json:"amount"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"order_date"`
	Items     []OrderItem     `json:"items"`
}
