package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type CheckoutRepo struct{ q sqlx.ExtContext }

func NewCheckoutRepo(db *sqlx.DB) *CheckoutRepo { return &CheckoutRepo{q: db} }

func (r *CheckoutRepo) WithTx(tx *sqlx.Tx) *CheckoutRepo { return &CheckoutRepo{q: tx} }

type checkoutRow struct {
	ID         string `db:"id"`
	UserID     string `db:"user_id"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Email      string `db:"email"`
	Address    string `db:"address"`
	Apartment  string `db:"apartment"`
	Country    string `db:"country"`
	State      string `db:"state"`
	ZipCode    string `db:"zip_code"`
	CardName   string `db:"card_name"`
	CardLast4  string `db:"card_last4"`
	Expiration string `db:"expiration"`
	CouponCode string `db:"coupon_code"`
	CreatedAt  string `db:"created_at"`
	OrderID    string `db:"order_id"`
}

type checkoutItemRow struct {
	CheckoutID string `db:"checkout_id"`
	ProductID  string `db:"product_id"`
	Quantity   int    `db:"quantity"`
}

const checkoutCols = `id,user_id,first_name,last_name,email,address,apartment,country,state,zip_code,
  card_name,card_last4,expiration,coupon_code,created_at,COALESCE(order_id,'') AS order_id`

// Create inserts the checkout header and bulk-inserts its lines. The order reference is left empty.
func (r *CheckoutRepo) Create(ctx context.Context, c domain.Checkout) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO checkouts(id,user_id,first_name,last_name,email,address,apartment,country,state,zip_code,
		  card_name,card_last4,expiration,coupon_code,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`), c.ID, c.UserID, c.FirstName, c.LastName, c.Email, c.Address, c.Apartment, c.Country, c.State, c.ZipCode,
		c.CardName, c.CardLast4, c.Expiration, c.CouponCode, ts(c.CreatedAt)); err != nil {
		return err
	}
	for i, it := range c.Items {
		if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
			INSERT INTO checkout_items(checkout_id,position,product_id,quantity) VALUES(?,?,?,?)
		`), c.ID, i, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SetOrder links the checkout to its order. The link is written at most once.
func (r *CheckoutRepo) SetOrder(ctx context.Context, checkoutID, orderID string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE checkouts SET order_id = ? WHERE id = ? AND order_id IS NULL
	`), orderID, checkoutID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("checkout %s already linked: %w", checkoutID, domain.ErrConflict)
	}
	return nil
}

// List returns checkouts newest first; an empty userID lists everyone's.
func (r *CheckoutRepo) List(ctx context.Context, userID string) ([]domain.Checkout, error) {
	q := `SELECT ` + checkoutCols + ` FROM checkouts`
	args := []any{}
	if userID != "" {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at DESC`

	var rows []checkoutRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]domain.Checkout, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	query, inArgs, err := sqlx.In(`
		SELECT checkout_id, product_id, quantity FROM checkout_items
		WHERE checkout_id IN (?)
		ORDER BY checkout_id, position`, ids)
	if err != nil {
		return nil, err
	}
	var items []checkoutItemRow
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), inArgs...); err != nil {
		return nil, err
	}
	byCheckout := map[string][]domain.CheckoutItem{}
	for _, it := range items {
		byCheckout[it.CheckoutID] = append(byCheckout[it.CheckoutID], domain.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	for _, c := range rows {
		out = append(out, domain.Checkout{
			ID: c.ID, UserID: c.UserID, FirstName: c.FirstName, LastName: c.LastName, Email: c.Email,
			Address: c.Address, Apartment: c.Apartment, Country: c.Country, State: c.State, ZipCode: c.ZipCode,
			CardName: c.CardName, CardLast4: c.CardLast4, Expiration: c.Expiration, CouponCode: c.CouponCode,
			CreatedAt: parseTS(c.CreatedAt), OrderID: c.OrderID, Items: byCheckout[c.ID],
		})
	}
	return out, nil
}
