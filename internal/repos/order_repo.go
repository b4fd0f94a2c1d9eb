package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"neurocart/internal/domain"
)

type OrderRepo struct{ q sqlx.ExtContext }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{q: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{q: tx} }

type orderRow struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"`
	Status    string          `db:"status"`
	CreatedAt string          `db:"created_at"`
}

type orderItemRow struct {
	OrderID     string          `db:"order_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
}

// Create inserts the order header followed by its lines in order.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO orders(id,user_id,amount,status,created_at) VALUES(?,?,?,?,?)
	`), o.ID, o.UserID, o.Amount, string(o.Status), ts(o.CreatedAt)); err != nil {
		return err
	}
	for i, it := range o.Items {
		if _, err := r.q.ExecContext(ctx, r.q.Rebind(`
			INSERT INTO order_items(order_id,position,product_id,product_name,unit_price,quantity)
			VALUES(?,?,?,?,?,?)
		`), o.ID, i, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(`
		SELECT id,user_id,amount,status,created_at FROM orders WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	out, err := r.withItems(ctx, []orderRow{row})
	if err != nil {
		return domain.Order{}, err
	}
	return out[0], nil
}

// ListByUser returns the user's orders, newest first, with lines.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(`
		SELECT id,user_id,amount,status,created_at FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
	`), userID); err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

// Count returns the number of orders.
func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

// UpdateStatus moves an order from expected to next. A concurrent change yields ErrStatusMismatch.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE orders SET status = ? WHERE id = ? AND status = ?
	`), string(next), id, string(expected))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStatusMismatch
	}
	return nil
}

func (r *OrderRepo) withItems(ctx context.Context, rows []orderRow) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	query, args, err := sqlx.In(`
		SELECT order_id, product_id, product_name, unit_price, quantity
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	var items []orderItemRow
	if err := sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	byOrder := map[string][]domain.OrderItem{}
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], domain.OrderItem{
			ProductID: it.ProductID, ProductName: it.ProductName, UnitPrice: it.UnitPrice, Quantity: it.Quantity,
		})
	}
	for _, o := range rows {
		out = append(out, domain.Order{
			ID: o.ID, UserID: o.UserID, Amount: o.Amount, Status: domain.OrderStatus(o.Status),
			CreatedAt: parseTS(o.CreatedAt), Items: byOrder[o.ID],
		})
	}
	return out, nil
}

