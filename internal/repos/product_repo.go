package repos

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{q: db} }

// WithTx returns a repo bound to tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{q: tx} }

const productSelect = `
  SELECT
    p.id, p.name, p.price, p.quantity, p.category, p.description,
    COALESCE((SELECT AVG(rv.rate) FROM reviews rv WHERE rv.product_id = p.id), 0) AS rating
  FROM products p`

type ProductFilter struct {
	Category domain.Category
	Query    string
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, string(f.Category))
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.q, &out,
		r.q.Rebind(productSelect+` WHERE `+strings.Join(where, " AND ")+` ORDER BY p.name`), args...)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(productSelect+` WHERE p.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrProductNotFound
	}
	return p, err
}

// ByIDs loads the given products keyed by id. Missing ids are simply absent.
func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(productSelect+` WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	now := ts(time.Now())
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO products(id,name,price,quantity,category,description,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?)
	`), p.ID, p.Name, p.Price, p.Quantity, string(p.Category), p.Description, now, now)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products
		SET name=?, price=?, quantity=?, category=?, description=?, updated_at=?
		WHERE id=?
	`), p.Name, p.Price, p.Quantity, string(p.Category), p.Description, ts(time.Now()), p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
