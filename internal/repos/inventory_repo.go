package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

type InventoryRow struct {
	ProductID string `db:"id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// Low lists products with quantity at or below threshold, scarcest first.
func (r *InventoryRepo) Low(ctx context.Context, threshold int) ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT id, name, quantity
		FROM products
		WHERE quantity <= ?
		ORDER BY quantity, name
	`), threshold)
	return rows, err
}

// SetQty overwrites the on-hand quantity of a product.
func (r *InventoryRepo) SetQty(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET quantity = ?, updated_at = ? WHERE id = ?
	`), qty, ts(time.Now()), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
