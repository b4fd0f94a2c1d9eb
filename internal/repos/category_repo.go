package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type CategoryCount struct {
	Category domain.Category `db:"category" json:"category"`
	Products int             `db:"products" json:"products"`
}

// Counts returns how many products sit in each non-empty category.
func (r *CategoryRepo) Counts(ctx context.Context) ([]CategoryCount, error) {
	out := []CategoryCount{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT category, COUNT(*) AS products
		FROM products
		GROUP BY category
		ORDER BY category
	`)
	return out, err
}
