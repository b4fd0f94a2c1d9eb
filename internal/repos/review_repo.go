package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

type reviewRow struct {
	ID        string `db:"id"`
	ProductID string `db:"product_id"`
	UserID    string `db:"user_id"`
	Username  string `db:"username"`
	Rate      int    `db:"rate"`
	Comment   string `db:"comment"`
	CreatedAt string `db:"created_at"`
}

func (r reviewRow) toDomain() domain.Review {
	return domain.Review{
		ID: r.ID, ProductID: r.ProductID, UserID: r.UserID, Username: r.Username,
		Rate: r.Rate, Comment: r.Comment, CreatedAt: parseTS(r.CreatedAt),
	}
}

// Create inserts rv; a second review by the same user on the same product is ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rv domain.Review) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO reviews(id,product_id,user_id,rate,comment,created_at)
		VALUES(?,?,?,?,?,?)
	`), rv.ID, rv.ProductID, rv.UserID, rv.Rate, rv.Comment, ts(rv.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateReview
	}
	return err
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT rv.id, rv.product_id, rv.user_id, u.username, rv.rate, rv.comment, rv.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = ?
		ORDER BY rv.created_at DESC
	`), productID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

