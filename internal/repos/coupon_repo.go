package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"neurocart/internal/domain"
)

var ErrCouponExists = fmt.Errorf("coupon code or owner already taken: %w", domain.ErrConflict)

type CouponRepo struct{ q sqlx.ExtContext }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{q: db} }

func (r *CouponRepo) WithTx(tx *sqlx.Tx) *CouponRepo { return &CouponRepo{q: tx} }

type couponRow struct {
	ID        string          `db:"id"`
	UserID    sql.NullString  `db:"user_id"`
	Code      string          `db:"code"`
	Amount    decimal.Decimal `db:"amount"`
	ExpiresAt string          `db:"expires_at"`
	IsActive  bool            `db:"is_active"`
}

func (r couponRow) toDomain() domain.Coupon {
	return domain.Coupon{
		ID: r.ID, UserID: r.UserID.String, Code: r.Code, Amount: r.Amount,
		ExpiresAt: parseTS(r.ExpiresAt), IsActive: r.IsActive,
	}
}

const couponCols = `id, user_id, code, amount, expires_at, is_active`

func (r *CouponRepo) Create(ctx context.Context, c domain.Coupon) error {
	owner := sql.NullString{String: c.UserID, Valid: c.UserID != ""}
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO coupons(id,user_id,code,amount,expires_at,is_active)
		VALUES(?,?,?,?,?,?)
	`), c.ID, owner, c.Code, c.Amount, ts(c.ExpiresAt), c.IsActive)
	if isUniqueViolation(err) {
		return ErrCouponExists
	}
	return err
}

func (r *CouponRepo) ByCode(ctx context.Context, code string) (domain.Coupon, error) {
	return r.one(ctx, `SELECT `+couponCols+` FROM coupons WHERE code = ?`, code)
}

func (r *CouponRepo) ByUser(ctx context.Context, userID string) (domain.Coupon, error) {
	return r.one(ctx, `SELECT `+couponCols+` FROM coupons WHERE user_id = ?`, userID)
}

func (r *CouponRepo) one(ctx context.Context, q string, arg string) (domain.Coupon, error) {
	var row couponRow
	err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(q), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	if err != nil {
		return domain.Coupon{}, err
	}
	return row.toDomain(), nil
}

func (r *CouponRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM coupons WHERE code = ?`), code)
	return n > 0, err
}

// Redeem flips an active, unexpired coupon to inactive. Exactly one concurrent caller wins;
// everyone else gets ErrCouponUnusable.
func (r *CouponRepo) Redeem(ctx context.Context, id string, now time.Time) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE coupons
		SET is_active = ?
		WHERE id = ? AND is_active = ? AND expires_at > ?
	`), false, id, true, ts(now))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrCouponUnusable
	}
	return nil
}

// DeactivateExpired marks every active coupon whose expiry is before now as inactive.
func (r *CouponRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE coupons SET is_active = ? WHERE is_active = ? AND expires_at < ?
	`), false, true, ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
