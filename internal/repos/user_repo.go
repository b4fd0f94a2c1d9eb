package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"neurocart/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,username,email,password_hash,role`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO users(id,username,email,password_hash,role,created_at)
		VALUES(?,?,?,?,?,?)
	`), u.ID, u.Username, u.Email, u.Hash, u.Role, ts(time.Now()))
	if isUniqueViolation(err) {
		return domain.ErrDuplicateUser
	}
	return err
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE username=?`, username)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE id=?`, id)
}

func (r *UserRepo) one(ctx context.Context, q string, args ...any) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(q), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSession stores a bearer token for userID valid until expires.
func (r *UserRepo) CreateSession(ctx context.Context, token, userID string, expires time.Time) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO sessions(id,user_id,created_at,expires_at) VALUES(?,?,?,?)
	`), token, userID, ts(time.Now()), ts(expires))
	return err
}

// SessionUser resolves a token to its user. Expired or unknown tokens yield ErrUnauthorized.
func (r *UserRepo) SessionUser(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`
		SELECT u.id,u.username,u.email,u.password_hash,u.role
		FROM sessions s
		JOIN users u ON u.id=s.user_id
		WHERE s.id=? AND s.expires_at > ?`), token, ts(now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) DeleteSession(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE id=?`), token)
	return err
}

// PurgeSessions drops sessions that expired before now.
func (r *UserRepo) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), ts(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
