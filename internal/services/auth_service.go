package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"neurocart/internal/domain"
	"neurocart/internal/jobs"
	applog "neurocart/internal/log"
	"neurocart/internal/repos"
)

type AuthService struct {
	Users      *repos.UserRepo
	Jobs       jobs.Enqueuer
	SessionTTL time.Duration
	Cost       int // bcrypt cost
	Now        Clock
}

func NewAuthService(users *repos.UserRepo, q jobs.Enqueuer, sessionTTL time.Duration) *AuthService {
	return &AuthService{Users: users, Jobs: q, SessionTTL: sessionTTL, Cost: 12, Now: time.Now}
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,password"`
	Password2 string `json:"password2" validate:"required"`
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// Register creates a USER account and queues the welcome coupon. A queue failure is logged,
// not returned: the account exists either way.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.Password2 {
		return nil, domain.ErrPasswordMismatch
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Username: in.Username, Email: in.Email, Hash: string(h), Role: domain.RoleUser}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	if s.Jobs != nil {
		j, err := jobs.NewJob(jobs.KindWelcomeCoupon, WelcomePayload{UserID: u.ID})
		if err == nil {
			err = s.Jobs.Enqueue(ctx, j, 0)
		}
		if err != nil {
			applog.Error(nil, "coupon.welcome.enqueue.fail", err, map[string]any{"user_id": u.ID})
		}
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.ErrBadCredentials
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return Session{}, domain.ErrBadCredentials
	}
	sess := Session{Token: uuid.NewString(), ExpiresAt: s.Now().Add(s.SessionTTL).UTC(), User: u}
	if err := s.Users.CreateSession(ctx, sess.Token, u.ID, sess.ExpiresAt); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Users.DeleteSession(ctx, token)
}

func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, token, s.Now())
}

// PurgeSessions deletes sessions past their expiry.
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	return s.Users.PurgeSessions(ctx, s.Now())
}
