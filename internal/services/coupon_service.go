package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
)

const (
	couponCodeLen      = 8
	couponCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type CouponService struct {
	Coupons       *repos.CouponRepo
	WelcomeAmount decimal.Decimal
	WelcomeTTL    time.Duration
	Now           Clock
}

func NewCouponService(coupons *repos.CouponRepo, amount decimal.Decimal, ttl time.Duration) *CouponService {
	return &CouponService{Coupons: coupons, WelcomeAmount: amount, WelcomeTTL: ttl, Now: time.Now}
}

// checkCoupon applies the redemption rules to a loaded coupon. An empty userID skips the
// owner check.
func checkCoupon(c domain.Coupon, userID string, total decimal.Decimal, now time.Time) error {
	if !c.Usable(now) {
		return domain.ErrCouponUnusable
	}
	if userID != "" && c.UserID != "" && c.UserID != userID {
		return domain.ErrCouponNotOwned
	}
	if total.LessThanOrEqual(c.Amount) {
		return domain.ErrCouponExceedsTotal
	}
	return nil
}

// Validate checks code against total without changing anything and returns the coupon with
// the discounted total.
func (s *CouponService) Validate(ctx context.Context, code string, total decimal.Decimal) (domain.Coupon, decimal.Decimal, error) {
	return s.ValidateFor(ctx, "", code, total)
}

// ValidateFor is Validate plus the owner check for userID.
func (s *CouponService) ValidateFor(ctx context.Context, userID, code string, total decimal.Decimal) (domain.Coupon, decimal.Decimal, error) {
	c, err := s.Coupons.ByCode(ctx, code)
	if err != nil {
		return domain.Coupon{}, decimal.Zero, err
	}
	if err := checkCoupon(c, userID, total, s.Now()); err != nil {
		return c, decimal.Zero, err
	}
	return c, total.Sub(c.Amount), nil
}

// Lookup returns a coupon only to its owner or an admin; anyone else sees not found.
func (s *CouponService) Lookup(ctx context.Context, code string, u *domain.User) (domain.Coupon, error) {
	c, err := s.Coupons.ByCode(ctx, code)
	if err != nil {
		return c, err
	}
	if u.IsAdmin() || (u != nil && c.UserID == u.ID) {
		return c, nil
	}
	return domain.Coupon{}, domain.ErrCouponNotFound
}

func (s *CouponService) ForUser(ctx context.Context, userID string) (domain.Coupon, error) {
	return s.Coupons.ByUser(ctx, userID)
}

// IssueWelcome gives userID a fresh coupon unless they already own one. It returns
// created=false when nothing was issued.
func (s *CouponService) IssueWelcome(ctx context.Context, userID string) (c domain.Coupon, created bool, err error) {
	if existing, err := s.Coupons.ByUser(ctx, userID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Coupon{}, false, err
	}

	for tries := 0; tries < 5; tries++ {
		code, err := newCouponCode()
		if err != nil {
			return domain.Coupon{}, false, err
		}
		taken, err := s.Coupons.CodeExists(ctx, code)
		if err != nil {
			return domain.Coupon{}, false, err
		}
		if taken {
			continue
		}
		c = domain.Coupon{
			ID:        uuid.NewString(),
			UserID:    userID,
			Code:      code,
			Amount:    s.WelcomeAmount,
			ExpiresAt: s.Now().Add(s.WelcomeTTL).UTC(),
			IsActive:  true,
		}
		err = s.Coupons.Create(ctx, c)
		if errors.Is(err, repos.ErrCouponExists) {
			// a concurrent issue for the same user, or a code race; re-check ownership
			if existing, e := s.Coupons.ByUser(ctx, userID); e == nil {
				return existing, false, nil
			}
			continue
		}
		if err != nil {
			return domain.Coupon{}, false, err
		}
		return c, true, nil
	}
	return domain.Coupon{}, false, fmt.Errorf("could not allocate a unique coupon code: %w", domain.ErrConflict)
}

// ExpireSweep deactivates every coupon past its expiry.
func (s *CouponService) ExpireSweep(ctx context.Context) (int64, error) {
	return s.Coupons.DeactivateExpired(ctx, s.Now())
}

func newCouponCode() (string, error) {
	b := make([]byte, couponCodeLen)
	n := big.NewInt(int64(len(couponCodeAlphabet)))
	for i := range b {
		k, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = couponCodeAlphabet[k.Int64()]
	}
	return string(b), nil
}
