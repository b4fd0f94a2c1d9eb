package services

import (
	"context"

	"neurocart/internal/jobs"
	applog "neurocart/internal/log"
)

type WelcomePayload struct {
	UserID string `json:"user_id"`
}

// RegisterJobs wires the coupon and session background work into r.
func RegisterJobs(r *jobs.Runner, coupons *CouponService, auth *AuthService) {
	r.Handle(jobs.KindWelcomeCoupon, func(ctx context.Context, j jobs.Job) error {
		var p WelcomePayload
		if err := j.Decode(&p); err != nil {
			return err
		}
		c, created, err := coupons.IssueWelcome(ctx, p.UserID)
		if err != nil {
			return err
		}
		if created {
			applog.Audit(nil, "coupon.welcome.issued", map[string]any{"user_id": p.UserID, "code": c.Code})
		}
		return nil
	})

	r.Handle(jobs.KindExpireSweep, func(ctx context.Context, j jobs.Job) error {
		n, err := coupons.ExpireSweep(ctx)
		if err != nil {
			return err
		}
		applog.Info(nil, "coupon.expire_sweep", map[string]any{"deactivated": n})
		return nil
	})

	r.Handle(jobs.KindSessionPurge, func(ctx context.Context, j jobs.Job) error {
		n, err := auth.PurgeSessions(ctx)
		if err != nil {
			return err
		}
		applog.Info(nil, "session.purge", map[string]any{"deleted": n})
		return nil
	})
}
