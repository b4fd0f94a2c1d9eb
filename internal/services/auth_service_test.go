package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocart/internal/domain"
	"neurocart/internal/jobs"
	"neurocart/internal/services"
)

func TestRegisterEnqueuesWelcomeCoupon(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.auth.Register(ctx, services.RegisterInput{Username: "hank", Email: "hank@example.test", Password: "s3cretpass", Password2: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, "s3cretpass", u.Hash)

	require.Equal(t, 1, e.queue.Len())
	j, err := e.queue.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.KindWelcomeCoupon, j.Kind)
	var p services.WelcomePayload
	require.NoError(t, j.Decode(&p))
	assert.Equal(t, u.ID, p.UserID)
}

func TestRegisterRejectsMismatchAndDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, services.RegisterInput{Username: "ivy", Email: "ivy@example.test", Password: "s3cretpass", Password2: "different1"})
	require.ErrorIs(t, err, domain.ErrPasswordMismatch)
	require.ErrorIs(t, err, domain.ErrInvalid)
	assert.Zero(t, e.queue.Len())

	in := services.RegisterInput{Username: "ivy", Email: "ivy@example.test", Password: "s3cretpass", Password2: "s3cretpass"}
	_, err = e.auth.Register(ctx, in)
	require.NoError(t, err)
	_, err = e.auth.Register(ctx, in)
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginSessionLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.auth.Register(ctx, services.RegisterInput{Username: "jack", Email: "jack@example.test", Password: "s3cretpass", Password2: "s3cretpass"})
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "jack", "wrong-pass1")
	require.ErrorIs(t, err, domain.ErrBadCredentials)
	_, err = e.auth.Login(ctx, "nobody", "s3cretpass")
	require.ErrorIs(t, err, domain.ErrBadCredentials)

	sess, err := e.auth.Login(ctx, "jack", "s3cretpass")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	u, err := e.auth.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "jack", u.Username)

	e.auth.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = e.auth.CurrentUser(ctx, sess.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized, "session expired")

	e.auth.Now = time.Now
	require.NoError(t, e.auth.Logout(ctx, sess.Token))
	_, err = e.auth.CurrentUser(ctx, sess.Token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
