package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Signup(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn)
	ctx := context.Background()

	u, err := svc.Signup(ctx, " Reader@Example.COM ", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", u.Email)
	assert.Equal(t, "reader", u.Nickname)
	assert.NotEqual(t, "secret1", u.Password)

	_, err = svc.Signup(ctx, "reader@example.com", "another1", "dup")
	assert.ErrorIs(t, err, ErrUserExist)

	_, err = svc.Signup(ctx, "short@example.com", "12345", "")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Signup(ctx, "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrParamInvalid)

	named, err := svc.Signup(ctx, "named@example.com", "secret1", "  책벌레 ")
	require.NoError(t, err)
	assert.Equal(t, "책벌레", named.Nickname)
}

func TestUserService_Authenticate(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "reader@example.com", "secret1", "reader")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "READER@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = svc.Authenticate(ctx, "reader@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)
}

func TestUserService_UpdateProfile(t *testing.T) {
	conn := newTestDB(t)
	svc := NewUserService(conn)
	ctx := context.Background()
	a := createUser(t, conn, "a")

	avatar := "/uploads/avatar.png"
	u, err := svc.UpdateProfile(ctx, a.ID, " 새이름 ", &avatar)
	require.NoError(t, err)
	assert.Equal(t, "새이름", u.Nickname)
	assert.Equal(t, avatar, u.ProfileImage)

	u, err = svc.UpdateProfile(ctx, a.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "새이름", u.Nickname)

	_, err = svc.UpdateProfile(ctx, 0, "x", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
