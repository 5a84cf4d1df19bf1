package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/user"
	"github.com/example/goshop/internal/repository/sqlstore"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewUserService(sqlstore.NewUserRepository(db), &config.JWTConfig{Secret: "test", TTL: time.Hour})

	u, err := svc.Register(ctx, &RegisterRequest{Email: " Jane@Test.com ", Password: "password123", FirstName: "Jane", PhoneNumber: "0712345678"})
	require.NoError(t, err)
	assert.Equal(t, "jane@test.com", u.Email)
	assert.Equal(t, user.TypeCustomer, u.UserType)
	assert.NotEqual(t, "password123", u.Password)

	_, err = svc.Register(ctx, &RegisterRequest{Email: "jane@test.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, &RegisterRequest{Email: "short@test.com", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	token, logged, err := svc.Login(ctx, "jane@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)

	_, _, err = svc.Login(ctx, "jane@test.com", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(ctx, "nobody@test.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.AdminLogin(ctx, "jane@test.com", "password123")
	assert.ErrorIs(t, err, ErrForbidden)

	admin, err := svc.CreateAdmin(ctx, &RegisterRequest{Email: "admin@test.com", Password: "adminpass1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	_, _, err = svc.AdminLogin(ctx, "admin@test.com", "adminpass1")
	assert.NoError(t, err)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
