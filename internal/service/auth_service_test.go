package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/config"
	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

func newAuthFixture(t *testing.T) (*service.AuthService, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 60
	cfg.Auth.BcryptCost = 4 // minimum cost keeps the suite fast
	return service.NewAuthService(cfg, users), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, token, expiresAt, err := svc.Register(context.Background(), "Pat", "pat@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	loggedIn, token, _, err := svc.Login(context.Background(), "PAT@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, _, err := svc.Register(context.Background(), "Pat", "pat@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, _, err = svc.Register(context.Background(), "Other", "pat@example.com", "different-pass")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, users := newAuthFixture(t)

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	user, _, _, err := svc.Register(context.Background(), "Pat", "pat@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "pat@example.com", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	// disabled accounts cannot log in even with good credentials
	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	stored.IsActive = false
	require.NoError(t, users.Create(context.Background(), stored))

	_, _, _, err = svc.Login(context.Background(), "pat@example.com", "s3cret-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, _, _, err := svc.Register(context.Background(), "Pat", "pat@example.com", "s3cret-pass")
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), user.ID, "wrong-pass", "new-password")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	err = svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "short")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "s3cret-pass", "new-password"))

	_, _, _, err = svc.Login(context.Background(), "pat@example.com", "new-password")
	require.NoError(t, err)
	_, _, _, err = svc.Login(context.Background(), "pat@example.com", "s3cret-pass")
	require.Error(t, err)
}
