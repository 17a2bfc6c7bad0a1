package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/auth"
	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("usr-7", domain.RoleAgent)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-7", claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", 60)
	verifier := auth.NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken("usr-7", domain.RoleAgent)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", 60)
	_, err := tm.ParseToken("not.a.token")
	assert.Error(t, err)
}
