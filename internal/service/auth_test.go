package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davshiv20/PingPollz/internal/model"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	svc, err := NewAuthService("letmein", "test-secret")
	require.NoError(t, err)
	return svc
}

func TestLogin(t *testing.T) {
	svc := newAuth(t)

	pair, err := svc.Login("letmein")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Login("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateAccessToken(t *testing.T) {
	svc := newAuth(t)

	pair, err := svc.Login("letmein")
	require.NoError(t, err)

	role, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RolePresenter, role)

	_, err = svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A refresh token is not an access token.
	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	svc := newAuth(t)

	pair, err := svc.Login("letmein")
	require.NoError(t, err)

	fresh, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	role, err := svc.ValidateAccessToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RolePresenter, role)

	// An access token cannot refresh.
	_, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensRejectedAcrossSecrets(t *testing.T) {
	svc := newAuth(t)
	other, err := NewAuthService("letmein", "different-secret")
	require.NoError(t, err)

	pair, err := svc.Login("letmein")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
