package service

import (
	"testing"
	"time"

	"gamesup-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccountService() *AccountService {
	return &AccountService{
		secret:   []byte("test-secret"),
		tokenTTL: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	as := testAccountService()

	token, err := as.issueToken(tokenKindStaff, "admin@example.com", "Admin", "manager", models.PermissionMap{"orders": true})
	require.NoError(t, err)

	claims, err := as.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "manager", claims.Role)
	assert.True(t, claims.IsStaff())
	assert.True(t, claims.Permissions["orders"])
}

func TestCustomerTokenIsNotStaff(t *testing.T) {
	as := testAccountService()

	token, err := as.issueToken(tokenKindCustomer, "user@example.com", "User", "", nil)
	require.NoError(t, err)

	claims, err := as.ParseToken(token)
	require.NoError(t, err)
	assert.False(t, claims.IsStaff())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	as := testAccountService()
	token, err := as.issueToken(tokenKindStaff, "admin@example.com", "Admin", "manager", nil)
	require.NoError(t, err)

	other := &AccountService{secret: []byte("other-secret"), tokenTTL: time.Hour}
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidLogin)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	as := testAccountService()
	as.tokenTTL = -time.Minute

	token, err := as.issueToken(tokenKindCustomer, "user@example.com", "User", "", nil)
	require.NoError(t, err)

	_, err = as.ParseToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidLogin)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	as := testAccountService()
	_, err := as.ParseToken("not-a-token")
	assert.ErrorIs(t, err, models.ErrInvalidLogin)
}
