package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "investor-crm",
		MaxRefreshCount:        3,
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Email:       "ada@example.com",
		Role:        "member",
		Permissions: []string{"investor:read", "investor:write"},
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})
	assert.Equal(t, []byte("test-secret"), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestInput())

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, input.TenantID, claims.TenantID)
	assert.Equal(t, input.UserID, claims.UserID)
	assert.Equal(t, input.Email, claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.True(t, claims.HasPermission("investor:write"))
	assert.False(t, claims.HasPermission("user:manage"))
	assert.True(t, claims.HasAnyPermission("user:manage", "investor:read"))
	assert.NotEmpty(t, claims.ID)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(pair.RefreshToken)
		assert.Error(t, err)
	})

	t.Run("access token used as refresh token", func(t *testing.T) {
		_, err := svc.ValidateRefreshToken(pair.AccessToken)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: time.Minute,
			Issuer:                "someone-else",
		})
		_, err := other.ValidateAccessToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &Claims{TenantID: uuid.New(), UserID: uuid.New(), TokenType: TokenTypeAccess}
		claims.Issuer = "investor-crm"
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		input := newTestInput()
		input.TenantID = uuid.Nil
		p, err := svc.GenerateTokenPair(input)
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(p.AccessToken)
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})
}

func TestRefreshTokenPair(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	newPair, old, err := svc.RefreshTokenPair(pair.RefreshToken, "admin", []string{"user:manage"})
	require.NoError(t, err)
	assert.Equal(t, input.UserID, old.UserID)

	claims, err := svc.ValidateAccessToken(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, []string{"user:manage"}, claims.Permissions)

	refreshClaims, err := svc.ValidateRefreshToken(newPair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshClaims.RefreshCount)
	assert.Empty(t, refreshClaims.Role)
}

func TestRefreshTokenPair_MaxRefreshExceeded(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	token := pair.RefreshToken
	for range 3 {
		next, _, err := svc.RefreshTokenPair(token, "member", nil)
		require.NoError(t, err)
		token = next.RefreshToken
	}

	_, _, err = svc.RefreshTokenPair(token, "member", nil)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestClaims_RemainingTTL(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	ttl := claims.RemainingTTL()
	assert.Greater(t, ttl, 14*time.Minute)
	assert.LessOrEqual(t, ttl, 15*time.Minute)
	assert.Zero(t, (&Claims{}).RemainingTTL())
}

func TestStateSigner(t *testing.T) {
	signer := NewStateSigner("state-secret", "investor-crm")
	tenantID, userID := uuid.New(), uuid.New()

	state, err := signer.Sign(tenantID, userID)
	require.NoError(t, err)

	gotTenant, gotUser, err := signer.Verify(state)
	require.NoError(t, err)
	assert.Equal(t, tenantID, gotTenant)
	assert.Equal(t, userID, gotUser)

	_, _, err = NewStateSigner("other-secret", "investor-crm").Verify(state)
	assert.ErrorIs(t, err, ErrInvalidState)

	signer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := signer.Sign(tenantID, userID)
	require.NoError(t, err)
	signer.now = time.Now
	_, _, err = signer.Verify(stale)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateSigner_RejectsAccessTokens(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "shared-secret",
		AccessTokenExpiration: time.Minute,
		Issuer:                "investor-crm",
	})
	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, _, err = NewStateSigner("shared-secret", "investor-crm").Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidState)
}
