// internal/pkg/auth/jwt_test.go
package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
)

const testSecret = "test-secret-key-at-least-32-characters"

func testManager() *JWTManager {
	return NewJWTManager(&config.Config{
		JWT: config.JWTConfig{Secret: testSecret, Issuer: "storefront-identity"},
	})
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateAccessToken(t *testing.T) {
	manager := testManager()

	signed := signToken(t, testSecret, Claims{
		UserID:  7,
		Email:   "jordan@example.com",
		IsStaff: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := manager.ValidateAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "jordan@example.com", claims.Email)
	assert.True(t, claims.IsStaff)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	manager := testManager()

	signed := signToken(t, "another-secret-key-also-32-chars-long", Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := manager.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	manager := testManager()

	signed := signToken(t, testSecret, Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := manager.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestValidateAccessToken_MissingUserID(t *testing.T) {
	manager := testManager()

	signed := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := manager.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc123", ExtractTokenFromHeader("Bearer abc123"))
	assert.Equal(t, "abc123", ExtractTokenFromHeader("bearer abc123"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
	assert.Equal(t, "", ExtractTokenFromHeader("abc123"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc123"))
}
