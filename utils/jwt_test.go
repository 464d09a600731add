package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-length-123"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "a@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT("Bearer "+token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.AccountID())
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestValidateJWTRejects(t *testing.T) {
	expired, err := GenerateJWT("user-1", "", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, testSecret)
	assert.Error(t, err)

	other, err := GenerateJWT("user-1", "", "another-secret-another-secret-00", time.Hour)
	require.NoError(t, err)
	_, err = ValidateJWT(other, testSecret)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(raw, testSecret)
	assert.Error(t, err)
}

func TestValidateJWTSubClaim(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "provider-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := ValidateJWT(raw, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "provider-42", claims.AccountID())
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}
