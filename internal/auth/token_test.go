package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	signed, err := GenerateToken(42)
	assert.NoError(t, err)
	assert.NotEmpty(t, signed)

	token, err := ValidatedToken(signed)
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	claims := token.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, JwtIssuer, claims.Issuer)
}

func TestValidatedToken_RejectsGarbage(t *testing.T) {
	_, err := ValidatedToken("not-a-token")
	assert.Error(t, err)
}
