package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gateway-service/internal/gateway"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"user_id": float64(42), "role": "admin"})

	identity, err := v.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, gateway.Identity{UserID: 42, Role: "admin"}, identity)
}

func TestVerifyDefaultsRoleToUser(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"user_id": float64(7)})

	identity, err := v.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, gateway.RoleUser, identity.Role)
}

func TestVerifyStripsBearerPrefix(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{"user_id": float64(7)})

	_, err := v.Verify("Bearer " + token)

	assert.NoError(t, err)
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	v := NewVerifier(testSecret)

	_, err := v.Verify("")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewVerifier("other-secret")
	token := signToken(t, jwt.MapClaims{"user_id": float64(7)})

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewVerifier(testSecret)
	token := signToken(t, jwt.MapClaims{
		"user_id": float64(7),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNonPositiveUserID(t *testing.T) {
	v := NewVerifier(testSecret)

	_, err := v.Verify(signToken(t, jwt.MapClaims{"user_id": float64(0)}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(signToken(t, jwt.MapClaims{"role": "admin"}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
