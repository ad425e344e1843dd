package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gateway-service/internal/gateway"
)

// ErrInvalidToken is returned for missing, malformed or expired credentials.
// The connection is terminated immediately; the gateway never retries auth.
var ErrInvalidToken = errors.New("invalid token")

// Verifier validates the bearer credential presented at connection time and
// yields the identity behind it.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates tokenString and extracts (userID, role) from
// its claims. A "Bearer " prefix is tolerated since clients pass the token
// through a query parameter on the websocket handshake.
func (v *Verifier) Verify(tokenString string) (gateway.Identity, error) {
	if tokenString == "" {
		return gateway.Identity{}, ErrInvalidToken
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return gateway.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return gateway.Identity{}, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return gateway.Identity{}, ErrInvalidToken
	}

	role := gateway.RoleUser
	if r, ok := claims["role"].(string); ok && r != "" {
		role = r
	}

	return gateway.Identity{UserID: uint(userID), Role: role}, nil
}
