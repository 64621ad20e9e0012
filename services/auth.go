package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized wird bei fehlendem oder ungültigem Bearer-Token geliefert.
var ErrUnauthorized = errors.New("Unauthorized")

// UserClaims sind die Claims eines Access-Tokens des Auth-Dienstes.
type UserClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// User ist die aus einem Token aufgelöste Identität.
type User struct {
	ID    string
	Email string
}

// JWTVerifier prüft HS256-signierte Access-Tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier erstellt einen Verifier für das Projekt-Secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify löst ein Token zu einem Benutzer auf. Abgelaufene Tokens und Tokens
// ohne Subject werden abgelehnt.
func (v *JWTVerifier) Verify(tokenString string) (*User, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrUnauthorized)
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*UserClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// BearerToken liest das Token aus einem "Authorization: Bearer ..."-Header.
func BearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
