package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a bearer token fails verification
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity holds the authenticated user attributes asserted by the identity
// provider's token
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// Claims is the token payload issued by the identity provider
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens and extracts the asserted identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier verifies HS256-signed bearer tokens
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with the given secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify validates the token signature and expiry and returns the identity
func (v *JWTVerifier) Verify(_ context.Context, tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UID:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// SignToken issues an HS256 token for the given identity. Used by tests and
// local tooling; production tokens come from the identity provider.
func SignToken(secret string, ident Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		Email:   ident.Email,
		Name:    ident.Name,
		Picture: ident.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.UID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
