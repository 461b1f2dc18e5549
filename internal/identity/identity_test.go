package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	token, err := SignToken("secret", Identity{
		UID:     "user-1",
		Email:   "ann@example.com",
		Name:    "Ann",
		Picture: "https://example.com/ann.png",
	}, time.Hour)
	require.NoError(t, err)

	ident, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UID)
	assert.Equal(t, "ann@example.com", ident.Email)
	assert.Equal(t, "Ann", ident.Name)
	assert.Equal(t, "https://example.com/ann.png", ident.Picture)
}

func TestVerifyExpiredToken(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	token, err := SignToken("secret", Identity{UID: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	token, err := SignToken("other-secret", Identity{UID: "user-1"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyMissingSubject(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	token, err := SignToken("secret", Identity{Email: "anon@example.com"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbageToken(t *testing.T) {
	verifier := NewJWTVerifier("secret")

	_, err := verifier.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
