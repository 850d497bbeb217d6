package transport

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTResolver_RoundTrip(t *testing.T) {
	token, err := IssueToken("s3cret", "user-42", time.Hour)
	require.NoError(t, err)

	userID, err := NewJWTResolver("s3cret").ResolveUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-42", userID)
}

func TestJWTResolver_NumericID(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 42}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	userID, err := NewJWTResolver("s3cret").ResolveUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "42", userID)
}

func TestJWTResolver_SubjectFallback(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u9"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	userID, err := NewJWTResolver("s3cret").ResolveUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "u9", userID)
}

func TestJWTResolver_Rejects(t *testing.T) {
	ctx := context.Background()
	resolver := NewJWTResolver("s3cret")

	wrongKey, err := IssueToken("other", "u1", time.Hour)
	require.NoError(t, err)
	_, err = resolver.ResolveUser(ctx, wrongKey)
	require.ErrorIs(t, err, ErrUnauthorized)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = resolver.ResolveUser(ctx, expired)
	require.ErrorIs(t, err, ErrUnauthorized)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "x"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = resolver.ResolveUser(ctx, noUser)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = resolver.ResolveUser(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrUnauthorized)

	valid, err := IssueToken("s3cret", "u1", 0)
	require.NoError(t, err)
	_, err = NewJWTResolver("").ResolveUser(ctx, valid)
	require.ErrorIs(t, err, ErrUnauthorized, "empty secret rejects everything")
}
