package services

import (
	"context"
	"testing"
	"time"

	"opsflow/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	service := NewTokenService(config.Config{JWTSecret: "secret", JWTIssuer: "auth.example.com"})
	profileID := uuid.New()

	token, err := service.IssueToken(profileID, "a@example.com", time.Hour)
	require.NoError(t, err)

	info, err := service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, profileID, info.ProfileID)
	assert.Equal(t, "a@example.com", info.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), info.ExpiresAt, 5*time.Second)
}

func TestTokenService_Rejects(t *testing.T) {
	service := NewTokenService(config.Config{JWTSecret: "secret", JWTIssuer: "auth.example.com"})
	ctx := context.Background()

	t.Run("Expired", func(t *testing.T) {
		token, err := service.IssueToken(uuid.New(), "", -time.Minute)
		require.NoError(t, err)
		_, err = service.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenService(config.Config{JWTSecret: "other", JWTIssuer: "auth.example.com"})
		token, err := other.IssueToken(uuid.New(), "", time.Hour)
		require.NoError(t, err)
		_, err = service.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		other := NewTokenService(config.Config{JWTSecret: "secret", JWTIssuer: "elsewhere"})
		token, err := other.IssueToken(uuid.New(), "", time.Hour)
		require.NoError(t, err)
		_, err = service.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Subject is not a profile id", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    "auth.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = service.ValidateToken(ctx, token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.ValidateToken(ctx, "not-a-token")
		assert.Error(t, err)
	})
}
